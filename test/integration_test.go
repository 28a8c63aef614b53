// ABOUTME: Integration tests for the vitals CLI.
// ABOUTME: Builds the binary and exercises the full record/query workflow.
package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFullWorkflow(t *testing.T) {
	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	vitalsBinary := filepath.Join(projectRoot, "vitals")

	buildCmd := exec.Command("go", "build", "-o", vitalsBinary, "./cmd/vitals")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}
	defer os.Remove(vitalsBinary)

	// Point data and config at a temp directory
	tmpDir := t.TempDir()

	run := func(args ...string) (string, error) {
		cmd := exec.Command(vitalsBinary, args...)
		cmd.Env = append(os.Environ(),
			"XDG_DATA_HOME="+tmpDir,
			"XDG_CONFIG_HOME="+tmpDir,
		)
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	// Register a subject
	output, err := run("subject", "add")
	if err != nil {
		t.Fatalf("Failed to add subject: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Added user subject") {
		t.Errorf("Expected 'Added user subject' in output, got: %s", output)
	}

	// Define metrics
	output, err = run("metric", "add", "weight", "Weight", "float", "--unit", "kg")
	if err != nil {
		t.Fatalf("Failed to add metric: %v\n%s", err, output)
	}
	if _, err = run("metric", "add", "steps", "Steps", "integer"); err != nil {
		t.Fatalf("Failed to add steps metric: %v", err)
	}

	// Record observations, by code and by id
	output, err = run("record", "1", "weight", "82.5", "--at", "2025-01-31 08:00")
	if err != nil {
		t.Fatalf("Failed to record: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Recorded weight") {
		t.Errorf("Expected 'Recorded weight' in output, got: %s", output)
	}
	if _, err = run("record", "1", "1", "81.9", "--at", "2025-02-01 08:00"); err != nil {
		t.Fatalf("Failed to record by id: %v", err)
	}
	if _, err = run("record", "1", "steps", "10400", "--at", "2025-01-31 08:00"); err != nil {
		t.Fatalf("Failed to record steps: %v", err)
	}

	// Raw series, ascending
	output, err = run("series", "1", "weight")
	if err != nil {
		t.Fatalf("Failed to query series: %v\n%s", err, output)
	}
	if !strings.Contains(output, "82.5") || !strings.Contains(output, "81.9") {
		t.Errorf("Expected both values in series output, got: %s", output)
	}
	first := strings.Index(output, "82.5")
	second := strings.Index(output, "81.9")
	if first > second {
		t.Errorf("Expected ascending order in series output, got: %s", output)
	}

	// Inclusive range bound keeps the point at --from
	output, err = run("series", "1", "weight", "--from", "2025-02-01")
	if err != nil {
		t.Fatalf("Failed to query ranged series: %v\n%s", err, output)
	}
	if strings.Contains(output, "82.5") || !strings.Contains(output, "81.9") {
		t.Errorf("Expected only the later value in ranged output, got: %s", output)
	}

	// Latest by observation time
	output, err = run("latest", "1", "weight")
	if err != nil {
		t.Fatalf("Failed to get latest: %v\n%s", err, output)
	}
	if !strings.Contains(output, "81.9") {
		t.Errorf("Expected '81.9' in latest output, got: %s", output)
	}

	// Derived recipe over aligned timestamps
	output, err = run("recipe", "add-derived", "load", "Daily Load", "float",
		"--deps", "1,2", "--calc", "sum_v1")
	if err != nil {
		t.Fatalf("Failed to add recipe: %v\n%s", err, output)
	}
	output, err = run("recipe", "query", "1", "1")
	if err != nil {
		t.Fatalf("Failed to query recipe: %v\n%s", err, output)
	}
	// Only 2025-01-31 has both deps; 2025-02-01 is skipped.
	if !strings.Contains(output, "10482.5") {
		t.Errorf("Expected derived value 10482.5 in output, got: %s", output)
	}
	if strings.Contains(output, "2025-02-01") {
		t.Errorf("Expected row with missing dependency to be skipped, got: %s", output)
	}

	// Listings
	output, err = run("metric", "list")
	if err != nil {
		t.Fatalf("Failed to list metrics: %v\n%s", err, output)
	}
	if !strings.Contains(output, "weight") {
		t.Errorf("Expected 'weight' in metric list, got: %s", output)
	}
	output, err = run("recipe", "list")
	if err != nil {
		t.Fatalf("Failed to list recipes: %v\n%s", err, output)
	}
	if !strings.Contains(output, "sum_v1") {
		t.Errorf("Expected 'sum_v1' in recipe list, got: %s", output)
	}

	// Deprecated metrics leave history readable but drop out of listings
	output, err = run("metric", "deprecate", "2")
	if err != nil {
		t.Fatalf("Failed to deprecate metric: %v\n%s", err, output)
	}
	output, err = run("metric", "list")
	if err != nil {
		t.Fatalf("Failed to list metrics: %v\n%s", err, output)
	}
	if strings.Contains(output, "steps") {
		t.Errorf("Expected deprecated metric out of list, got: %s", output)
	}
	output, err = run("series", "1", "2")
	if err != nil {
		t.Fatalf("Failed to query deprecated metric series: %v\n%s", err, output)
	}
	if !strings.Contains(output, "10400") {
		t.Errorf("Expected deprecated metric history to stay queryable, got: %s", output)
	}
}

func TestExportImportWorkflow(t *testing.T) {
	projectRoot, _ := filepath.Abs("..")
	vitalsBinary := filepath.Join(projectRoot, "vitals")

	buildCmd := exec.Command("go", "build", "-o", vitalsBinary, "./cmd/vitals")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}
	defer os.Remove(vitalsBinary)

	srcDir := t.TempDir()
	dstDir := t.TempDir()

	runIn := func(home string, args ...string) (string, error) {
		cmd := exec.Command(vitalsBinary, args...)
		cmd.Env = append(os.Environ(),
			"XDG_DATA_HOME="+home,
			"XDG_CONFIG_HOME="+home,
		)
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	// Seed the source store
	if output, err := runIn(srcDir, "subject", "add"); err != nil {
		t.Fatalf("Failed to add subject: %v\n%s", err, output)
	}
	if output, err := runIn(srcDir, "metric", "add", "weight", "Weight", "float"); err != nil {
		t.Fatalf("Failed to add metric: %v\n%s", err, output)
	}
	if output, err := runIn(srcDir, "record", "1", "weight", "82.5"); err != nil {
		t.Fatalf("Failed to record: %v\n%s", err, output)
	}

	// Export a snapshot
	exportPath := filepath.Join(t.TempDir(), "backup.json")
	output, err := runIn(srcDir, "export", "json", "-o", exportPath)
	if err != nil {
		t.Fatalf("Failed to export: %v\n%s", err, output)
	}
	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("Failed to read export file: %v", err)
	}
	if !strings.Contains(string(data), "82.5") {
		t.Errorf("Expected exported value in snapshot, got: %s", data)
	}

	// Import into a fresh store with ids preserved
	if output, err := runIn(dstDir, "import", exportPath); err != nil {
		t.Fatalf("Failed to import: %v\n%s", err, output)
	}
	output, err = runIn(dstDir, "latest", "1", "weight")
	if err != nil {
		t.Fatalf("Failed to query imported data: %v\n%s", err, output)
	}
	if !strings.Contains(output, "82.5") {
		t.Errorf("Expected imported value in output, got: %s", output)
	}
}

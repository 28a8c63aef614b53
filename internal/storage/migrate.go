// ABOUTME: Data migration between vitals storage backends.
// ABOUTME: Copies the full snapshot from source to destination.
package storage

import (
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Subjects     int
	Metrics      int
	Recipes      int
	Sources      int
	Observations int
}

// MigrateData copies all data from src to dst storage. The destination
// should be empty before calling this function; IDs are preserved so that
// recipe deps and observation references stay intact.
func MigrateData(src, dst Repository) (*MigrateSummary, error) {
	data, err := src.GetAllData()
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	if err := dst.ImportData(data); err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}

	return &MigrateSummary{
		Subjects:     len(data.Subjects),
		Metrics:      len(data.Metrics),
		Recipes:      len(data.Recipes),
		Sources:      len(data.Sources),
		Observations: len(data.Observations),
	}, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or
// subdirectories. Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}

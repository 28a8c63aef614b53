// ABOUTME: Unit tests for Charm KV key layout.
// ABOUTME: Keys must sort lexicographically in id order.
package charm

import "testing"

func TestRecordKeyFormat(t *testing.T) {
	key := recordKey(SubjectPrefix, 7)
	if key != "subject:00000000000000000007" {
		t.Errorf("unexpected key: %s", key)
	}
}

func TestRecordKeyOrdering(t *testing.T) {
	// Fixed-width padding keeps id 9 before id 10.
	if recordKey(ObservationPrefix, 9) >= recordKey(ObservationPrefix, 10) {
		t.Error("keys must sort in id order")
	}
}

func TestPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{"Subject", SubjectPrefix, "subject:"},
		{"Metric", MetricPrefix, "metric:"},
		{"Recipe", RecipePrefix, "recipe:"},
		{"Source", SourcePrefix, "source:"},
		{"Observation", ObservationPrefix, "obs:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prefix != tt.expected {
				t.Errorf("Expected %s = %q, got %q", tt.name, tt.expected, tt.prefix)
			}
		})
	}
}

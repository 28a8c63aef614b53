// ABOUTME: Tests for ObservationValue numeric coercion.
// ABOUTME: Covers every value type and malformed literals.
package models

import "testing"

func TestTryParseNumeric(t *testing.T) {
	tests := []struct {
		name      string
		value     ObservationValue
		valueType ValueType
		want      float64
		wantOK    bool
	}{
		{"integer", "42", ValueInteger, 42, true},
		{"negative integer", "-7", ValueInteger, -7, true},
		{"integer rejects float literal", "1.5", ValueInteger, 0, false},
		{"float", "1.7", ValueFloat, 1.7, true},
		{"decimal", "5.40", ValueDecimal, 5.4, true},
		{"float scientific", "1e3", ValueFloat, 1000, true},
		{"malformed float", "abc", ValueFloat, 0, false},
		{"malformed decimal", "1.2.3", ValueDecimal, 0, false},
		{"boolean never numeric", "1", ValueBoolean, 0, false},
		{"text never numeric", "97.5", ValueText, 0, false},
		{"empty under float", "", ValueFloat, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.TryParseNumeric(tt.valueType)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTryParseNumericUnknownType(t *testing.T) {
	if _, ok := ObservationValue("1").TryParseNumeric(ValueType("bogus")); ok {
		t.Error("unknown value type should never parse")
	}
}

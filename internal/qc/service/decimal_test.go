package service

import "testing"

func TestNormalizeDecimal(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"0.300", "0.3", true},
		{"007", "7", true},
		{"1.0", "1", true},
		{"0", "0", true},
		{"12.34", "12.34", true},
		{"0.000000000000000001", "0.000000000000000001", true},
		{"", "", false},
		{"-1", "", false},
		{"1.", "", false},
		{".5", "", false},
		{"1,5", "", false},
		{"abc", "", false},
		{"1e3", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeDecimal(tt.input)
		if ok != tt.ok {
			t.Errorf("NormalizeDecimal(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("NormalizeDecimal(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAddDecimal(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"0.300", "0.200", "0.5"},
		{"999", "1", "1000"},
		{"0.1", "0.2", "0.3"},
		{"1.25", "2.75", "4"},
		{"0", "0", "0"},
		{"123456789123456789", "1", "123456789123456790"},
	}

	for _, tt := range tests {
		got, err := AddDecimal(tt.a, tt.b)
		if err != nil {
			t.Errorf("AddDecimal(%q, %q) error: %v", tt.a, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("AddDecimal(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParsePositiveDecimal(t *testing.T) {
	if _, err := ParsePositiveDecimal("0", "cbm_total"); err == nil {
		t.Error("expected error for zero value")
	}
	if _, err := ParsePositiveDecimal("0.00", "cbm_total"); err == nil {
		t.Error("expected error for zero value with trailing zeros")
	}
	got, err := ParsePositiveDecimal("2.50", "cbm_total")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2.5" {
		t.Errorf("got %q, want %q", got, "2.5")
	}
}

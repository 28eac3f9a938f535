package parsers

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"brazilian with thousands", "15.406,15", "15406.15"},
		{"us with thousands", "15,406.15", "15406.15"},
		{"comma decimal only", "1234,56", "1234.56"},
		{"dot decimal only", "1234.56", "1234.56"},
		{"empty string", "", "0"},
		{"whitespace only", "   ", "0"},
		{"integer", "42", "42"},
		{"surrounding whitespace", " 10,5 ", "10.5"},
		// Ambiguous by design: last-separator-wins reads "1.234" as
		// thousands-separated, not as 1.234
		{"ambiguous dot thousands", "1.234", "1.234"},
		{"multiple thousands groups br", "1.234.567,89", "1234567.89"},
		{"multiple thousands groups us", "1,234,567.89", "1234567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if err != nil {
				t.Fatalf("ParseAmount(%q) returned error: %v", tt.input, err)
			}
			expected, _ := decimal.NewFromString(tt.expected)
			if !got.Equal(expected) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, expected)
			}
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, input := range []string{"abc", "12a,34", "R$ 10"} {
		if _, err := ParseAmount(input); err == nil {
			t.Errorf("ParseAmount(%q) expected error, got none", input)
		}
	}
}

func TestParseAmountBR(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain br", "15.406,15", "15406.15"},
		{"comma decimal", "1234,56", "1234.56"},
		{"dot treated as thousands", "1.234", "1234"},
		{"integer", "500", "500"},
		{"empty", "", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountBR(tt.input)
			if err != nil {
				t.Fatalf("ParseAmountBR(%q) returned error: %v", tt.input, err)
			}
			expected, _ := decimal.NewFromString(tt.expected)
			if !got.Equal(expected) {
				t.Errorf("ParseAmountBR(%q) = %s, want %s", tt.input, got, expected)
			}
		})
	}

	if _, err := ParseAmountBR("n/a"); err == nil {
		t.Error("expected error for unparsable BR amount")
	}
}

func TestCoerceDecimal(t *testing.T) {
	if got := CoerceDecimal("10.5"); !got.Equal(decimal.NewFromFloat(10.5)) {
		t.Errorf("CoerceDecimal(10.5) = %s", got)
	}
	if got := CoerceDecimal("garbage"); !got.IsZero() {
		t.Errorf("expected zero for garbage, got %s", got)
	}
	if got := CoerceDecimal(""); !got.IsZero() {
		t.Errorf("expected zero for empty, got %s", got)
	}
}

func TestCoerceDecimalBR(t *testing.T) {
	if got := CoerceDecimalBR("2,5"); !got.Equal(decimal.NewFromFloat(2.5)) {
		t.Errorf("CoerceDecimalBR(2,5) = %s", got)
	}
	if got := CoerceDecimalBR("x"); !got.IsZero() {
		t.Errorf("expected zero for garbage, got %s", got)
	}
}

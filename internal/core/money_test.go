package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCents int64
		wantErr   bool
	}{
		{"simple decimal", "42.50", 4250, false},
		{"comma separator", "42,50", 4250, false},
		{"integer", "15", 1500, false},
		{"zero is allowed", "0", 0, false},
		{"zero decimal", "0.00", 0, false},
		{"rounds half up", "12.345", 1235, false},
		{"rounds down below half", "12.344", 1234, false},
		{"leading whitespace", "  7.25", 725, false},
		{"no integer part", ".99", 99, false},
		{"negative rejected", "-1.00", 0, true},
		{"empty rejected", "", 0, true},
		{"whitespace only", "   ", 0, true},
		{"garbage rejected", "12abc", 0, true},
		{"two separators rejected", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) expected error, got %d cents", tt.input, got.Cents)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseAmount(%q) error should wrap ErrValidation, got %v", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.wantCents {
				t.Errorf("ParseAmount(%q) = %d cents, want %d", tt.input, got.Cents, tt.wantCents)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{4250, "42.50"},
		{0, "0.00"},
		{5, "0.05"},
		{100000, "1000.00"},
	}

	for _, tt := range tests {
		if got := FromCents(tt.cents).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Errorf("zero amount should be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Error("negative amount should be invalid")
	}
}

func TestMoneyAdd(t *testing.T) {
	sum := FromCents(3000).Add(FromCents(2000))
	if sum.Cents != 5000 {
		t.Errorf("30.00 + 20.00 = %d cents, want 5000", sum.Cents)
	}
}

package w4_test

import (
	"math/big"
	"testing"

	"w4-go/internal/w4"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0", "0", false},
		{" 1500000000 ", "1500000000", false},
		{"123456789012345678901234567890", "123456789012345678901234567890", false},
		{"-1", "", true},
		{"1.5", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := w4.ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatAtomic(t *testing.T) {
	tests := []struct {
		amount   *big.Int
		decimals int
		want     string
	}{
		{big.NewInt(1500000000), 9, "1.5"},
		{big.NewInt(1), 9, "0.000000001"},
		{big.NewInt(2000000000), 9, "2"},
		{big.NewInt(42), 0, "42"},
		{big.NewInt(-250), 2, "-2.5"},
		{nil, 9, "0"},
	}

	for _, tt := range tests {
		if got := w4.FormatAtomic(tt.amount, tt.decimals); got != tt.want {
			t.Errorf("FormatAtomic(%v, %d) = %q, want %q", tt.amount, tt.decimals, got, tt.want)
		}
	}
}

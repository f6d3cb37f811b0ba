package core

import (
	"errors"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.23", 1.23, true},
		{"1,23", 1.23, true},
		{" 2.50 ", 2.5, true},
		{"-1", -1, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1,2,3", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		1.005:  1,
		1.006:  1.01,
		2.5:    2.5,
		-1.234: -1.23,
		180:    180,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Fatalf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		currency string
		v        float64
		want     string
	}{
		{"₹", 12, "₹12.00"},
		{"$", 0.5, "$0.50"},
		{"", 3, "₹3.00"},
		{"€", -5.5, "-€5.50"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.currency, tc.v); got != tc.want {
			t.Fatalf("FormatAmount(%q, %v) = %q, want %q", tc.currency, tc.v, got, tc.want)
		}
	}
	if got := NewFormatter("en").Percent(39.126); got != "39.13%" {
		t.Fatalf("unexpected percent %q", got)
	}
}

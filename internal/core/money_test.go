package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0", 0, true}, // zero budgets are allowed
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{".", 0, false}, // separator with no digits
		{",", 0, false},
		{"92233720368547758.99", 0, false}, // would overflow int64 cents
		{"92233720368547758", 0, false},
		{"99999999999999999999", 0, false},
		{"92233720368547757.99", 9223372036854775799, true},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !IsValidation(err) {
				t.Fatalf("%q expected validation error, got %v", tc.in, err)
			}
		}
	}
}

func TestParseExpenseAmountRejectsZero(t *testing.T) {
	if _, err := ParseExpenseAmount("0"); err == nil {
		t.Fatalf("expected error for zero expense amount")
	}
	if _, err := ParseExpenseAmount("0.00"); err == nil {
		t.Fatalf("expected error for zero expense amount")
	}
	got, err := ParseExpenseAmount("0.01")
	if err != nil || got.Cents != 1 {
		t.Fatalf("0.01 expected 1 cent, got %d (err=%v)", got.Cents, err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		out   string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{-250, "-2.50"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.out {
			t.Fatalf("%d cents expected %q, got %q", tc.cents, tc.out, got)
		}
	}
}

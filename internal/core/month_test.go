package core

import (
	"testing"
	"time"
)

func TestMonthNextWrapsYear(t *testing.T) {
	m := Month{Year: 2025, Mon: time.December}
	next := m.Next()
	if next.Year != 2026 || next.Mon != time.January {
		t.Fatalf("December 2025 should advance to January 2026, got %v", next)
	}
}

func TestMonthNextTwelveTimesIsOneYear(t *testing.T) {
	for mon := time.January; mon <= time.December; mon++ {
		m := Month{Year: 2024, Mon: mon}
		got := m
		for i := 0; i < 12; i++ {
			got = got.Next()
		}
		if got.Year != m.Year+1 || got.Mon != m.Mon {
			t.Fatalf("%v advanced 12 months should be %v shifted one year, got %v", m, m, got)
		}
	}
}

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		year int
		mon  time.Month
		ok   bool
	}{
		{"2025-01", 2025, time.January, true},
		{"2025-12", 2025, time.December, true},
		{" 2025-06 ", 2025, time.June, true},
		{"2025-13", 0, 0, false},
		{"2025", 0, 0, false},
		{"garbage", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMonth(tc.in)
		if tc.ok {
			if err != nil || got.Year != tc.year || got.Mon != tc.mon {
				t.Fatalf("%q expected %d-%d, got %v (err=%v)", tc.in, tc.year, tc.mon, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMonthContainsHalfOpenInterval(t *testing.T) {
	m := Month{Year: 2025, Mon: time.March}
	cases := []struct {
		d  Date
		in bool
	}{
		{NewDate(2025, time.March, 1), true},
		{NewDate(2025, time.March, 31), true},
		{NewDate(2025, time.February, 28), false},
		{NewDate(2025, time.April, 1), false},
	}
	for i, tc := range cases {
		if got := m.Contains(tc.d); got != tc.in {
			t.Fatalf("case %d: Contains(%v) = %v, want %v", i, tc.d, got, tc.in)
		}
	}
}

func TestMonthOfNormalizes(t *testing.T) {
	m := MonthOf(NewDate(2025, time.July, 19))
	if m.Year != 2025 || m.Mon != time.July {
		t.Fatalf("expected 2025-07, got %v", m)
	}
	if m.Start().Day() != 1 {
		t.Fatalf("month bucket must start on day 1, got %d", m.Start().Day())
	}
}

func TestMonthString(t *testing.T) {
	m := Month{Year: 2025, Mon: time.March}
	if m.String() != "2025-03" {
		t.Fatalf("expected 2025-03, got %s", m.String())
	}
}

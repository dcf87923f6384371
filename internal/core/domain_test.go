package core

import (
	"testing"
	"time"
)

func TestUserValidate(t *testing.T) {
	if err := (User{Name: "Alice"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, name := range []string{"", "   ", "\t"} {
		if err := (User{Name: name}).Validate(); err == nil {
			t.Fatalf("name %q expected error", name)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:   NewDate(2025, time.March, 5),
		Amount: Money{Cents: 100},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: Date{}, Amount: Money{Cents: 100}},
		{Date: NewDate(2025, time.March, 5), Amount: Money{Cents: 0}},
		{Date: NewDate(2025, time.March, 5), Amount: Money{Cents: -100}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2025-02-28" {
		t.Fatalf("roundtrip mismatch: %s", d)
	}
	for _, s := range []string{"2025-02-30", "not-a-date", "", "2025/02/28"} {
		if _, err := ParseDate(s); err == nil {
			t.Fatalf("%q expected error", s)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	if !IsValidation(Validation("x", "bad")) {
		t.Fatalf("expected validation kind")
	}
	if !IsNotFound(NotFound("user", 7)) {
		t.Fatalf("expected not-found kind")
	}
	if !IsConflict(Conflict("category", "duplicate name")) {
		t.Fatalf("expected conflict kind")
	}
	if IsNotFound(Validation("x", "bad")) {
		t.Fatalf("kinds must not overlap")
	}
}

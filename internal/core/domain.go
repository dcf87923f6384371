package core

import (
	"strings"
	"time"
)

type (
	// User is a person tracking expenses. Authentication is out of scope;
	// the landing page lets the operator pick a user from a list.
	User struct {
		ID    int64
		Name  string
		Email string // empty means absent
	}

	// Category groups expenses and budgets, scoped to one user.
	// Names are unique per user.
	Category struct {
		ID     int64
		UserID int64
		Name   string
	}

	// Budget is the monthly spending limit for one category.
	// At most one budget exists per (user, category, month).
	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Month      Month
		Amount     Money // >= 0
	}

	// Expense is a single booked expense entry. Expenses are append-only.
	Expense struct {
		ID          int64
		UserID      int64
		CategoryID  int64
		Date        Date
		Amount      Money // > 0
		Description string
	}

	Date struct {
		time.Time
	}
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date at UTC midnight.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, Validation("date", "must be a valid date in YYYY-MM-DD form")
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return Validation("date", "must not be empty")
	}
	return nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return Validation("name", "must not be empty")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validation("name", "must not be empty")
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Month.IsZero() {
		return Validation("month", "must not be empty")
	}
	if b.Amount.Cents < 0 {
		return Validation("amount", "must not be negative")
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Amount.Cents <= 0 {
		return Validation("amount", "must be a positive amount")
	}
	if len(e.Description) > 255 {
		return Validation("description", "too long (max 255 characters)")
	}
	return nil
}

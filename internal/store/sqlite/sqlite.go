// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"budgetbook/internal/core"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// isUniqueViolation detects SQLite unique constraint failures. modernc
// sqlite surfaces them only through the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	var email sql.NullString
	if u.Email != "" {
		email = sql.NullString{String: u.Email, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email) VALUES (?, ?)`, u.Name, email)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.Conflict("user", "email already in use")
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	u.ID = id

	slog.InfoContext(ctx, "User created", "id", u.ID, "name", u.Name)
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (core.User, error) {
	var (
		u     core.User
		email sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NotFound("user", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Email = email.String
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var (
			u     core.User
			email sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Name, &email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Email = email.String
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound("user", id)
	}
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}

	// Children first to satisfy foreign keys.
	for _, q := range []string{
		`DELETE FROM expenses WHERE user_id = ?`,
		`DELETE FROM budgets WHERE user_id = ?`,
		`DELETE FROM categories WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("cascade delete user %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}

	slog.InfoContext(ctx, "User deleted with all owned data", "id", id)
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if _, err := s.GetUser(ctx, c.UserID); err != nil {
		return core.Category{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name) VALUES (?, ?)`, c.UserID, c.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.Conflict("category", "name already exists for this user")
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (s *Store) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	var c core.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name FROM categories WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *Store) UpsertBudgets(ctx context.Context, budgets []core.Budget) error {
	if len(budgets) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin budget tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO budgets (user_id, category_id, month, amount_cents)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, category_id, month)
		 DO UPDATE SET amount_cents = excluded.amount_cents`)
	if err != nil {
		return fmt.Errorf("prepare budget upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range budgets {
		if _, err := stmt.ExecContext(ctx, b.UserID, b.CategoryID, b.Month.String(), b.Amount.Cents); err != nil {
			return fmt.Errorf("upsert budget (category=%d, month=%s): %w", b.CategoryID, b.Month, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit budget upsert: %w", err)
	}

	slog.InfoContext(ctx, "Budgets saved", "count", len(budgets))
	return nil
}

func (s *Store) GetBudget(ctx context.Context, userID, categoryID int64, month core.Month) (core.Budget, error) {
	var (
		b     core.Budget
		m     string
		cents int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, month, amount_cents
		 FROM budgets WHERE user_id = ? AND category_id = ? AND month = ?`,
		userID, categoryID, month.String()).
		Scan(&b.ID, &b.UserID, &b.CategoryID, &m, &cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.NotFound("budget", categoryID)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	b.Month, err = core.ParseMonth(m)
	if err != nil {
		return core.Budget{}, fmt.Errorf("stored month %q: %w", m, err)
	}
	b.Amount = core.Money{Cents: cents}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID int64, month core.Month) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, month, amount_cents
		 FROM budgets WHERE user_id = ? AND month = ? ORDER BY category_id`,
		userID, month.String())
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b     core.Budget
			m     string
			cents int64
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &m, &cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.Month, err = core.ParseMonth(m); err != nil {
			return nil, fmt.Errorf("stored month %q: %w", m, err)
		}
		b.Amount = core.Money{Cents: cents}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, category_id, spent_on, amount_cents, description)
		 VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.CategoryID, e.Date.String(), e.Amount.Cents, e.Description)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense recorded",
		"id", e.ID,
		"user_id", e.UserID,
		"category_id", e.CategoryID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, spent_on, amount_cents, description
		 FROM expenses WHERE user_id = ?
		 ORDER BY spent_on DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e     core.Expense
			d     string
			cents int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.CategoryID, &d, &cents, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(d); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", d, err)
		}
		e.Amount = core.Money{Cents: cents}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) MonthlySpend(ctx context.Context, userID, categoryID int64, month core.Month) (core.Money, error) {
	// ISO date strings compare lexicographically, so the half-open month
	// interval works directly on the TEXT column.
	from := month.Start().Format("2006-01-02")
	to := month.Next().Start().Format("2006-01-02")

	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
	          WHERE user_id = ? AND spent_on >= ? AND spent_on < ?`
	args := []any{userID, from, to}
	if categoryID != 0 {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}

	var cents int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("monthly spend: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

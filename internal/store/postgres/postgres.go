// Package postgres implements store.Store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"budgetbook/internal/core"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := runMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isUniqueViolation checks for SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	var email *string
	if u.Email != "" {
		email = &u.Email
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id`,
		u.Name, email).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.Conflict("user", "email already in use")
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", u.ID, "name", u.Name)
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (core.User, error) {
	var (
		u     core.User
		email *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &email)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.NotFound("user", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	if email != nil {
		u.Email = *email
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var (
			u     core.User
			email *string
		)
		if err := rows.Scan(&u.ID, &u.Name, &email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if email != nil {
			u.Email = *email
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete user tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int
	err = tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NotFound("user", id)
	}
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}

	for _, q := range []string{
		`DELETE FROM expenses WHERE user_id = $1`,
		`DELETE FROM budgets WHERE user_id = $1`,
		`DELETE FROM categories WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	} {
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("cascade delete user %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}

	slog.InfoContext(ctx, "User deleted with all owned data", "id", id)
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if _, err := s.GetUser(ctx, c.UserID); err != nil {
		return core.Category{}, err
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (user_id, name) VALUES ($1, $2) RETURNING id`,
		c.UserID, c.Name).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, core.Conflict("category", "name already exists for this user")
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (s *Store) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	var c core.Category
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name FROM categories WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&c.ID, &c.UserID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, core.NotFound("category", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name FROM categories WHERE user_id = $1 ORDER BY name`, userID)
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
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin budget tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range budgets {
		_, err := tx.Exec(ctx,
			`INSERT INTO budgets (user_id, category_id, month, amount_cents)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, category_id, month)
			 DO UPDATE SET amount_cents = EXCLUDED.amount_cents`,
			b.UserID, b.CategoryID, b.Month.Start(), b.Amount.Cents)
		if err != nil {
			return fmt.Errorf("upsert budget (category=%d, month=%s): %w", b.CategoryID, b.Month, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit budget upsert: %w", err)
	}

	slog.InfoContext(ctx, "Budgets saved", "count", len(budgets))
	return nil
}

func (s *Store) GetBudget(ctx context.Context, userID, categoryID int64, month core.Month) (core.Budget, error) {
	var (
		b     core.Budget
		m     time.Time
		cents int64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, category_id, month, amount_cents
		 FROM budgets WHERE user_id = $1 AND category_id = $2 AND month = $3`,
		userID, categoryID, month.Start()).
		Scan(&b.ID, &b.UserID, &b.CategoryID, &m, &cents)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Budget{}, core.NotFound("budget", categoryID)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	b.Month = core.Month{Year: m.Year(), Mon: m.Month()}
	b.Amount = core.Money{Cents: cents}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID int64, month core.Month) ([]core.Budget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, category_id, month, amount_cents
		 FROM budgets WHERE user_id = $1 AND month = $2 ORDER BY category_id`,
		userID, month.Start())
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			b     core.Budget
			m     time.Time
			cents int64
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &m, &cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Month = core.Month{Year: m.Year(), Mon: m.Month()}
		b.Amount = core.Money{Cents: cents}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO expenses (user_id, category_id, spent_on, amount_cents, description)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		e.UserID, e.CategoryID, e.Date.Time, e.Amount.Cents, e.Description).Scan(&e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", e.ID,
		"user_id", e.UserID,
		"category_id", e.CategoryID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	query := `SELECT id, user_id, category_id, spent_on, amount_cents, description
	          FROM expenses WHERE user_id = $1
	          ORDER BY spent_on DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e     core.Expense
			d     time.Time
			cents int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.CategoryID, &d, &cents, &e.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date = core.Date{Time: d}
		e.Amount = core.Money{Cents: cents}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) MonthlySpend(ctx context.Context, userID, categoryID int64, month core.Month) (core.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
	          WHERE user_id = $1 AND spent_on >= $2 AND spent_on < $3`
	args := []any{userID, month.Start(), month.Next().Start()}
	if categoryID != 0 {
		query += ` AND category_id = $4`
		args = append(args, categoryID)
	}

	var cents int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("monthly spend: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

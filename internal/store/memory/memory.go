// Package memory provides an in-memory Store used as the default backend
// and as the datastore substitute in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"budgetbook/internal/core"
)

// Store keeps all entities in maps behind one mutex. Multi-row writes are
// trivially atomic under the lock, matching the transactional guarantees
// of the SQL backends.
type Store struct {
	mu sync.Mutex

	users      map[int64]core.User
	categories map[int64]core.Category
	budgets    map[int64]core.Budget
	expenses   map[int64]core.Expense

	nextID int64
}

func New() *Store {
	return &Store{
		users:      make(map[int64]core.User),
		categories: make(map[int64]core.Category),
		budgets:    make(map[int64]core.Budget),
		expenses:   make(map[int64]core.Expense),
	}
}

func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Email != "" {
		for _, existing := range s.users {
			if existing.Email == u.Email {
				return core.User{}, core.Conflict("user", "email already in use")
			}
		}
	}
	u.ID = s.allocID()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.NotFound("user", id)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return core.NotFound("user", id)
	}
	for eid, e := range s.expenses {
		if e.UserID == id {
			delete(s.expenses, eid)
		}
	}
	for bid, b := range s.budgets {
		if b.UserID == id {
			delete(s.budgets, bid)
		}
	}
	for cid, c := range s.categories {
		if c.UserID == id {
			delete(s.categories, cid)
		}
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[c.UserID]; !ok {
		return core.Category{}, core.NotFound("user", c.UserID)
	}
	for _, existing := range s.categories {
		if existing.UserID == c.UserID && strings.EqualFold(existing.Name, c.Name) {
			return core.Category{}, core.Conflict("category", "name already exists for this user")
		}
	}
	c.ID = s.allocID()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, core.NotFound("category", id)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := make([]core.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			cats = append(cats, c)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (s *Store) UpsertBudgets(ctx context.Context, budgets []core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range budgets {
		if existing := s.findBudget(b.UserID, b.CategoryID, b.Month); existing != nil {
			existing.Amount = b.Amount
			s.budgets[existing.ID] = *existing
			continue
		}
		b.ID = s.allocID()
		s.budgets[b.ID] = b
	}
	return nil
}

// findBudget must be called with the lock held.
func (s *Store) findBudget(userID, categoryID int64, month core.Month) *core.Budget {
	for _, b := range s.budgets {
		if b.UserID == userID && b.CategoryID == categoryID && b.Month == month {
			found := b
			return &found
		}
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, userID, categoryID int64, month core.Month) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b := s.findBudget(userID, categoryID, month); b != nil {
		return *b, nil
	}
	return core.Budget{}, core.NotFound("budget", categoryID)
}

func (s *Store) ListBudgets(ctx context.Context, userID int64, month core.Month) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	budgets := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID && b.Month == month {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].CategoryID < budgets[j].CategoryID })
	return budgets, nil
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.allocID()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expenses := make([]core.Expense, 0)
	for _, e := range s.expenses {
		if e.UserID == userID {
			expenses = append(expenses, e)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date.Time) {
			return expenses[i].Date.After(expenses[j].Date.Time)
		}
		return expenses[i].ID > expenses[j].ID
	})
	if limit > 0 && len(expenses) > limit {
		expenses = expenses[:limit]
	}
	return expenses, nil
}

func (s *Store) MonthlySpend(ctx context.Context, userID, categoryID int64, month core.Month) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total core.Money
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		if categoryID != 0 && e.CategoryID != categoryID {
			continue
		}
		if month.Contains(e.Date) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (s *Store) Close() error {
	return nil
}

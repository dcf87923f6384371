package core

// BudgetStatus classifies a category's spend against its monthly budget.
type BudgetStatus string

const (
	StatusOK        BudgetStatus = "ok"
	StatusNearLimit BudgetStatus = "near_limit" // 10% or less of the budget remaining
	StatusExceeded  BudgetStatus = "exceeded"
)

// ClassifyBudget compares spend against a budget amount. The exceeded check
// wins over near-limit, and the near-limit rule only applies when the budget
// is above zero: a zero budget with zero spend is OK.
func ClassifyBudget(spent, budget Money) BudgetStatus {
	remaining := budget.Sub(spent)
	switch {
	case remaining.IsNegative():
		return StatusExceeded
	case budget.Cents > 0 && remaining.Cents*10 <= budget.Cents:
		return StatusNearLimit
	default:
		return StatusOK
	}
}

// BudgetEvaluation is the outcome of checking one category's month after an
// expense is recorded. HasBudget is false when no budget row exists for the
// month, in which case the other fields are zero.
type BudgetEvaluation struct {
	HasBudget bool
	Budget    Money
	Spent     Money
	Remaining Money
	Status    BudgetStatus
}

// EvaluateBudget computes the full evaluation for a budgeted category.
func EvaluateBudget(spent, budget Money) BudgetEvaluation {
	return BudgetEvaluation{
		HasBudget: true,
		Budget:    budget,
		Spent:     spent,
		Remaining: budget.Sub(spent),
		Status:    ClassifyBudget(spent, budget),
	}
}

// CategoryReport is one row of the monthly report. Budget is zero when no
// budget was set for the month.
type CategoryReport struct {
	Category  Category
	Budget    Money
	Spent     Money
	Remaining Money
	Status    BudgetStatus
}

// MonthlyReport summarizes one user's month: total spend across all
// categories plus a per-category breakdown.
type MonthlyReport struct {
	Month      Month
	Total      Money
	Categories []CategoryReport
}

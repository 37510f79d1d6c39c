package enterprise

import "time"

// CostBudget bounds spend for a tenant or workload over a named period
// (e.g. "monthly", "per_run").
type CostBudget struct {
	Name   string
	Limit  float64
	Period string
}

// CostCharge is a single cost event against a CostTracker.
type CostCharge struct {
	Timestamp   time.Time
	Amount      float64
	Category    string
	Description string
}

// CostTracker accumulates charges against a CostBudget.
type CostTracker struct {
	Budget  CostBudget
	charges []CostCharge
}

// NewCostTracker constructs a tracker with no charges yet.
func NewCostTracker(budget CostBudget) *CostTracker {
	return &CostTracker{Budget: budget}
}

// Charge records charge and reports whether the budget is now exceeded.
func (t *CostTracker) Charge(charge CostCharge) bool {
	t.charges = append(t.charges, charge)
	return t.TotalSpent() > t.Budget.Limit
}

// TotalSpent sums every recorded charge.
func (t *CostTracker) TotalSpent() float64 {
	var total float64
	for _, c := range t.charges {
		total += c.Amount
	}
	return total
}

// Remaining is the budget left, floored at zero.
func (t *CostTracker) Remaining() float64 {
	remaining := t.Budget.Limit - t.TotalSpent()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExceeded reports whether total spend has passed the budget limit.
func (t *CostTracker) IsExceeded() bool {
	return t.TotalSpent() > t.Budget.Limit
}

// ByCategory breaks down total spend per charge category.
func (t *CostTracker) ByCategory() map[string]float64 {
	byCategory := make(map[string]float64)
	for _, c := range t.charges {
		byCategory[c.Category] += c.Amount
	}
	return byCategory
}

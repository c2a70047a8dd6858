package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive     Status = "active"
	StatusInProgress Status = "in-progress"
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

// Statuses lists every known status in display order.
var Statuses = []Status{StatusActive, StatusInProgress, StatusPending, StatusCompleted, StatusArchived}

// ParseStatus maps a raw status string to a Status, defaulting to active.
func ParseStatus(s string) Status {
	for _, st := range Statuses {
		if string(st) == s {
			return st
		}
	}
	return StatusActive
}

// Expense is a single spend line item of a project.
type Expense struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Manual      bool            `json:"manual,omitempty"` // recorded via `pburn expense add`
}

// Project holds the persisted financial facts of one project.
type Project struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Client      string          `json:"client,omitempty"`
	Category    string          `json:"category,omitempty"`
	Status      Status          `json:"status"`
	Budget      decimal.Decimal `json:"budget"`
	Spent       decimal.Decimal `json:"spent"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	Expenses    []Expense       `json:"expenses,omitempty"`
	FilePath    string          `json:"-"`
}

// Facts returns the budget facts of the project evaluated at asOf.
func (p Project) Facts(asOf time.Time) BudgetFacts {
	return BudgetFacts{
		Budget:    p.Budget,
		Spent:     p.Spent,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		AsOf:      asOf,
	}
}

// IsOverBudget reports whether spend already exceeds the budget.
func (p Project) IsOverBudget() bool {
	return p.Spent.GreaterThan(p.Budget)
}

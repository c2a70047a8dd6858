package budget

import "fmt"

// Field names reported by InvalidFactsError.
const (
	FieldBudget    = "budget"
	FieldSpent     = "spent"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldAsOf      = "as_of"
)

// InvalidFactsError identifies the input field that failed validation.
type InvalidFactsError struct {
	Field  string
	Reason string
}

func (e *InvalidFactsError) Error() string {
	return fmt.Sprintf("invalid budget facts: %s %s", e.Field, e.Reason)
}

func invalid(field, reason string) *InvalidFactsError {
	return &InvalidFactsError{Field: field, Reason: reason}
}

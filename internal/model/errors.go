package model

import "fmt"

// Rejection reason codes emitted by the quality gate and normalizer.
const (
	ReasonNullRequiredField  = "null_required_field"
	ReasonTypeCoercionFailed = "type_coercion_failed"
	ReasonNegativeValue      = "negative_value"
	ReasonMissingParent      = "missing_parent"
)

// RowError records a single row failing a quality check. Row errors are
// accumulated and reported; they never abort a run.
type RowError struct {
	Entity string
	RowID  string
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %q rejected: %s", e.Entity, e.RowID, e.Reason)
}

// RefViolation records a dependent row referencing a missing or rejected
// parent. Like RowError it is accumulated, not thrown.
type RefViolation struct {
	Entity    string
	RowID     string
	RefEntity string
	RefKey    string
}

func (e RefViolation) Error() string {
	return fmt.Sprintf("%s row %q references missing %s %q",
		e.Entity, e.RowID, e.RefEntity, e.RefKey)
}

// ConsistencyError reports an aggregate whose totals do not reconcile with
// the fact table. It indicates a logic defect, not bad input, and is fatal.
type ConsistencyError struct {
	Aggregate string
	Measure   string
	Expected  float64
	Got       float64
}

func (e ConsistencyError) Error() string {
	return fmt.Sprintf("aggregate %s: %s mismatch: expected %.2f, got %.2f",
		e.Aggregate, e.Measure, e.Expected, e.Got)
}

package pipeline

import "fmt"

// StageError is a structural failure that aborts the current stage and
// prevents downstream stages from starting. Nothing is committed for the
// failed stage; upstream schemas are left untouched.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func fatal(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

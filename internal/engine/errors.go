package engine

import "fmt"

// ValidationError reports invalid caller input, such as an unknown
// enrollment or a negative limit. Never worth retrying.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a storage failure. Retrying is safe: answer
// processing is idempotent per event because the pair-uniqueness
// constraint turns a replayed create into an update.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

package app

import "time"

// Operation tracks one CLI invocation so its outcome can be logged on Close.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "success" or "error"
	Err       error
}

// NewOperation starts a successful operation; Fail downgrades it.
func NewOperation(id, name string, startedAt time.Time) *Operation {
	return &Operation{
		ID:        id,
		Name:      name,
		StartedAt: startedAt,
		Status:    "success",
	}
}

// Fail marks the operation as failed. Only the first error is kept.
func (op *Operation) Fail(err error) {
	if err == nil || op.Err != nil {
		return
	}
	op.Status = "error"
	op.Err = err
}

// Track passes err through, failing the operation when it is non-nil.
func (op *Operation) Track(err error) error {
	op.Fail(err)
	return err
}

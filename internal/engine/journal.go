package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// compensationTimeout bounds the whole unwind of one journal.
	compensationTimeout = 30 * time.Second
	// mutationTimeout bounds the collaborator mutations of one operation.
	mutationTimeout = 30 * time.Second
)

// mutationContext detaches the mutation phase from the caller's cancellation.
// A mutation the ledger has accepted is applied regardless of the caller, so
// the operation must see every reply to keep its journal complete.
func mutationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), mutationTimeout)
}

type compensation struct {
	desc string
	undo func(ctx context.Context) error
}

// journal records the inverse of every collaborator mutation an operation has
// performed so a later failure can be rolled back in reverse order.
type journal struct {
	steps []compensation
}

func (j *journal) record(desc string, undo func(ctx context.Context) error) {
	j.steps = append(j.steps, compensation{desc: desc, undo: undo})
}

func (j *journal) len() int {
	return len(j.steps)
}

// unwind runs every compensation, newest first, even after a failure. The
// caller's cancellation does not stop it.
func (j *journal) unwind(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var errs []error
	for k := len(j.steps) - 1; k >= 0; k-- {
		step := j.steps[k]
		if err := step.undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.desc, err))
		}
	}
	j.steps = nil
	return errors.Join(errs...)
}

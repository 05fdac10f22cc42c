package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/core/ports"
)

// Fanout delivers every observation to all of its reporters. A failing
// reporter does not prevent delivery to the others; the failures are joined.
type Fanout struct {
	reporters []ports.Reporter
}

// NewFanout skips nil reporters so optional sinks can be passed unconditionally.
func NewFanout(reporters ...ports.Reporter) *Fanout {
	f := &Fanout{}
	for _, r := range reporters {
		if r != nil {
			f.reporters = append(f.reporters, r)
		}
	}
	return f
}

func (f *Fanout) Report(ctx context.Context, obs domain.Observation) error {
	var errs []error
	for i, r := range f.reporters {
		if err := r.Report(ctx, obs); err != nil {
			errs = append(errs, fmt.Errorf("reporter %d (%T): %w", i, r, err))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of attached reporters.
func (f *Fanout) Len() int { return len(f.reporters) }

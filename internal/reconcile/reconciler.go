package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/kalambet/fitai/internal/intent"
	"github.com/kalambet/fitai/internal/profile"
)

// ErrPersistence is returned when applied changes could not be saved.
var ErrPersistence = profile.ErrPersistence

// Change records one applied field update.
type Change struct {
	Field profile.Field
	From  Value
	To    Value
}

// Rejection records one candidate that failed validation.
type Rejection struct {
	Field  profile.Field
	Raw    string
	Reason error
}

// Result summarizes one reconciliation.
type Result struct {
	Applied  []Change
	Rejected []Rejection
}

// Changed reports whether any field was applied.
func (r Result) Changed() bool { return len(r.Applied) > 0 }

// Reconciler validates extracted updates, applies the accepted ones and
// persists the profile when anything changed.
type Reconciler struct {
	store profile.Gateway
}

// New creates a Reconciler that saves through store.
func New(store profile.Gateway) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile applies updates to p in canonical field order. Invalid values
// are dropped and reported in Result.Rejected without affecting the rest of
// the batch. A value equal to the current one is not a change. An unknown
// field fails the whole call before p is touched. Plans are never
// regenerated here.
func (r *Reconciler) Reconcile(ctx context.Context, p *profile.Profile, updates intent.Updates) (Result, error) {
	var res Result
	if len(updates) == 0 {
		return res, nil
	}
	for f := range updates {
		if _, ok := handlers[f]; !ok {
			return res, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}

	for _, f := range updates.Fields() {
		c := updates[f]
		raw, err := resolve(*p, f, c)
		if err == nil {
			var v Value
			v, err = Validate(f, raw)
			if err == nil {
				h := handlers[f]
				from := h.current(*p)
				if from == v {
					continue
				}
				h.apply(p, v)
				res.Applied = append(res.Applied, Change{Field: f, From: from, To: v})
				continue
			}
		}
		slog.Debug("profile update rejected", "field", f, "value", c.Value, "error", err)
		res.Rejected = append(res.Rejected, Rejection{Field: f, Raw: c.Value, Reason: err})
	}

	if !res.Changed() {
		return res, nil
	}
	if err := r.store.Save(ctx, *p); err != nil {
		return res, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return res, nil
}

// resolve turns a relative candidate into an absolute value using the
// current profile. Only weight accepts deltas.
func resolve(p profile.Profile, f profile.Field, c intent.Candidate) (string, error) {
	if !c.Relative {
		return c.Value, nil
	}
	if f != profile.FieldWeight {
		return "", fmt.Errorf("%w: %s does not accept relative changes", ErrRejected, f)
	}
	d, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return "", fmt.Errorf("%w: weight change %q is not a number", ErrRejected, c.Value)
	}
	return strconv.FormatFloat(math.Round((p.WeightKG+d)*100)/100, 'f', -1, 64), nil
}

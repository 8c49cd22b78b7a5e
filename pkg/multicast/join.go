package multicast

import (
	"cmp"
	"slices"
)

// Reduce joins the outcomes of one dispatch into a single error.
//
// Precedence:
//  1. two or more failures: *AggregateError in invocation order, nested
//     multi-errors spliced in
//  2. exactly one failure: that error, unchanged
//  3. no failures, at least one cancellation: *CancellationError
//  4. otherwise nil
//
// A failure carrying a nil error is reported as ErrUnspecifiedFailure.
// A real failure always dominates cancelled siblings. Reduce is pure and
// does not depend on the order of the outcomes slice; outcomes are ordered by
// Index before joining.
func Reduce(outcomes []Outcome) error {
	ordered := sortedByIndex(outcomes)

	var failures []error
	var cancelCause error
	cancelled := 0

	for _, o := range ordered {
		switch o.Kind {
		case OutcomeFailure:
			err := o.Err
			if err == nil {
				err = ErrUnspecifiedFailure
			}
			failures = append(failures, err)
		case OutcomeCancelled:
			if cancelCause == nil {
				cancelCause = o.Err
			}
			cancelled++
		}
	}

	if len(failures) > 0 {
		return collapse(flatten(failures))
	}
	if cancelled > 0 {
		return &CancellationError{Cause: cancelCause, Cancelled: cancelled}
	}
	return nil
}

// FlattenIfMultiple applies the joining rule to an error produced by a join
// done elsewhere, for example with errors.Join.
//
// A multi-error (one implementing Unwrap() []error) is expanded into its
// constituents, and nested multi-errors are spliced in at any depth. Zero
// constituents yield nil, one yields that error, two or more yield an
// *AggregateError. Any other error is returned unchanged.
func FlattenIfMultiple(err error) error {
	if err == nil {
		return nil
	}
	multi, ok := err.(multiError)
	if !ok {
		return err
	}
	return collapse(flatten(multi.Unwrap()))
}

// multiError is implemented by *AggregateError, errors.Join and
// fmt.Errorf with several %w verbs.
type multiError interface {
	Unwrap() []error
}

// flatten splices multi-errors (recursively) and drops nils.
func flatten(errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		if multi, ok := err.(multiError); ok {
			out = append(out, flatten(multi.Unwrap())...)
			continue
		}
		out = append(out, err)
	}
	return out
}

func collapse(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateError{Errors: errs}
	}
}

func sortedByIndex(outcomes []Outcome) []Outcome {
	ordered := make([]Outcome, len(outcomes))
	copy(ordered, outcomes)
	slices.SortStableFunc(ordered, func(a, b Outcome) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return ordered
}

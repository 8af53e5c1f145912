package xmltree

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

var validate = validator.New()

// Report is the outcome of a best-effort decode: the entries that passed and
// an aggregate of why the others were dropped.
type Report[T any] struct {
	Items   []T
	Skipped int
	Err     error
}

// Decode normalizes v, maps every Node entry through build and keeps only the
// results that satisfy their `validate` struct tags. Entries that are not
// nodes or fail validation are counted and described in Err; Decode itself
// never fails.
func Decode[T any](v any, build func(Node) T) Report[T] {
	entries := Normalize(v)
	report := Report[T]{Items: make([]T, 0, len(entries))}
	for i, entry := range entries {
		node, ok := entry.(Node)
		if !ok {
			report.Skipped++
			report.Err = multierr.Append(report.Err, fmt.Errorf("entry %d: expected element, got %T", i, entry))
			continue
		}
		item := build(node)
		if err := validate.Struct(item); err != nil {
			report.Skipped++
			report.Err = multierr.Append(report.Err, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		report.Items = append(report.Items, item)
	}
	return report
}

// Reasons lists each skipped entry's error message.
func (r Report[T]) Reasons() []string {
	errs := multierr.Errors(r.Err)
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

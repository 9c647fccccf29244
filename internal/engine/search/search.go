// Package search implements the bounded retry-with-best-effort loop
// shared by the melody, counterpoint and harmonization engines: attempt,
// validate, keep the best candidate so far, and disclose every relaxed
// constraint as a warning when the ceiling is hit.
package search

import (
	"github.com/conceptual-machines/composer-api/internal/theory"
)

// Violation is one unsatisfied hard constraint of a candidate. The
// warning it carries is surfaced when the constraint ends up relaxed.
type Violation struct {
	Constraint string
	Warning    theory.Warning
}

// Candidate pairs a generated value with its constraint violations.
type Candidate[T any] struct {
	Value      T
	Violations []Violation
	// Warnings the attempt itself accepted (e.g. an adjusted start
	// note), independent of validation.
	Warnings []theory.Warning
}

// Result is the outcome of a bounded search.
type Result[T any] struct {
	Value    T
	Warnings []theory.Warning
	Attempts int
}

// Run executes up to maxAttempts attempts. The first candidate with no
// violations wins immediately. On exhaustion the candidate with the
// fewest violations is returned, with one warning per relaxed
// constraint. It fails with GENERATION_FAILED only when no attempt
// produced any candidate at all.
func Run[T any](maxAttempts int, attempt func(n int) (Candidate[T], error)) (*Result[T], error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var best *Candidate[T]
	attempts := 0

	for n := 0; n < maxAttempts; n++ {
		attempts++
		cand, err := attempt(n)
		if err != nil {
			continue
		}

		if len(cand.Violations) == 0 {
			return &Result[T]{Value: cand.Value, Warnings: cand.Warnings, Attempts: attempts}, nil
		}
		if best == nil || len(cand.Violations) < len(best.Violations) {
			c := cand
			best = &c
		}
	}

	if best == nil {
		return nil, theory.NewError(theory.CodeGenerationFailed,
			"no usable candidate produced within the attempt ceiling")
	}

	// Best-effort result: one warning per relaxed constraint, plus any
	// the attempt already accepted.
	warnings := append([]theory.Warning{}, best.Warnings...)
	seen := map[string]bool{}
	for _, v := range best.Violations {
		if !seen[v.Constraint] {
			seen[v.Constraint] = true
			warnings = append(warnings, v.Warning)
		}
	}

	return &Result[T]{Value: best.Value, Warnings: warnings, Attempts: attempts}, nil
}

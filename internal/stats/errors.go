// Package stats implements the statistical primitives behind the
// correlation and enrichment steps: Pearson correlation with its
// two-sided p-value, Benjamini-Hochberg FDR adjustment and the
// hypergeometric over-representation tail.
package stats

import "errors"

// ErrInvalidInput reports a statistical invariant violation, such as an
// empty p-value vector or a probability outside [0,1].
var ErrInvalidInput = errors.New("invalid input")

// ErrConstantInput is returned by Pearson when either vector has zero
// variance, which leaves the correlation coefficient undefined.
var ErrConstantInput = errors.New("constant input")

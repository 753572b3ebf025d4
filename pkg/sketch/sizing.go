package sketch

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is wrapped by every construction and sizing error.
var ErrInvalidArgument = errors.New("sketch: invalid argument")

// SizeFor translates an error rate and a confidence into sketch dimensions.
//
// columns = ceil(2 / errorRate) and rows = ceil(ln(1-confidence) / ln(0.5)).
// After N adds to a sketch of this size, Check overestimates any single key by
// more than errorRate*N with probability at most 1-confidence.
func SizeFor(errorRate, confidence float64) (rows, columns int, err error) {
	if math.IsNaN(errorRate) || math.IsInf(errorRate, 0) || errorRate <= 0 {
		return 0, 0, fmt.Errorf("%w: error rate must be positive and finite, got %v", ErrInvalidArgument, errorRate)
	}
	if math.IsNaN(confidence) || confidence <= 0 || confidence >= 1 {
		return 0, 0, fmt.Errorf("%w: confidence must be in (0, 1), got %v", ErrInvalidArgument, confidence)
	}

	c := math.Ceil(2 / errorRate)
	r := math.Ceil(math.Log(1-confidence) / math.Log(0.5))

	if c > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: error rate %v needs %v columns", ErrInvalidArgument, errorRate, c)
	}

	return max(int(r), 1), max(int(c), 1), nil
}

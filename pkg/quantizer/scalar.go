package quantizer

import (
	"fmt"
	"math"
)

// ScalarQuantizer spreads the fitted [min, max] range over 256 levels,
// optionally on a log1p scale so a few hot counters don't wash out the rest.
type ScalarQuantizer struct {
	log   bool
	min   float64
	max   float64
	scale float64
}

func NewScalarQuantizer(logScale bool) *ScalarQuantizer {
	return &ScalarQuantizer{log: logScale, scale: 1}
}

func (sq *ScalarQuantizer) transform(v float64) float64 {
	if sq.log {
		return math.Log1p(v)
	}
	return v
}

func (sq *ScalarQuantizer) Fit(values []uint32) error {
	if len(values) == 0 {
		return fmt.Errorf("no values provided")
	}

	sq.min = math.MaxFloat64
	sq.max = -math.MaxFloat64
	for _, v := range values {
		t := sq.transform(float64(v))
		if t < sq.min {
			sq.min = t
		}
		if t > sq.max {
			sq.max = t
		}
	}

	rangeVal := sq.max - sq.min
	if rangeVal < 1e-10 {
		sq.scale = 1.0
	} else {
		sq.scale = 255 / rangeVal
	}
	return nil
}

func (sq *ScalarQuantizer) Quantize(v uint32) uint8 {
	normalized := (sq.transform(float64(v)) - sq.min) * sq.scale
	return uint8(math.Max(0, math.Min(255, math.Round(normalized))))
}

package sketch

import (
	"fmt"

	"github.com/axiomhq/hyperloglog"
)

// DefaultHLLPrecision gives roughly 0.8% standard error in 16KiB.
const DefaultHLLPrecision = 14

// DistinctCounter estimates how many distinct keys were added. It is not safe
// for concurrent use on its own; Aggregator serialises access.
type DistinctCounter struct {
	precision uint8
	inner     *hyperloglog.Sketch
}

func NewDistinctCounter(precision int) (*DistinctCounter, error) {
	if precision == 0 {
		precision = DefaultHLLPrecision
	}
	if precision < 4 || precision > 18 {
		return nil, fmt.Errorf("%w: hll precision must be in [4, 18], got %d", ErrInvalidArgument, precision)
	}

	inner, err := hyperloglog.NewSketch(uint8(precision), true)
	if err != nil {
		return nil, fmt.Errorf("creating hyperloglog: %w", err)
	}

	return &DistinctCounter{
		precision: uint8(precision),
		inner:     inner,
	}, nil
}

func (dc *DistinctCounter) Add(key []byte) {
	dc.inner.Insert(key)
}

func (dc *DistinctCounter) Count() uint64 {
	return dc.inner.Estimate()
}

func (dc *DistinctCounter) Precision() int {
	return int(dc.precision)
}

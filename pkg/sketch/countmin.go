package sketch

import (
	"fmt"
	"math"
	"sync/atomic"
)

// CountMinSketch estimates key frequencies in fixed memory. Estimates never
// undercount; they may overcount because of collisions.
//
// Counters are 32-bit and saturate at math.MaxUint32. Add and Check are safe
// for concurrent use.
type CountMinSketch struct {
	rows     int
	columns  int
	family   HashFamily
	counters []uint32 // row-major: counters[r*columns+c]
	total    atomic.Uint64

	errorRate  float64
	confidence float64
}

type options struct {
	hasher Hasher
}

type Option func(*options)

// WithHasher replaces the default XXHash hasher.
func WithHasher(h Hasher) Option {
	return func(o *options) {
		o.hasher = h
	}
}

func NewCountMinSketch(rows, columns int, opts ...Option) (*CountMinSketch, error) {
	if rows < 1 {
		return nil, fmt.Errorf("%w: rows must be at least 1, got %d", ErrInvalidArgument, rows)
	}
	if columns < 1 {
		return nil, fmt.Errorf("%w: columns must be at least 1, got %d", ErrInvalidArgument, columns)
	}
	if rows > math.MaxInt/columns {
		return nil, fmt.Errorf("%w: %d x %d counters overflow", ErrInvalidArgument, rows, columns)
	}

	o := options{hasher: XXHash}
	for _, opt := range opts {
		opt(&o)
	}

	family, err := NewHashFamily(o.hasher, columns)
	if err != nil {
		return nil, err
	}

	return &CountMinSketch{
		rows:     rows,
		columns:  columns,
		family:   family,
		counters: make([]uint32, rows*columns),
	}, nil
}

// NewCountMinSketchFromBounds sizes a sketch with SizeFor.
func NewCountMinSketchFromBounds(errorRate, confidence float64, opts ...Option) (*CountMinSketch, error) {
	rows, columns, err := SizeFor(errorRate, confidence)
	if err != nil {
		return nil, err
	}

	cms, err := NewCountMinSketch(rows, columns, opts...)
	if err != nil {
		return nil, err
	}
	cms.errorRate = errorRate
	cms.confidence = confidence
	return cms, nil
}

// FromCounters rebuilds a sketch from a row-major counter slice previously
// returned by RawCounters. The hasher must match the one that produced it.
func FromCounters(rows, columns int, counters []uint32, total uint64, opts ...Option) (*CountMinSketch, error) {
	cms, err := NewCountMinSketch(rows, columns, opts...)
	if err != nil {
		return nil, err
	}
	if len(counters) != len(cms.counters) {
		return nil, fmt.Errorf("%w: expected %d counters, got %d", ErrInvalidArgument, len(cms.counters), len(counters))
	}
	copy(cms.counters, counters)
	cms.total.Store(total)
	return cms, nil
}

// Add records one occurrence of key.
func (cms *CountMinSketch) Add(key []byte) {
	for r := 0; r < cms.rows; r++ {
		idx := r*cms.columns + cms.family.Position(r, key)
		increment(&cms.counters[idx])
	}
	cms.total.Add(1)
}

func (cms *CountMinSketch) AddString(key string) {
	cms.Add([]byte(key))
}

// Check returns the estimated count of key: the minimum over all rows.
func (cms *CountMinSketch) Check(key []byte) uint32 {
	min := uint32(math.MaxUint32)

	for r := 0; r < cms.rows; r++ {
		idx := r*cms.columns + cms.family.Position(r, key)
		if v := atomic.LoadUint32(&cms.counters[idx]); v < min {
			min = v
		}
	}

	return min
}

func (cms *CountMinSketch) CheckString(key string) uint32 {
	return cms.Check([]byte(key))
}

// RawCounters returns a row-major copy of the counters. The slice has
// exactly Rows()*Columns() entries.
func (cms *CountMinSketch) RawCounters() []uint32 {
	out := make([]uint32, len(cms.counters))
	for i := range cms.counters {
		out[i] = atomic.LoadUint32(&cms.counters[i])
	}
	return out
}

func (cms *CountMinSketch) Rows() int {
	return cms.rows
}

func (cms *CountMinSketch) Columns() int {
	return cms.columns
}

// TotalCount returns the number of Add calls.
func (cms *CountMinSketch) TotalCount() uint64 {
	return cms.total.Load()
}

// ErrorBound returns errorRate*TotalCount for sketches built from bounds.
func (cms *CountMinSketch) ErrorBound() (float64, bool) {
	if cms.errorRate == 0 {
		return 0, false
	}
	return cms.errorRate * float64(cms.TotalCount()), true
}

// Bounds returns the error rate and confidence the sketch was sized for.
func (cms *CountMinSketch) Bounds() (errorRate, confidence float64, ok bool) {
	return cms.errorRate, cms.confidence, cms.errorRate != 0
}

// Saturated counts counters pinned at math.MaxUint32.
func (cms *CountMinSketch) Saturated() int {
	n := 0
	for i := range cms.counters {
		if atomic.LoadUint32(&cms.counters[i]) == math.MaxUint32 {
			n++
		}
	}
	return n
}

func increment(p *uint32) {
	for {
		v := atomic.LoadUint32(p)
		if v == math.MaxUint32 {
			return
		}
		if atomic.CompareAndSwapUint32(p, v, v+1) {
			return
		}
	}
}

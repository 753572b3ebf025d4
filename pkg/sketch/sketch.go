package sketch

import (
	"sync"
)

type Config struct {
	Rows         int
	Columns      int
	ErrorRate    float64
	Confidence   float64
	Hash         string
	HLLPrecision int
}

// Aggregator pairs a count-min sketch with a distinct-key estimate. It is the
// unit the ingest pipeline and the HTTP API share.
type Aggregator struct {
	cms      *CountMinSketch
	distinct *DistinctCounter
	mu       sync.Mutex
}

// NewAggregator builds the sketch from explicit dimensions when either is
// non-zero, otherwise from ErrorRate and Confidence.
func NewAggregator(cfg Config) (*Aggregator, error) {
	hasher, err := HasherByName(cfg.Hash)
	if err != nil {
		return nil, err
	}

	var cms *CountMinSketch
	if cfg.Rows != 0 || cfg.Columns != 0 {
		cms, err = NewCountMinSketch(cfg.Rows, cfg.Columns, WithHasher(hasher))
	} else {
		cms, err = NewCountMinSketchFromBounds(cfg.ErrorRate, cfg.Confidence, WithHasher(hasher))
	}
	if err != nil {
		return nil, err
	}

	return NewAggregatorFor(cms, cfg.HLLPrecision)
}

// NewAggregatorFor wraps an existing sketch, e.g. one restored from a snapshot.
// The distinct estimate starts empty.
func NewAggregatorFor(cms *CountMinSketch, hllPrecision int) (*Aggregator, error) {
	distinct, err := NewDistinctCounter(hllPrecision)
	if err != nil {
		return nil, err
	}
	return &Aggregator{
		cms:      cms,
		distinct: distinct,
	}, nil
}

func (a *Aggregator) AddKey(key string) {
	b := []byte(key)
	a.cms.Add(b)

	a.mu.Lock()
	a.distinct.Add(b)
	a.mu.Unlock()
}

func (a *Aggregator) Frequency(key string) uint32 {
	return a.cms.CheckString(key)
}

func (a *Aggregator) Sketch() *CountMinSketch {
	return a.cms
}

func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	distinct := a.distinct.Count()
	a.mu.Unlock()

	bound, _ := a.cms.ErrorBound()
	return Stats{
		Rows:        a.cms.Rows(),
		Columns:     a.cms.Columns(),
		TotalEvents: a.cms.TotalCount(),
		UniqueCount: distinct,
		ErrorBound:  bound,
		Saturated:   a.cms.Saturated(),
	}
}

type Stats struct {
	Rows        int     `json:"rows"`
	Columns     int     `json:"columns"`
	TotalEvents uint64  `json:"total"`
	UniqueCount uint64  `json:"distinct_estimate"`
	ErrorBound  float64 `json:"error_bound"`
	Saturated   int     `json:"saturated_counters"`
}

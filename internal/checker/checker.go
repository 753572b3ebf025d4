package checker

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Estimator is the read side of a frequency sketch.
type Estimator interface {
	CheckString(key string) uint32
}

// Discrepancy records a key whose estimate is off from its exact count.
type Discrepancy struct {
	Key       string `json:"key"`
	Exact     uint64 `json:"exact"`
	Estimate  uint32 `json:"estimate"`
	OverCount int64  `json:"over_count"`
}

type Report struct {
	Keys          int           `json:"keys"`
	Total         uint64        `json:"total"`
	Bound         float64       `json:"bound"`
	Undercounts   int           `json:"undercounts"`
	Exceeded      int           `json:"exceeded"`
	ExceededRatio float64       `json:"exceeded_ratio"`
	MeanOver      float64       `json:"mean_over"`
	StdDevOver    float64       `json:"stddev_over"`
	P99Over       float64       `json:"p99_over"`
	Worst         []Discrepancy `json:"worst"`
}

// OK reports whether no key was undercounted and at most maxExceeded of the
// keys went past the error bound.
func (r Report) OK(maxExceeded float64) bool {
	return r.Undercounts == 0 && r.ExceededRatio <= maxExceeded
}

func (r Report) String() string {
	return fmt.Sprintf("keys=%d total=%d bound=%.2f undercounts=%d exceeded=%d (%.4f) mean_over=%.3f stddev_over=%.3f p99_over=%.1f",
		r.Keys, r.Total, r.Bound, r.Undercounts, r.Exceeded, r.ExceededRatio, r.MeanOver, r.StdDevOver, r.P99Over)
}

type AccuracyChecker struct {
	errorRate float64
	worst     int
	observe   func(over float64)
}

// NewAccuracyChecker checks estimates against errorRate*total. worst caps
// the number of discrepancies kept in a report.
func NewAccuracyChecker(errorRate float64, worst int) *AccuracyChecker {
	return &AccuracyChecker{
		errorRate: errorRate,
		worst:     worst,
	}
}

// WithObserver registers fn to receive every per-key overcount, e.g. a
// histogram's Observe.
func (c *AccuracyChecker) WithObserver(fn func(over float64)) *AccuracyChecker {
	c.observe = fn
	return c
}

// Compare checks every exact count against est. total is the number of
// insertions the sketch has seen.
func (c *AccuracyChecker) Compare(exact map[string]uint64, est Estimator, total uint64) Report {
	report := Report{
		Keys:  len(exact),
		Total: total,
		Bound: c.errorRate * float64(total),
	}
	if len(exact) == 0 {
		return report
	}

	overs := make([]float64, 0, len(exact))
	var discrepancies []Discrepancy

	for k, v := range exact {
		got := est.CheckString(k)
		over := int64(got) - int64(v)
		overs = append(overs, float64(over))
		if c.observe != nil {
			c.observe(float64(over))
		}

		if over < 0 {
			report.Undercounts++
		} else if float64(over) > report.Bound {
			report.Exceeded++
		}
		if over != 0 {
			discrepancies = append(discrepancies, Discrepancy{Key: k, Exact: v, Estimate: got, OverCount: over})
		}
	}

	report.ExceededRatio = float64(report.Exceeded) / float64(len(exact))
	report.MeanOver, report.StdDevOver = stat.MeanStdDev(overs, nil)
	if len(overs) < 2 {
		report.StdDevOver = 0
	}

	sort.Float64s(overs)
	report.P99Over = stat.Quantile(0.99, stat.Empirical, overs, nil)

	sort.Slice(discrepancies, func(i, j int) bool {
		a, b := abs(discrepancies[i].OverCount), abs(discrepancies[j].OverCount)
		if a != b {
			return a > b
		}
		return discrepancies[i].Key < discrepancies[j].Key
	})
	if len(discrepancies) > c.worst {
		discrepancies = discrepancies[:c.worst]
	}
	report.Worst = discrepancies

	return report
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

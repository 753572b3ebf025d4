package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/yourusername/word-sketch/internal/cdc"
	"github.com/yourusername/word-sketch/internal/checker"
	"github.com/yourusername/word-sketch/internal/config"
	"github.com/yourusername/word-sketch/internal/exact"
	"github.com/yourusername/word-sketch/internal/export"
	"github.com/yourusername/word-sketch/internal/guardrail"
	"github.com/yourusername/word-sketch/internal/metrics"
	"github.com/yourusername/word-sketch/internal/storage"
	"github.com/yourusername/word-sketch/internal/text"
	"github.com/yourusername/word-sketch/pkg/sketch"
)

const worstReported = 10

func hashName(cfg *config.Config) string {
	if cfg.Sketch.Hash == "" {
		return "xxhash"
	}
	return cfg.Sketch.Hash
}

// buildAggregator sizes the sketch from explicit dimensions or from the
// configured bounds, checking the result against the guardrail first.
func buildAggregator(cfg *config.Config) (*sketch.Aggregator, error) {
	rows, columns := cfg.Sketch.Rows, cfg.Sketch.Columns
	if rows == 0 && columns == 0 {
		var err error
		rows, columns, err = sketch.SizeFor(cfg.Sketch.ErrorRate, cfg.Sketch.Confidence)
		if err != nil {
			return nil, err
		}
	}
	if err := guardrail.NewSizeGuardrail(cfg.Guardrail).Validate(rows, columns); err != nil {
		return nil, err
	}

	return sketch.NewAggregator(sketch.Config{
		Rows:         cfg.Sketch.Rows,
		Columns:      cfg.Sketch.Columns,
		ErrorRate:    cfg.Sketch.ErrorRate,
		Confidence:   cfg.Sketch.Confidence,
		Hash:         cfg.Sketch.Hash,
		HLLPrecision: cfg.Sketch.HLLPrecision,
	})
}

func restoreAggregator(ctx context.Context, cfg *config.Config, store *storage.SnapshotStore) (*sketch.Aggregator, error) {
	snap, hash, err := store.Load(ctx, cfg.Snapshot.Name)
	if err != nil {
		return nil, err
	}
	if hash != hashName(cfg) {
		return nil, fmt.Errorf("snapshot %q was built with %s, config asks for %s", cfg.Snapshot.Name, hash, hashName(cfg))
	}
	if err := guardrail.NewSizeGuardrail(cfg.Guardrail).Validate(snap.Rows, snap.Columns); err != nil {
		return nil, err
	}

	hasher, err := sketch.HasherByName(hash)
	if err != nil {
		return nil, err
	}
	cms, err := snap.Restore(sketch.WithHasher(hasher))
	if err != nil {
		return nil, err
	}
	return sketch.NewAggregatorFor(cms, cfg.Sketch.HLLPrecision)
}

func saveSnapshot(ctx context.Context, cfg *config.Config, store *storage.SnapshotStore, agg *sketch.Aggregator) error {
	return store.Save(ctx, cfg.Snapshot.Name, hashName(cfg), export.SnapshotOf(agg.Sketch()))
}

// ingestFile streams the words of path into the sketch and the exact counter.
func ingestFile(ctx context.Context, path string, agg *sketch.Aggregator, counter *exact.Counter) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	before := counter.Total()
	err = text.Scan(ctx, f, func(word string) error {
		agg.AddKey(word)
		counter.Add(word)
		return nil
	})
	metrics.WordsIngestedTotal.WithLabelValues("file").Add(float64(counter.Total() - before))
	updateGauges(agg)
	return err
}

// checkAccuracy compares every exact count with the sketch estimate. Sketches
// with explicit dimensions are checked against the error rate their width
// implies.
func checkAccuracy(agg *sketch.Aggregator, counter *exact.Counter) checker.Report {
	cms := agg.Sketch()
	errorRate, _, ok := cms.Bounds()
	if !ok {
		errorRate = 2 / float64(cms.Columns())
	}

	c := checker.NewAccuracyChecker(errorRate, worstReported).
		WithObserver(metrics.EstimateOverCount.Observe)
	return c.Compare(counter.Map(), cms, cms.TotalCount())
}

func writeOutputs(out config.OutputConfig, agg *sketch.Aggregator, counter *exact.Counter) error {
	snap := export.SnapshotOf(agg.Sketch())

	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{out.JSON, func(w io.Writer) error { return export.WriteJSON(w, snap) }},
		{out.CountsJSON, func(w io.Writer) error { return export.WriteCountsJSON(w, counter.Top(out.TopWords)) }},
		{out.PNG, func(w io.Writer) error { return export.RenderPNG(w, snap) }},
		{out.Compressed, func(w io.Writer) error { return export.WriteCompressed(w, snap) }},
	}

	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeFile(o.path, o.write); err != nil {
			return fmt.Errorf("writing %s: %w", o.path, err)
		}
		log.Printf("Wrote %s", o.path)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func updateGauges(agg *sketch.Aggregator) sketch.Stats {
	stats := agg.Stats()
	metrics.SketchTotalCount.Set(float64(stats.TotalEvents))
	metrics.DistinctWordsEstimate.Set(float64(stats.UniqueCount))
	metrics.SaturatedCounters.Set(float64(stats.Saturated))
	return stats
}

// Ingester feeds CDC row text into the shared aggregator while the API
// serves queries from it.
type Ingester struct {
	agg      *sketch.Aggregator
	events   <-chan cdc.Event
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewIngester reads from events until it is closed or Stop is called. A nil
// events channel only reports stats.
func NewIngester(agg *sketch.Aggregator, events <-chan cdc.Event, statsInterval time.Duration) *Ingester {
	ctx, cancel := context.WithCancel(context.Background())
	return &Ingester{
		agg:      agg,
		events:   events,
		interval: statsInterval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (i *Ingester) Start() {
	i.wg.Add(2)
	go i.processEvents()
	go i.printStats()
}

func (i *Ingester) processEvents() {
	defer i.wg.Done()
	for {
		select {
		case event, ok := <-i.events:
			if !ok {
				return
			}
			words := text.ToWords(event.Text)
			for _, w := range words {
				i.agg.AddKey(w)
			}
			metrics.WordsIngestedTotal.WithLabelValues("cdc").Add(float64(len(words)))

		case <-i.ctx.Done():
			return
		}
	}
}

func (i *Ingester) printStats() {
	defer i.wg.Done()
	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := updateGauges(i.agg)
			log.Printf("Stats - Total words: %d, Distinct: ~%d, Saturated counters: %d",
				stats.TotalEvents, stats.UniqueCount, stats.Saturated)

		case <-i.ctx.Done():
			return
		}
	}
}

func (i *Ingester) Stop() {
	i.cancel()
	i.wg.Wait()
	updateGauges(i.agg)
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/word-sketch/internal/cdc"
	"github.com/yourusername/word-sketch/internal/config"
	"github.com/yourusername/word-sketch/internal/exact"
	"github.com/yourusername/word-sketch/internal/export"
	"github.com/yourusername/word-sketch/pkg/sketch"
)

const passage = `It is a truth universally acknowledged, that a single man in
possession of a good fortune, must be in want of a wife. However little known
the feelings or views of such a man may be on his first entering a
neighbourhood, this truth is so well fixed in the minds of the surrounding
families, that he is considered the rightful property of some one or other of
their daughters.`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Sketch.ErrorRate = 0.01
	cfg.Sketch.Confidence = 0.99
	return &cfg
}

func TestBuildAggregator(t *testing.T) {
	cfg := testConfig()
	agg, err := buildAggregator(cfg)
	require.NoError(t, err)
	assert.Equal(t, 7, agg.Sketch().Rows())
	assert.Equal(t, 200, agg.Sketch().Columns())

	cfg.Sketch.Rows, cfg.Sketch.Columns = 3, 50
	agg, err = buildAggregator(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, agg.Sketch().Rows())
	assert.Equal(t, 50, agg.Sketch().Columns())

	cfg.Guardrail.MaxRows = 2
	_, err = buildAggregator(cfg)
	assert.Error(t, err)
}

func TestBuildAggregatorRejectsNegativeDimensions(t *testing.T) {
	cfg := testConfig()
	cfg.Sketch.Rows = -3
	_, err := buildAggregator(cfg)
	assert.ErrorIs(t, err, sketch.ErrInvalidArgument)

	cfg.Sketch.Columns = -5
	_, err = buildAggregator(cfg)
	assert.ErrorIs(t, err, sketch.ErrInvalidArgument)
}

func TestIngestFileAndCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passage.txt")
	require.NoError(t, os.WriteFile(path, []byte(passage), 0o644))

	agg, err := buildAggregator(testConfig())
	require.NoError(t, err)
	counter := exact.NewCounter()

	require.NoError(t, ingestFile(context.Background(), path, agg, counter))
	assert.Equal(t, counter.Total(), agg.Sketch().TotalCount())
	assert.Equal(t, uint64(6), counter.Count("of"))
	assert.GreaterOrEqual(t, agg.Frequency("truth"), uint32(2))

	report := checkAccuracy(agg, counter)
	assert.Equal(t, counter.Len(), report.Keys)
	assert.Zero(t, report.Undercounts)
}

func TestIngestFileMissing(t *testing.T) {
	agg, err := buildAggregator(testConfig())
	require.NoError(t, err)
	err = ingestFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), agg, exact.NewCounter())
	assert.Error(t, err)
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	out := config.OutputConfig{
		JSON:       filepath.Join(dir, "sketch.json"),
		CountsJSON: filepath.Join(dir, "counts.json"),
		PNG:        filepath.Join(dir, "sketch.png"),
		Compressed: filepath.Join(dir, "sketch.cms.zst"),
		TopWords:   2,
	}

	agg, err := buildAggregator(testConfig())
	require.NoError(t, err)
	counter := exact.NewCounter()
	for _, w := range []string{"tea", "tea", "tea", "scone", "scone", "jam"} {
		agg.AddKey(w)
		counter.Add(w)
	}

	require.NoError(t, writeOutputs(out, agg, counter))

	data, err := os.ReadFile(out.CountsJSON)
	require.NoError(t, err)
	var top []exact.Entry
	require.NoError(t, json.Unmarshal(data, &top))
	assert.Equal(t, []exact.Entry{{Key: "tea", Count: 3}, {Key: "scone", Count: 2}}, top)

	f, err := os.Open(out.Compressed)
	require.NoError(t, err)
	defer f.Close()
	snap, err := export.ReadCompressed(f)
	require.NoError(t, err)
	assert.Equal(t, agg.Sketch().RawCounters(), snap.Counters)

	for _, p := range []string{out.JSON, out.PNG} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestWriteOutputsSkipsEmptyPaths(t *testing.T) {
	agg, err := buildAggregator(testConfig())
	require.NoError(t, err)
	assert.NoError(t, writeOutputs(config.OutputConfig{}, agg, exact.NewCounter()))
}

func TestIngesterConsumesEvents(t *testing.T) {
	agg, err := sketch.NewAggregator(sketch.Config{Rows: 4, Columns: 128})
	require.NoError(t, err)

	events := make(chan cdc.Event, 2)
	ing := NewIngester(agg, events, time.Hour)
	ing.Start()

	events <- cdc.Event{Type: cdc.Insert, Table: "public.passages", ID: "1", Text: "Jeeves shimmered in"}
	events <- cdc.Event{Type: cdc.Update, Table: "public.passages", ID: "1", Text: "jeeves"}
	close(events)

	require.Eventually(t, func() bool {
		return agg.Sketch().TotalCount() == 4
	}, time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, agg.Frequency("jeeve"), uint32(2))

	ing.Stop()
}

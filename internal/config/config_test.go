package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sketch:
  error_rate: 0.001
  confidence: 0.95
  hash: murmur3
input:
  path: wodehouse.txt
output:
  png: out/sketch.png
database:
  host: localhost
  user: words
cdc:
  enabled: true
  publication: words_pub
  table: public.passages
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.001, cfg.Sketch.ErrorRate)
	assert.Equal(t, 0.95, cfg.Sketch.Confidence)
	assert.Equal(t, "murmur3", cfg.Sketch.Hash)
	assert.Equal(t, "wodehouse.txt", cfg.Input.Path)
	assert.Equal(t, "out/sketch.png", cfg.Output.PNG)
	assert.Equal(t, 20, cfg.Output.TopWords)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "body", cfg.CDC.TextColumn)
	assert.Equal(t, 1000, cfg.CDC.BufferSize)
	assert.Equal(t, ":8080", cfg.API.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"rows without columns": "sketch: {rows: 4}",
		"negative rows":        "sketch: {rows: -3}",
		"negative dimensions":  "sketch: {rows: -3, columns: -5}",
		"cdc without database": "cdc: {enabled: true, publication: p, table: t}",
		"cdc without table":    "database: {host: h}\ncdc: {enabled: true, publication: p}",
		"restore without db":   "snapshot: {restore: true}",
		"negative guardrail":   "guardrail: {max_rows: -1}",
		"negative top words":   "output: {top_words: -3}",
		"not yaml":             "sketch: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/word-sketch/internal/config"
	"github.com/yourusername/word-sketch/internal/export"
)

func TestCountersBlob(t *testing.T) {
	snap := export.Snapshot{Rows: 2, Columns: 4, Total: 11, Counters: []uint32{0, 3, 0, 8, 1, 1, 9, 0}}

	blob, err := EncodeCounters(snap)
	require.NoError(t, err)

	got, err := DecodeCounters(blob)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	_, err = DecodeCounters([]byte("not zstd"))
	assert.Error(t, err)
}

func TestConnString(t *testing.T) {
	got := ConnString(config.DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "words", SSLMode: "require",
	})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=words sslmode=require", got)
}

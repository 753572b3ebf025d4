package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourusername/word-sketch/internal/export"
)

var ErrSnapshotNotFound = errors.New("storage: snapshot not found")

const createSnapshotsTable = `
	CREATE TABLE IF NOT EXISTS sketch_snapshots (
		name       TEXT PRIMARY KEY,
		rows       INTEGER NOT NULL,
		columns    INTEGER NOT NULL,
		total      BIGINT NOT NULL,
		hash       TEXT NOT NULL,
		counters   BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

const upsertSnapshot = `
	INSERT INTO sketch_snapshots (name, rows, columns, total, hash, counters, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	ON CONFLICT (name) DO UPDATE SET
		rows = EXCLUDED.rows,
		columns = EXCLUDED.columns,
		total = EXCLUDED.total,
		hash = EXCLUDED.hash,
		counters = EXCLUDED.counters,
		updated_at = EXCLUDED.updated_at`

const selectSnapshot = `
	SELECT hash, counters FROM sketch_snapshots WHERE name = $1`

// SnapshotStore persists sketch counters in Postgres. Counters are stored
// zstd-compressed in the export binary layout.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSnapshotsTable); err != nil {
		return fmt.Errorf("creating sketch_snapshots: %w", err)
	}
	return nil
}

// Save upserts snap under name. hash names the hasher that produced it.
func (s *SnapshotStore) Save(ctx context.Context, name, hash string, snap export.Snapshot) error {
	blob, err := EncodeCounters(snap)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, upsertSnapshot, name, snap.Rows, snap.Columns, int64(snap.Total), hash, blob)
	if err != nil {
		return fmt.Errorf("saving snapshot %q: %w", name, err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, name string) (export.Snapshot, string, error) {
	var (
		hash string
		blob []byte
	)
	err := s.db.QueryRowContext(ctx, selectSnapshot, name).Scan(&hash, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return export.Snapshot{}, "", fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return export.Snapshot{}, "", fmt.Errorf("loading snapshot %q: %w", name, err)
	}

	snap, err := DecodeCounters(blob)
	if err != nil {
		return export.Snapshot{}, "", fmt.Errorf("decoding snapshot %q: %w", name, err)
	}
	return snap, hash, nil
}

func EncodeCounters(snap export.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := export.WriteCompressed(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeCounters(blob []byte) (export.Snapshot, error) {
	return export.ReadCompressed(bytes.NewReader(blob))
}

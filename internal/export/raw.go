// Package export writes sketch counters out for persistence and inspection.
//
// The binary layout is little-endian:
//
//	magic    [4]byte  "CMS1"
//	rows     uint32
//	columns  uint32
//	total    uint64
//	counters [rows*columns]uint32, row-major
package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/yourusername/word-sketch/pkg/sketch"
)

var magic = [4]byte{'C', 'M', 'S', '1'}

var ErrBadFormat = errors.New("export: bad counter format")

// Snapshot is a detached copy of a sketch's counters.
type Snapshot struct {
	Rows     int      `json:"rows"`
	Columns  int      `json:"columns"`
	Total    uint64   `json:"total"`
	Counters []uint32 `json:"counters"`
}

func SnapshotOf(cms *sketch.CountMinSketch) Snapshot {
	return Snapshot{
		Rows:     cms.Rows(),
		Columns:  cms.Columns(),
		Total:    cms.TotalCount(),
		Counters: cms.RawCounters(),
	}
}

// Restore rebuilds a sketch. The options must select the hasher the
// snapshot was produced with.
func (s Snapshot) Restore(opts ...sketch.Option) (*sketch.CountMinSketch, error) {
	return sketch.FromCounters(s.Rows, s.Columns, s.Counters, s.Total, opts...)
}

type header struct {
	Magic   [4]byte
	Rows    uint32
	Columns uint32
	Total   uint64
}

func WriteRaw(w io.Writer, s Snapshot) error {
	if s.Rows < 1 || s.Columns < 1 || len(s.Counters) != s.Rows*s.Columns {
		return fmt.Errorf("%w: %d counters for %dx%d", ErrBadFormat, len(s.Counters), s.Rows, s.Columns)
	}
	if uint64(s.Rows) > math.MaxUint32 || uint64(s.Columns) > math.MaxUint32 {
		return fmt.Errorf("%w: dimensions %dx%d exceed 32 bits", ErrBadFormat, s.Rows, s.Columns)
	}

	bw := bufio.NewWriter(w)
	h := header{Magic: magic, Rows: uint32(s.Rows), Columns: uint32(s.Columns), Total: s.Total}
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := binary.Write(bw, binary.LittleEndian, s.Counters); err != nil {
		return fmt.Errorf("writing counters: %w", err)
	}
	return bw.Flush()
}

// maxCounters bounds allocations when reading untrusted input (1GiB).
const maxCounters = 1 << 28

func ReadRaw(r io.Reader) (Snapshot, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Snapshot{}, fmt.Errorf("reading header: %w", err)
	}
	if h.Magic != magic {
		return Snapshot{}, fmt.Errorf("%w: magic %q", ErrBadFormat, h.Magic[:])
	}
	n := uint64(h.Rows) * uint64(h.Columns)
	if n == 0 || n > maxCounters {
		return Snapshot{}, fmt.Errorf("%w: dimensions %dx%d", ErrBadFormat, h.Rows, h.Columns)
	}

	counters := make([]uint32, n)
	if err := binary.Read(r, binary.LittleEndian, counters); err != nil {
		return Snapshot{}, fmt.Errorf("reading counters: %w", err)
	}

	return Snapshot{
		Rows:     int(h.Rows),
		Columns:  int(h.Columns),
		Total:    h.Total,
		Counters: counters,
	}, nil
}

// WriteCompressed writes the binary layout through a zstd encoder.
func WriteCompressed(w io.Writer, s Snapshot) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	if err := WriteRaw(enc, s); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing zstd encoder: %w", err)
	}
	return nil
}

func ReadCompressed(r io.Reader) (Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	return ReadRaw(dec)
}

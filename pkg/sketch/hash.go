package sketch

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-metro"
	"github.com/spaolacci/murmur3"
)

// Hasher maps a seed and a key to a 64-bit hash. Implementations must be
// deterministic and should be fast and non-cryptographic.
type Hasher func(seed uint64, key []byte) uint64

// XXHash is the default hasher.
func XXHash(seed uint64, key []byte) uint64 {
	d := xxhash.NewWithSeed(seed)
	d.Write(key)
	return d.Sum64()
}

// Murmur3 truncates the seed to 32 bits, which is plenty for row indexes.
func Murmur3(seed uint64, key []byte) uint64 {
	return murmur3.Sum64WithSeed(key, uint32(seed))
}

func Metro(seed uint64, key []byte) uint64 {
	return metro.Hash64(key, seed)
}

// FNV1a writes the seed as an 8-byte prefix before the key.
func FNV1a(seed uint64, key []byte) uint64 {
	h := fnv.New64a()

	var seedBuf [8]byte
	binary.LittleEndian.PutUint64(seedBuf[:], seed)

	h.Write(seedBuf[:])
	h.Write(key)
	return h.Sum64()
}

var hashers = map[string]Hasher{
	"xxhash":  XXHash,
	"murmur3": Murmur3,
	"metro":   Metro,
	"fnv1a":   FNV1a,
}

// HasherByName resolves a hasher from its configuration name. An empty name
// selects XXHash.
func HasherByName(name string) (Hasher, error) {
	if name == "" {
		return XXHash, nil
	}
	h, ok := hashers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown hasher %q", ErrInvalidArgument, name)
	}
	return h, nil
}

// HashFamily derives one hash function per row by seeding a single Hasher
// with the row index, and reduces each hash into [0, columns) by modulo.
type HashFamily struct {
	hash    Hasher
	columns uint64
}

func NewHashFamily(h Hasher, columns int) (HashFamily, error) {
	if h == nil {
		return HashFamily{}, fmt.Errorf("%w: nil hasher", ErrInvalidArgument)
	}
	if columns < 1 {
		return HashFamily{}, fmt.Errorf("%w: columns must be at least 1, got %d", ErrInvalidArgument, columns)
	}
	return HashFamily{hash: h, columns: uint64(columns)}, nil
}

// Position returns the column that key maps to in the given row.
func (f HashFamily) Position(row int, key []byte) int {
	return int(f.hash(uint64(row), key) % f.columns)
}

func (f HashFamily) Columns() int {
	return int(f.columns)
}

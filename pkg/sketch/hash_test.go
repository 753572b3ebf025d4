package sketch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allHashers = map[string]Hasher{
	"xxhash":  XXHash,
	"murmur3": Murmur3,
	"metro":   Metro,
	"fnv1a":   FNV1a,
}

func TestPositionIsDeterministic(t *testing.T) {
	for name, h := range allHashers {
		t.Run(name, func(t *testing.T) {
			family, err := NewHashFamily(h, 997)
			require.NoError(t, err)

			for row := 0; row < 8; row++ {
				for _, key := range []string{"", "castle", "jeeves", "wooster"} {
					first := family.Position(row, []byte(key))
					assert.GreaterOrEqual(t, first, 0)
					assert.Less(t, first, 997)
					for i := 0; i < 5; i++ {
						assert.Equal(t, first, family.Position(row, []byte(key)))
					}
				}
			}
		})
	}
}

func TestRowsAreNotCorrelated(t *testing.T) {
	const columns = 1 << 16
	for name, h := range allHashers {
		t.Run(name, func(t *testing.T) {
			family, err := NewHashFamily(h, columns)
			require.NoError(t, err)

			same := 0
			for i := 0; i < 2000; i++ {
				key := []byte(fmt.Sprintf("word-%d", i))
				if family.Position(0, key) == family.Position(1, key) {
					same++
				}
			}
			// Independent rows agree on about 2000/65536 keys.
			assert.Less(t, same, 10)
		})
	}
}

func TestPositionSpreadsKeys(t *testing.T) {
	const columns = 51
	family, err := NewHashFamily(XXHash, columns)
	require.NoError(t, err)

	buckets := make([]int, columns)
	const n = 10000
	for i := 0; i < n; i++ {
		buckets[family.Position(3, []byte(fmt.Sprintf("key-%d", i)))]++
	}

	avg := float64(n) / columns
	chiSquare := 0.0
	for _, v := range buckets {
		diff := float64(v) - avg
		chiSquare += diff * diff / avg
	}
	// 50 degrees of freedom, p = 0.001.
	assert.Less(t, chiSquare, 86.66)
}

func TestHasherByName(t *testing.T) {
	for name := range allHashers {
		h, err := HasherByName(name)
		require.NoError(t, err)
		assert.Equal(t, allHashers[name](7, []byte("x")), h(7, []byte("x")))
	}

	h, err := HasherByName("")
	require.NoError(t, err)
	assert.Equal(t, XXHash(1, []byte("castle")), h(1, []byte("castle")))

	_, err = HasherByName("sha256")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewHashFamilyValidation(t *testing.T) {
	_, err := NewHashFamily(nil, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewHashFamily(XXHash, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

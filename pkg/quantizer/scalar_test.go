package quantizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarQuantizerLinear(t *testing.T) {
	q := NewScalarQuantizer(false)
	require.NoError(t, q.Fit([]uint32{10, 20, 265}))

	assert.Equal(t, uint8(0), q.Quantize(10))
	assert.Equal(t, uint8(255), q.Quantize(265))
	assert.Equal(t, uint8(10), q.Quantize(20))
	assert.Equal(t, uint8(0), q.Quantize(0))
	assert.Equal(t, uint8(255), q.Quantize(1000))
}

func TestScalarQuantizerLog(t *testing.T) {
	q := NewScalarQuantizer(true)
	require.NoError(t, q.Fit([]uint32{0, 1, 10, 100, 1000000}))

	prev := q.Quantize(0)
	assert.Equal(t, uint8(0), prev)
	for _, v := range []uint32{1, 10, 100, 1000000} {
		cur := q.Quantize(v)
		assert.Greater(t, cur, prev, "v=%d", v)
		prev = cur
	}
	assert.Equal(t, uint8(255), q.Quantize(1000000))
	// On a linear scale 100 would be indistinguishable from 0.
	assert.Greater(t, q.Quantize(100), uint8(50))
}

func TestScalarQuantizerFlat(t *testing.T) {
	q := NewScalarQuantizer(true)
	assert.Error(t, q.Fit(nil))
	require.NoError(t, q.Fit([]uint32{7, 7, 7}))
	assert.Equal(t, uint8(0), q.Quantize(7))
}

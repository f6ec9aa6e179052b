package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("overflow")

func TestToInt64(t *testing.T) {
	t.Parallel()

	v, err := ToInt64(42, errTest)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = ToInt64(math.MaxUint64, errTest)
	assert.ErrorIs(t, err, errTest)
}

func TestToInt(t *testing.T) {
	t.Parallel()

	v, err := ToInt(7, errTest)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = ToInt(math.MaxUint64, errTest)
	assert.ErrorIs(t, err, errTest)
}

func TestAddUint64(t *testing.T) {
	t.Parallel()

	sum, ok := AddUint64(1, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), sum)

	_, ok = AddUint64(math.MaxUint64, 1)
	assert.False(t, ok)
}

func TestWithin(t *testing.T) {
	t.Parallel()

	assert.True(t, Within(0, 10, 10))
	assert.False(t, Within(1, 10, 10))
	assert.True(t, Within(100, 100, -1))
	assert.False(t, Within(math.MaxUint64, 2, math.MaxInt64))
}

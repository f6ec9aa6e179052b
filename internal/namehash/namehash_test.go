package namehash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSumKnownVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want uint64
	}{
		{"", 0},
		{"a", 0xee63c6b3fb321542},
		{"foo", 0xff8b3f4b9bf27f16},
		{"hello world", 0xfa3160129c13e07c},
		{"data/chara/sophie.bin", 0xf1137388cf01598e},
		{"äbc", 0xe064a9d2acf5a868},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Sum(tt.name), "Sum(%q) = %#x", tt.name, Sum(tt.name))
		})
	}
}

func TestSumCaseInsensitive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Sum("foo"), Sum("Foo"))
	assert.Equal(t, Sum("foo"), Sum("FOO"))
	assert.Equal(t, Sum("äbc"), Sum("ÄBC"))
	assert.Equal(t, Sum("Data/Chara/SOPHIE.bin"), Sum("data/chara/sophie.bin"))
}

func TestSumDeterministic(t *testing.T) {
	t.Parallel()

	first := Sum("map/field/f01.bin")
	for range 100 {
		assert.Equal(t, first, Sum("map/field/f01.bin"))
	}
	assert.NotEqual(t, first, Sum("map/field/f02.bin"))
}

func TestSumBytesEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), SumBytes(nil))
	assert.Equal(t, Sum("abc"), SumBytes([]byte("abc")))
}

func TestSeeds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0x56811021), seed2)
}

func BenchmarkSum(b *testing.B) {
	for b.Loop() {
		Sum("data/chara/sophie/model/body.bin")
	}
}

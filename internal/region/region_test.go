package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid geometry", func(t *testing.T) {
		for _, tc := range []struct {
			in   string
			want LogicalRegion
		}{
			{"0,0 1920x1080", LogicalRegion{Size: Size{1920, 1080}}},
			{"-100,50 10x20", LogicalRegion{Position{-100, 50}, Size{10, 20}}},
			{"  1,2 3x4  ", LogicalRegion{Position{1, 2}, Size{3, 4}}},
		} {
			got, err := Parse(tc.in)
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
		}
	})

	t.Run("invalid geometry", func(t *testing.T) {
		for _, in := range []string{
			"",
			"1920x1080",
			"0,0",
			"0;0 10x10",
			"a,0 10x10",
			"0,b 10x10",
			"0,0 ax10",
			"0,0 10xb",
			"0,0 10x10 extra",
			"0,0 0x10",
			"0,0 10x0",
			"0,0 -10x10",
		} {
			_, err := Parse(in)
			assert.Error(t, err, "input %q", in)
		}
	})

	t.Run("round-trips through String", func(t *testing.T) {
		r := LogicalRegion{Position{-5, 7}, Size{640, 480}}
		got, err := Parse(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	})
}

func TestIntersect(t *testing.T) {
	screen := LogicalRegion{Size: Size{1920, 1080}}

	t.Run("overlap is clipped", func(t *testing.T) {
		got, ok := screen.Intersect(LogicalRegion{Position{1900, -10}, Size{100, 100}})
		require.True(t, ok)
		assert.Equal(t, LogicalRegion{Position{1900, 0}, Size{20, 90}}, got)
	})

	t.Run("containment returns the smaller region", func(t *testing.T) {
		inner := LogicalRegion{Position{10, 10}, Size{5, 5}}
		got, ok := screen.Intersect(inner)
		require.True(t, ok)
		assert.Equal(t, inner, got)
	})

	t.Run("is symmetric", func(t *testing.T) {
		other := LogicalRegion{Position{1000, 500}, Size{2000, 2000}}
		a, okA := screen.Intersect(other)
		b, okB := other.Intersect(screen)
		assert.Equal(t, okA, okB)
		assert.Equal(t, a, b)
	})

	t.Run("touching edges do not overlap", func(t *testing.T) {
		_, ok := screen.Intersect(LogicalRegion{Position{1920, 0}, Size{100, 100}})
		assert.False(t, ok)
	})

	t.Run("disjoint regions do not overlap", func(t *testing.T) {
		_, ok := screen.Intersect(LogicalRegion{Position{5000, 5000}, Size{1, 1}})
		assert.False(t, ok)
	})
}

func TestEmpty(t *testing.T) {
	assert.True(t, LogicalRegion{}.Empty())
	assert.True(t, LogicalRegion{Size: Size{Width: 10}}.Empty())
	assert.False(t, LogicalRegion{Size: Size{1, 1}}.Empty())
}

package capture

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgb8888ToRGBA8(t *testing.T) {
	t.Run("swaps bytes 0 and 2 of every pixel", func(t *testing.T) {
		// B,G,R,A on the wire.
		in := []byte{0x10, 0x20, 0x30, 0xFF, 0x01, 0x02, 0x03, 0x04}
		out, err := Argb8888ToRGBA8(in)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x30, 0x20, 0x10, 0xFF, 0x03, 0x02, 0x01, 0x04}, out)
	})

	t.Run("is its own inverse", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		in := make([]byte, 4*1024)
		rng.Read(in)

		once, err := Argb8888ToRGBA8(in)
		require.NoError(t, err)
		twice, err := Argb8888ToRGBA8(once)
		require.NoError(t, err)
		assert.Equal(t, in, twice)
	})

	t.Run("is deterministic", func(t *testing.T) {
		in := []byte{9, 8, 7, 6, 5, 4, 3, 2}
		a, err := Argb8888ToRGBA8(in)
		require.NoError(t, err)
		b, err := Argb8888ToRGBA8(in)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("rejects partial pixels", func(t *testing.T) {
		for _, n := range []int{1, 2, 3, 5, 4097} {
			_, err := Argb8888ToRGBA8(make([]byte, n))
			assert.ErrorIs(t, err, ErrInvalidPixelData, "length %d", n)
		}
	})

	t.Run("full frame scenario", func(t *testing.T) {
		const (
			width  = 1920
			height = 1080
			stride = 7680
		)
		in := bytes.Repeat([]byte{0x10, 0x20, 0x30, 0xFF}, stride*height/4)
		out, err := Argb8888ToRGBA8(in)
		require.NoError(t, err)
		require.Len(t, out, stride*height)
		for i := 0; i < len(out); i += 4 {
			if out[i] != 0x30 || out[i+1] != 0x20 || out[i+2] != 0x10 || out[i+3] != 0xFF {
				t.Fatalf("pixel %d = %v, want [30 20 10 ff]", i/4, out[i:i+4])
			}
		}
	})
}

func TestAbgr8888ToRGBA8(t *testing.T) {
	t.Run("is an identity copy", func(t *testing.T) {
		in := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		out, err := Abgr8888ToRGBA8(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("does not alias the input", func(t *testing.T) {
		in := []byte{1, 2, 3, 4}
		out, err := Abgr8888ToRGBA8(in)
		require.NoError(t, err)
		out[0] = 0xFF
		assert.Equal(t, byte(1), in[0])
	})

	t.Run("rejects partial pixels", func(t *testing.T) {
		_, err := Abgr8888ToRGBA8(make([]byte, 7))
		assert.ErrorIs(t, err, ErrInvalidPixelData)
	})
}

func TestBgr888ToRGB8(t *testing.T) {
	t.Run("is an identity copy", func(t *testing.T) {
		in := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		out, err := Bgr888ToRGB8(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("rejects unaligned buffers", func(t *testing.T) {
		for _, n := range []int{3, 5, 6, 9} {
			_, err := Bgr888ToRGB8(make([]byte, n))
			assert.ErrorIs(t, err, ErrInvalidPixelData, "length %d", n)
		}
	})
}

func TestAbgr2101010ToRGBA16(t *testing.T) {
	pack := func(a, b, g, r uint32) []byte {
		v := a<<30 | b<<20 | g<<10 | r
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	}

	t.Run("extracts and widens channels", func(t *testing.T) {
		out, err := Abgr2101010ToRGBA16(pack(3, 1023, 512, 1))
		require.NoError(t, err)
		require.Len(t, out, 4)
		assert.Equal(t, uint16(3<<14), out[0], "alpha")
		assert.Equal(t, uint16(1<<6), out[1], "red")
		assert.Equal(t, uint16(512<<6), out[2], "green")
		assert.Equal(t, uint16(1023<<6), out[3], "blue")
	})

	t.Run("channel ranges hold for arbitrary input", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		in := make([]byte, 4*512)
		rng.Read(in)

		out, err := Abgr2101010ToRGBA16(in)
		require.NoError(t, err)
		require.Len(t, out, len(in))
		for i := 0; i < len(out); i += 4 {
			assert.LessOrEqual(t, out[i]>>14, uint16(3))
			assert.Zero(t, out[i]&((1<<14)-1), "alpha low bits")
			for _, c := range out[i+1 : i+4] {
				assert.LessOrEqual(t, c>>6, uint16(1023))
				assert.Zero(t, c&((1<<6)-1), "color low bits")
			}
		}
	})

	t.Run("rejects partial pixels", func(t *testing.T) {
		_, err := Abgr2101010ToRGBA16(make([]byte, 6))
		assert.ErrorIs(t, err, ErrInvalidPixelData)
	})
}

func TestToRGBA8(t *testing.T) {
	t.Run("dispatches by format tag", func(t *testing.T) {
		in := []byte{0x10, 0x20, 0x30, 0xFF}

		out, err := ToRGBA8(client.ShmFormatXrgb8888, in)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x30, 0x20, 0x10, 0xFF}, out)

		out, err = ToRGBA8(client.ShmFormatXbgr8888, in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("unknown tag is a hard error", func(t *testing.T) {
		_, err := ToRGBA8(client.ShmFormat(0xdeadbeef), []byte{0, 0, 0, 0})
		assert.ErrorIs(t, err, ErrNoSupportedBufferFormat)
	})
}

func TestConvertible(t *testing.T) {
	assert.True(t, convertible(client.ShmFormatXrgb8888))
	assert.True(t, convertible(client.ShmFormatAbgr2101010))
	assert.False(t, convertible(client.ShmFormat(0xdeadbeef)))
}

package capture

import (
	"fmt"

	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// Pure pixel-format converters. Each is total over any input whose length
// is a whole number of 4-byte pixels and never emits a partial pixel.
// All multi-byte formats are little-endian on the wire, so an "xrgb" pixel
// arrives as B,G,R,X bytes.

// convertible reports whether a wl_shm format can be normalized to RGBA.
func convertible(format client.ShmFormat) bool {
	switch format {
	case client.ShmFormatBgr888,
		client.ShmFormatXbgr8888, client.ShmFormatAbgr8888,
		client.ShmFormatXrgb8888, client.ShmFormatArgb8888,
		client.ShmFormatXbgr2101010, client.ShmFormatAbgr2101010:
		return true
	default:
		return false
	}
}

// ToRGBA8 normalizes 8-bit-per-channel frame data to RGBA8 according to
// its wl_shm format tag. An unrecognized tag is a hard error, never a
// silent passthrough.
func ToRGBA8(format client.ShmFormat, data []byte) ([]byte, error) {
	switch format {
	case client.ShmFormatXbgr8888, client.ShmFormatAbgr8888:
		return Abgr8888ToRGBA8(data)
	case client.ShmFormatXrgb8888, client.ShmFormatArgb8888:
		return Argb8888ToRGBA8(data)
	default:
		return nil, fmt.Errorf("%w: 0x%x", ErrNoSupportedBufferFormat, uint32(format))
	}
}

// Bgr888ToRGB8 converts packed BGR888 to RGB8. The byte layouts coincide,
// so this is an identity copy. Buffers are still stride-aligned to 4 bytes
// on the wire, so the alignment check applies here too.
func Bgr888ToRGB8(data []byte) ([]byte, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPixelData, len(data))
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Abgr8888ToRGBA8 converts little-endian ABGR8888 to RGBA8. The wire bytes
// are already R,G,B,A, so this is an identity copy.
func Abgr8888ToRGBA8(data []byte) ([]byte, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPixelData, len(data))
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Argb8888ToRGBA8 converts little-endian ARGB8888 (wire bytes B,G,R,A) to
// RGBA8 by swapping bytes 0 and 2 of every pixel. The swap is its own
// inverse.
func Argb8888ToRGBA8(data []byte) ([]byte, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPixelData, len(data))
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += 4 {
		out[i] = data[i+2]
		out[i+1] = data[i+1]
		out[i+2] = data[i]
		out[i+3] = data[i+3]
	}
	return out, nil
}

// Abgr2101010ToRGBA16 unpacks little-endian ABGR2101010 pixels into 16-bit
// channels, emitted in (A,R,G,B) order. The 2-bit alpha widens into the
// top bits by a left shift of 14, the 10-bit colors by a shift of 6.
func Abgr2101010ToRGBA16(data []byte) ([]uint16, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPixelData, len(data))
	}
	out := make([]uint16, len(data))
	for i := 0; i < len(data); i += 4 {
		pixel := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		a2 := (pixel & 0xC0000000) >> 30
		b10 := (pixel & 0x3FF00000) >> 20
		g10 := (pixel & 0x000FFC00) >> 10
		r10 := pixel & 0x000003FF
		out[i] = uint16(a2 << 14)
		out[i+1] = uint16(r10 << 6)
		out[i+2] = uint16(g10 << 6)
		out[i+3] = uint16(b10 << 6)
	}
	return out, nil
}

// Package encode turns captured frames into standard images and serializes
// them. It normalizes pixel formats to RGBA, strips stride padding and
// undoes the output transform so the written image is upright.
package encode

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/rajveermalviya/go-wayland/wayland/client"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/waygrab/waygrab/internal/capture"
)

// Format selects the serialization format.
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
	FormatPPM Format = "ppm"
)

// ParseFormat maps a file extension to a Format.
func ParseFormat(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "ppm":
		return FormatPPM, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", ext)
	}
}

// Compression selects the png compression level.
type Compression string

const (
	CompressionFast    Compression = "fast"
	CompressionBest    Compression = "best"
	CompressionDefault Compression = "default"
	CompressionNone    Compression = "none"
)

// ParseCompression maps a compression name to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "fast":
		return CompressionFast, nil
	case "best":
		return CompressionBest, nil
	case "default", "":
		return CompressionDefault, nil
	case "none":
		return CompressionNone, nil
	default:
		return "", fmt.Errorf("unsupported compression level %q", s)
	}
}

func (c Compression) level() png.CompressionLevel {
	switch c {
	case CompressionFast:
		return png.BestSpeed
	case CompressionBest:
		return png.BestCompression
	case CompressionNone:
		return png.NoCompression
	default:
		return png.DefaultCompression
	}
}

// Options tunes the encoders.
type Options struct {
	// JPEGQuality is the jpeg quality in [1,100]; zero means jpeg.DefaultQuality.
	JPEGQuality int

	// PNGCompression is the png compression level; the zero value means
	// the encoder default.
	PNGCompression Compression
}

// Image converts a captured frame into an upright standard image: pixel
// bytes normalized per the negotiated format, row padding stripped, and the
// output transform applied in reverse.
func Image(res *capture.Result) (image.Image, error) {
	width := int(res.Format.Size.Width)
	height := int(res.Format.Size.Height)
	stride := int(res.Format.Stride)

	var img image.Image
	switch res.Format.Format {
	case client.ShmFormatBgr888:
		rgb, err := capture.Bgr888ToRGB8(res.Data)
		if err != nil {
			return nil, err
		}
		img, err = rgb8Image(rgb, width, height, stride)
		if err != nil {
			return nil, err
		}
	case client.ShmFormatXbgr2101010, client.ShmFormatAbgr2101010:
		values, err := capture.Abgr2101010ToRGBA16(res.Data)
		if err != nil {
			return nil, err
		}
		img, err = rgba16Image(values, width, height, stride)
		if err != nil {
			return nil, err
		}
	default:
		rgba, err := capture.ToRGBA8(res.Format.Format, res.Data)
		if err != nil {
			return nil, err
		}
		img, err = rgba8Image(rgba, width, height, stride)
		if err != nil {
			return nil, err
		}
	}

	return applyTransform(img, res.Transform), nil
}

// rgba8Image wraps normalized RGBA bytes as an image, copying rows to drop
// any stride padding.
func rgba8Image(data []byte, width, height, stride int) (*image.RGBA, error) {
	if len(data) < stride*height || stride < width*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d stride %d", capture.ErrBufferTooSmall, len(data), width, height, stride)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+width*4], data[y*stride:y*stride+width*4])
	}
	return img, nil
}

func rgb8Image(data []byte, width, height, stride int) (*image.RGBA, error) {
	if len(data) < stride*height || stride < width*3 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d stride %d", capture.ErrBufferTooSmall, len(data), width, height, stride)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			o := img.PixOffset(x, y)
			img.Pix[o] = row[x*3]
			img.Pix[o+1] = row[x*3+1]
			img.Pix[o+2] = row[x*3+2]
			img.Pix[o+3] = 0xFF
		}
	}
	return img, nil
}

// rgba16Image builds an RGBA64 image from converter output, which carries
// one (A,R,G,B) quadruple of uint16 per pixel.
func rgba16Image(values []uint16, width, height, stride int) (*image.RGBA64, error) {
	pixelsPerRow := stride / 4
	if len(values) < pixelsPerRow*height*4 || pixelsPerRow < width {
		return nil, fmt.Errorf("%w: %d values for %dx%d stride %d", capture.ErrBufferTooSmall, len(values), width, height, stride)
	}
	img := image.NewRGBA64(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := values[y*pixelsPerRow*4:]
		for x := 0; x < width; x++ {
			a, r, g, b := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			o := img.PixOffset(x, y)
			img.Pix[o] = uint8(r >> 8)
			img.Pix[o+1] = uint8(r)
			img.Pix[o+2] = uint8(g >> 8)
			img.Pix[o+3] = uint8(g)
			img.Pix[o+4] = uint8(b >> 8)
			img.Pix[o+5] = uint8(b)
			img.Pix[o+6] = uint8(a >> 8)
			img.Pix[o+7] = uint8(a)
		}
	}
	return img, nil
}

// applyTransform rotates/flips the captured landscape frame into the
// orientation the user sees on screen.
func applyTransform(img image.Image, t client.OutputTransform) image.Image {
	if t == client.OutputTransformNormal {
		return img
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	// Rotation matrices map source points to destination points.
	var m f64.Aff3
	swap := false
	flipped := false
	switch t {
	case client.OutputTransform90, client.OutputTransformFlipped90:
		// dst(x,y) = (h - y, x)
		m = f64.Aff3{0, -1, h, 1, 0, 0}
		swap = true
	case client.OutputTransform180, client.OutputTransformFlipped180:
		m = f64.Aff3{-1, 0, w, 0, -1, h}
	case client.OutputTransform270, client.OutputTransformFlipped270:
		// dst(x,y) = (y, w - x)
		m = f64.Aff3{0, 1, 0, -1, 0, w}
		swap = true
	case client.OutputTransformFlipped:
		m = f64.Aff3{1, 0, 0, 0, 1, 0}
	default:
		return img
	}
	switch t {
	case client.OutputTransformFlipped, client.OutputTransformFlipped90,
		client.OutputTransformFlipped180, client.OutputTransformFlipped270:
		flipped = true
	}
	if flipped {
		// Compose a horizontal flip of the source into the rotation:
		// m' = m ∘ (x,y -> w-x, y).
		m = f64.Aff3{-m[0], m[1], m[2] + m[0]*w, -m[3], m[4], m[5] + m[3]*w}
	}

	dstW, dstH := b.Dx(), b.Dy()
	if swap {
		dstW, dstH = dstH, dstW
	}
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.NearestNeighbor.Transform(dst, m, img, b, draw.Src, nil)
	return dst
}

// Encode serializes a captured frame to w in the given format.
func Encode(w io.Writer, res *capture.Result, format Format, opts Options) error {
	img, err := Image(res)
	if err != nil {
		return err
	}
	return EncodeImage(w, img, format, opts)
}

// EncodeImage serializes an already-normalized image.
func EncodeImage(w io.Writer, img image.Image, format Format, opts Options) error {
	switch format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: opts.PNGCompression.level()}
		if err := enc.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
	case FormatJPG:
		quality := opts.JPEGQuality
		if quality <= 0 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("failed to encode jpeg: %w", err)
		}
	case FormatPPM:
		if err := encodePPM(w, img); err != nil {
			return fmt.Errorf("failed to encode ppm: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	return nil
}

// encodePPM writes a binary P6 portable pixmap.
func encodePPM(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		return err
	}
	row := make([]byte, b.Dx()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			o := (x - b.Min.X) * 3
			row[o] = uint8(r >> 8)
			row[o+1] = uint8(g >> 8)
			row[o+2] = uint8(bl >> 8)
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

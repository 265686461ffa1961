package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"

	"golang.org/x/xerrors"
)

// ToRGBA normalizes any decoded image to a tightly packed *image.RGBA with
// bounds anchored at the origin, so every row occupies exactly width*4 bytes.
// A nil input yields a zero-size buffer, which downstream size validation
// rejects.
func ToRGBA(img image.Image) *image.RGBA {
	if img == nil {
		return image.NewRGBA(image.Rectangle{})
	}
	if rgba, ok := img.(*image.RGBA); ok {
		b := rgba.Bounds()
		if b.Min == (image.Point{}) && rgba.Stride == b.Dx()*4 {
			return rgba
		}
	}

	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Decode reads a PNG or JPEG stream into a normalized RGBA buffer.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode image: %w", err)
	}

	rgba := ToRGBA(img)
	if rgba.Bounds().Dx() == 0 || rgba.Bounds().Dy() == 0 {
		return nil, xerrors.New("image has zero width or height")
	}
	return rgba, nil
}

func DecodeBytes(data []byte) (*image.RGBA, error) {
	return Decode(bytes.NewReader(data))
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, img); err != nil {
		return nil, xerrors.Errorf("failed to encode png: %w", err)
	}
	return buffer.Bytes(), nil
}

// ExtractRows copies rows [y0,y1) at columns [0,width) into a new buffer.
// The requested region must lie inside the source bounds.
func ExtractRows(img *image.RGBA, y0 int, y1 int, width int) (*image.RGBA, error) {
	b := img.Bounds()
	if y0 < 0 || y1 < y0 || y1 > b.Dy() || width < 0 || width > b.Dx() {
		return nil, xerrors.Errorf("row range [%d,%d) x width %d outside %dx%d buffer", y0, y1, width, b.Dx(), b.Dy())
	}

	out := image.NewRGBA(image.Rect(0, 0, width, y1-y0))
	for y := y0; y < y1; y++ {
		srcOffset := img.PixOffset(0, y)
		dstOffset := out.PixOffset(0, y-y0)
		copy(out.Pix[dstOffset:dstOffset+width*4], img.Pix[srcOffset:srcOffset+width*4])
	}
	return out, nil
}

// Grayscale converts the buffer in place using the luminance weights of
// color.GrayModel.
func Grayscale(img *image.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		r := uint32(img.Pix[i])
		g := uint32(img.Pix[i+1])
		b := uint32(img.Pix[i+2])
		// 0.299 R + 0.587 G + 0.114 B, in 16-bit fixed point.
		luma := uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
		img.Pix[i] = luma
		img.Pix[i+1] = luma
		img.Pix[i+2] = luma
	}
}

// Overlay alpha-blends a uniform color over the whole buffer in place.
// The color's own alpha channel is ignored; opacity is given explicitly.
func Overlay(img *image.RGBA, c color.RGBA, opacity float64) {
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	a := uint32(opacity*255 + 0.5)
	or := uint32(c.R) * a
	og := uint32(c.G) * a
	ob := uint32(c.B) * a
	rest := 255 - a

	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8((or + uint32(img.Pix[i])*rest) / 255)
		img.Pix[i+1] = uint8((og + uint32(img.Pix[i+1])*rest) / 255)
		img.Pix[i+2] = uint8((ob + uint32(img.Pix[i+2])*rest) / 255)
		img.Pix[i+3] = 255
	}
}

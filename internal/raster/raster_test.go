package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
)

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestToRGBA(t *testing.T) {
	t.Run("TightRGBAIsReturnedAsIs", func(t *testing.T) {
		img := createTestImage(8, 4, color.White)
		if got := ToRGBA(img); got != img {
			t.Errorf("Expected a tightly packed RGBA buffer to be returned unchanged")
		}
	})

	t.Run("SubImageIsReanchored", func(t *testing.T) {
		img := createTestImage(8, 8, color.White)
		fillColor := color.RGBA{R: 200, G: 10, B: 10, A: 255}
		img.Set(2, 2, fillColor)

		sub := img.SubImage(image.Rect(2, 2, 6, 6)).(*image.RGBA)
		got := ToRGBA(sub)

		if got == sub {
			t.Errorf("Expected a sub-image to be copied into a fresh buffer")
		}
		bounds := got.Bounds()
		if bounds.Min != (image.Point{}) || bounds.Dx() != 4 || bounds.Dy() != 4 {
			t.Errorf("Expected 4x4 bounds anchored at the origin, got %v", bounds)
		}
		if got.RGBAAt(0, 0) != fillColor {
			t.Errorf("Expected the sub-image origin pixel preserved, got %v", got.RGBAAt(0, 0))
		}
	})

	t.Run("NilYieldsZeroSizeBuffer", func(t *testing.T) {
		got := ToRGBA(nil)
		if got == nil {
			t.Fatalf("Expected a buffer for nil input")
		}
		if got.Bounds().Dx() != 0 || got.Bounds().Dy() != 0 {
			t.Errorf("Expected zero-size bounds, got %v", got.Bounds())
		}
	})

	t.Run("NonRGBAIsConverted", func(t *testing.T) {
		gray := image.NewGray(image.Rect(0, 0, 3, 3))
		got := ToRGBA(gray)
		if got.Bounds().Dx() != 3 || got.Bounds().Dy() != 3 {
			t.Errorf("Expected a 3x3 RGBA buffer, got %v", got.Bounds())
		}
	})
}

func TestDecode(t *testing.T) {
	t.Run("RoundTripsPNG", func(t *testing.T) {
		img := createTestImage(5, 7, color.RGBA{R: 1, G: 2, B: 3, A: 255})
		var buffer bytes.Buffer
		if err := png.Encode(&buffer, img); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		decoded, err := DecodeBytes(buffer.Bytes())
		if err != nil {
			t.Fatalf("DecodeBytes failed: %v", err)
		}
		if decoded.Bounds().Dx() != 5 || decoded.Bounds().Dy() != 7 {
			t.Errorf("Expected a 5x7 image, got %v", decoded.Bounds())
		}
		if got := decoded.RGBAAt(2, 3); got != img.RGBAAt(2, 3) {
			t.Errorf("Expected pixel data preserved, got %v", got)
		}
	})

	t.Run("GarbageFails", func(t *testing.T) {
		if _, err := DecodeBytes([]byte("not an image")); err == nil {
			t.Errorf("Expected an error for undecodable data")
		}
	})
}

func TestExtractRows(t *testing.T) {
	t.Run("CopiesRequestedRegion", func(t *testing.T) {
		img := createTestImage(10, 10, color.White)
		marker := color.RGBA{R: 9, G: 8, B: 7, A: 255}
		img.Set(3, 4, marker)

		out, err := ExtractRows(img, 4, 7, 10)
		if err != nil {
			t.Fatalf("ExtractRows failed: %v", err)
		}

		bounds := out.Bounds()
		if bounds.Dx() != 10 || bounds.Dy() != 3 {
			t.Fatalf("Expected a 10x3 buffer, got %v", bounds)
		}
		if got := out.RGBAAt(3, 0); got != marker {
			t.Errorf("Expected the marker pixel at (3,0), got %v", got)
		}

		// The copy is independent of the source.
		out.Set(0, 0, marker)
		if img.RGBAAt(0, 4) == marker {
			t.Errorf("Expected writes to the extracted buffer not to touch the source")
		}
	})

	t.Run("NarrowerWidthTruncatesColumns", func(t *testing.T) {
		img := createTestImage(10, 4, color.White)
		out, err := ExtractRows(img, 0, 4, 6)
		if err != nil {
			t.Fatalf("ExtractRows failed: %v", err)
		}
		if got := out.Bounds().Dx(); got != 6 {
			t.Errorf("Expected width 6, got %d", got)
		}
	})

	t.Run("OutOfRangeFails", func(t *testing.T) {
		img := createTestImage(10, 4, color.White)
		if _, err := ExtractRows(img, 2, 6, 10); err == nil {
			t.Errorf("Expected an error for rows outside the buffer")
		}
		if _, err := ExtractRows(img, 0, 2, 11); err == nil {
			t.Errorf("Expected an error for a width wider than the buffer")
		}
	})
}

func TestGrayscale(t *testing.T) {
	img := createTestImage(2, 1, color.RGBA{R: 255, A: 255})
	Grayscale(img)

	got := img.RGBAAt(0, 0)
	if got.R != got.G || got.G != got.B {
		t.Fatalf("Expected equal channels after grayscale, got %v", got)
	}
	// Pure red maps to the 0.299 luminance weight.
	if got.R < 70 || got.R > 80 {
		t.Errorf("Expected a luma around 76 for pure red, got %d", got.R)
	}
}

func TestOverlay(t *testing.T) {
	t.Run("FullOpacityReplaces", func(t *testing.T) {
		img := createTestImage(2, 2, color.Black)
		Overlay(img, color.RGBA{R: 255}, 1)

		if got := img.RGBAAt(1, 1); got != (color.RGBA{R: 255, A: 255}) {
			t.Errorf("Expected the overlay color at full opacity, got %v", got)
		}
	})

	t.Run("ZeroOpacityIsNoOp", func(t *testing.T) {
		img := createTestImage(2, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		Overlay(img, color.RGBA{R: 255, G: 255, B: 255}, 0)

		if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
			t.Errorf("Expected the buffer untouched at zero opacity, got %v", got)
		}
	})

	t.Run("PartialOpacityBlends", func(t *testing.T) {
		img := createTestImage(2, 2, color.Black)
		Overlay(img, color.RGBA{R: 255, G: 255, B: 255}, 0.5)

		got := img.RGBAAt(0, 0)
		if got.R < 120 || got.R > 135 {
			t.Errorf("Expected a mid-gray blend, got %v", got)
		}
	})
}

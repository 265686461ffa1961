package compose

import (
	"image"
	"image/color"
	"image/draw"
	"structural-diff/internal/oracle"
	"structural-diff/internal/render"
	"testing"
)

func createTestBlock(width, height int, c color.Color, kind oracle.Kind) render.Block {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return render.Block{Image: img, Kind: kind}
}

func TestStack(t *testing.T) {
	t.Run("ConcatenatesVertically", func(t *testing.T) {
		blocks := []render.Block{
			createTestBlock(10, 3, color.RGBA{R: 255, A: 255}, oracle.Equal),
			createTestBlock(10, 2, color.RGBA{G: 255, A: 255}, oracle.Insert),
			createTestBlock(10, 4, color.RGBA{B: 255, A: 255}, oracle.Delete),
		}

		out := Stack(blocks)
		if out == nil {
			t.Fatalf("Expected a composite image")
		}

		bounds := out.Bounds()
		if bounds.Dx() != 10 || bounds.Dy() != 9 {
			t.Fatalf("Expected a 10x9 composite, got %dx%d", bounds.Dx(), bounds.Dy())
		}

		checks := []struct {
			y        int
			expected color.RGBA
		}{
			{0, color.RGBA{R: 255, A: 255}},
			{2, color.RGBA{R: 255, A: 255}},
			{3, color.RGBA{G: 255, A: 255}},
			{4, color.RGBA{G: 255, A: 255}},
			{5, color.RGBA{B: 255, A: 255}},
			{8, color.RGBA{B: 255, A: 255}},
		}
		for _, check := range checks {
			if got := out.RGBAAt(5, check.y); got != check.expected {
				t.Errorf("Expected %v at row %d, got %v", check.expected, check.y, got)
			}
		}
	})

	t.Run("WidthFollowsWidestBlock", func(t *testing.T) {
		blocks := []render.Block{
			createTestBlock(8, 1, color.White, oracle.Equal),
			createTestBlock(12, 1, color.White, oracle.Replace),
		}

		out := Stack(blocks)
		if out == nil {
			t.Fatalf("Expected a composite image")
		}
		if got := out.Bounds().Dx(); got != 12 {
			t.Errorf("Expected composite width 12, got %d", got)
		}
	})

	t.Run("SkipsEmptyBlocks", func(t *testing.T) {
		blocks := []render.Block{
			createTestBlock(10, 2, color.White, oracle.Equal),
			{Kind: oracle.Insert},
			createTestBlock(10, 0, color.White, oracle.Delete),
			createTestBlock(10, 3, color.Black, oracle.Replace),
		}

		out := Stack(blocks)
		if out == nil {
			t.Fatalf("Expected a composite image")
		}
		if got := out.Bounds().Dy(); got != 5 {
			t.Errorf("Expected composite height 5, got %d", got)
		}
	})

	t.Run("NilWhenNothingToStack", func(t *testing.T) {
		if out := Stack(nil); out != nil {
			t.Errorf("Expected nil for no blocks")
		}
		if out := Stack([]render.Block{{Kind: oracle.Equal}}); out != nil {
			t.Errorf("Expected nil when every block is empty")
		}
	})
}

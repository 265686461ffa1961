package compose

import (
	"image"
	"image/draw"
	"structural-diff/internal/render"
)

// Stack concatenates blocks vertically in input order at left = 0. The
// canvas width is taken from the widest block; zero-height blocks are
// skipped. Returns nil when the total height is zero, the distinguished
// "no differences" outcome.
func Stack(blocks []render.Block) *image.RGBA {
	width := 0
	height := 0
	for _, block := range blocks {
		if block.Image == nil {
			continue
		}
		b := block.Image.Bounds()
		if b.Dy() == 0 {
			continue
		}
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}
	if height == 0 {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	top := 0
	for _, block := range blocks {
		if block.Image == nil || block.Image.Bounds().Dy() == 0 {
			continue
		}
		b := block.Image.Bounds()
		draw.Draw(out, image.Rect(0, top, b.Dx(), top+b.Dy()), block.Image, b.Min, draw.Src)
		top += b.Dy()
	}
	return out
}

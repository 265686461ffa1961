package render

import (
	"image"
	"image/color"
	"structural-diff/internal/oracle"
	"structural-diff/internal/raster"

	"github.com/orisano/pixelmatch"
	"golang.org/x/xerrors"
)

// Options carries the visual treatment knobs for rendered blocks.
type Options struct {
	// Threshold is the pixelmatch matching sensitivity for replace blocks.
	Threshold float64
	// IncludeAntiAlias counts anti-aliased pixels as differences in replace
	// blocks instead of ignoring them.
	IncludeAntiAlias bool

	// EqualOpacity is the opacity of the white layer blended over grayscale
	// unchanged rows.
	EqualOpacity float64
	// TintAlpha is the opacity of the insert/delete color overlays.
	TintAlpha float64
	// InsertColor tints rows present only in the target.
	InsertColor color.RGBA
	// DeleteColor tints rows present only in the baseline.
	DeleteColor color.RGBA
}

func DefaultOptions() Options {
	return Options{
		Threshold:    0.1,
		EqualOpacity: 0.5,
		TintAlpha:    0.4,
		InsertColor:  color.RGBA{R: 255, A: 255},
		DeleteColor:  color.RGBA{B: 255, A: 255},
	}
}

// Block is one vertically stackable slice of the composite output.
type Block struct {
	Image *image.RGBA
	Kind  oracle.Kind
}

// Renderer turns opcodes into blocks at the shared minimum width of the two
// images. Rendering one opcode is independent of every other opcode.
type Renderer struct {
	baseline *image.RGBA
	target   *image.RGBA
	width    int
	options  Options
}

func NewRenderer(baseline *image.RGBA, target *image.RGBA, options Options) *Renderer {
	width := baseline.Bounds().Dx()
	if w := target.Bounds().Dx(); w < width {
		width = w
	}
	return &Renderer{
		baseline: baseline,
		target:   target,
		width:    width,
		options:  options,
	}
}

func (r *Renderer) Width() int { return r.width }

// Render produces the block(s) for one opcode. A replace opcode whose sides
// differ in height yields a pixel-level diff block for the overlapping rows
// followed by an insert- or delete-styled remainder.
func (r *Renderer) Render(op oracle.Opcode) ([]Block, error) {
	switch op.Kind {
	case oracle.Equal:
		block, err := r.equalBlock(op.AStart, op.AEnd)
		if err != nil {
			return nil, err
		}
		return []Block{block}, nil
	case oracle.Delete:
		block, err := r.deleteBlock(op.AStart, op.AEnd)
		if err != nil {
			return nil, err
		}
		return []Block{block}, nil
	case oracle.Insert:
		block, err := r.insertBlock(op.BStart, op.BEnd)
		if err != nil {
			return nil, err
		}
		return []Block{block}, nil
	case oracle.Replace:
		return r.replaceBlocks(op)
	}
	return nil, xerrors.Errorf("cannot render opcode %s", op)
}

func (r *Renderer) equalBlock(y0 int, y1 int) (Block, error) {
	img, err := raster.ExtractRows(r.baseline, y0, y1, r.width)
	if err != nil {
		return Block{}, xerrors.Errorf("failed to extract equal rows: %w", err)
	}
	raster.Grayscale(img)
	raster.Overlay(img, color.RGBA{R: 255, G: 255, B: 255, A: 255}, r.options.EqualOpacity)
	return Block{Image: img, Kind: oracle.Equal}, nil
}

func (r *Renderer) deleteBlock(y0 int, y1 int) (Block, error) {
	img, err := raster.ExtractRows(r.baseline, y0, y1, r.width)
	if err != nil {
		return Block{}, xerrors.Errorf("failed to extract deleted rows: %w", err)
	}
	raster.Grayscale(img)
	raster.Overlay(img, r.options.DeleteColor, r.options.TintAlpha)
	return Block{Image: img, Kind: oracle.Delete}, nil
}

func (r *Renderer) insertBlock(y0 int, y1 int) (Block, error) {
	img, err := raster.ExtractRows(r.target, y0, y1, r.width)
	if err != nil {
		return Block{}, xerrors.Errorf("failed to extract inserted rows: %w", err)
	}
	raster.Grayscale(img)
	raster.Overlay(img, r.options.InsertColor, r.options.TintAlpha)
	return Block{Image: img, Kind: oracle.Insert}, nil
}

func (r *Renderer) replaceBlocks(op oracle.Opcode) ([]Block, error) {
	h1 := op.ASpan()
	h2 := op.BSpan()
	hmin := h1
	if h2 < hmin {
		hmin = h2
	}

	var blocks []Block

	if hmin > 0 {
		aBlock, err := raster.ExtractRows(r.baseline, op.AStart, op.AStart+hmin, r.width)
		if err != nil {
			return nil, xerrors.Errorf("failed to extract replaced baseline rows: %w", err)
		}
		bBlock, err := raster.ExtractRows(r.target, op.BStart, op.BStart+hmin, r.width)
		if err != nil {
			return nil, xerrors.Errorf("failed to extract replaced target rows: %w", err)
		}

		var diff image.Image
		matchOptions := []pixelmatch.MatchOption{
			pixelmatch.Threshold(r.options.Threshold),
			pixelmatch.WriteTo(&diff),
		}
		if r.options.IncludeAntiAlias {
			matchOptions = append(matchOptions, pixelmatch.IncludeAntiAlias)
		}
		if _, err := pixelmatch.MatchPixel(aBlock, bBlock, matchOptions...); err != nil {
			return nil, xerrors.Errorf("failed to pixel-diff replace block: %w", err)
		}

		var overlap *image.RGBA
		if diff != nil {
			overlap = raster.ToRGBA(diff)
		} else {
			// pixelmatch skips the output image when the blocks are
			// pixel-identical, which happens when only the rows outside the
			// overlap differ. Render the overlap the way pixelmatch renders
			// matching pixels: de-emphasized grayscale.
			raster.Grayscale(aBlock)
			raster.Overlay(aBlock, color.RGBA{R: 255, G: 255, B: 255, A: 255}, r.options.EqualOpacity)
			overlap = aBlock
		}
		blocks = append(blocks, Block{Image: overlap, Kind: oracle.Replace})
	}

	switch {
	case h2 > h1:
		block, err := r.insertBlock(op.BStart+hmin, op.BEnd)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	case h1 > h2:
		block, err := r.deleteBlock(op.AStart+hmin, op.AEnd)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

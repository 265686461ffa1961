// Package structural renders a row-oriented visual diff between two raster
// images. Each image is reduced to one fingerprint per row, the two
// fingerprint sequences are aligned by an external diff oracle, and the edit
// script is rendered back into a single composite image whose vertical bands
// are colored by the operation that produced them. Vertical insertions or
// deletions therefore shift content instead of marking everything below them
// as changed.
package structural

import (
	"context"
	"image"
	"structural-diff/internal/compose"
	"structural-diff/internal/fingerprint"
	"structural-diff/internal/oracle"
	"structural-diff/internal/raster"
	"structural-diff/internal/refine"
	"structural-diff/internal/render"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type Result struct {
	// Image is the composite diff, nil when the images are identical under
	// the selected fingerprint scheme.
	Image *image.RGBA
	// Opcodes is the refined edit script the composite was rendered from.
	Opcodes []oracle.Opcode
	// DiffAmount is the fraction of composite rows attributed to non-equal
	// opcodes, in [0, 1].
	DiffAmount float64
}

type Differ struct {
	Oracle oracle.Oracle

	Scheme            fingerprint.Scheme
	FingerprintConfig fingerprint.Config

	// MergeThreshold collapses insert/delete runs smaller than this many rows
	// into a single replace band. Zero keeps the edit script exact.
	MergeThreshold int

	RenderOptions render.Options
}

func NewDiffer(o oracle.Oracle) *Differ {
	return &Differ{
		Oracle:            o,
		Scheme:            fingerprint.SchemeExact,
		FingerprintConfig: fingerprint.DefaultConfig(),
		RenderOptions:     render.DefaultOptions(),
	}
}

// Calculate runs the whole pipeline. The two images are fingerprinted
// concurrently; block rendering is parallel per opcode but the composite
// preserves opcode order. There is no partial success: either a complete
// composite is produced or an error is returned.
func (d *Differ) Calculate(ctx context.Context, baseline image.Image, target image.Image) (*Result, error) {
	baselineRGBA := raster.ToRGBA(baseline)
	targetRGBA := raster.ToRGBA(target)

	if baselineRGBA.Bounds().Dx() == 0 || baselineRGBA.Bounds().Dy() == 0 {
		return nil, xerrors.New("baseline image has zero width or height")
	}
	if targetRGBA.Bounds().Dx() == 0 || targetRGBA.Bounds().Dy() == 0 {
		return nil, xerrors.New("target image has zero width or height")
	}

	var baselineTokens, targetTokens []fingerprint.Token
	{
		eg, _ := errgroup.WithContext(ctx)
		eg.Go(func() error {
			tokens, err := fingerprint.Rows(baselineRGBA, d.Scheme, d.FingerprintConfig)
			if err != nil {
				return xerrors.Errorf("failed to fingerprint baseline: %w", err)
			}
			baselineTokens = tokens
			return nil
		})
		eg.Go(func() error {
			tokens, err := fingerprint.Rows(targetRGBA, d.Scheme, d.FingerprintConfig)
			if err != nil {
				return xerrors.Errorf("failed to fingerprint target: %w", err)
			}
			targetTokens = tokens
			return nil
		})
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	opcodes, err := d.Oracle.Align(ctx, baselineTokens, targetTokens)
	if err != nil {
		return nil, xerrors.Errorf("failed to align fingerprint sequences: %w", err)
	}
	if err := oracle.ValidateCoverage(opcodes, len(baselineTokens), len(targetTokens)); err != nil {
		return nil, xerrors.Errorf("oracle returned an inconsistent edit script: %w", err)
	}

	opcodes = refine.Merge(opcodes, d.MergeThreshold)

	if len(opcodes) == 1 && opcodes[0].Kind == oracle.Equal {
		return &Result{Opcodes: opcodes}, nil
	}

	renderer := render.NewRenderer(baselineRGBA, targetRGBA, d.RenderOptions)

	rendered := make([][]render.Block, len(opcodes))
	{
		eg, _ := errgroup.WithContext(ctx)
		for i, op := range opcodes {
			eg.Go(func() error {
				blocks, err := renderer.Render(op)
				if err != nil {
					return xerrors.Errorf("failed to render %s: %w", op, err)
				}
				rendered[i] = blocks
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	var blocks []render.Block
	for _, group := range rendered {
		blocks = append(blocks, group...)
	}

	composite := compose.Stack(blocks)
	if composite == nil {
		return &Result{Opcodes: opcodes}, nil
	}

	changedRows := 0
	totalRows := 0
	for _, block := range blocks {
		h := block.Image.Bounds().Dy()
		totalRows += h
		if block.Kind != oracle.Equal {
			changedRows += h
		}
	}

	diffAmount := 0.0
	if totalRows > 0 {
		diffAmount = float64(changedRows) / float64(totalRows)
	}

	return &Result{
		Image:      composite,
		Opcodes:    opcodes,
		DiffAmount: diffAmount,
	}, nil
}

package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"

	"golang.org/x/xerrors"
)

// Scheme selects how a row is reduced to a token.
type Scheme string

const (
	// SchemeExact hashes the raw row bytes; any single-bit difference
	// produces a different token.
	SchemeExact Scheme = "exact"
	// SchemePerceptual hashes a coarsened row signature so antialiasing-level
	// differences collapse to the same token.
	SchemePerceptual Scheme = "perceptual"
)

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeExact, SchemePerceptual:
		return Scheme(s), nil
	}
	return "", xerrors.Errorf("unknown fingerprint scheme: %s", s)
}

// Token is an opaque, line-safe row fingerprint. Two rows are equal for diff
// purposes iff their tokens are byte-identical.
type Token string

type Config struct {
	// BucketDivisor quantizes the per-channel row means for the perceptual
	// scheme. Larger values tolerate larger color drift.
	BucketDivisor int
	// Sensitivity is the summed RGB delta between adjacent pixels above which
	// a pixel boundary counts as an edge transition.
	Sensitivity int
}

func DefaultConfig() Config {
	return Config{
		BucketDivisor: 16,
		Sensitivity:   96,
	}
}

// Rows reduces the buffer to one token per row, in row order. The buffer must
// be origin-anchored and tightly packed (see raster.ToRGBA). Token generation
// is a pure function of a single row's bytes.
func Rows(img *image.RGBA, scheme Scheme, config Config) ([]Token, error) {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil, xerrors.Errorf("cannot fingerprint %dx%d image", width, height)
	}
	if config.BucketDivisor <= 0 {
		config.BucketDivisor = DefaultConfig().BucketDivisor
	}
	if config.Sensitivity <= 0 {
		config.Sensitivity = DefaultConfig().Sensitivity
	}

	stride := width * 4
	tokens := make([]Token, height)
	for y := 0; y < height; y++ {
		row := img.Pix[y*stride : (y+1)*stride]
		switch scheme {
		case SchemeExact:
			tokens[y] = exactToken(row)
		case SchemePerceptual:
			tokens[y] = perceptualToken(row, width, config)
		default:
			return nil, xerrors.Errorf("unknown fingerprint scheme: %s", scheme)
		}
	}
	return tokens, nil
}

func exactToken(row []byte) Token {
	sum := sha256.Sum256(row)
	return Token(hex.EncodeToString(sum[:]))
}

func perceptualToken(row []byte, width int, config Config) Token {
	var sumR, sumG, sumB int
	transitions := 0

	for x := 0; x < width; x++ {
		i := x * 4
		sumR += int(row[i])
		sumG += int(row[i+1])
		sumB += int(row[i+2])

		if x > 0 {
			j := i - 4
			delta := abs(int(row[i])-int(row[j])) +
				abs(int(row[i+1])-int(row[j+1])) +
				abs(int(row[i+2])-int(row[j+2]))
			if delta > config.Sensitivity {
				transitions++
			}
		}
	}

	signature := fmt.Sprintf("%d:%d:%d:%d",
		sumR/width/config.BucketDivisor,
		sumG/width/config.BucketDivisor,
		sumB/width/config.BucketDivisor,
		transitions>>2,
	)
	sum := sha256.Sum256([]byte(signature))
	return Token(hex.EncodeToString(sum[:]))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

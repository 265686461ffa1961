package capture

import (
	"context"
)

type CaptureResult struct {
	Screenshot []byte
	HTML       []byte
}

type CaptureOptions struct {
	// Headers are sent with every request the page makes.
	Headers map[string]string
	// MaskSelectors are CSS selectors blacked out before the screenshot is
	// taken, so dynamic regions don't pollute the diff.
	MaskSelectors []string
}

type Capturer interface {
	Capture(ctx context.Context, url string, options CaptureOptions) (*CaptureResult, error)
}

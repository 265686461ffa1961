package loader

import (
	"context"
	"image"
	"net/http"
	"os"
	"strings"
	"structural-diff/internal/raster"
	"structural-diff/internal/retry"
	"time"

	"golang.org/x/xerrors"
)

// Loader resolves an image source that is either a local file path or an
// http(s) URL. Remote fetches go through a retrying transport.
type Loader struct {
	client *http.Client
}

func New() *Loader {
	return &Loader{
		client: &http.Client{
			Transport: &retry.Transport{
				RetryStrategy: retry.NewExponentialBackOff(100*time.Millisecond, 5*time.Second, 3, nil),
				RetryOn:       retry.NewDefaultRetryOn(),
			},
			Timeout: 30 * time.Second,
		},
	}
}

func (l *Loader) Load(ctx context.Context, source string) (*image.RGBA, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.fetch(ctx, source)
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, xerrors.Errorf("failed to open image %s: %w", source, err)
	}
	defer file.Close()

	img, err := raster.Decode(file)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode image %s: %w", source, err)
	}
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (*image.RGBA, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to build request for %s: %w", url, err)
	}

	response, err := l.client.Do(request)
	if err != nil {
		return nil, xerrors.Errorf("failed to fetch image %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("failed to fetch image %s: status %d", url, response.StatusCode)
	}

	img, err := raster.Decode(response.Body)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode image %s: %w", url, err)
	}
	return img, nil
}

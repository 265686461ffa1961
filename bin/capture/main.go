package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"structural-diff/internal/capture"
	"structural-diff/internal/storage"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

type CaptureOutput struct {
	ScreenshotPath string `json:"screenshotPath"`
	HTMLPath       string `json:"htmlPath"`
}

type headers []string

func (h *headers) String() string {
	return strings.Join(*h, ", ")
}

func (h *headers) Set(value string) error {
	*h = append(*h, value)
	return nil
}

func envOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case string:
		return any(value).(T)
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T)
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T)
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T)
		}
	}

	return defaultValue
}

func main() {
	_ = godotenv.Load()

	var directory string
	var format string
	var maskSelectors string
	var delay time.Duration
	var viewportWidth int
	var viewportHeight int
	var userAgent string
	var chromeDevtoolsProtocolURL string
	var requestHeaders headers
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "/tmp"), "Output directory")
	flag.StringVar(&format, "format", envOrDefaultValue("FORMAT", "png"), "Screenshot format (png or jpeg); png keeps exact-scheme diffs lossless")
	flag.StringVar(&maskSelectors, "mask-selectors", envOrDefaultValue("MASK_SELECTORS", ""), "Comma-separated list of CSS selectors to mask during capture")
	flag.DurationVar(&delay, "delay", envOrDefaultValue("DELAY", 3*time.Second), "Delay before capturing")
	flag.IntVar(&viewportWidth, "viewport-width", envOrDefaultValue("VIEWPORT_WIDTH", 1920), "Viewport width in pixels")
	flag.IntVar(&viewportHeight, "viewport-height", envOrDefaultValue("VIEWPORT_HEIGHT", 1080), "Viewport height in pixels")
	flag.StringVar(&userAgent, "user-agent", envOrDefaultValue("USER_AGENT", ""), "User-Agent string to use for requests")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", envOrDefaultValue("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL")
	flag.Var(&requestHeaders, "H", "Add HTTP header (can be used multiple times)")

	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		log.Fatalf("url not specified")
	}
	url := args[0]

	ctx := context.Background()

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{
		Directory: directory,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	config := capture.DefaultPlaywrightConfig()
	if format != "" {
		config.Format = format
	}
	if delay > 0 {
		config.Delay = delay
	}
	if chromeDevtoolsProtocolURL != "" {
		config.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
	}
	if display := os.Getenv("DISPLAY"); display != "" {
		config.Headless = false
	}
	if viewportWidth > 0 {
		config.ViewportWidth = viewportWidth
	}
	if viewportHeight > 0 {
		config.ViewportHeight = viewportHeight
	}
	if userAgent != "" {
		config.UserAgent = userAgent
	}

	capturer, err := capture.NewPlaywrightCapturer(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create capturer: %v", err)
	}

	captureOptions := capture.CaptureOptions{}
	if maskSelectors != "" {
		captureOptions.MaskSelectors = strings.Split(maskSelectors, ",")
		for i := range captureOptions.MaskSelectors {
			captureOptions.MaskSelectors[i] = strings.TrimSpace(captureOptions.MaskSelectors[i])
		}
	}
	if len(requestHeaders) > 0 {
		captureOptions.Headers = make(map[string]string)
		for _, header := range requestHeaders {
			parts := strings.SplitN(header, ":", 2)
			if len(parts) == 2 {
				captureOptions.Headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
			}
		}
	}

	result, err := capturer.Capture(ctx, url, captureOptions)
	if err != nil {
		log.Fatalf("Failed to capture screenshot: %v", err)
	}

	timestamp := time.Now().Format("20060102150405")

	h := sha256.New()
	h.Write([]byte(url))
	urlHash := fmt.Sprintf("%x", h.Sum(nil))[:16]

	baseKey := fmt.Sprintf("structural-diff/capture/%s/%s", urlHash, timestamp)

	var imagePath string
	var htmlPath string

	{
		eg, ctx := errgroup.WithContext(ctx)

		eg.Go(func() error {
			path, err := s.Put(ctx, fmt.Sprintf("%s.%s", baseKey, config.Format), result.Screenshot)
			if err != nil {
				return err
			}
			imagePath = path
			return nil
		})

		eg.Go(func() error {
			path, err := s.Put(ctx, fmt.Sprintf("%s.html", baseKey), result.HTML)
			if err != nil {
				return err
			}
			htmlPath = path
			return nil
		})

		if err := eg.Wait(); err != nil {
			log.Fatalf("Failed to store capture: %v", err)
		}
	}

	if err := json.NewEncoder(os.Stdout).Encode(CaptureOutput{
		ScreenshotPath: imagePath,
		HTMLPath:       htmlPath,
	}); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}

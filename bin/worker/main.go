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
	"structural-diff/internal/capture"
	"structural-diff/internal/fingerprint"
	"structural-diff/internal/oracle"
	"structural-diff/internal/raster"
	"structural-diff/internal/storage"
	"structural-diff/internal/structural"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type WorkerOutput struct {
	BaselineURL           string  `json:"baselineURL"`
	TargetURL             string  `json:"targetURL"`
	BaselineScreenshotURL string  `json:"baselineScreenshotURL"`
	TargetScreenshotURL   string  `json:"targetScreenshotURL"`
	DiffURL               string  `json:"diffURL"`
	DiffAmount            float64 `json:"diffAmount"`
	NoDifferences         bool    `json:"noDifferences"`
}

type Worker struct {
	Capturer capture.Capturer
	Storage  storage.Storage
	Differ   *structural.Differ
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
	case float64:
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return any(floatValue).(T)
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

func (w *Worker) Run(ctx context.Context, baselineURL string, targetURL string) (*WorkerOutput, error) {
	var baselineResult, targetResult *capture.CaptureResult
	{
		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			result, err := w.Capturer.Capture(ctx, baselineURL, capture.CaptureOptions{})
			if err != nil {
				return xerrors.Errorf("failed to capture baseline %s: %w", baselineURL, err)
			}
			baselineResult = result
			return nil
		})
		eg.Go(func() error {
			result, err := w.Capturer.Capture(ctx, targetURL, capture.CaptureOptions{})
			if err != nil {
				return xerrors.Errorf("failed to capture target %s: %w", targetURL, err)
			}
			targetResult = result
			return nil
		})
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	baselineImage, err := raster.DecodeBytes(baselineResult.Screenshot)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode baseline screenshot: %w", err)
	}
	targetImage, err := raster.DecodeBytes(targetResult.Screenshot)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode target screenshot: %w", err)
	}

	diffResult, err := w.Differ.Calculate(ctx, baselineImage, targetImage)
	if err != nil {
		return nil, xerrors.Errorf("failed to calculate structural diff: %w", err)
	}

	timestamp := time.Now().Format("20060102150405")
	h := sha256.New()
	h.Write([]byte(baselineURL + targetURL))
	hash := fmt.Sprintf("%x", h.Sum(nil))[:16]
	baseKey := fmt.Sprintf("structural-diff/worker/%s/%s", hash, timestamp)

	output := &WorkerOutput{
		BaselineURL: baselineURL,
		TargetURL:   targetURL,
		DiffAmount:  diffResult.DiffAmount,
	}

	{
		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			url, err := w.Storage.Put(ctx, fmt.Sprintf("%s/baseline.png", baseKey), baselineResult.Screenshot)
			if err != nil {
				return err
			}
			output.BaselineScreenshotURL = url
			return nil
		})
		eg.Go(func() error {
			url, err := w.Storage.Put(ctx, fmt.Sprintf("%s/target.png", baseKey), targetResult.Screenshot)
			if err != nil {
				return err
			}
			output.TargetScreenshotURL = url
			return nil
		})
		if diffResult.Image != nil {
			eg.Go(func() error {
				encoded, err := raster.EncodePNG(diffResult.Image)
				if err != nil {
					return err
				}
				url, err := w.Storage.Put(ctx, fmt.Sprintf("%s/diff.png", baseKey), encoded)
				if err != nil {
					return err
				}
				output.DiffURL = url
				return nil
			})
		} else {
			output.NoDifferences = true
		}
		if err := eg.Wait(); err != nil {
			return nil, xerrors.Errorf("failed to store artifacts: %w", err)
		}
	}

	return output, nil
}

func main() {
	_ = godotenv.Load()

	var directory string
	var algorithm string
	var scheme string
	var mergeThreshold int
	var threshold float64
	var schedule string
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "/tmp"), "Output directory")
	flag.StringVar(&algorithm, "algorithm", envOrDefaultValue("ALGORITHM", "myers"), "Diff algorithm (myers, minimal, patience or histogram)")
	flag.StringVar(&scheme, "scheme", envOrDefaultValue("SCHEME", "perceptual"), "Row fingerprint scheme (exact or perceptual)")
	flag.IntVar(&mergeThreshold, "merge-threshold", envOrDefaultValue("MERGE_THRESHOLD", 0), "Collapse insert/delete runs smaller than this many rows (0 disables)")
	flag.Float64Var(&threshold, "threshold", envOrDefaultValue("THRESHOLD", 0.1), "Pixel matching threshold for replaced regions")
	flag.StringVar(&schedule, "schedule", envOrDefaultValue("SCHEDULE", ""), "Cron expression; when set, the capture-and-diff job repeats on this schedule")

	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("baselineURL, targetURL not specified")
	}
	baselineURL := args[0]
	targetURL := args[1]

	ctx := context.Background()

	parsedAlgorithm, err := oracle.ParseAlgorithm(algorithm)
	if err != nil {
		log.Fatalf("Invalid algorithm: %v", err)
	}
	parsedScheme, err := fingerprint.ParseScheme(scheme)
	if err != nil {
		log.Fatalf("Invalid scheme: %v", err)
	}

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{
		Directory: directory,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	config := capture.DefaultPlaywrightConfig()
	config.ChromeDevtoolsProtocolURL = os.Getenv("CHROME_DEVTOOLS_PROTOCOL_URL")
	capturer, err := capture.NewPlaywrightCapturer(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create capturer: %v", err)
	}

	differ := structural.NewDiffer(oracle.NewGitOracle(parsedAlgorithm))
	differ.Scheme = parsedScheme
	differ.MergeThreshold = mergeThreshold
	differ.RenderOptions.Threshold = threshold

	worker := &Worker{
		Capturer: capturer,
		Storage:  s,
		Differ:   differ,
	}

	run := func() {
		output, err := worker.Run(ctx, baselineURL, targetURL)
		if err != nil {
			log.Fatalf("Worker failed: %v", err)
		}
		if err := json.NewEncoder(os.Stdout).Encode(output); err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
	}

	if schedule == "" {
		run()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, run); err != nil {
		log.Fatalf("Invalid schedule %q: %v", schedule, err)
	}
	c.Run()
}

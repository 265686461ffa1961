package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"structural-diff/internal/fingerprint"
	"structural-diff/internal/loader"
	"structural-diff/internal/oracle"
	"structural-diff/internal/raster"
	"structural-diff/internal/storage"
	"structural-diff/internal/structural"
	"time"

	"github.com/joho/godotenv"
)

type DiffOutput struct {
	DiffPath      string  `json:"diffPath"`
	DiffAmount    float64 `json:"diffAmount"`
	Opcodes       int     `json:"opcodes"`
	NoDifferences bool    `json:"noDifferences"`
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
	case int64:
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
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

func main() {
	_ = godotenv.Load()

	var output string
	var algorithm string
	var scheme string
	var bucketDivisor int
	var sensitivity int
	var threshold float64
	var mergeThreshold int
	var includeAA bool
	var storageBackend string
	var directory string
	var s3Bucket string

	flag.StringVar(&output, "output", envOrDefaultValue("OUTPUT", "image-diff.png"), "Output path for the composite diff image")
	flag.StringVar(&algorithm, "algorithm", envOrDefaultValue("ALGORITHM", "myers"), "Diff algorithm (myers, minimal, patience or histogram)")
	flag.StringVar(&scheme, "scheme", envOrDefaultValue("SCHEME", "exact"), "Row fingerprint scheme (exact or perceptual)")
	flag.IntVar(&bucketDivisor, "bucket-divisor", envOrDefaultValue("BUCKET_DIVISOR", 16), "Quantization bucket divisor for the perceptual scheme")
	flag.IntVar(&sensitivity, "sensitivity", envOrDefaultValue("SENSITIVITY", 96), "Edge-transition sensitivity for the perceptual scheme")
	flag.Float64Var(&threshold, "threshold", envOrDefaultValue("THRESHOLD", 0.1), "Pixel matching threshold for replaced regions")
	flag.IntVar(&mergeThreshold, "merge-threshold", envOrDefaultValue("MERGE_THRESHOLD", 0), "Collapse insert/delete runs smaller than this many rows into one replace band (0 disables)")
	flag.BoolVar(&includeAA, "include-aa", envOrDefaultValue("INCLUDE_AA", false), "Count anti-aliased pixels as differences in replaced regions")
	flag.StringVar(&storageBackend, "storage", envOrDefaultValue("STORAGE", "file"), "Storage backend (file or s3)")
	flag.StringVar(&directory, "directory", envOrDefaultValue("DIRECTORY", "."), "Output directory for the file backend")
	flag.StringVar(&s3Bucket, "s3-bucket", envOrDefaultValue("S3_BUCKET", ""), "Bucket for the s3 backend")

	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		log.Fatalf("image1, image2 not specified")
	}

	parsedAlgorithm, err := oracle.ParseAlgorithm(algorithm)
	if err != nil {
		log.Fatalf("Invalid algorithm: %v", err)
	}

	parsedScheme, err := fingerprint.ParseScheme(scheme)
	if err != nil {
		log.Fatalf("Invalid scheme: %v", err)
	}

	ctx := context.Background()

	var s storage.Storage
	switch storageBackend {
	case "file":
		s, err = storage.NewFileStorage(ctx, storage.FileConfig{
			Directory: directory,
		})
	case "s3":
		s, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket: s3Bucket,
		})
	default:
		log.Fatalf("Unknown storage backend: %s", storageBackend)
	}
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	l := loader.New()
	baselineImage, err := l.Load(ctx, args[0])
	if err != nil {
		log.Fatalf("Failed to load baseline image: %v", err)
	}
	targetImage, err := l.Load(ctx, args[1])
	if err != nil {
		log.Fatalf("Failed to load target image: %v", err)
	}

	differ := structural.NewDiffer(oracle.NewGitOracle(parsedAlgorithm))
	differ.Scheme = parsedScheme
	differ.FingerprintConfig = fingerprint.Config{
		BucketDivisor: bucketDivisor,
		Sensitivity:   sensitivity,
	}
	differ.MergeThreshold = mergeThreshold
	differ.RenderOptions.Threshold = threshold
	differ.RenderOptions.IncludeAntiAlias = includeAA

	result, err := differ.Calculate(ctx, baselineImage, targetImage)
	if err != nil {
		log.Fatalf("Failed to calculate structural diff: %v", err)
	}

	diffOutput := DiffOutput{
		DiffAmount: result.DiffAmount,
		Opcodes:    len(result.Opcodes),
	}

	if result.Image == nil {
		fmt.Fprintln(os.Stderr, "No differences found; no output written")
		diffOutput.NoDifferences = true
	} else {
		encoded, err := raster.EncodePNG(result.Image)
		if err != nil {
			log.Fatalf("Failed to encode diff image: %v", err)
		}

		diffPath, err := s.Put(ctx, output, encoded)
		if err != nil {
			log.Fatalf("Failed to save diff image: %v", err)
		}
		diffOutput.DiffPath = diffPath
	}

	if err := json.NewEncoder(os.Stdout).Encode(diffOutput); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}

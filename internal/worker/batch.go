package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/wildlens/internal/model"
)

// Predictor classifies an image and attaches facts
type Predictor interface {
	Predict(ctx context.Context, image []byte) (*model.Prediction, error)
}

// ImageJob predicts a single image file
type ImageJob struct {
	Path          string
	Predictor     Predictor
	MaxImageBytes int64
}

// Execute reads the image and runs the prediction
func (j *ImageJob) Execute(ctx context.Context) Result {
	start := time.Now()
	result := &ImageResult{Path: j.Path}

	data, err := readImage(j.Path, j.MaxImageBytes)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	result.Prediction, result.Error = j.Predictor.Predict(ctx, data)
	result.Duration = time.Since(start)
	return result
}

// ImageResult is the outcome of one ImageJob
type ImageResult struct {
	Path       string
	Prediction *model.Prediction
	Error      error
	Duration   time.Duration
}

// GetError returns the job error
func (r *ImageResult) GetError() error {
	return r.Error
}

// BatchProcessor predicts many images concurrently
type BatchProcessor struct {
	predictor     Predictor
	pool          *Pool
	maxImageBytes int64
}

// NewBatchProcessor creates a batch processor. maxImageBytes <= 0 disables the size cap.
func NewBatchProcessor(predictor Predictor, concurrency int, maxImageBytes int64) *BatchProcessor {
	return &BatchProcessor{
		predictor:     predictor,
		pool:          NewPool(concurrency),
		maxImageBytes: maxImageBytes,
	}
}

// ProcessPaths predicts every path; results are in input order
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*ImageResult {
	jobs := make([]Job, len(paths))
	for i, path := range paths {
		jobs[i] = &ImageJob{Path: path, Predictor: b.predictor, MaxImageBytes: b.maxImageBytes}
	}

	results := b.pool.Run(ctx, jobs)

	out := make([]*ImageResult, len(results))
	for i, r := range results {
		if r == nil {
			out[i] = &ImageResult{Path: paths[i], Error: fmt.Errorf("not processed: %w", context.Cause(ctx))}
			continue
		}
		out[i] = r.(*ImageResult)
	}
	return out
}

// ProcessFile reads image paths from a list file and predicts them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*ImageResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read image list: %w", err)
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads one path per line, skipping blanks and # comments
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadPaths(file)
}

// ReadPaths parses a path list, dropping duplicates while keeping first-seen order
func ReadPaths(r io.Reader) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

func readImage(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if maxBytes > 0 {
		r = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("image %s exceeds %d bytes", path, maxBytes)
	}
	return data, nil
}

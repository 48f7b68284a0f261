package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/wildlens/internal/cache"
	"github.com/ppiankov/wildlens/internal/classify"
	"github.com/ppiankov/wildlens/internal/facts"
	"github.com/ppiankov/wildlens/internal/logging"
	"github.com/ppiankov/wildlens/internal/model"
	"github.com/ppiankov/wildlens/internal/telemetry"
	"github.com/ppiankov/wildlens/internal/wiki"
	"github.com/ppiankov/wildlens/internal/worker"
)

// ArticleSource resolves a label to an encyclopedia article
type ArticleSource interface {
	FetchArticle(ctx context.Context, label string) (*wiki.Article, error)
}

// Pipeline runs classify → fetch → extract for one image or label
type Pipeline struct {
	classifier classify.Classifier
	articles   ArticleSource
	metrics    *telemetry.Metrics
	log        logging.Logger
	config     *model.Config
}

// NewPipeline creates a pipeline. The classifier is initialised once by the
// caller and only read afterwards; metrics may be nil.
func NewPipeline(cfg *model.Config, classifier classify.Classifier, articles ArticleSource, log logging.Logger, metrics *telemetry.Metrics) *Pipeline {
	if log == nil {
		log = logging.NewNop()
	}
	return &Pipeline{
		classifier: classifier,
		articles:   articles,
		metrics:    metrics,
		log:        log,
		config:     cfg,
	}
}

// Build wires a pipeline from configuration: classifier backend, rate limiter,
// article cache and wiki client.
func Build(cfg *model.Config, log logging.Logger, metrics *telemetry.Metrics) (*Pipeline, error) {
	classifier, err := classify.New(classify.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	articles := wiki.NewClientFromConfig(cfg, limiter, store, log.With(logging.String("component", "wiki")))

	return NewPipeline(cfg, classifier, articles, log, metrics), nil
}

// Classifier returns the configured classifier backend
func (p *Pipeline) Classifier() classify.Classifier {
	return p.classifier
}

// LookupFacts fetches the article for label and extracts facts from it.
// It never fails: lookup problems are reported through the sentinel fact lists.
func (p *Pipeline) LookupFacts(ctx context.Context, label string) model.FactsResult {
	start := time.Now()
	label = classify.NormalizeLabel(label)
	result := model.FactsResult{Label: label}

	article, err := p.articles.FetchArticle(ctx, label)
	switch {
	case errors.Is(err, wiki.ErrNoResults), errors.Is(err, wiki.ErrEmptyQuery):
		result.Facts = []string{facts.NoFactsFound}
		if article != nil && article.URL != "" {
			result.WikiLink = &article.URL
		}
		p.log.Info("no article facts", logging.String("label", label))
		p.metrics.ObserveFactLookup(telemetry.OutcomeNoFacts, time.Since(start))
		return result

	case err != nil:
		result.Facts = []string{facts.FetchFailed}
		p.log.Warn("fact lookup failed", logging.String("label", label), logging.Error(err))
		p.metrics.ObserveFactLookup(telemetry.OutcomeFetchFailed, time.Since(start))
		return result
	}

	link := article.URL
	result.WikiLink = &link

	extracted := facts.ExtractFacts(article.Text, label)
	if len(extracted) == 0 {
		result.Facts = []string{facts.NoFactsFound}
		p.metrics.ObserveFactLookup(telemetry.OutcomeNoFacts, time.Since(start))
		return result
	}

	result.Facts = make([]string, 0, len(extracted))
	for _, f := range extracted {
		result.Facts = append(result.Facts, f.String())
		p.metrics.CountFact(string(f.Category))
	}

	p.log.Debug("facts extracted",
		logging.String("label", label),
		logging.String("title", article.Title),
		logging.Int("facts", len(extracted)),
		logging.Duration("elapsed", time.Since(start)),
	)
	p.metrics.ObserveFactLookup(telemetry.OutcomeFound, time.Since(start))
	return result
}

// Predict classifies an uploaded image and attaches facts for the predicted label.
// Invalid images and classifier failures are returned as errors.
func (p *Pipeline) Predict(ctx context.Context, data []byte) (*model.Prediction, error) {
	name := p.classifier.Name()

	img, err := classify.DecodeImage(data)
	if err != nil {
		p.metrics.ObservePrediction(name, telemetry.OutcomeError, 0)
		return nil, fmt.Errorf("decode image: %w", err)
	}

	start := time.Now()
	result, err := p.classifier.Classify(ctx, img)
	elapsed := time.Since(start)
	if err != nil {
		p.metrics.ObservePrediction(name, telemetry.OutcomeError, elapsed)
		p.log.Error("classification failed", logging.String("classifier", name), logging.Error(err))
		return nil, fmt.Errorf("classify: %w", err)
	}
	p.metrics.ObservePrediction(name, telemetry.OutcomeSuccess, elapsed)

	label := classify.NormalizeLabel(result.Label)
	p.log.Info("image classified",
		logging.String("classifier", name),
		logging.String("label", label),
		logging.Float64("confidence", result.Confidence),
		logging.String("format", img.Format),
		logging.Duration("elapsed", elapsed),
	)

	found := p.LookupFacts(ctx, label)

	return &model.Prediction{
		Prediction: model.TitleCase(label),
		Confidence: result.Confidence,
		Facts:      found.Facts,
		WikiLink:   found.WikiLink,
		Classifier: name,
	}, nil
}

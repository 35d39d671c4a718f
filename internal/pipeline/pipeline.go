package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/feed-brain/internal/classify"
	"github.com/feed-brain/internal/ingest"
	"github.com/feed-brain/pkg/logger"
)

// Runner executes the full cycle: ingestion to completion across all
// active sources, then classification of whatever is pending. The two
// phases are sequential and operate on disjoint article subsets.
type Runner struct {
	coordinator *ingest.Coordinator
	classifier  *classify.Classifier
	log         *logger.Logger
}

// New creates a cycle runner. classifier may be nil when no completion
// service credential is configured; ingestion still runs and the missing
// credential is reported once per cycle.
func New(coordinator *ingest.Coordinator, classifier *classify.Classifier, log *logger.Logger) *Runner {
	return &Runner{
		coordinator: coordinator,
		classifier:  classifier,
		log:         log.WithComponent("pipeline"),
	}
}

// CycleResult aggregates both phases of one cycle.
type CycleResult struct {
	NewArticles    int
	SourceFailures int
	Selected       int
	Classified     int
	Duration       time.Duration
}

// Cycle runs ingestion followed by classification.
func (r *Runner) Cycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	result := &CycleResult{}

	ingestRes, err := r.coordinator.Run(ctx)
	if ingestRes != nil {
		result.NewArticles = ingestRes.NewArticles
		result.SourceFailures = ingestRes.SourceFailures
	}
	if err != nil {
		return result, fmt.Errorf("ingestion failed: %w", err)
	}

	if r.classifier == nil {
		r.log.Error().Msg("No Anthropic API key configured, skipping classification")
		result.Duration = time.Since(start)
		return result, nil
	}

	classifyRes, err := r.classifier.Run(ctx)
	if classifyRes != nil {
		result.Selected = classifyRes.Selected
		result.Classified = classifyRes.Classified
	}
	if err != nil {
		return result, fmt.Errorf("classification failed: %w", err)
	}

	result.Duration = time.Since(start)
	r.log.Info().
		Int("new_articles", result.NewArticles).
		Int("classified", result.Classified).
		Int("selected", result.Selected).
		Dur("duration", result.Duration).
		Msg("Cycle complete")

	return result, nil
}

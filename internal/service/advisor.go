package service

import (
	"context"
	"errors"
	"fmt"

	"decision-service/internal/metrics"
	"decision-service/internal/models"
	"decision-service/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrGenerationDisabled is returned when no text generator is configured.
	ErrGenerationDisabled = errors.New("text generation is not configured")
	// ErrFeedbackDisabled is returned when no feedback store is configured.
	ErrFeedbackDisabled = errors.New("feedback store is not configured")
)

// Decider picks a winner from pros/cons text and a mindset
type Decider interface {
	Decide(prosA, consA, prosB, consB []string, mindset models.Mindset) (models.DecisionResult, error)
}

// FeedbackStore persists labeled comparisons
type FeedbackStore interface {
	SaveRecord(ctx context.Context, rec *models.DatasetRecord) error
	GetStats(ctx context.Context) (*repository.FeedbackStats, error)
}

// Advisor is built once at startup and shared by every request. Its
// collaborators are read-only after construction.
type Advisor struct {
	generator *Generator
	decider   Decider
	feedback  FeedbackStore
	logger    *zap.Logger
}

// NewAdvisor creates the advisor. generator and feedback may be nil, which
// disables the corresponding operations; decider is required.
func NewAdvisor(generator *Generator, decider Decider, feedback FeedbackStore, logger *zap.Logger) (*Advisor, error) {
	if decider == nil {
		return nil, errors.New("decider is required")
	}
	return &Advisor{
		generator: generator,
		decider:   decider,
		feedback:  feedback,
		logger:    logger,
	}, nil
}

// Generate produces pros and cons for the two options
func (a *Advisor) Generate(ctx context.Context, req models.GenerateRequest) (resp *models.GenerateResponse, err error) {
	if a.generator == nil {
		return nil, ErrGenerationDisabled
	}
	defer recoverInto(&err, "generate")

	return a.generator.Generate(ctx, req)
}

// Decide classifies the comparison. Unknown mindsets are logged and encoded as mixed.
func (a *Advisor) Decide(ctx context.Context, req models.DecideRequest) (result models.DecisionResult, err error) {
	defer recoverInto(&err, "decide")

	mindset := req.Mindset
	if mindset != "" && !mindset.Valid() {
		a.logger.Warn("Unknown mindset, using mixed",
			zap.String("mindset", string(mindset)))
		metrics.UnknownMindsetTotal.Inc()
	}

	result, err = a.decider.Decide(req.ProsA, req.ConsA, req.ProsB, req.ConsB, mindset)
	if err != nil {
		return models.DecisionResult{}, err
	}

	metrics.DecisionsTotal.WithLabelValues(result.Winner).Inc()
	a.logger.Debug("Decision made",
		zap.String("winner", result.Winner),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}

// RecordFeedback stores the user's final choice for later training
func (a *Advisor) RecordFeedback(ctx context.Context, req models.FeedbackRequest) (*models.DatasetRecord, error) {
	if a.feedback == nil {
		return nil, ErrFeedbackDisabled
	}
	rec := req.Record()
	if rec.Mindset == "" {
		rec.Mindset = models.MindsetMixed
	}
	if err := a.feedback.SaveRecord(ctx, &rec); err != nil {
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}
	a.logger.Info("Feedback recorded",
		zap.String("id", rec.ID),
		zap.String("final_decision", rec.FinalDecision))
	return &rec, nil
}

// FeedbackStats returns counts over the stored feedback
func (a *Advisor) FeedbackStats(ctx context.Context) (*repository.FeedbackStats, error) {
	if a.feedback == nil {
		return nil, ErrFeedbackDisabled
	}
	return a.feedback.GetStats(ctx)
}

// GenerationEnabled reports whether a text generator is configured
func (a *Advisor) GenerationEnabled() bool {
	return a.generator != nil
}

// recoverInto turns a panic in the named operation into an error
func recoverInto(err *error, op string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panicked: %v", op, r)
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"decision-service/internal/metrics"
	"decision-service/internal/models"
	"decision-service/internal/parser"
	"decision-service/internal/prompt"

	"go.uber.org/zap"
)

// TextGenerator is any text-in/text-out model
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator asks a text model for pros and cons and parses the answer
type Generator struct {
	llm     TextGenerator
	timeout time.Duration
	logger  *zap.Logger
}

// NewGenerator creates a generator. A zero timeout leaves the caller's deadline in charge.
func NewGenerator(llm TextGenerator, timeout time.Duration, logger *zap.Logger) *Generator {
	return &Generator{
		llm:     llm,
		timeout: timeout,
		logger:  logger,
	}
}

// Generate builds the prompt, calls the model and parses its sections
func (g *Generator) Generate(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := g.llm.Generate(ctx, prompt.Build(req.Topic, req.OptionA, req.OptionB, req.Mindset))
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("text generation failed: %w", err)
	}

	sections := parser.Parse(raw)

	g.logger.Debug("Generated pros and cons",
		zap.String("topic", req.Topic),
		zap.Int("pros_a", len(sections.ProsA)),
		zap.Int("cons_a", len(sections.ConsA)),
		zap.Int("pros_b", len(sections.ProsB)),
		zap.Int("cons_b", len(sections.ConsB)),
		zap.Duration("took", time.Since(start)))

	return &models.GenerateResponse{
		ProsA: sections.ProsA,
		ConsA: sections.ConsA,
		ProsB: sections.ProsB,
		ConsB: sections.ConsB,
		Raw:   raw,
	}, nil
}

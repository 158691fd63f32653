package pipeline

import (
	"fmt"

	"decision-service/internal/features"
	"decision-service/internal/models"
)

// Decider runs inference against a loaded artifact. It never mutates the
// artifact and holds no per-call state, so one Decider serves all requests.
type Decider struct {
	artifact *Artifact
}

// NewDecider validates a and wraps it for inference.
func NewDecider(a *Artifact) (*Decider, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &Decider{artifact: a}, nil
}

// LoadDecider loads the artifact at path and returns a Decider for it.
func LoadDecider(path string) (*Decider, error) {
	a, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	return NewDecider(a)
}

// Artifact returns the loaded artifact.
func (d *Decider) Artifact() *Artifact {
	return d.artifact
}

// Decide picks the winning option. An empty mindset means mixed; any other
// unknown mindset is encoded with the artifact's default code (mixed).
func (d *Decider) Decide(prosA, consA, prosB, consB []string, mindset models.Mindset) (models.DecisionResult, error) {
	if mindset == "" {
		mindset = models.MindsetMixed
	}
	text := models.JoinItems(prosA, consA, prosB, consB)
	x := features.Vector(d.artifact.Vectorizer, d.artifact.Mindsets, text, mindset)

	pred, err := d.artifact.Forest.Predict(x)
	if err != nil {
		return models.DecisionResult{}, fmt.Errorf("failed to predict: %w", err)
	}
	return models.DecisionResult{
		Winner:     pred.Label,
		Confidence: pred.Confidence,
		ClassProbs: pred.Probs,
	}, nil
}

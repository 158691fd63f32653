package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"decision-service/internal/features"
	"decision-service/internal/forest"
	"decision-service/internal/models"

	"go.uber.org/zap"
)

// Training stages reported in StageError.
const (
	StageLoad     = "load dataset"
	StageValidate = "validate dataset"
	StageFit      = "fit"
	StagePersist  = "persist"
)

// ErrEmptyDataset is returned when there is nothing to train on.
var ErrEmptyDataset = errors.New("dataset is empty")

// StageError tags a training failure with the stage it happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PersistError is returned when training succeeded but the artifact could
// not be written. The fitted artifact is kept so the caller can retry elsewhere.
type PersistError struct {
	Path     string
	Err      error
	Artifact *Artifact
	Report   *Report
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: model fitted but not written to %s: %v", StagePersist, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// TrainConfig holds the training knobs.
type TrainConfig struct {
	MaxFeatures  int
	TestFraction float64
	Forest       forest.Params
}

// DefaultTrainConfig mirrors the production training setup.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		MaxFeatures:  features.DefaultMaxFeatures,
		TestFraction: 0.15,
		Forest:       forest.DefaultParams(),
	}
}

// Report describes a finished training run.
type Report struct {
	Samples    int           `json:"samples"`
	TrainSize  int           `json:"train_size"`
	TestSize   int           `json:"test_size"`
	Vocabulary int           `json:"vocabulary"`
	Classes    []string      `json:"classes"`
	Accuracy   float64       `json:"accuracy"`
	Duration   time.Duration `json:"duration"`
}

// Trainer fits artifacts from labeled samples.
type Trainer struct {
	cfg    TrainConfig
	logger *zap.Logger
}

// NewTrainer creates a trainer.
func NewTrainer(cfg TrainConfig, logger *zap.Logger) *Trainer {
	return &Trainer{cfg: cfg, logger: logger}
}

// Train validates samples, fits the vectorizer on the full corpus, fits the
// forest on the stratified train split and scores it on the held-out rows.
func (t *Trainer) Train(ctx context.Context, samples []models.Sample) (*Artifact, *Report, error) {
	start := time.Now()

	labels, err := validateSamples(samples)
	if err != nil {
		return nil, nil, &StageError{Stage: StageValidate, Err: err}
	}

	corpus := make([]string, len(samples))
	for i, s := range samples {
		corpus[i] = s.Text
	}
	vec, err := features.Fit(corpus, t.cfg.MaxFeatures)
	if err != nil {
		return nil, nil, &StageError{Stage: StageFit, Err: fmt.Errorf("failed to fit vectorizer: %w", err)}
	}
	enc := features.NewMindsetEncoder()

	X := make([][]float64, len(samples))
	for i, s := range samples {
		X[i] = features.Vector(vec, enc, s.Text, s.Mindset)
	}

	trainIdx, testIdx := forest.StratifiedSplit(labels, t.cfg.TestFraction, t.cfg.Forest.Seed)
	xTrain, yTrain := subset(X, labels, trainIdx)
	xTest, yTest := subset(X, labels, testIdx)

	t.logger.Info("Training random forest",
		zap.Int("samples", len(samples)),
		zap.Int("train", len(trainIdx)),
		zap.Int("test", len(testIdx)),
		zap.Int("vocabulary", vec.Width()),
		zap.Int("trees", t.cfg.Forest.NEstimators))

	model, err := forest.Fit(ctx, xTrain, yTrain, t.cfg.Forest)
	if err != nil {
		return nil, nil, &StageError{Stage: StageFit, Err: fmt.Errorf("failed to fit forest: %w", err)}
	}

	report := &Report{
		Samples:    len(samples),
		TrainSize:  len(trainIdx),
		TestSize:   len(testIdx),
		Vocabulary: vec.Width(),
		Classes:    model.Classes,
	}
	if len(xTest) > 0 {
		report.Accuracy, err = model.Score(xTest, yTest)
		if err != nil {
			return nil, nil, &StageError{Stage: StageFit, Err: fmt.Errorf("failed to score held-out set: %w", err)}
		}
	} else {
		t.logger.Warn("Held-out set is empty, accuracy not measured")
	}
	report.Duration = time.Since(start)

	return &Artifact{Vectorizer: vec, Forest: model, Mindsets: enc}, report, nil
}

// TrainAndSave trains and then writes the artifact to path. When only the
// write fails the returned error is a *PersistError holding the artifact.
func (t *Trainer) TrainAndSave(ctx context.Context, samples []models.Sample, path string) (*Artifact, *Report, error) {
	artifact, report, err := t.Train(ctx, samples)
	if err != nil {
		return nil, nil, err
	}
	if err := SaveArtifact(path, artifact); err != nil {
		return artifact, report, &PersistError{Path: path, Err: err, Artifact: artifact, Report: report}
	}
	t.logger.Info("Artifact saved",
		zap.String("path", path),
		zap.Float64("accuracy", report.Accuracy))
	return artifact, report, nil
}

func validateSamples(samples []models.Sample) ([]string, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyDataset
	}
	labels := make([]string, len(samples))
	seen := make(map[string]bool)
	for i, s := range samples {
		if s.Label != models.LabelA && s.Label != models.LabelB {
			return nil, fmt.Errorf("sample %d has label %q, expected %q or %q", i, s.Label, models.LabelA, models.LabelB)
		}
		labels[i] = s.Label
		seen[s.Label] = true
	}
	if len(seen) < 2 {
		return nil, fmt.Errorf("%w: every sample is labeled %q", forest.ErrSingleClass, labels[0])
	}
	return labels, nil
}

func subset(X [][]float64, y []string, idx []int) ([][]float64, []string) {
	xs := make([][]float64, len(idx))
	ys := make([]string, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}

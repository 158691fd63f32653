package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"decision-service/internal/dataset"
	"decision-service/internal/models"
	"decision-service/internal/pipeline"
	"decision-service/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit statuses of the train command
const (
	exitFatal        = 1
	exitNotPersisted = 2 // model fitted and saved to a recovery path only
)

var (
	trainDataset     string
	trainOutput      string
	trainFromDB      bool
	trainTrees       int
	trainMaxFeatures int
	trainSeed        int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the feature extractor and forest and write the model artifact",
	Long: `Train the decision model.

The dataset is a JSON array of records with pros_a, cons_a, pros_b, cons_b,
mindset and final_decision. On success the held-out accuracy is printed.
Failures name the stage that failed (load dataset, validate dataset, fit,
persist) and exit non-zero. If only writing the artifact fails, a copy is
written to the temp directory and the exit status is 2.

Examples:
  decisionctl train
  decisionctl train --dataset data/mine.json --out /tmp/decision.gob
  decisionctl train --from-db`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainDataset, "dataset", "", "dataset JSON path (default from config, "+dataset.DefaultPath+")")
	trainCmd.Flags().StringVar(&trainOutput, "out", "", "artifact output path (default from config, "+dataset.DefaultArtifactPath+")")
	trainCmd.Flags().BoolVar(&trainFromDB, "from-db", false, "train on the feedback store instead of the dataset file")
	trainCmd.Flags().IntVar(&trainTrees, "trees", 0, "number of trees (default from config)")
	trainCmd.Flags().IntVar(&trainMaxFeatures, "max-features", 0, "vocabulary cap (default from config)")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 0, "random seed for split and forest (default from config)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return &exitError{code: exitFatal, err: fmt.Errorf("failed to load config: %w", err)}
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if trainDataset != "" {
		cfg.Model.DatasetPath = trainDataset
	}
	if trainOutput != "" {
		cfg.Model.ArtifactPath = trainOutput
	}
	tc := cfg.TrainConfig()
	if trainTrees > 0 {
		tc.Forest.NEstimators = trainTrees
	}
	if trainMaxFeatures > 0 {
		tc.MaxFeatures = trainMaxFeatures
	}
	if cmd.Flags().Changed("seed") {
		tc.Forest.Seed = trainSeed
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, source, skipped, err := loadTrainingRecords(ctx, cfg.Model.DatasetPath, cfg.Database.Path, logger)
	if err != nil {
		return stageFailure(&pipeline.StageError{Stage: pipeline.StageLoad, Err: err})
	}
	logger.Info("Dataset loaded", zap.String("source", source), zap.Int("records", len(records)))
	if skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d undecodable feedback rows\n", skipped)
	}

	trainer := pipeline.NewTrainer(tc, logger)
	_, report, err := trainer.TrainAndSave(ctx, dataset.Samples(records), cfg.Model.ArtifactPath)

	var persistErr *pipeline.PersistError
	if errors.As(err, &persistErr) {
		return recoverArtifact(cmd, persistErr, logger)
	}
	if err != nil {
		return stageFailure(err)
	}

	printReport(cmd, report, cfg.Model.ArtifactPath)
	return nil
}

// loadTrainingRecords returns the records, where they came from and how many
// feedback rows were unreadable
func loadTrainingRecords(ctx context.Context, datasetPath, dbPath string, logger *zap.Logger) ([]models.DatasetRecord, string, int, error) {
	if !trainFromDB {
		records, err := dataset.LoadJSON(datasetPath)
		return records, datasetPath, 0, err
	}

	if _, err := os.Stat(dbPath); err != nil {
		return nil, dbPath, 0, fmt.Errorf("feedback store %s: %w", dbPath, err)
	}
	repo, err := repository.NewFeedbackRepository(dbPath, logger)
	if err != nil {
		return nil, dbPath, 0, err
	}
	defer repo.Close()

	records, skipped, err := repo.GetAllRecords(ctx)
	if err != nil {
		return nil, dbPath, 0, err
	}
	if skipped > 0 {
		logger.Warn("Feedback rows skipped", zap.Int("skipped", skipped), zap.Int("kept", len(records)))
	}
	if len(records) == 0 {
		return nil, dbPath, skipped, fmt.Errorf("feedback store %s: %w", dbPath, dataset.ErrNoRecords)
	}
	return records, dbPath, skipped, nil
}

// recoverArtifact keeps a fitted model whose primary write failed. Every run
// gets its own recovery file in the temp directory.
func recoverArtifact(cmd *cobra.Command, perr *pipeline.PersistError, logger *zap.Logger) error {
	fallback, err := reserveRecoveryPath(filepath.Base(perr.Path))
	if err != nil {
		logger.Error("Failed to create recovery file", zap.Error(err))
		return &exitError{code: exitFatal, err: fmt.Errorf("%w (recovery copy also failed: %v)", perr, err)}
	}
	if err := pipeline.SaveArtifact(fallback, perr.Artifact); err != nil {
		os.Remove(fallback)
		logger.Error("Failed to write recovery copy", zap.String("path", fallback), zap.Error(err))
		return &exitError{code: exitFatal, err: fmt.Errorf("%w (recovery copy also failed: %v)", perr, err)}
	}

	logger.Warn("Artifact written to recovery path", zap.String("path", fallback))
	printReport(cmd, perr.Report, fallback)
	return &exitError{code: exitNotPersisted, err: fmt.Errorf("%w; recovered copy at %s", perr, fallback)}
}

func reserveRecoveryPath(base string) (string, error) {
	f, err := os.CreateTemp(os.TempDir(), base+".recovered-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func stageFailure(err error) error {
	var se *pipeline.StageError
	if errors.As(err, &se) {
		return &exitError{code: exitFatal, err: fmt.Errorf("training failed at stage %q: %w", se.Stage, se.Err)}
	}
	return &exitError{code: exitFatal, err: fmt.Errorf("training failed: %w", err)}
}

func printReport(cmd *cobra.Command, r *pipeline.Report, path string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Samples:    %d (train %d, test %d)\n", r.Samples, r.TrainSize, r.TestSize)
	fmt.Fprintf(out, "Vocabulary: %d terms\n", r.Vocabulary)
	fmt.Fprintf(out, "Classes:    %v\n", r.Classes)
	fmt.Fprintf(out, "Test accuracy: %.4f\n", r.Accuracy)
	fmt.Fprintf(out, "Saved model to %s (%s)\n", path, r.Duration.Round(time.Millisecond))
}

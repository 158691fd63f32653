package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"decision-service/internal/models"
	"decision-service/internal/pipeline"

	"github.com/spf13/cobra"
)

var decideModel string

var decideCmd = &cobra.Command{
	Use:   "decide [request.json]",
	Short: "Run the decision model on one request",
	Long: `Run the decision model locally on a JSON request with pros_a, cons_a,
pros_b, cons_b and mindset. Reads stdin when no file or "-" is given.

Examples:
  echo '{"pros_a":["good learning"],"cons_a":["poor pay"],"pros_b":["stable"],"cons_b":["less freedom"],"mindset":"practical"}' | decisionctl decide`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().StringVar(&decideModel, "model", "", "artifact path (default from config)")
}

func runDecide(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if decideModel != "" {
		cfg.Model.ArtifactPath = decideModel
	}

	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	var req models.DecideRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("failed to parse request: %w", err)
	}

	decider, err := pipeline.LoadDecider(cfg.Model.ArtifactPath)
	if err != nil {
		return err
	}
	result, err := decider.Decide(req.ProsA, req.ConsA, req.ProsB, req.ConsB, req.Mindset)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// readInput returns the named file's contents, or stdin for no argument or "-"
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

package main

import (
	"fmt"

	"decision-service/internal/dataset"

	"github.com/spf13/cobra"
)

var (
	synthOut      string
	synthPerTopic int
	synthSeed     int64
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a synthetic labeled dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records := dataset.Synthesize(dataset.SynthConfig{
			PerTopic: synthPerTopic,
			Seed:     synthSeed,
		})
		if err := dataset.SaveJSON(synthOut, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d examples to %s\n", len(records), synthOut)
		return nil
	},
}

func init() {
	synthCmd.Flags().StringVar(&synthOut, "out", dataset.DefaultPath, "output dataset path")
	synthCmd.Flags().IntVar(&synthPerTopic, "per-topic", 80, "records per topic")
	synthCmd.Flags().Int64Var(&synthSeed, "seed", 42, "random seed")
}

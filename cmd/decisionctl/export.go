package main

import (
	"fmt"

	"decision-service/internal/dataset"
	"decision-service/internal/models"
	"decision-service/internal/repository"

	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the feedback store as a dataset JSON file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		repo, err := repository.NewFeedbackRepository(cfg.Database.Path, logger)
		if err != nil {
			return err
		}
		defer repo.Close()

		records, skipped, err := repo.GetAllRecords(cmd.Context())
		if err != nil {
			return err
		}
		if records == nil {
			records = []models.DatasetRecord{}
		}
		if skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d undecodable feedback rows\n", skipped)
		}
		if err := dataset.SaveJSON(exportOut, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(records), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "dataset/feedback.json", "output dataset path")
}

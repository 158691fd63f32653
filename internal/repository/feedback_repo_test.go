package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"decision-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *FeedbackRepository {
	t.Helper()
	repo, err := NewFeedbackRepository(filepath.Join(t.TempDir(), "feedback.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestFeedbackRepository_SaveAndGetAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &models.DatasetRecord{
		Topic:         "Laptop",
		OptionA:       "New",
		OptionB:       "Used",
		ProsA:         []string{"warranty", "battery"},
		ConsA:         []string{"price"},
		ProsB:         []string{"cheap"},
		Mindset:       models.MindsetPractical,
		FinalDecision: "A",
	}
	require.NoError(t, repo.SaveRecord(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := &models.DatasetRecord{
		ProsB:         []string{"freedom"},
		Mindset:       models.MindsetEmotional,
		FinalDecision: "B",
	}
	require.NoError(t, repo.SaveRecord(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)

	records, skipped, err := repo.GetAllRecords(ctx)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 2)

	byID := map[string]models.DatasetRecord{}
	for _, r := range records {
		byID[r.ID] = r
	}
	got := byID[first.ID]
	assert.Equal(t, "Laptop", got.Topic)
	assert.Equal(t, []string{"warranty", "battery"}, got.ProsA)
	assert.Equal(t, []string{"price"}, got.ConsA)
	assert.Equal(t, []string{}, got.ConsB)
	assert.Equal(t, models.MindsetPractical, got.Mindset)

	// Stored records feed straight back into training
	assert.Equal(t, "freedom", byID[second.ID].Sample().Text)
	assert.Equal(t, "B", byID[second.ID].Sample().Label)
}

func TestFeedbackRepository_GetStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, r := range []models.DatasetRecord{
		{Mindset: models.MindsetPractical, FinalDecision: "A"},
		{Mindset: models.MindsetPractical, FinalDecision: "B"},
		{Mindset: models.MindsetMixed, FinalDecision: "A"},
	} {
		r := r
		require.NoError(t, repo.SaveRecord(ctx, &r))
	}

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, stats.ByDecision)
	assert.Equal(t, map[string]int{"practical": 2, "mixed": 1}, stats.ByMindset)
}

func TestFeedbackRepository_Empty(t *testing.T) {
	repo := newTestRepo(t)

	records, skipped, err := repo.GetAllRecords(context.Background())
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, records)

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestFeedbackRepository_CountsUndecodableRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveRecord(ctx, &models.DatasetRecord{Mindset: models.MindsetMixed, FinalDecision: "A"}))
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO feedback (id, pros_a, cons_a, pros_b, cons_b, mindset, final_decision, created_at)
		VALUES ('broken', '["ok"]', 'not json', '[]', '[]', 'mixed', 'B', ?)`, time.Now().UTC())
	require.NoError(t, err)

	records, skipped, err := repo.GetAllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].FinalDecision)
}

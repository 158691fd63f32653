package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"decision-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// FeedbackRepository stores comparisons together with the option the user finally chose
type FeedbackRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// FeedbackStats summarises the stored feedback
type FeedbackStats struct {
	Total      int            `json:"total"`
	ByDecision map[string]int `json:"by_decision"`
	ByMindset  map[string]int `json:"by_mindset"`
}

// NewFeedbackRepository opens (or creates) the SQLite database at dbPath
func NewFeedbackRepository(dbPath string, logger *zap.Logger) (*FeedbackRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &FeedbackRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Feedback repository initialized", zap.String("db_path", dbPath))

	return repo, nil
}

// migrate creates tables
func (r *FeedbackRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		topic TEXT,
		option_a TEXT,
		option_b TEXT,
		pros_a TEXT NOT NULL,
		cons_a TEXT NOT NULL,
		pros_b TEXT NOT NULL,
		cons_b TEXT NOT NULL,
		mindset TEXT NOT NULL,
		final_decision TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_feedback_decision ON feedback(final_decision);
	CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveRecord inserts rec, assigning its ID and CreatedAt
func (r *FeedbackRepository) SaveRecord(ctx context.Context, rec *models.DatasetRecord) error {
	lists := make([]string, 4)
	for i, items := range [][]string{rec.ProsA, rec.ConsA, rec.ProsB, rec.ConsB} {
		if items == nil {
			items = []string{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to encode items: %w", err)
		}
		lists[i] = string(data)
	}

	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO feedback (
			id, topic, option_a, option_b, pros_a, cons_a, pros_b, cons_b,
			mindset, final_decision, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Topic,
		rec.OptionA,
		rec.OptionB,
		lists[0],
		lists[1],
		lists[2],
		lists[3],
		string(rec.Mindset),
		rec.FinalDecision,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	return nil
}

// GetAllRecords returns every stored record, oldest first, and the number of
// rows that could not be decoded and were left out
func (r *FeedbackRepository) GetAllRecords(ctx context.Context) ([]models.DatasetRecord, int, error) {
	query := `
		SELECT id, topic, option_a, option_b, pros_a, cons_a, pros_b, cons_b,
		       mindset, final_decision, created_at
		FROM feedback
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var records []models.DatasetRecord
	skipped := 0
	for rows.Next() {
		var (
			rec                        models.DatasetRecord
			topic, optionA, optionB    sql.NullString
			prosA, consA, prosB, consB string
			mindset                    string
		)
		err := rows.Scan(
			&rec.ID,
			&topic,
			&optionA,
			&optionB,
			&prosA,
			&consA,
			&prosB,
			&consB,
			&mindset,
			&rec.FinalDecision,
			&rec.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan feedback", zap.Error(err))
			skipped++
			continue
		}

		rec.Topic, rec.OptionA, rec.OptionB = topic.String, optionA.String, optionB.String
		rec.Mindset = models.Mindset(mindset)
		if err := decodeLists(&rec, prosA, consA, prosB, consB); err != nil {
			r.logger.Error("Failed to decode feedback items", zap.String("id", rec.ID), zap.Error(err))
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read feedback: %w", err)
	}

	return records, skipped, nil
}

// GetStats returns counts by final decision and mindset
func (r *FeedbackRepository) GetStats(ctx context.Context) (*FeedbackStats, error) {
	stats := &FeedbackStats{
		ByDecision: make(map[string]int),
		ByMindset:  make(map[string]int),
	}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}

	if err := r.countBy(ctx, "final_decision", stats.ByDecision); err != nil {
		return nil, err
	}
	if err := r.countBy(ctx, "mindset", stats.ByMindset); err != nil {
		return nil, err
	}

	return stats, nil
}

// countBy fills into with row counts grouped by column. column is never user input.
func (r *FeedbackRepository) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT %s, COUNT(*) FROM feedback GROUP BY %s", column, column))
	if err != nil {
		return fmt.Errorf("failed to group feedback by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			continue
		}
		into[key] = count
	}
	return rows.Err()
}

// Close closes the database connection
func (r *FeedbackRepository) Close() error {
	return r.db.Close()
}

func decodeLists(rec *models.DatasetRecord, prosA, consA, prosB, consB string) error {
	targets := []*[]string{&rec.ProsA, &rec.ConsA, &rec.ProsB, &rec.ConsB}
	for i, raw := range []string{prosA, consA, prosB, consB} {
		if err := json.Unmarshal([]byte(raw), targets[i]); err != nil {
			return err
		}
	}
	return nil
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// HistoryRepository stores the serialized run history as a single document
// row. It implements history.Persistence; interpreting the payload is the
// history store's job.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a repository backed by the given database
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Load returns the stored history payload, or nil when none has been saved yet
func (r *HistoryRepository) Load() ([]byte, error) {
	var payload string
	err := r.db.QueryRow(`SELECT payload FROM run_history WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	return []byte(payload), nil
}

// Save replaces the stored history payload
func (r *HistoryRepository) Save(data []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO run_history (id, payload, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save run history: %w", err)
	}

	r.logger.Debug("Run history saved", zap.Int("bytes", len(data)))
	return nil
}

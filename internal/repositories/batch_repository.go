package repositories

import (
	"database/sql"
	"sync"

	"github.com/alimgiray/botscope/internal/models"
)

// BatchRepository handles database operations for classification batches
type BatchRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewBatchRepository creates a new BatchRepository
func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create creates a new batch
func (r *BatchRepository) Create(batch *models.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO batches (id, status, total, completed, failed, error_message, started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		batch.ID,
		batch.Status,
		batch.Total,
		batch.Completed,
		batch.Failed,
		batch.ErrorMessage,
		batch.StartedAt,
		batch.CompletedAt,
		batch.CreatedAt,
		batch.UpdatedAt,
	)
	return err
}

// GetByID retrieves a batch by ID
func (r *BatchRepository) GetByID(id string) (*models.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, status, total, completed, failed, error_message, started_at, completed_at, created_at, updated_at
		FROM batches WHERE id = ?
	`

	batch := &models.Batch{}
	err := r.db.QueryRow(query, id).Scan(
		&batch.ID,
		&batch.Status,
		&batch.Total,
		&batch.Completed,
		&batch.Failed,
		&batch.ErrorMessage,
		&batch.StartedAt,
		&batch.CompletedAt,
		&batch.CreatedAt,
		&batch.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return batch, nil
}

// GetRecent retrieves the most recently created batches
func (r *BatchRepository) GetRecent(limit int) ([]*models.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `
		SELECT id, status, total, completed, failed, error_message, started_at, completed_at, created_at, updated_at
		FROM batches
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*models.Batch
	for rows.Next() {
		batch := &models.Batch{}
		err := rows.Scan(
			&batch.ID,
			&batch.Status,
			&batch.Total,
			&batch.Completed,
			&batch.Failed,
			&batch.ErrorMessage,
			&batch.StartedAt,
			&batch.CompletedAt,
			&batch.CreatedAt,
			&batch.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	return batches, rows.Err()
}

// Update updates a batch's status and counters
func (r *BatchRepository) Update(batch *models.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		UPDATE batches
		SET status = ?, completed = ?, failed = ?, error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		batch.Status,
		batch.Completed,
		batch.Failed,
		batch.ErrorMessage,
		batch.StartedAt,
		batch.CompletedAt,
		batch.UpdatedAt,
		batch.ID,
	)
	return err
}

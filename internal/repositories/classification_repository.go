package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alimgiray/botscope/internal/models"
)

// ClassificationRepository handles database operations for classification outcomes
type ClassificationRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewClassificationRepository creates a new ClassificationRepository
func NewClassificationRepository(db *sql.DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

const classificationColumns = `id, batch_id, login, verdict, confidence, queries_used, features, error_message, created_at`

// Create stores a classification outcome
func (r *ClassificationRepository) Create(c *models.Classification) error {
	var features sql.NullString
	if c.Features != nil {
		data, err := json.Marshal(c.Features)
		if err != nil {
			return fmt.Errorf("failed to encode features: %w", err)
		}
		features = sql.NullString{String: string(data), Valid: true}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	query := `INSERT INTO classifications (` + classificationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		c.ID,
		c.BatchID,
		c.Login,
		c.Verdict,
		c.Confidence,
		c.QueriesUsed,
		features,
		c.ErrorMessage,
		c.CreatedAt,
	)
	return err
}

// GetLatestByLogin retrieves the most recent outcome for a login, or nil if
// the login was never classified
func (r *ClassificationRepository) GetLatestByLogin(login string) (*models.Classification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + classificationColumns + ` FROM classifications
		WHERE login = ? COLLATE NOCASE
		ORDER BY created_at DESC
		LIMIT 1`

	c, err := scanClassification(r.db.QueryRow(query, login))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetByBatchID retrieves all outcomes of a batch
func (r *ClassificationRepository) GetByBatchID(batchID string) ([]*models.Classification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + classificationColumns + ` FROM classifications
		WHERE batch_id = ?
		ORDER BY created_at ASC`

	rows, err := r.db.Query(query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classifications []*models.Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		classifications = append(classifications, c)
	}

	return classifications, rows.Err()
}

// GetStaleLogins returns up to limit logins whose latest outcome is older
// than cutoff, oldest first
func (r *ClassificationRepository) GetStaleLogins(cutoff time.Time, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT login FROM classifications
		GROUP BY login COLLATE NOCASE
		HAVING MAX(created_at) < ?
		ORDER BY MAX(created_at) ASC
		LIMIT ?`

	rows, err := r.db.Query(query, cutoff.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logins []string
	for rows.Next() {
		var login string
		if err := rows.Scan(&login); err != nil {
			return nil, err
		}
		logins = append(logins, login)
	}

	return logins, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanClassification(row scanner) (*models.Classification, error) {
	c := &models.Classification{}
	var features sql.NullString
	err := row.Scan(
		&c.ID,
		&c.BatchID,
		&c.Login,
		&c.Verdict,
		&c.Confidence,
		&c.QueriesUsed,
		&features,
		&c.ErrorMessage,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if features.Valid {
		var v models.FeatureVector
		if err := json.Unmarshal([]byte(features.String), &v); err != nil {
			return nil, fmt.Errorf("failed to decode features of %s: %w", c.ID, err)
		}
		c.Features = &v
	}

	return c, nil
}

package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

// BackupLogRepository implements models.Repository[*models.BackupLogEntry] for the upload journal.
type BackupLogRepository struct {
	db *sql.DB
}

// NewBackupLogRepository creates a new BackupLogRepository with the given database connection
func NewBackupLogRepository(db *sql.DB) *BackupLogRepository {
	return &BackupLogRepository{db: db}
}

// Create inserts a new entry with a generated ID
func (r *BackupLogRepository) Create(entry *models.BackupLogEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	entry.SetID(shared.GenerateID())

	query := `
		INSERT INTO backup_log (id, reason, signature, status, message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		entry.ID(),
		entry.Reason(),
		entry.Signature(),
		string(entry.Status()),
		entry.Message(),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert backup log entry: %w", err)
	}

	return nil
}

// Get retrieves an entry by ID
func (r *BackupLogRepository) Get(id string) (*models.BackupLogEntry, error) {
	query := `
		SELECT id, reason, signature, status, message, created_at, updated_at
		FROM backup_log
		WHERE id = ?
	`

	return r.scan(r.db.QueryRow(query, id))
}

// Update rewrites the outcome of an entry
func (r *BackupLogRepository) Update(entry *models.BackupLogEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.db.Exec(
		"UPDATE backup_log SET status = ?, message = ?, updated_at = ? WHERE id = ?",
		string(entry.Status()), entry.Message(), entry.UpdatedAt(), entry.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update backup log entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("backup log entry not found: %s", entry.ID())
	}

	return nil
}

// Delete removes an entry by ID
func (r *BackupLogRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM backup_log WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete backup log entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("backup log entry not found: %s", id)
	}

	return nil
}

// List retrieves entries newest first.
//
// Supported criteria: "status" (string), "reason" (string), "limit" (int).
func (r *BackupLogRepository) List(criteria map[string]any) ([]*models.BackupLogEntry, error) {
	query := `
		SELECT id, reason, signature, status, message, created_at, updated_at
		FROM backup_log
		WHERE 1 = 1
	`

	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if reason, ok := criteria["reason"].(string); ok && reason != "" {
		query += " AND reason = ?"
		args = append(args, reason)
	}

	query += " ORDER BY created_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query backup log: %w", err)
	}
	defer rows.Close()

	var entries []*models.BackupLogEntry
	for rows.Next() {
		entry, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads a single row into a [models.BackupLogEntry]
func (r *BackupLogRepository) scan(row scanner) (*models.BackupLogEntry, error) {
	var (
		id, reason, signature, status, message string
		createdAt, updatedAt                   time.Time
	)

	err := row.Scan(&id, &reason, &signature, &status, &message, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("backup log entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan backup log entry: %w", err)
	}

	return models.RestoreBackupLogEntry(id, reason, signature, models.BackupStatus(status), message, createdAt, updatedAt), nil
}

var _ models.Repository[*models.BackupLogEntry] = (*BackupLogRepository)(nil)

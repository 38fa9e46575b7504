package store

import (
	"database/sql"
	"fmt"
	"time"
)

type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

type BackupRecord struct {
	ID        int64     `json:"id"`
	ObjectKey string    `json:"object_key"`
	SizeBytes int64     `json:"size_bytes"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *BackupStore) Record(objectKey string, sizeBytes int64, status, errMsg string) error {
	_, err := s.db.Exec(
		`INSERT INTO backup_history (object_key, size_bytes, status, error) VALUES (?, ?, ?, ?)`,
		objectKey, sizeBytes, status, errMsg,
	)
	if err != nil {
		return fmt.Errorf("record backup: %w", err)
	}
	return nil
}

func (s *BackupStore) ListRecent(limit int) ([]BackupRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, object_key, size_bytes, status, error, created_at
		 FROM backup_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var records []BackupRecord
	for rows.Next() {
		var r BackupRecord
		if err := rows.Scan(&r.ID, &r.ObjectKey, &r.SizeBytes, &r.Status, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LastSuccess returns the most recent successful backup time, or nil.
func (s *BackupStore) LastSuccess() (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRow(
		`SELECT created_at FROM backup_history WHERE status = 'ok' ORDER BY id DESC LIMIT 1`,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last backup: %w", err)
	}
	return &t, nil
}

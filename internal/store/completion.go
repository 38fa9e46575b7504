package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/bywater/internal/model"
)

type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	var startedAt, completedAt sql.NullTime
	var deferredTo sql.NullString

	err := scanner.Scan(
		&c.ID, &c.ActivityID, &c.UserID, &c.Date, &c.Status,
		&startedAt, &completedAt, &c.ElapsedMS, &deferredTo,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		c.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	if deferredTo.Valid {
		c.DeferredTo = &deferredTo.String
	}
	return &c, nil
}

const completionCols = `id, activity_id, user_id, date, status, started_at, completed_at, elapsed_ms, deferred_to, created_at, updated_at`

// Upsert writes the completion state for (activity, user, date). The unique
// key guarantees a single row per task per day; concurrent writers are
// last-writer-wins on the whole row.
func (s *CompletionStore) Upsert(c *model.Completion) (*model.Completion, error) {
	var startedAt, completedAt sql.NullTime
	if c.StartedAt != nil {
		startedAt = sql.NullTime{Time: *c.StartedAt, Valid: true}
	}
	if c.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *c.CompletedAt, Valid: true}
	}
	var deferredTo sql.NullString
	if c.DeferredTo != nil {
		deferredTo = sql.NullString{String: *c.DeferredTo, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO completions (activity_id, user_id, date, status, started_at, completed_at, elapsed_ms, deferred_to)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(activity_id, user_id, date) DO UPDATE SET
			status = excluded.status,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			elapsed_ms = excluded.elapsed_ms,
			deferred_to = excluded.deferred_to,
			updated_at = CURRENT_TIMESTAMP`,
		c.ActivityID, c.UserID, c.Date, c.Status, startedAt, completedAt, c.ElapsedMS, deferredTo,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert completion: %w", err)
	}
	return s.Get(c.ActivityID, c.UserID, c.Date)
}

// Get returns the completion for (activity, user, date), or nil.
func (s *CompletionStore) Get(activityID, userID int64, date string) (*model.Completion, error) {
	row := s.db.QueryRow(
		`SELECT `+completionCols+` FROM completions WHERE activity_id = ? AND user_id = ? AND date = ?`,
		activityID, userID, date,
	)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *CompletionStore) GetByID(id int64) (*model.Completion, error) {
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion by id: %w", err)
	}
	return c, nil
}

// Delete removes the row outright, returning the task to unstarted.
func (s *CompletionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM completions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}

// ListForUserDate returns every completion the user recorded on a date.
func (s *CompletionStore) ListForUserDate(userID int64, date string) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM completions WHERE user_id = ? AND date = ? ORDER BY id`,
		userID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()
	return collectCompletions(rows)
}

// ListDeferredTo returns deferred completions postponed to the given date.
func (s *CompletionStore) ListDeferredTo(userID int64, date string) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM completions WHERE user_id = ? AND deferred_to = ? AND status = ? ORDER BY id`,
		userID, date, model.StatusDeferred,
	)
	if err != nil {
		return nil, fmt.Errorf("list deferred completions: %w", err)
	}
	defer rows.Close()
	return collectCompletions(rows)
}

func collectCompletions(rows *sql.Rows) ([]model.Completion, error) {
	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

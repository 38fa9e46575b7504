package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/bywater/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func scanActivity(scanner interface{ Scan(...any) error }) (*model.Activity, error) {
	var a model.Activity
	var userID, familyID sql.NullInt64

	err := scanner.Scan(
		&a.ID, &a.Name, &a.Category, &a.DefaultMinutes, &a.OwnerType,
		&userID, &familyID, &a.IsRota, &a.IsActive,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		a.UserID = &userID.Int64
	}
	if familyID.Valid {
		a.FamilyID = &familyID.Int64
	}
	return &a, nil
}

const activityCols = `id, name, category, default_minutes, owner_type, user_id, family_id, is_rota, is_active, created_at, updated_at`

func (s *ActivityStore) Create(name string, category model.Category, defaultMinutes int, ownerType string, userID, familyID *int64, isRota bool) (*model.Activity, error) {
	var uID, fID sql.NullInt64
	if userID != nil {
		uID = sql.NullInt64{Int64: *userID, Valid: true}
	}
	if familyID != nil {
		fID = sql.NullInt64{Int64: *familyID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO activities (name, category, default_minutes, owner_type, user_id, family_id, is_rota) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, category, defaultMinutes, ownerType, uID, fID, isRota,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ActivityStore) GetByID(id int64) (*model.Activity, error) {
	row := s.db.QueryRow(`SELECT `+activityCols+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// ListForUser returns active activities owned by the user plus active
// activities of every family the user belongs to.
func (s *ActivityStore) ListForUser(userID int64) ([]model.Activity, error) {
	rows, err := s.db.Query(`
		SELECT `+activityCols+` FROM activities
		WHERE is_active = 1 AND (
			user_id = ?
			OR family_id IN (SELECT family_id FROM family_members WHERE user_id = ?)
		)
		ORDER BY name COLLATE NOCASE`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities for user: %w", err)
	}
	defer rows.Close()
	return collectActivities(rows)
}

func (s *ActivityStore) ListForFamily(familyID int64) ([]model.Activity, error) {
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM activities WHERE family_id = ? AND is_active = 1 ORDER BY name COLLATE NOCASE`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities for family: %w", err)
	}
	defer rows.Close()
	return collectActivities(rows)
}

func collectActivities(rows *sql.Rows) ([]model.Activity, error) {
	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (s *ActivityStore) Update(id int64, name string, category model.Category, defaultMinutes int, isRota bool) (*model.Activity, error) {
	_, err := s.db.Exec(
		`UPDATE activities SET name = ?, category = ?, default_minutes = ?, is_rota = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, category, defaultMinutes, isRota, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	return s.GetByID(id)
}

// Deactivate soft-deletes the activity. Its schedule entries and completions
// stay in place, but it stops appearing in lists and daily plans.
func (s *ActivityStore) Deactivate(id int64) error {
	_, err := s.db.Exec(
		`UPDATE activities SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("deactivate activity: %w", err)
	}
	return nil
}

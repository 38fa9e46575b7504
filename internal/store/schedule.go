package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/bywater/internal/model"
)

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// Slot is one (user, week, day) placement used when rewriting an activity's
// schedule. UserID nil means the slot applies to every family member.
type Slot struct {
	UserID      *int64 `json:"user_id"`
	WeekOfCycle int    `json:"week_of_cycle"`
	DayOfWeek   int    `json:"day_of_week"`
}

const scheduleEntryCols = `id, activity_id, user_id, week_of_cycle, day_of_week, created_at`

func scanScheduleEntry(scanner interface{ Scan(...any) error }) (*model.ScheduleEntry, error) {
	var e model.ScheduleEntry
	var userID sql.NullInt64
	err := scanner.Scan(&e.ID, &e.ActivityID, &userID, &e.WeekOfCycle, &e.DayOfWeek, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		e.UserID = &userID.Int64
	}
	return &e, nil
}

// Rewrite replaces every schedule entry of an activity with the given slots.
// Delete-then-insert inside one transaction keeps the at-most-one-entry-per-
// slot invariant without needing a unique index over a nullable column.
func (s *ScheduleStore) Rewrite(activityID int64, slots []Slot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM schedule_entries WHERE activity_id = ?`, activityID); err != nil {
		return fmt.Errorf("clear schedule: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO schedule_entries (activity_id, user_id, week_of_cycle, day_of_week) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, slot := range slots {
		var uID sql.NullInt64
		if slot.UserID != nil {
			uID = sql.NullInt64{Int64: *slot.UserID, Valid: true}
		}
		if _, err := stmt.Exec(activityID, uID, slot.WeekOfCycle, slot.DayOfWeek); err != nil {
			return fmt.Errorf("insert slot: %w", err)
		}
	}
	return tx.Commit()
}

func (s *ScheduleStore) ListForActivity(activityID int64) ([]model.ScheduleEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+scheduleEntryCols+` FROM schedule_entries WHERE activity_id = ? ORDER BY week_of_cycle, day_of_week`,
		activityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ScheduleEntry
	for rows.Next() {
		e, err := scanScheduleEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

const scheduledActivityQuery = `
	SELECT se.id, se.activity_id, se.user_id, se.week_of_cycle, se.day_of_week, se.created_at,
	       a.id, a.name, a.category, a.default_minutes, a.owner_type, a.user_id, a.family_id,
	       a.is_rota, a.is_active, a.created_at, a.updated_at
	FROM schedule_entries se
	JOIN activities a ON a.id = se.activity_id
	WHERE a.is_active = 1 AND se.week_of_cycle = ? AND se.day_of_week = ?`

// ListPersonal returns the user's own schedule entries for a slot, filtered
// by the joined activity's rota flag. isRota=false selects fixed personal
// activities, isRota=true the rotation-assigned ones.
func (s *ScheduleStore) ListPersonal(userID int64, weekOfCycle, dayOfWeek int, isRota bool) ([]model.ScheduledActivity, error) {
	rows, err := s.db.Query(
		scheduledActivityQuery+` AND se.user_id = ? AND a.is_rota = ? ORDER BY se.id`,
		weekOfCycle, dayOfWeek, userID, isRota,
	)
	if err != nil {
		return nil, fmt.Errorf("list personal schedule: %w", err)
	}
	defer rows.Close()
	return collectScheduledActivities(rows)
}

// ListFamilyWide returns entries with no assigned user for a family's
// activities in a slot. These apply to every member of the family.
func (s *ScheduleStore) ListFamilyWide(familyID int64, weekOfCycle, dayOfWeek int) ([]model.ScheduledActivity, error) {
	rows, err := s.db.Query(
		scheduledActivityQuery+` AND se.user_id IS NULL AND a.family_id = ? ORDER BY se.id`,
		weekOfCycle, dayOfWeek, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list family-wide schedule: %w", err)
	}
	defer rows.Close()
	return collectScheduledActivities(rows)
}

func collectScheduledActivities(rows *sql.Rows) ([]model.ScheduledActivity, error) {
	var results []model.ScheduledActivity
	for rows.Next() {
		var sa model.ScheduledActivity
		var entryUserID, actUserID, actFamilyID sql.NullInt64

		err := rows.Scan(
			&sa.Entry.ID, &sa.Entry.ActivityID, &entryUserID, &sa.Entry.WeekOfCycle, &sa.Entry.DayOfWeek, &sa.Entry.CreatedAt,
			&sa.Activity.ID, &sa.Activity.Name, &sa.Activity.Category, &sa.Activity.DefaultMinutes, &sa.Activity.OwnerType,
			&actUserID, &actFamilyID, &sa.Activity.IsRota, &sa.Activity.IsActive,
			&sa.Activity.CreatedAt, &sa.Activity.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scheduled activity: %w", err)
		}

		if entryUserID.Valid {
			sa.Entry.UserID = &entryUserID.Int64
		}
		if actUserID.Valid {
			sa.Activity.UserID = &actUserID.Int64
		}
		if actFamilyID.Valid {
			sa.Activity.FamilyID = &actFamilyID.Int64
		}
		results = append(results, sa)
	}
	return results, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/bywater/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const subscriptionCols = `id, user_id, family_id, endpoint, p256dh_key, auth_key, device_name, created_at`

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(&sub.ID, &sub.UserID, &sub.FamilyID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription registers a device endpoint. Re-subscribing the same
// endpoint updates the keys in place.
func (s *PushStore) CreateSubscription(userID, familyID int64, endpoint, p256dh, authKey, deviceName string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(`
		INSERT INTO push_subscriptions (user_id, family_id, endpoint, p256dh_key, auth_key, device_name)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			user_id = excluded.user_id,
			family_id = excluded.family_id,
			p256dh_key = excluded.p256dh_key,
			auth_key = excluded.auth_key,
			device_name = excluded.device_name`,
		userID, familyID, endpoint, p256dh, authKey, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	return scanSubscription(row)
}

func (s *PushStore) DeleteSubscription(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// DeleteByEndpoint removes a subscription the push service reported expired.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete subscription by endpoint: %w", err)
	}
	return nil
}

func (s *PushStore) ListByUser(userID, familyID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE user_id = ? AND family_id = ? ORDER BY id`,
		userID, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions by user: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (s *PushStore) ListByFamily(familyID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE family_id = ? ORDER BY id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions by family: %w", err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// ListFamilyIDs returns the distinct families with at least one subscribed
// device, for the alert scheduler sweep.
func (s *PushStore) ListFamilyIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT DISTINCT family_id FROM push_subscriptions ORDER BY family_id`)
	if err != nil {
		return nil, fmt.Errorf("list subscription families: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan family id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectSubscriptions(rows *sql.Rows) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// --- Preferences ---

// IsPreferenceEnabled reports whether the user wants an alert type. Absent
// rows default to enabled.
func (s *PushStore) IsPreferenceEnabled(userID, familyID int64, alertType string) (bool, error) {
	var enabled bool
	err := s.db.QueryRow(
		`SELECT enabled FROM alert_preferences WHERE user_id = ? AND family_id = ? AND alert_type = ?`,
		userID, familyID, alertType,
	).Scan(&enabled)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get alert preference: %w", err)
	}
	return enabled, nil
}

func (s *PushStore) SetPreference(userID, familyID int64, alertType string, enabled bool) error {
	_, err := s.db.Exec(`
		INSERT INTO alert_preferences (user_id, family_id, alert_type, enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, family_id, alert_type) DO UPDATE SET
			enabled = excluded.enabled,
			updated_at = CURRENT_TIMESTAMP`,
		userID, familyID, alertType, enabled,
	)
	if err != nil {
		return fmt.Errorf("set alert preference: %w", err)
	}
	return nil
}

func (s *PushStore) GetPreferences(userID, familyID int64) ([]model.AlertPreference, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, family_id, alert_type, enabled, created_at, updated_at
		 FROM alert_preferences WHERE user_id = ? AND family_id = ? ORDER BY alert_type`,
		userID, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list alert preferences: %w", err)
	}
	defer rows.Close()

	var prefs []model.AlertPreference
	for rows.Next() {
		var p model.AlertPreference
		if err := rows.Scan(&p.ID, &p.UserID, &p.FamilyID, &p.AlertType, &p.Enabled, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan alert preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// --- Sent log (dedup for scheduled alerts) ---

func (s *PushStore) WasSent(familyID int64, alertType, referenceID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM alert_log WHERE family_id = ? AND alert_type = ? AND reference_id = ?`,
		familyID, alertType, referenceID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check alert log: %w", err)
	}
	return count > 0, nil
}

func (s *PushStore) RecordSent(familyID int64, alertType, referenceID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO alert_log (family_id, alert_type, reference_id) VALUES (?, ?, ?)`,
		familyID, alertType, referenceID,
	)
	if err != nil {
		return fmt.Errorf("record alert: %w", err)
	}
	return nil
}

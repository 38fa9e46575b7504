package model

import "time"

// Alert type constants
const (
	AlertTypeDailyDigest   = "daily_digest"
	AlertTypeTaskCompleted = "task_completed"
)

type PushSubscription struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	FamilyID   int64     `json:"family_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type AlertPreference struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FamilyID  int64     `json:"family_id"`
	AlertType string    `json:"alert_type"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

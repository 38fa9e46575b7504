package model

import "time"

// User's personal cycle config governs their non-rota schedule. Personal
// activities always resolve to week 1 regardless of CycleWeeks; the config
// exists so a user can later widen their own rotation.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	CycleWeeks     int       `json:"cycle_weeks"`
	CycleStartDate string    `json:"cycle_start_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

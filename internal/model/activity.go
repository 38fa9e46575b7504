package model

import "time"

// Category groups activities for display ordering on the daily plan.
type Category string

const (
	CategoryHome     Category = "Home"
	CategoryBrain    Category = "Brain"
	CategoryBody     Category = "Body"
	CategoryDowntime Category = "Downtime"
)

// Rank returns the fixed sort position of a category. Unrecognized
// categories sort after all known ones.
func (c Category) Rank() int {
	switch c {
	case CategoryHome:
		return 0
	case CategoryBrain:
		return 1
	case CategoryBody:
		return 2
	case CategoryDowntime:
		return 3
	default:
		return 4
	}
}

// Owner type constants. An activity belongs to exactly one user or
// exactly one family, never both.
const (
	OwnerPersonal = "personal"
	OwnerFamily   = "family"
)

type Activity struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Category       Category  `json:"category"`
	DefaultMinutes int       `json:"default_minutes"`
	OwnerType      string    `json:"owner_type"`
	UserID         *int64    `json:"user_id"`
	FamilyID       *int64    `json:"family_id"`
	IsRota         bool      `json:"is_rota"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

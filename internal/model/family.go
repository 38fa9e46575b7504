package model

import "time"

// Family carries the rota cycle configuration shared by its members.
// RotaStartDate anchors the rotation; RotaCycleWeeks is the cycle length.
type Family struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	RotaCycleWeeks int       `json:"rota_cycle_weeks"`
	RotaStartDate  string    `json:"rota_start_date"`
	InviteCode     string    `json:"invite_code"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type FamilyMember struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership is a family member row joined with its family, so callers get
// the family's rota config alongside the membership. Memberships are ordered
// by row id; the first one is the user's primary family.
type Membership struct {
	Member FamilyMember `json:"member"`
	Family Family       `json:"family"`
}

package model

import "time"

// ScheduleEntry binds an activity to one (week_of_cycle, day_of_week) slot.
// UserID nil means the entry applies to every member of the owning family.
// week_of_cycle is 1-based; day_of_week is 0=Monday..6=Sunday.
type ScheduleEntry struct {
	ID          int64     `json:"id"`
	ActivityID  int64     `json:"activity_id"`
	UserID      *int64    `json:"user_id"`
	WeekOfCycle int       `json:"week_of_cycle"`
	DayOfWeek   int       `json:"day_of_week"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScheduledActivity is a schedule entry joined with its activity row,
// as returned by the schedule store queries the planner consumes.
type ScheduledActivity struct {
	Entry    ScheduleEntry `json:"entry"`
	Activity Activity      `json:"activity"`
}

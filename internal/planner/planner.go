// Package planner assembles the daily task list: it resolves the rotation
// cycle for the user and each of their families, merges the personal, rota,
// and family-wide schedules, and folds in deferred and ad-hoc completions.
package planner

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/bywater/internal/cycle"
	"github.com/dukerupert/bywater/internal/model"
	"github.com/dukerupert/bywater/internal/store"
)

// ErrUserNotFound is returned when the target user does not exist.
var ErrUserNotFound = errors.New("user not found")

// DailyTask is one item on a user's plan for a date. It is computed per
// request and never persisted. Completion is nil until the user interacts
// with the task that day.
type DailyTask struct {
	Activity   model.Activity    `json:"activity"`
	UserID     int64             `json:"user_id"`
	Completion *model.Completion `json:"completion"`
	IsDeferred bool              `json:"is_deferred,omitempty"`
	IsAdHoc    bool              `json:"is_ad_hoc,omitempty"`
}

// DayPlan is the assembled response for one (user, date). WeekOfCycle is the
// rota week of the user's primary family only; users in several families get
// each family's own week applied during assembly, but the envelope reports
// just the primary one.
type DayPlan struct {
	Date        string      `json:"date"`
	WeekOfCycle int         `json:"week_of_cycle"`
	DayOfWeek   int         `json:"day_of_week"`
	Tasks       []DailyTask `json:"tasks"`
	Summary     Summary     `json:"summary"`
}

// Summary aggregates durations across a plan. Tasks without recorded elapsed
// time contribute their activity's default estimate; the fallback is applied
// per item, never globally.
type Summary struct {
	TotalTasks int   `json:"total_tasks"`
	DoneTasks  int   `json:"done_tasks"`
	TotalMS    int64 `json:"total_ms"`
	DoneMS     int64 `json:"done_ms"`
}

type Assembler struct {
	users       *store.UserStore
	families    *store.FamilyStore
	activities  *store.ActivityStore
	schedules   *store.ScheduleStore
	completions *store.CompletionStore
}

func NewAssembler(us *store.UserStore, fs *store.FamilyStore, as *store.ActivityStore, ss *store.ScheduleStore, cs *store.CompletionStore) *Assembler {
	return &Assembler{
		users:       us,
		families:    fs,
		activities:  as,
		schedules:   ss,
		completions: cs,
	}
}

// Assemble builds the ordered, deduplicated task list for a user and date.
// Any store failure aborts the whole assembly; a partial plan would
// misrepresent completion state.
func (a *Assembler) Assemble(userID int64, date time.Time) (*DayPlan, error) {
	user, err := a.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	dateStr := date.Format(cycle.DateLayout)
	day := cycle.Weekday(date)

	memberships, err := a.families.ListMembershipsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}

	// Each family rotates on its own cycle. The primary family's week is
	// what the envelope reports and what the user's rota entries resolve
	// against.
	familyWeeks := make([]int, len(memberships))
	for i, ms := range memberships {
		familyWeeks[i] = familyWeek(ms.Family, date)
	}
	primaryWeek := 1
	if len(memberships) > 0 {
		primaryWeek = familyWeeks[0]
	}

	completions, err := a.completions.ListForUserDate(userID, dateStr)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}
	completionByActivity := make(map[int64]*model.Completion, len(completions))
	for i := range completions {
		completionByActivity[completions[i].ActivityID] = &completions[i]
	}

	// Personal (fixed) activities always resolve to week 1; only rota
	// activities walk the multi-week cycle.
	personal, err := a.schedules.ListPersonal(userID, 1, day, false)
	if err != nil {
		return nil, fmt.Errorf("load personal schedule: %w", err)
	}
	rota, err := a.schedules.ListPersonal(userID, primaryWeek, day, true)
	if err != nil {
		return nil, fmt.Errorf("load rota schedule: %w", err)
	}

	// One ordered pass, personal first, so user-specific entries win the
	// dedup against family-wide ones for the same activity.
	seen := make(map[int64]bool)
	var tasks []DailyTask

	appendScheduled := func(rows []model.ScheduledActivity) {
		for _, sa := range rows {
			if seen[sa.Activity.ID] {
				continue
			}
			seen[sa.Activity.ID] = true
			tasks = append(tasks, DailyTask{
				Activity:   sa.Activity,
				UserID:     userID,
				Completion: completionByActivity[sa.Activity.ID],
			})
		}
	}

	appendScheduled(personal)
	appendScheduled(rota)

	for i, ms := range memberships {
		familyWide, err := a.schedules.ListFamilyWide(ms.Family.ID, familyWeeks[i], day)
		if err != nil {
			return nil, fmt.Errorf("load family-wide schedule: %w", err)
		}
		appendScheduled(familyWide)
	}

	if err := a.appendDeferred(&tasks, seen, completionByActivity, userID, dateStr); err != nil {
		return nil, err
	}
	if err := a.appendAdHoc(&tasks, seen, completions, userID); err != nil {
		return nil, err
	}

	sortTasks(tasks)

	return &DayPlan{
		Date:        dateStr,
		WeekOfCycle: primaryWeek,
		DayOfWeek:   day,
		Tasks:       tasks,
		Summary:     Summarize(tasks),
	}, nil
}

// appendDeferred adds tasks postponed to this date. A deferred task appears
// only if the activity is not already planned and the user has not already
// recorded a separate completion for it today.
func (a *Assembler) appendDeferred(tasks *[]DailyTask, seen map[int64]bool, todays map[int64]*model.Completion, userID int64, dateStr string) error {
	deferred, err := a.completions.ListDeferredTo(userID, dateStr)
	if err != nil {
		return fmt.Errorf("load deferred completions: %w", err)
	}
	for _, c := range deferred {
		if seen[c.ActivityID] || todays[c.ActivityID] != nil {
			continue
		}
		activity, err := a.activities.GetByID(c.ActivityID)
		if err != nil {
			return fmt.Errorf("load deferred activity: %w", err)
		}
		if activity == nil || !activity.IsActive {
			continue
		}
		seen[c.ActivityID] = true
		*tasks = append(*tasks, DailyTask{
			Activity:   *activity,
			UserID:     userID,
			Completion: nil,
			IsDeferred: true,
		})
	}
	return nil
}

// appendAdHoc adds completions recorded today for activities the schedule
// did not select.
func (a *Assembler) appendAdHoc(tasks *[]DailyTask, seen map[int64]bool, todays []model.Completion, userID int64) error {
	for i := range todays {
		c := &todays[i]
		if c.Status == model.StatusDeferred || seen[c.ActivityID] {
			continue
		}
		activity, err := a.activities.GetByID(c.ActivityID)
		if err != nil {
			return fmt.Errorf("load ad-hoc activity: %w", err)
		}
		if activity == nil {
			continue
		}
		seen[c.ActivityID] = true
		*tasks = append(*tasks, DailyTask{
			Activity:   *activity,
			UserID:     userID,
			Completion: c,
			IsAdHoc:    true,
		})
	}
	return nil
}

func familyWeek(f model.Family, date time.Time) int {
	start, err := cycle.ParseDate(f.RotaStartDate)
	if err != nil {
		// Unparseable anchor behaves like a fresh 1-week cycle.
		return 1
	}
	return cycle.WeekOf(date, start, f.RotaCycleWeeks)
}

// sortTasks orders by fixed category rank, then case-insensitive name.
// The sort is stable so equal tasks keep their merge order.
func sortTasks(tasks []DailyTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Activity.Category.Rank(), tasks[j].Activity.Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(tasks[i].Activity.Name) < strings.ToLower(tasks[j].Activity.Name)
	})
}

// Summarize totals durations across tasks: recorded elapsed time when the
// completion has any, the activity's default estimate otherwise.
func Summarize(tasks []DailyTask) Summary {
	var s Summary
	for _, t := range tasks {
		s.TotalTasks++

		ms := int64(t.Activity.DefaultMinutes) * 60_000
		if t.Completion != nil && t.Completion.ElapsedMS > 0 {
			ms = t.Completion.ElapsedMS
		}
		s.TotalMS += ms

		if t.Completion != nil && t.Completion.Status == model.StatusDone {
			s.DoneTasks++
			s.DoneMS += ms
		}
	}
	return s
}

package store

import (
	"testing"
)

func TestScheduleRewriteReplacesEntries(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	activity := createPersonalActivity(t, db, user.ID, "Piano")
	ss := NewScheduleStore(db)

	if err := ss.Rewrite(activity.ID, []Slot{
		{UserID: &user.ID, WeekOfCycle: 1, DayOfWeek: 0},
		{UserID: &user.ID, WeekOfCycle: 1, DayOfWeek: 2},
	}); err != nil {
		t.Fatalf("first rewrite: %v", err)
	}

	if err := ss.Rewrite(activity.ID, []Slot{
		{UserID: &user.ID, WeekOfCycle: 1, DayOfWeek: 4},
	}); err != nil {
		t.Fatalf("second rewrite: %v", err)
	}

	entries, err := ss.ListForActivity(activity.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after rewrite, got %d", len(entries))
	}
	if entries[0].DayOfWeek != 4 {
		t.Errorf("day_of_week = %d, want 4", entries[0].DayOfWeek)
	}
}

func TestScheduleRewriteEmptyClears(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	activity := createPersonalActivity(t, db, user.ID, "Piano")
	ss := NewScheduleStore(db)

	if err := ss.Rewrite(activity.ID, []Slot{{UserID: &user.ID, WeekOfCycle: 1, DayOfWeek: 0}}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := ss.Rewrite(activity.ID, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}

	entries, _ := ss.ListForActivity(activity.ID)
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestListPersonalFiltersWeekDayAndRota(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	family := createTestFamily(t, db, "Fam")
	personal := createPersonalActivity(t, db, user.ID, "Piano")
	rota := createFamilyActivity(t, db, family.ID, "Kitchen", true)
	ss := NewScheduleStore(db)

	// Personal: week 1, Monday. Rota: week 2, Monday for this user.
	if err := ss.Rewrite(personal.ID, []Slot{{UserID: &user.ID, WeekOfCycle: 1, DayOfWeek: 0}}); err != nil {
		t.Fatalf("rewrite personal: %v", err)
	}
	if err := ss.Rewrite(rota.ID, []Slot{{UserID: &user.ID, WeekOfCycle: 2, DayOfWeek: 0}}); err != nil {
		t.Fatalf("rewrite rota: %v", err)
	}

	got, err := ss.ListPersonal(user.ID, 1, 0, false)
	if err != nil {
		t.Fatalf("list personal: %v", err)
	}
	if len(got) != 1 || got[0].Activity.ID != personal.ID {
		t.Fatalf("personal week1/mon = %+v, want just the piano activity", got)
	}

	// Wrong day
	got, _ = ss.ListPersonal(user.ID, 1, 1, false)
	if len(got) != 0 {
		t.Errorf("expected nothing on Tuesday, got %d", len(got))
	}

	// Rota entries only show up with isRota=true and their week
	got, _ = ss.ListPersonal(user.ID, 2, 0, true)
	if len(got) != 1 || got[0].Activity.ID != rota.ID {
		t.Fatalf("rota week2/mon = %+v, want just the kitchen activity", got)
	}
	got, _ = ss.ListPersonal(user.ID, 1, 0, true)
	if len(got) != 0 {
		t.Errorf("rota activity should not appear in week 1, got %d", len(got))
	}
}

func TestListFamilyWide(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	family := createTestFamily(t, db, "Fam")
	everyone := createFamilyActivity(t, db, family.ID, "Tidy up", false)
	assigned := createFamilyActivity(t, db, family.ID, "Kitchen", true)
	ss := NewScheduleStore(db)

	// Family-wide entry has no user; the assigned one belongs to a member
	if err := ss.Rewrite(everyone.ID, []Slot{{UserID: nil, WeekOfCycle: 1, DayOfWeek: 0}}); err != nil {
		t.Fatalf("rewrite family-wide: %v", err)
	}
	if err := ss.Rewrite(assigned.ID, []Slot{{UserID: &user.ID, WeekOfCycle: 1, DayOfWeek: 0}}); err != nil {
		t.Fatalf("rewrite assigned: %v", err)
	}

	got, err := ss.ListFamilyWide(family.ID, 1, 0)
	if err != nil {
		t.Fatalf("list family-wide: %v", err)
	}
	if len(got) != 1 || got[0].Activity.ID != everyone.ID {
		t.Fatalf("family-wide = %+v, want just the unassigned activity", got)
	}
}

func TestScheduleSkipsInactiveActivities(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	activity := createPersonalActivity(t, db, user.ID, "Piano")
	ss := NewScheduleStore(db)

	if err := ss.Rewrite(activity.ID, []Slot{{UserID: &user.ID, WeekOfCycle: 1, DayOfWeek: 0}}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := NewActivityStore(db).Deactivate(activity.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	got, err := ss.ListPersonal(user.ID, 1, 0, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("deactivated activity should not be scheduled, got %d", len(got))
	}
}

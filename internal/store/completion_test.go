package store

import (
	"testing"
	"time"

	"github.com/dukerupert/bywater/internal/model"
)

func TestCompletionUpsertSingleRow(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	activity := createPersonalActivity(t, db, user.ID, "Dishes")
	cs := NewCompletionStore(db)

	first, err := cs.Upsert(&model.Completion{
		ActivityID: activity.ID,
		UserID:     user.ID,
		Date:       "2025-01-20",
		Status:     model.StatusStarted,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := cs.Upsert(&model.Completion{
		ActivityID: activity.ID,
		UserID:     user.ID,
		Date:       "2025-01-20",
		Status:     model.StatusDone,
		ElapsedMS:  90_000,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert created a new row: id %d != %d", second.ID, first.ID)
	}
	if second.Status != model.StatusDone {
		t.Errorf("status = %q, want done", second.Status)
	}
	if second.ElapsedMS != 90_000 {
		t.Errorf("elapsed_ms = %d, want 90000", second.ElapsedMS)
	}

	all, err := cs.ListForUserDate(user.ID, "2025-01-20")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 row after two upserts, got %d", len(all))
	}
}

func TestCompletionSeparateRowsPerDate(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	activity := createPersonalActivity(t, db, user.ID, "Dishes")
	cs := NewCompletionStore(db)

	for _, date := range []string{"2025-01-20", "2025-01-21"} {
		if _, err := cs.Upsert(&model.Completion{
			ActivityID: activity.ID, UserID: user.ID, Date: date, Status: model.StatusDone,
		}); err != nil {
			t.Fatalf("upsert %s: %v", date, err)
		}
	}

	monday, _ := cs.Get(activity.ID, user.ID, "2025-01-20")
	tuesday, _ := cs.Get(activity.ID, user.ID, "2025-01-21")
	if monday == nil || tuesday == nil {
		t.Fatal("expected a row for each date")
	}
	if monday.ID == tuesday.ID {
		t.Error("different dates should have different rows")
	}
}

func TestCompletionGetMissing(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCompletionStore(db)

	c, err := cs.Get(99, 99, "2025-01-20")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c != nil {
		t.Error("expected nil for missing completion")
	}

	c, err = cs.GetByID(99)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if c != nil {
		t.Error("expected nil for missing id")
	}
}

func TestCompletionTimestampsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	activity := createPersonalActivity(t, db, user.ID, "Dishes")
	cs := NewCompletionStore(db)

	started := time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)
	c, err := cs.Upsert(&model.Completion{
		ActivityID: activity.ID,
		UserID:     user.ID,
		Date:       "2025-01-20",
		Status:     model.StatusStarted,
		StartedAt:  &started,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if c.StartedAt == nil || !c.StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", c.StartedAt, started)
	}
	if c.CompletedAt != nil {
		t.Error("completed_at should be nil")
	}
}

func TestCompletionDelete(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	activity := createPersonalActivity(t, db, user.ID, "Dishes")
	cs := NewCompletionStore(db)

	c, err := cs.Upsert(&model.Completion{
		ActivityID: activity.ID, UserID: user.ID, Date: "2025-01-20", Status: model.StatusDone,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := cs.Delete(c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := cs.Get(activity.ID, user.ID, "2025-01-20")
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestCompletionListDeferredTo(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	a1 := createPersonalActivity(t, db, user.ID, "Dishes")
	a2 := createPersonalActivity(t, db, user.ID, "Laundry")
	cs := NewCompletionStore(db)

	target := "2025-01-22"
	if _, err := cs.Upsert(&model.Completion{
		ActivityID: a1.ID, UserID: user.ID, Date: "2025-01-20",
		Status: model.StatusDeferred, DeferredTo: &target,
	}); err != nil {
		t.Fatalf("upsert deferred: %v", err)
	}
	// A done row pointing at the same date must not count as deferred
	if _, err := cs.Upsert(&model.Completion{
		ActivityID: a2.ID, UserID: user.ID, Date: "2025-01-20",
		Status: model.StatusDone, DeferredTo: &target,
	}); err != nil {
		t.Fatalf("upsert done: %v", err)
	}

	deferred, err := cs.ListDeferredTo(user.ID, target)
	if err != nil {
		t.Fatalf("list deferred: %v", err)
	}
	if len(deferred) != 1 {
		t.Fatalf("expected 1 deferred row, got %d", len(deferred))
	}
	if deferred[0].ActivityID != a1.ID {
		t.Errorf("deferred activity = %d, want %d", deferred[0].ActivityID, a1.ID)
	}
}

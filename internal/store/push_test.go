package store

import (
	"testing"

	"github.com/dukerupert/bywater/internal/model"
)

func setupPushFixture(t *testing.T) (*PushStore, int64, int64) {
	t.Helper()
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	family := createTestFamily(t, db, "Fam")
	NewFamilyStore(db).AddMember(family.ID, user.ID, "admin")
	return NewPushStore(db), user.ID, family.ID
}

func TestSubscriptionUpsertByEndpoint(t *testing.T) {
	ps, userID, familyID := setupPushFixture(t)

	first, err := ps.CreateSubscription(userID, familyID, "https://push.example/abc", "p256dh-1", "auth-1", "Phone")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	// Re-subscribing with the same endpoint refreshes keys, no new row
	second, err := ps.CreateSubscription(userID, familyID, "https://push.example/abc", "p256dh-2", "auth-2", "Phone")
	if err != nil {
		t.Fatalf("re-create subscription: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same row on endpoint conflict: %d != %d", second.ID, first.ID)
	}
	if second.P256dhKey != "p256dh-2" {
		t.Errorf("p256dh = %q, want refreshed key", second.P256dhKey)
	}

	subs, err := ps.ListByUser(userID, familyID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(subs))
	}
}

func TestSubscriptionDeleteByEndpoint(t *testing.T) {
	ps, userID, familyID := setupPushFixture(t)

	if _, err := ps.CreateSubscription(userID, familyID, "https://push.example/abc", "k", "a", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ps.DeleteByEndpoint("https://push.example/abc"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, _ := ps.ListByFamily(familyID)
	if len(subs) != 0 {
		t.Fatalf("expected no subscriptions, got %d", len(subs))
	}
}

func TestListFamilyIDs(t *testing.T) {
	ps, userID, familyID := setupPushFixture(t)

	ids, err := ps.ListFamilyIDs()
	if err != nil {
		t.Fatalf("list family ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no families before subscribing, got %d", len(ids))
	}

	ps.CreateSubscription(userID, familyID, "https://push.example/a", "k", "a", "")
	ps.CreateSubscription(userID, familyID, "https://push.example/b", "k", "a", "")

	ids, err = ps.ListFamilyIDs()
	if err != nil {
		t.Fatalf("list family ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != familyID {
		t.Fatalf("family ids = %v, want [%d]", ids, familyID)
	}
}

func TestPreferenceDefaultsEnabled(t *testing.T) {
	ps, userID, familyID := setupPushFixture(t)

	enabled, err := ps.IsPreferenceEnabled(userID, familyID, model.AlertTypeDailyDigest)
	if err != nil {
		t.Fatalf("is enabled: %v", err)
	}
	if !enabled {
		t.Error("preferences should default to enabled")
	}

	if err := ps.SetPreference(userID, familyID, model.AlertTypeDailyDigest, false); err != nil {
		t.Fatalf("set preference: %v", err)
	}

	enabled, _ = ps.IsPreferenceEnabled(userID, familyID, model.AlertTypeDailyDigest)
	if enabled {
		t.Error("preference should be disabled after opt-out")
	}

	// Other alert types are unaffected
	enabled, _ = ps.IsPreferenceEnabled(userID, familyID, model.AlertTypeTaskCompleted)
	if !enabled {
		t.Error("task_completed preference should still default to enabled")
	}
}

func TestAlertDedup(t *testing.T) {
	ps, _, familyID := setupPushFixture(t)

	sent, err := ps.WasSent(familyID, model.AlertTypeDailyDigest, "digest-1-2025-01-20")
	if err != nil {
		t.Fatalf("was sent: %v", err)
	}
	if sent {
		t.Error("alert should not be marked sent yet")
	}

	if err := ps.RecordSent(familyID, model.AlertTypeDailyDigest, "digest-1-2025-01-20"); err != nil {
		t.Fatalf("record sent: %v", err)
	}

	sent, _ = ps.WasSent(familyID, model.AlertTypeDailyDigest, "digest-1-2025-01-20")
	if !sent {
		t.Error("alert should be marked sent")
	}

	// A different reference is independent
	sent, _ = ps.WasSent(familyID, model.AlertTypeDailyDigest, "digest-1-2025-01-21")
	if sent {
		t.Error("different reference should not be marked sent")
	}
}

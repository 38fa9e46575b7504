package store

import (
	"testing"
)

func TestUserCreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)

	u, err := us.Create("frodo@example.com", "Frodo", "bcrypt-hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.CycleWeeks != 1 {
		t.Errorf("cycle_weeks = %d, want default 1", u.CycleWeeks)
	}

	byEmail, err := us.GetByEmail("frodo@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != u.ID {
		t.Fatalf("lookup = %+v, want user %d", byEmail, u.ID)
	}

	missing, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown email")
	}

	hash, err := us.GetPasswordHash("frodo@example.com")
	if err != nil {
		t.Fatalf("get password hash: %v", err)
	}
	if hash != "bcrypt-hash" {
		t.Errorf("hash = %q, want bcrypt-hash", hash)
	}
}

func TestUserUpdateCycleConfig(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	u := createTestUser(t, db, "u@example.com")

	updated, err := us.UpdateCycleConfig(u.ID, 3, "2025-03-03")
	if err != nil {
		t.Fatalf("update cycle: %v", err)
	}
	if updated.CycleWeeks != 3 || updated.CycleStartDate != "2025-03-03" {
		t.Errorf("updated = %+v, want weeks=3 start=2025-03-03", updated)
	}
}

func TestUserDelete(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	u := createTestUser(t, db, "u@example.com")

	if err := us.Delete(u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

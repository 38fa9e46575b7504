package store

import (
	"testing"
	"time"
)

func TestSessionCreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	ss := NewSessionStore(db)

	sess, err := ss.Create(user.ID, 0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Error("session should expire in the future")
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.UserID != user.ID {
		t.Fatalf("lookup = %+v, want session for user %d", got, user.ID)
	}
}

func TestSessionUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)

	got, err := ss.GetByToken("bogus")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestSessionExpiry(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	ss := NewSessionStore(db)

	sess, err := ss.Create(user.ID, 0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Force the session into the past
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Hour), sess.ID); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expired session should not resolve")
	}

	deleted, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestSessionUpdateFamilyID(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	family := createTestFamily(t, db, "Fam")
	ss := NewSessionStore(db)

	sess, err := ss.Create(user.ID, 0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := ss.UpdateFamilyID(sess.ID, family.ID); err != nil {
		t.Fatalf("update family: %v", err)
	}

	got, _ := ss.GetByToken(sess.Token)
	if got == nil || got.FamilyID != family.ID {
		t.Fatalf("session family = %+v, want %d", got, family.ID)
	}
}

func TestSessionDelete(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	ss := NewSessionStore(db)

	sess, _ := ss.Create(user.ID, 0)
	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := ss.GetByToken(sess.Token)
	if got != nil {
		t.Error("expected nil after delete")
	}
}

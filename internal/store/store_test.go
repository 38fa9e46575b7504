package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/bywater/internal/database"
	"github.com/dukerupert/bywater/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(email, "Test User", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createTestFamily(t *testing.T, db *sql.DB, name string) *model.Family {
	t.Helper()
	f, err := NewFamilyStore(db).Create(name, 2, "2025-01-06", "invite-"+name)
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	return f
}

func createPersonalActivity(t *testing.T, db *sql.DB, userID int64, name string) *model.Activity {
	t.Helper()
	a, err := NewActivityStore(db).Create(name, model.CategoryHome, 15, model.OwnerPersonal, &userID, nil, false)
	if err != nil {
		t.Fatalf("create personal activity: %v", err)
	}
	return a
}

func createFamilyActivity(t *testing.T, db *sql.DB, familyID int64, name string, isRota bool) *model.Activity {
	t.Helper()
	a, err := NewActivityStore(db).Create(name, model.CategoryHome, 20, model.OwnerFamily, nil, &familyID, isRota)
	if err != nil {
		t.Fatalf("create family activity: %v", err)
	}
	return a
}

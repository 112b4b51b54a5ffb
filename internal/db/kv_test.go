package db

import (
	"errors"
	"testing"
)

func TestSessions_CreateAndExists(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	exists, err := db.SessionExists("s1")
	if err != nil {
		t.Fatalf("failed to check session: %v", err)
	}
	if exists {
		t.Error("session should not exist before creation")
	}

	if err := db.CreateSession("s1"); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := db.CreateSession("s1"); err != nil {
		t.Fatalf("creating an existing session should be a no-op: %v", err)
	}

	exists, err = db.SessionExists("s1")
	if err != nil {
		t.Fatalf("failed to check session: %v", err)
	}
	if !exists {
		t.Error("session should exist after creation")
	}
}

func TestKV_GetMissing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.GetValue("s1", "ui.selectedBot")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestKV_SetOverwrites(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.SetValue("s1", "cookie.qty", "6"); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}
	if err := db.SetValue("s1", "cookie.qty", "12"); err != nil {
		t.Fatalf("failed to overwrite value: %v", err)
	}

	got, err := db.GetValue("s1", "cookie.qty")
	if err != nil {
		t.Fatalf("failed to get value: %v", err)
	}
	if got != "12" {
		t.Errorf("expected '12', got %q", got)
	}
}

func TestKV_ScopesAreIsolated(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.SetValue("s1", "ui.customPrompt", `"one"`); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}
	if _, err := db.GetValue("s2", "ui.customPrompt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("value leaked across scopes: %v", err)
	}
}

func TestDeleteSession_RemovesValues(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.CreateSession("s1"); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := db.SetValue("s1", "ui.selectedBot", `"baker"`); err != nil {
		t.Fatalf("failed to set value: %v", err)
	}

	if err := db.DeleteSession("s1"); err != nil {
		t.Fatalf("failed to delete session: %v", err)
	}

	if exists, _ := db.SessionExists("s1"); exists {
		t.Error("session should be gone")
	}
	if _, err := db.GetValue("s1", "ui.selectedBot"); !errors.Is(err, ErrNotFound) {
		t.Errorf("values should be deleted with the session, got %v", err)
	}
}

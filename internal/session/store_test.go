package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *gormStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "sessions.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(db).(*gormStore)
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s, err := New(time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.BearerToken = "tok"
	s.Refresh = "ref"
	s.EmployeeID = "E1"
	s.IsAdmin = true
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Token() != "tok" || got.RefreshToken() != "ref" || !got.IsAdmin || got.CSRFToken == "" {
		t.Fatalf("unexpected session %+v", got)
	}

	got.SetToken("ref")
	got.CheckInTime = "09:03"
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get after save: %v", err)
	}
	if again.BearerToken != "ref" || again.CheckInTime != "09:03" {
		t.Fatalf("save not persisted: %+v", again)
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpiredSessionsAreHidden(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old, _ := New(time.Now().Add(-2*time.Hour), time.Hour)
	fresh, _ := New(time.Now(), time.Hour)
	for _, s := range []*Session{old, fresh} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if _, err := store.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session should not load, got %v", err)
	}
	other, _ := New(time.Now().Add(-3*time.Hour), time.Hour)
	_ = store.Create(ctx, other)
	n, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged session, got %d", n)
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("fresh session lost: %v", err)
	}
}

func TestClearAttendance(t *testing.T) {
	s := &Session{BearerToken: "tok", CheckInTime: "08:59", CheckOutTime: "18:01", TotalHours: "9.0"}
	s.ClearAttendance()
	if s.CheckInTime != "" || s.CheckOutTime != "" || s.TotalHours != "" {
		t.Fatalf("clear did not reset state: %+v", s)
	}
	if s.BearerToken != "tok" {
		t.Fatalf("clear dropped the sign-in")
	}
}

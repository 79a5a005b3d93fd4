package store

import (
	"testing"
	"time"
)

func setupCompletionTest(t *testing.T) (*CompletionStore, int64, int64) {
	t.Helper()
	db := setupTestDB(t)
	hs := NewHabitStore(db)
	userID := createTestUser(t, db, "owner@example.com")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h, err := hs.Create(userID, "Journal", "", start, start.AddDate(0, 6, 0), "everyday", nil, "#93C5FD")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	return NewCompletionStore(db), userID, h.ID
}

func TestCompletionUpsertIdempotent(t *testing.T) {
	cs, userID, habitID := setupCompletionTest(t)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	c, err := cs.Upsert(userID, habitID, day, true)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !c.Completed {
		t.Error("completed = false, want true")
	}
	if !c.Day.Equal(day) {
		t.Errorf("day = %v, want %v", c.Day, day)
	}

	// Same key again flips the flag in place.
	c2, err := cs.Upsert(userID, habitID, day, false)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if c2.Completed {
		t.Error("completed = true, want false after overwrite")
	}
	if c2.ID != c.ID {
		t.Errorf("second upsert created new row: id %d != %d", c2.ID, c.ID)
	}

	all, err := cs.ListForUserInRange(userID, day, day)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 row, got %d", len(all))
	}
}

func TestCompletionRangeQuery(t *testing.T) {
	cs, userID, habitID := setupCompletionTest(t)

	days := []time.Time{
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range days {
		if _, err := cs.Upsert(userID, habitID, d, true); err != nil {
			t.Fatalf("upsert %v: %v", d, err)
		}
	}

	got, err := cs.ListForUserInRange(userID, days[0], days[1])
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows in inclusive range, got %d", len(got))
	}
	if !got[0].Day.Equal(days[0]) || !got[1].Day.Equal(days[1]) {
		t.Errorf("rows out of order: %v, %v", got[0].Day, got[1].Day)
	}
}

func TestCompletionMedia(t *testing.T) {
	cs, userID, habitID := setupCompletionTest(t)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	if _, err := cs.Upsert(userID, habitID, day, true); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ok, err := cs.SetMedia(userID, habitID, day, "media/abc.jpg", "image", "done!")
	if err != nil {
		t.Fatalf("set media: %v", err)
	}
	if !ok {
		t.Fatal("expected media update to apply")
	}

	c, err := cs.GetForDay(userID, habitID, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.MediaPath == nil || *c.MediaPath != "media/abc.jpg" {
		t.Errorf("media path = %v, want media/abc.jpg", c.MediaPath)
	}
	if c.MediaKind == nil || *c.MediaKind != "image" {
		t.Errorf("media kind = %v, want image", c.MediaKind)
	}

	// Re-marking the day keeps the attachment.
	c, err = cs.Upsert(userID, habitID, day, false)
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if c.MediaPath == nil {
		t.Error("media cleared by completion upsert")
	}

	ok, err = cs.ClearMedia(userID, habitID, day)
	if err != nil {
		t.Fatalf("clear media: %v", err)
	}
	if !ok {
		t.Fatal("expected media clear to apply")
	}
	c, err = cs.GetForDay(userID, habitID, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.MediaPath != nil {
		t.Errorf("media path = %v, want nil", c.MediaPath)
	}
}

func TestCompletionMediaMissingRow(t *testing.T) {
	cs, userID, habitID := setupCompletionTest(t)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	ok, err := cs.SetMedia(userID, habitID, day, "media/abc.jpg", "image", "")
	if err != nil {
		t.Fatalf("set media: %v", err)
	}
	if ok {
		t.Error("media update applied to missing completion")
	}
}

package store

import (
	"testing"
	"time"

	"github.com/rutina-app/rutina/internal/habit"
)

func setupInvitationTest(t *testing.T) (*InvitationStore, int64, int64) {
	t.Helper()
	db := setupTestDB(t)
	hs := NewHabitStore(db)
	ownerID := createTestUser(t, db, "owner@example.com")
	inviteeID := createTestUser(t, db, "invitee@example.com")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h, err := hs.Create(ownerID, "Stretch", "", start, start.AddDate(0, 2, 0), "everyday", nil, "#93C5FD")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	return NewInvitationStore(db), h.ID, inviteeID
}

func TestInviteCreatesPending(t *testing.T) {
	is, habitID, inviteeID := setupInvitationTest(t)

	inv, err := is.Invite(habitID, inviteeID)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if inv.Status != "pending" {
		t.Errorf("status = %q, want pending", inv.Status)
	}
}

func TestInviteDoesNotResetAccepted(t *testing.T) {
	is, habitID, inviteeID := setupInvitationTest(t)

	if _, err := is.Invite(habitID, inviteeID); err != nil {
		t.Fatalf("invite: %v", err)
	}
	ok, err := is.UpdateStatus(habitID, inviteeID, habit.InvitationPending, habit.InvitationAccepted)
	if err != nil || !ok {
		t.Fatalf("accept: ok=%v err=%v", ok, err)
	}

	inv, err := is.Invite(habitID, inviteeID)
	if err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	if inv.Status != "accepted" {
		t.Errorf("status = %q, want accepted to survive re-invite", inv.Status)
	}
}

func TestInviteResetsRefused(t *testing.T) {
	is, habitID, inviteeID := setupInvitationTest(t)

	if _, err := is.Invite(habitID, inviteeID); err != nil {
		t.Fatalf("invite: %v", err)
	}
	ok, err := is.UpdateStatus(habitID, inviteeID, habit.InvitationPending, habit.InvitationRefused)
	if err != nil || !ok {
		t.Fatalf("refuse: ok=%v err=%v", ok, err)
	}

	inv, err := is.Invite(habitID, inviteeID)
	if err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	if inv.Status != "pending" {
		t.Errorf("status = %q, want pending after re-invite of refused", inv.Status)
	}
}

func TestUpdateStatusCompareAndSwap(t *testing.T) {
	is, habitID, inviteeID := setupInvitationTest(t)

	if _, err := is.Invite(habitID, inviteeID); err != nil {
		t.Fatalf("invite: %v", err)
	}

	ok, err := is.UpdateStatus(habitID, inviteeID, habit.InvitationPending, habit.InvitationAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !ok {
		t.Fatal("expected accept to apply")
	}

	// The row is no longer pending, so a second transition from pending
	// must not apply.
	ok, err = is.UpdateStatus(habitID, inviteeID, habit.InvitationPending, habit.InvitationRefused)
	if err != nil {
		t.Fatalf("stale refuse: %v", err)
	}
	if ok {
		t.Error("stale transition applied, want compare-and-swap miss")
	}

	inv, err := is.Get(habitID, inviteeID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if inv.Status != "accepted" {
		t.Errorf("status = %q, want accepted", inv.Status)
	}
}

func TestGetMissingInvitation(t *testing.T) {
	is, habitID, inviteeID := setupInvitationTest(t)

	inv, err := is.Get(habitID, inviteeID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if inv != nil {
		t.Error("expected nil for missing invitation")
	}
}

func TestListForUserByStatus(t *testing.T) {
	is, habitID, inviteeID := setupInvitationTest(t)

	if _, err := is.Invite(habitID, inviteeID); err != nil {
		t.Fatalf("invite: %v", err)
	}

	pending, err := is.ListForUserByStatus(inviteeID, habit.InvitationPending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending invitation, got %d", len(pending))
	}

	accepted, err := is.ListForUserByStatus(inviteeID, habit.InvitationAccepted)
	if err != nil {
		t.Fatalf("list accepted: %v", err)
	}
	if len(accepted) != 0 {
		t.Errorf("expected no accepted invitations, got %d", len(accepted))
	}
}

func TestDeleteExcept(t *testing.T) {
	db := setupTestDB(t)
	hs := NewHabitStore(db)
	is := NewInvitationStore(db)
	ownerID := createTestUser(t, db, "owner@example.com")
	keepID := createTestUser(t, db, "keep@example.com")
	dropID := createTestUser(t, db, "drop@example.com")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h, err := hs.Create(ownerID, "Walk", "", start, start.AddDate(0, 1, 0), "everyday", nil, "#93C5FD")
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, err := is.Invite(h.ID, keepID); err != nil {
		t.Fatalf("invite keep: %v", err)
	}
	if _, err := is.Invite(h.ID, dropID); err != nil {
		t.Fatalf("invite drop: %v", err)
	}

	if err := is.DeleteExcept(h.ID, []int64{keepID}); err != nil {
		t.Fatalf("delete except: %v", err)
	}

	invs, err := is.ListForHabit(h.ID)
	if err != nil {
		t.Fatalf("list for habit: %v", err)
	}
	if len(invs) != 1 || invs[0].SharedWithID != keepID {
		t.Errorf("remaining invitations = %+v, want only keep user", invs)
	}
}

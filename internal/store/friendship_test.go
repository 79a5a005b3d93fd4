package store

import "testing"

func TestFriendshipLifecycle(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	senderID := createTestUser(t, db, "sender@example.com")
	receiverID := createTestUser(t, db, "receiver@example.com")

	f, err := fs.Create(senderID, receiverID)
	if err != nil {
		t.Fatalf("create friendship: %v", err)
	}
	if f.Status != "pending" {
		t.Errorf("status = %q, want pending", f.Status)
	}

	friends, err := fs.AreFriends(senderID, receiverID)
	if err != nil {
		t.Fatalf("are friends: %v", err)
	}
	if friends {
		t.Error("pending request counted as friendship")
	}

	ok, err := fs.UpdateStatus(f.ID, receiverID, "accepted")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !ok {
		t.Fatal("expected accept to apply")
	}

	// Either direction counts once accepted.
	for _, pair := range [][2]int64{{senderID, receiverID}, {receiverID, senderID}} {
		friends, err := fs.AreFriends(pair[0], pair[1])
		if err != nil {
			t.Fatalf("are friends: %v", err)
		}
		if !friends {
			t.Errorf("AreFriends(%d, %d) = false, want true", pair[0], pair[1])
		}
	}
}

func TestFriendshipOnlySenderOrReceiverResolves(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	senderID := createTestUser(t, db, "sender@example.com")
	receiverID := createTestUser(t, db, "receiver@example.com")

	f, err := fs.Create(senderID, receiverID)
	if err != nil {
		t.Fatalf("create friendship: %v", err)
	}

	// The sender cannot resolve their own request.
	ok, err := fs.UpdateStatus(f.ID, senderID, "accepted")
	if err != nil {
		t.Fatalf("accept as sender: %v", err)
	}
	if ok {
		t.Error("sender resolved their own request")
	}

	ok, err = fs.UpdateStatus(f.ID, receiverID, "rejected")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if !ok {
		t.Fatal("expected reject to apply")
	}

	// A resolved request does not move again.
	ok, err = fs.UpdateStatus(f.ID, receiverID, "accepted")
	if err != nil {
		t.Fatalf("accept resolved: %v", err)
	}
	if ok {
		t.Error("resolved request moved again")
	}
}

func TestListAcceptedFriends(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	userID := createTestUser(t, db, "me@example.com")
	aliceID := createTestUser(t, db, "alice@example.com")
	bobID := createTestUser(t, db, "bob@example.com")

	// user -> alice accepted, bob -> user pending.
	fa, err := fs.Create(userID, aliceID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fs.UpdateStatus(fa.ID, aliceID, "accepted"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := fs.Create(bobID, userID); err != nil {
		t.Fatalf("create: %v", err)
	}

	friends, err := fs.ListAcceptedFriends(userID)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friends) != 1 {
		t.Fatalf("expected 1 friend, got %d", len(friends))
	}
	if friends[0].ID != aliceID {
		t.Errorf("friend id = %d, want %d", friends[0].ID, aliceID)
	}

	pending, err := fs.ListPendingForReceiver(userID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].SenderID != bobID {
		t.Errorf("pending = %+v, want request from bob", pending)
	}
}

func TestFriendshipDelete(t *testing.T) {
	db := setupTestDB(t)
	fs := NewFriendshipStore(db)
	senderID := createTestUser(t, db, "sender@example.com")
	receiverID := createTestUser(t, db, "receiver@example.com")
	strangerID := createTestUser(t, db, "stranger@example.com")

	f, err := fs.Create(senderID, receiverID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := fs.Delete(f.ID, strangerID); err != nil {
		t.Fatalf("delete as stranger: %v", err)
	}
	got, err := fs.GetByID(f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("friendship deleted by a stranger")
	}

	if err := fs.Delete(f.ID, receiverID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = fs.GetByID(f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted friendship")
	}
}

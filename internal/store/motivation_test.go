package store

import "testing"

func TestMotivationLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMotivationStore(db)
	senderID := createTestUser(t, db, "sender@example.com")
	receiverID := createTestUser(t, db, "receiver@example.com")

	m, err := ms.Create(senderID, receiverID, "You got this!", nil)
	if err != nil {
		t.Fatalf("create motivation: %v", err)
	}
	if m.ReceiverClosed || m.SenderClosedResponse {
		t.Error("new motivation already closed")
	}

	open, err := ms.ListOpenForReceiver(receiverID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open motivation, got %d", len(open))
	}

	reply := "Thanks!"
	ok, err := ms.Close(m.ID, receiverID, &reply)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ok {
		t.Fatal("expected close to apply")
	}

	open, err = ms.ListOpenForReceiver(receiverID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("closed motivation still open, got %d", len(open))
	}

	responses, err := ms.ListOpenResponsesForSender(senderID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 1 {
		t.Fatalf("expected 1 open response, got %d", len(responses))
	}
	if responses[0].ReceiverMessage == nil || *responses[0].ReceiverMessage != "Thanks!" {
		t.Errorf("receiver message = %v, want Thanks!", responses[0].ReceiverMessage)
	}

	ok, err = ms.CloseResponse(m.ID, senderID)
	if err != nil {
		t.Fatalf("close response: %v", err)
	}
	if !ok {
		t.Fatal("expected response close to apply")
	}
	responses, err = ms.ListOpenResponsesForSender(senderID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 0 {
		t.Errorf("dismissed response still listed, got %d", len(responses))
	}
}

func TestMotivationCloseGuards(t *testing.T) {
	db := setupTestDB(t)
	ms := NewMotivationStore(db)
	senderID := createTestUser(t, db, "sender@example.com")
	receiverID := createTestUser(t, db, "receiver@example.com")

	m, err := ms.Create(senderID, receiverID, "Keep going", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Only the receiver may close it.
	ok, err := ms.Close(m.ID, senderID, nil)
	if err != nil {
		t.Fatalf("close as sender: %v", err)
	}
	if ok {
		t.Error("sender closed the receiver's motivation")
	}

	ok, err = ms.Close(m.ID, receiverID, nil)
	if err != nil || !ok {
		t.Fatalf("close: ok=%v err=%v", ok, err)
	}

	// Closing twice is a no-op.
	ok, err = ms.Close(m.ID, receiverID, nil)
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if ok {
		t.Error("motivation closed twice")
	}

	// No reply means nothing shows up for the sender.
	responses, err := ms.ListOpenResponsesForSender(senderID)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 0 {
		t.Errorf("expected no responses without a reply, got %d", len(responses))
	}
}

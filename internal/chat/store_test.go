// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"testing"

	"github.com/elisa-mobile/elisa-tui/internal/model"
)

const testWelcome = "Hello! How can I help you today?"

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestNewStore(t *testing.T) {
	s := NewStore()

	if s.SessionID() == "" {
		t.Error("session ID should be set at construction")
	}
	if s.MessageCount() != 0 {
		t.Error("new store starts with an empty log")
	}
	if s.ConnectionStatus() != model.StatusDisconnected {
		t.Errorf("initial status = %v, want disconnected", s.ConnectionStatus())
	}
	if s.IsTyping() {
		t.Error("new store is not typing")
	}
}

func TestStore_Initialize_SeedsWelcomeOnce(t *testing.T) {
	s := NewStore()
	s.Initialize(testWelcome)
	s.Initialize(testWelcome) // second call is a no-op

	snap := s.Snapshot()
	if len(snap.Messages) != 1 {
		t.Fatalf("message count = %d, want exactly 1", len(snap.Messages))
	}
	msg := snap.Messages[0]
	if msg.Sender != model.SenderAssistant {
		t.Error("welcome message is authored by the assistant")
	}
	if !msg.IsWelcome() {
		t.Error("seeded message must carry the welcome marker")
	}
	if msg.Text != testWelcome {
		t.Errorf("welcome text = %q", msg.Text)
	}
}

func TestStore_Clear_ReseedsWelcome(t *testing.T) {
	s := NewStore()
	s.Initialize(testWelcome)
	s.AppendMessage(model.NewUserMessage("question"))
	s.SetError("boom")
	s.SetTyping(true)

	sessionID := s.SessionID()
	s.Clear(testWelcome)

	snap := s.Snapshot()
	if len(snap.Messages) != 1 || !snap.Messages[0].IsWelcome() {
		t.Fatal("clear must leave exactly the re-seeded welcome message")
	}
	if snap.Error != "" {
		t.Error("clear resets the error slot")
	}
	if snap.IsTyping {
		t.Error("clear resets the typing flag")
	}
	if s.SessionID() != sessionID {
		t.Error("clear keeps the session ID")
	}
}

// =============================================================================
// ORDERING TESTS
// =============================================================================

func TestStore_AppendOrdering(t *testing.T) {
	s := NewStore()
	s.Initialize(testWelcome)

	for i := 0; i < 20; i++ {
		s.AppendMessage(model.NewUserMessage("ping"))
		s.AppendMessage(model.NewAssistantMessage("pong", nil))
	}

	snap := s.Snapshot()
	for i := 1; i < len(snap.Messages); i++ {
		a, b := snap.Messages[i-1], snap.Messages[i]
		if a.Timestamp.After(b.Timestamp) {
			t.Fatalf("message %d timestamp after message %d: log order must be chronological", i-1, i)
		}
	}
	if snap.LastMessageID != snap.Messages[len(snap.Messages)-1].ID {
		t.Error("LastMessageID tracks the newest message")
	}
}

func TestStore_History_Window(t *testing.T) {
	s := NewStore()
	for i := 0; i < 15; i++ {
		s.AppendMessage(model.NewUserMessage("m"))
	}

	if got := len(s.History(10)); got != 10 {
		t.Errorf("History(10) returned %d messages", got)
	}
	if got := len(s.History(0)); got != 15 {
		t.Errorf("History(0) returned %d messages, want all", got)
	}
	if got := len(s.History(100)); got != 15 {
		t.Errorf("History(100) returned %d messages, want all", got)
	}
}

// =============================================================================
// STATUS MUTATION TESTS
// =============================================================================

func TestStore_UpdateMessageStatus(t *testing.T) {
	s := NewStore()
	user := model.NewUserMessage("q")
	user.Status = model.StatusSending
	s.AppendMessage(user)

	if err := s.UpdateMessageStatus(user.ID, model.StatusSent); err != nil {
		t.Fatalf("forward transition failed: %v", err)
	}
	if err := s.UpdateMessageStatus(user.ID, model.StatusSending); !errors.Is(err, ErrBadTransition) {
		t.Errorf("backwards transition error = %v, want ErrBadTransition", err)
	}
	if err := s.UpdateMessageStatus(user.ID, model.StatusFailed); err != nil {
		t.Errorf("failure transition should always be allowed: %v", err)
	}
}

func TestStore_UpdateMessageStatus_AssistantRejected(t *testing.T) {
	s := NewStore()
	bot := model.NewAssistantMessage("a", nil)
	s.AppendMessage(bot)

	if err := s.UpdateMessageStatus(bot.ID, model.StatusFailed); !errors.Is(err, ErrNotUserMessage) {
		t.Errorf("err = %v, want ErrNotUserMessage", err)
	}
}

func TestStore_UpdateMessageStatus_Unknown(t *testing.T) {
	s := NewStore()
	if err := s.UpdateMessageStatus("nope", model.StatusSent); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("err = %v, want ErrMessageNotFound", err)
	}
}

// =============================================================================
// ERROR SLOT TESTS
// =============================================================================

func TestStore_ErrorSlot_SingleSlot(t *testing.T) {
	s := NewStore()
	s.SetError("first")
	s.SetError("second")

	if got := s.Error(); got != "second" {
		t.Errorf("error slot = %q, want the newest error only", got)
	}
	s.ClearError()
	if s.Error() != "" {
		t.Error("ClearError empties the slot")
	}
}

// =============================================================================
// SUBSCRIPTION TESTS
// =============================================================================

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()

	var got []Snapshot
	unsub := s.Subscribe(func(snap Snapshot) {
		got = append(got, snap)
	})

	s.AppendMessage(model.NewUserMessage("hi"))
	s.SetTyping(true)

	if len(got) != 2 {
		t.Fatalf("subscriber called %d times, want 2", len(got))
	}
	if !got[1].IsTyping {
		t.Error("snapshot should reflect the mutation that produced it")
	}

	unsub()
	s.SetTyping(false)
	if len(got) != 2 {
		t.Error("unsubscribed callback must not fire")
	}
}

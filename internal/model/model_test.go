// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// CONSTRUCTOR TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("user message ID should start with 'msg_', got %q", msg.ID)
	}
	if msg.Sender != SenderUser {
		t.Errorf("Sender = %v, want %v", msg.Sender, SenderUser)
	}
	if msg.Status != StatusSent {
		t.Errorf("Status = %v, want %v", msg.Status, StatusSent)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if msg.Metadata != nil {
		t.Error("user messages carry no metadata")
	}
}

func TestNewUserMessage_Truncates(t *testing.T) {
	long := strings.Repeat("ä", MaxUserTextLen+50) // multi-byte runes
	msg := NewUserMessage(long)

	if got := len([]rune(msg.Text)); got != MaxUserTextLen {
		t.Errorf("truncated length = %d runes, want %d", got, MaxUserTextLen)
	}
}

func TestNewAssistantMessage(t *testing.T) {
	meta := &Metadata{Confidence: 0.9, Sources: []string{"KB"}}
	msg := NewAssistantMessage("answer", meta)

	if !strings.HasPrefix(msg.ID, "bot_") {
		t.Errorf("assistant message ID should start with 'bot_', got %q", msg.ID)
	}
	if msg.Sender != SenderAssistant {
		t.Errorf("Sender = %v, want %v", msg.Sender, SenderAssistant)
	}
	if msg.Status != StatusDelivered {
		t.Errorf("Status = %v, want %v", msg.Status, StatusDelivered)
	}
	if msg.Metadata.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", msg.Metadata.Confidence)
	}
}

func TestNewWelcomeMessage(t *testing.T) {
	msg := NewWelcomeMessage("hello there")

	if !strings.HasPrefix(msg.ID, "welcome_") {
		t.Errorf("welcome message ID should start with 'welcome_', got %q", msg.ID)
	}
	if !msg.IsWelcome() {
		t.Error("IsWelcome should be true")
	}
	if msg.Sender != SenderAssistant {
		t.Error("welcome message is authored by the assistant")
	}
}

func TestMessageIDs_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewUserMessage("x").ID
		if seen[id] {
			t.Fatalf("duplicate message ID %q", id)
		}
		seen[id] = true
	}
}

// =============================================================================
// STATUS TRANSITION TESTS
// =============================================================================

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusSending, StatusSent, true},
		{StatusSending, StatusDelivered, true},
		{StatusSent, StatusDelivered, true},
		{StatusSent, StatusSending, false},
		{StatusDelivered, StatusSent, false},
		{StatusDelivered, StatusSending, false},
		{StatusSending, StatusFailed, true},
		{StatusSent, StatusFailed, true},
		{StatusDelivered, StatusFailed, true},
		{StatusFailed, StatusSent, false},
		{StatusFailed, StatusDelivered, false},
		{StatusSent, StatusSent, true},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

// =============================================================================
// SENDER TESTS
// =============================================================================

func TestSender_DisplayName(t *testing.T) {
	if got := SenderUser.DisplayName(); got != "You" {
		t.Errorf("user DisplayName = %q", got)
	}
	if got := SenderAssistant.DisplayName(); got != "eLISA" {
		t.Errorf("assistant DisplayName = %q", got)
	}
}

// =============================================================================
// PREVIEW TESTS
// =============================================================================

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("a longer message body")

	if got := msg.Preview(100); got != "a longer message body" {
		t.Errorf("Preview(100) = %q", got)
	}
	if got := msg.Preview(10); got != "a longe..." {
		t.Errorf("Preview(10) = %q", got)
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if !strings.HasPrefix(a, "session_") {
		t.Errorf("session ID should start with 'session_', got %q", a)
	}
	if a == b {
		t.Error("session IDs must be unique")
	}
}

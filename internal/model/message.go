// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/elisa-mobile/elisa-tui/internal/util"
)

// MaxUserTextLen is the maximum length of user-entered message text in runes.
// Longer input is truncated at creation time.
const MaxUserTextLen = 1000

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAssistant:
		return "eLISA"
	default:
		return string(s)
	}
}

// =============================================================================
// STATUS TYPE
// =============================================================================

// Status is the delivery state of a message. It only changes on messages
// authored locally (sender = user), and only moves forward except for the
// failure transition.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

// statusRank orders the forward progression sending -> sent -> delivered.
var statusRank = map[Status]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
}

// CanTransition reports whether a status change from s to next is legal.
// Forward moves are allowed; StatusFailed is reachable from any non-failed
// state; nothing leaves StatusFailed except a fresh send attempt (which
// creates a new message, not a transition).
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	if s == StatusFailed {
		return false
	}
	if next == StatusFailed {
		return true
	}
	from, okFrom := statusRank[s]
	to, okTo := statusRank[next]
	return okFrom && okTo && to > from
}

// =============================================================================
// CONNECTION STATUS
// =============================================================================

// ConnectionStatus describes the client's view of backend reachability.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Metadata carries assistant-only response details.
type Metadata struct {
	// Confidence is the backend's self-reported answer confidence (0.0-1.0).
	Confidence float64 `json:"confidence,omitempty"`

	// Sources lists the knowledge-base documents the answer was grounded on.
	Sources []string `json:"sources,omitempty"`

	// ProcessingTime is backend processing time in milliseconds.
	ProcessingTime int64 `json:"processing_time,omitempty"`

	// IsWelcomeMessage marks the session-seeding greeting.
	IsWelcomeMessage bool `json:"is_welcome_message,omitempty"`
}

// Message is a single entry in the conversation log. Text, Sender and
// Timestamp are fixed at creation; only Status may change afterwards.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`

	// Metadata is set on assistant messages only.
	Metadata *Metadata `json:"metadata,omitempty"`
}

// NewUserMessage creates a user message with a fresh ID. Input longer than
// MaxUserTextLen runes is truncated.
func NewUserMessage(text string) *Message {
	runes := []rune(text)
	if len(runes) > MaxUserTextLen {
		text = string(runes[:MaxUserTextLen])
	}
	return &Message{
		ID:        generateID("msg"),
		Text:      text,
		Sender:    SenderUser,
		Timestamp: time.Now(),
		Status:    StatusSent,
	}
}

// NewAssistantMessage creates an assistant message with optional metadata.
func NewAssistantMessage(text string, meta *Metadata) *Message {
	return &Message{
		ID:        generateID("bot"),
		Text:      text,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Status:    StatusDelivered,
		Metadata:  meta,
	}
}

// NewWelcomeMessage creates the assistant greeting that seeds an empty session.
func NewWelcomeMessage(text string) *Message {
	return &Message{
		ID:        generateID("welcome"),
		Text:      text,
		Sender:    SenderAssistant,
		Timestamp: time.Now(),
		Status:    StatusDelivered,
		Metadata:  &Metadata{IsWelcomeMessage: true},
	}
}

// IsWelcome reports whether this is the session-seeding greeting.
func (m *Message) IsWelcome() bool {
	return m.Metadata != nil && m.Metadata.IsWelcomeMessage
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.Text, maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Text) == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique, opaque message ID with a type prefix.
// Uniqueness is only required within one session.
func generateID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// NewSessionID creates an opaque session identifier. Sessions are created
// explicitly by the conversation store; there is no ambient global ID.
func NewSessionID() string {
	return "session_" + uuid.NewString()
}

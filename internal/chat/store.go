// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation store and the message dispatch
// loop between the user and the remote assistant.
package chat

import (
	"errors"
	"sync"

	"github.com/elisa-mobile/elisa-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMessageNotFound is returned when a status update targets an unknown ID.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNotUserMessage is returned when a status update targets a message
	// that was not authored locally.
	ErrNotUserMessage = errors.New("status is only mutable on user messages")

	// ErrBadTransition is returned for a backwards status transition.
	ErrBadTransition = errors.New("illegal message status transition")
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a point-in-time read of the session state. Messages are
// pointers into the log; callers must treat them as read-only.
type Snapshot struct {
	SessionID        string
	Messages         []*model.Message
	IsTyping         bool
	ConnectionStatus model.ConnectionStatus
	Error            string
	LastMessageID    string
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// Store is the single source of truth for one conversation session.
// All mutations go through its methods; it performs no I/O itself.
//
// The message log is append-only: text, sender and timestamp never change
// after a message is added, and messages are never reordered. Only the
// delivery status of user-authored messages may be updated.
type Store struct {
	mu sync.RWMutex

	sessionID     string
	messages      []*model.Message
	isTyping      bool
	connStatus    model.ConnectionStatus
	errMsg        string
	lastMessageID string

	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewStore creates a session with an empty log and disconnected status.
// The session ID is generated here and stays stable for the store's lifetime.
func NewStore() *Store {
	return &Store{
		sessionID:   model.NewSessionID(),
		messages:    make([]*model.Message, 0),
		connStatus:  model.StatusDisconnected,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// SessionID returns the session's opaque identifier.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Initialize seeds the welcome message if the log is empty. Calling it on a
// non-empty log is a no-op, so at most one welcome message ever exists.
func (s *Store) Initialize(welcomeText string) {
	s.mu.Lock()
	if len(s.messages) > 0 {
		s.mu.Unlock()
		return
	}
	welcome := model.NewWelcomeMessage(welcomeText)
	s.messages = append(s.messages, welcome)
	s.lastMessageID = welcome.ID
	s.notifyLocked()
}

// Clear empties the log and re-seeds the welcome message. The session ID is
// kept; connection status and the error slot are reset.
func (s *Store) Clear(welcomeText string) {
	s.mu.Lock()
	s.messages = make([]*model.Message, 0)
	s.lastMessageID = ""
	s.errMsg = ""
	s.isTyping = false
	welcome := model.NewWelcomeMessage(welcomeText)
	s.messages = append(s.messages, welcome)
	s.lastMessageID = welcome.ID
	s.notifyLocked()
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AppendMessage adds a message to the end of the log.
func (s *Store) AppendMessage(msg *model.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.lastMessageID = msg.ID
	s.notifyLocked()
}

// SetTyping sets the assistant-reply-pending flag.
func (s *Store) SetTyping(typing bool) {
	s.mu.Lock()
	s.isTyping = typing
	s.notifyLocked()
}

// SetConnectionStatus records the current backend reachability.
func (s *Store) SetConnectionStatus(status model.ConnectionStatus) {
	s.mu.Lock()
	s.connStatus = status
	s.notifyLocked()
}

// SetError sets the single-slot user-facing error. A new error overwrites
// the previous one; there is no queue.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.notifyLocked()
}

// ClearError empties the error slot.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.notifyLocked()
}

// UpdateMessageStatus changes the delivery status of a user-authored message.
// Transitions must move forward except to StatusFailed.
func (s *Store) UpdateMessageStatus(id string, status model.Status) error {
	s.mu.Lock()
	var target *model.Message
	for _, msg := range s.messages {
		if msg.ID == id {
			target = msg
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	if target.Sender != model.SenderUser {
		s.mu.Unlock()
		return ErrNotUserMessage
	}
	if !target.Status.CanTransition(status) {
		s.mu.Unlock()
		return ErrBadTransition
	}
	target.Status = status
	s.notifyLocked()
	return nil
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Snapshot returns a consistent copy of the session state for rendering.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// History returns up to n of the most recent messages, oldest first.
func (s *Store) History(n int) []*model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.messages) {
		n = len(s.messages)
	}
	out := make([]*model.Message, n)
	copy(out, s.messages[len(s.messages)-n:])
	return out
}

// MessageCount returns the number of messages in the log.
func (s *Store) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// IsTyping reports whether an assistant reply is pending.
func (s *Store) IsTyping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isTyping
}

// ConnectionStatus returns the current backend reachability.
func (s *Store) ConnectionStatus() model.ConnectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connStatus
}

// Error returns the current user-facing error, or "" if none.
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to be called with a snapshot after every mutation.
// The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// snapshotLocked builds a Snapshot; callers must hold at least a read lock.
func (s *Store) snapshotLocked() Snapshot {
	msgs := make([]*model.Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{
		SessionID:        s.sessionID,
		Messages:         msgs,
		IsTyping:         s.isTyping,
		ConnectionStatus: s.connStatus,
		Error:            s.errMsg,
		LastMessageID:    s.lastMessageID,
	}
}

// notifyLocked snapshots state, releases the lock and invokes subscribers.
// Callers must hold the write lock; it is released here so subscriber
// callbacks run outside the lock.
func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

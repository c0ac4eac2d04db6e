// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/elisa-mobile/elisa-tui/internal/fallback"
	"github.com/elisa-mobile/elisa-tui/internal/model"
	"github.com/elisa-mobile/elisa-tui/internal/rag"
	"github.com/elisa-mobile/elisa-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultHistoryWindow is how many trailing messages accompany a request
	// as conversational context.
	DefaultHistoryWindow = 10

	// DefaultTimeout bounds one assistant round trip. When it elapses the
	// request is aborted and the fallback responder answers instead.
	DefaultTimeout = 30 * time.Second

	// retryNotice is the single-slot error surfaced when the backend could
	// not be reached and a canned reply was substituted.
	retryNotice = "Could not reach the assistant service. You received an offline answer - retry when your connection is back."
)

// ErrSendInFlight is returned when a send overlaps an outstanding one.
// At most one assistant turn is outstanding per session.
var ErrSendInFlight = errors.New("a message is already awaiting a reply")

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend answers one question against the remote RAG service.
// *rag.Client is the production implementation.
type Backend interface {
	Ask(ctx context.Context, req rag.Request) (*rag.Reply, error)
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher runs the message exchange loop for one session: optimistic echo
// of the user message, one bounded network round trip, and either the remote
// answer or a local fallback reply appended to the store.
type Dispatcher struct {
	store     *Store
	backend   Backend
	responder *fallback.Responder

	userID        string
	appVersion    string
	historyWindow int
	maxMessageLen int
	timeout       time.Duration

	inFlight chan struct{} // single-slot send token
}

// NewDispatcher creates a dispatcher bound to a store, a backend and a
// fallback responder.
func NewDispatcher(store *Store, backend Backend, responder *fallback.Responder) *Dispatcher {
	d := &Dispatcher{
		store:         store,
		backend:       backend,
		responder:     responder,
		userID:        "mobile_user",
		appVersion:    "1.0.0",
		historyWindow: DefaultHistoryWindow,
		maxMessageLen: model.MaxUserTextLen,
		timeout:       DefaultTimeout,
		inFlight:      make(chan struct{}, 1),
	}
	d.inFlight <- struct{}{}
	return d
}

// WithUserID sets the user identifier sent with each request.
func (d *Dispatcher) WithUserID(id string) *Dispatcher {
	d.userID = id
	return d
}

// WithAppVersion sets the client version tag sent with each request.
func (d *Dispatcher) WithAppVersion(v string) *Dispatcher {
	d.appVersion = v
	return d
}

// WithHistoryWindow bounds the trailing context window.
func (d *Dispatcher) WithHistoryWindow(n int) *Dispatcher {
	if n > 0 {
		d.historyWindow = n
	}
	return d
}

// WithMaxMessageLen caps user input length in runes. model.MaxUserTextLen is
// the hard ceiling; the cap can only be lowered.
func (d *Dispatcher) WithMaxMessageLen(n int) *Dispatcher {
	if n > 0 {
		if n > model.MaxUserTextLen {
			n = model.MaxUserTextLen
		}
		d.maxMessageLen = n
	}
	return d
}

// WithTimeout bounds the assistant round trip.
func (d *Dispatcher) WithTimeout(t time.Duration) *Dispatcher {
	if t > 0 {
		d.timeout = t
	}
	return d
}

// =============================================================================
// SEND
// =============================================================================

// Send runs one assistant turn for the given input.
//
// Empty or whitespace-only input is silently ignored; over-long input is
// truncated to the configured rune cap before anything else sees it. A send
// that overlaps an outstanding one is rejected with ErrSendInFlight. Every accepted send
// appends exactly one user message and, eventually, exactly one assistant
// message; the typing flag is cleared on every path out.
//
// Network failures never escape: the fallback responder substitutes a normal
// assistant reply and the store's error slot carries the retry notice. An
// authentication challenge from the backend degrades the same way, minus the
// notice.
func (d *Dispatcher) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	// Truncation happens here, before the echo, so the stored message and
	// the outbound query always carry identical text.
	if util.RuneLen(text) > d.maxMessageLen {
		text = string([]rune(text)[:d.maxMessageLen])
	}

	select {
	case <-d.inFlight:
	default:
		return ErrSendInFlight
	}
	defer func() { d.inFlight <- struct{}{} }()

	// Context window is the messages prior to this turn.
	history := toHistory(d.store.History(d.historyWindow))

	// Optimistic echo: visible immediately, no round trip required.
	d.store.AppendMessage(model.NewUserMessage(text))
	d.store.SetTyping(true)
	defer d.store.SetTyping(false)

	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	reply, err := d.backend.Ask(reqCtx, rag.Request{
		Query:     text,
		SessionID: d.store.SessionID(),
		UserID:    d.userID,
		History:   history,
		Context: &rag.ClientContext{
			Platform:   "mobile",
			AppVersion: d.appVersion,
		},
	})
	if err != nil {
		d.degrade(text, errors.Is(err, rag.ErrAuthRequired))
		return nil
	}

	d.store.AppendMessage(model.NewAssistantMessage(reply.Text, &model.Metadata{
		Confidence:     reply.Confidence,
		Sources:        reply.Sources,
		ProcessingTime: reply.ProcessingTime,
	}))
	d.store.SetConnectionStatus(model.StatusConnected)
	d.store.ClearError()
	return nil
}

// degrade substitutes a canned reply when the backend is unreachable or
// rejects the request. Auth challenges skip the retry notice; raw HTTP
// semantics are never surfaced to the user.
func (d *Dispatcher) degrade(text string, authChallenge bool) {
	fb := d.responder.Respond(text)
	d.store.AppendMessage(model.NewAssistantMessage(fb.Text, &model.Metadata{
		Confidence:     fb.Confidence,
		Sources:        fb.Sources,
		ProcessingTime: fb.ProcessingTime,
	}))
	d.store.SetConnectionStatus(model.StatusDisconnected)
	if !authChallenge {
		d.store.SetError(retryNotice)
	}
}

// RetryConnection dismisses the retry notice and marks the session connected
// again. It does not resend anything; the user re-sends explicitly.
func (d *Dispatcher) RetryConnection() {
	d.store.ClearError()
	d.store.SetConnectionStatus(model.StatusConnected)
}

// toHistory converts log messages to the wire history format, skipping the
// seeded welcome greeting.
func toHistory(msgs []*model.Message) []rag.HistoryMessage {
	out := make([]rag.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.IsWelcome() {
			continue
		}
		out = append(out, rag.HistoryMessage{
			Role:      m.Sender.String(),
			Content:   m.Text,
			Timestamp: m.Timestamp,
		})
	}
	return out
}

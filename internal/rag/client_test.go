// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient().WithBaseURL(url).WithEndpoint("/ask")
}

// =============================================================================
// SUCCESS TESTS
// =============================================================================

func TestAsk_Success(t *testing.T) {
	var gotBody askRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "Check the manual.", "confidence": 0.9, "sources": ["Manual p.12"], "processing_time": 450}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL).Ask(context.Background(), Request{
		Query:     "how do I reset the cutter?",
		SessionID: "session_test",
		UserID:    "user_1",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if reply.Text != "Check the manual." {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", reply.Confidence)
	}
	if len(reply.Sources) != 1 || reply.Sources[0] != "Manual p.12" {
		t.Errorf("sources = %v", reply.Sources)
	}
	if reply.ProcessingTime != 450 {
		t.Errorf("processing time = %d, want 450", reply.ProcessingTime)
	}

	if gotBody.Query != "how do I reset the cutter?" || gotBody.SessionID != "session_test" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestAsk_DefaultsApplied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "bare answer"}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(srv.URL).Ask(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if reply.Confidence != defaultConfidence {
		t.Errorf("confidence = %v, want default %v", reply.Confidence, defaultConfidence)
	}
	if len(reply.Sources) != 1 || reply.Sources[0] != defaultSources[0] {
		t.Errorf("sources = %v, want defaults", reply.Sources)
	}
	if reply.ProcessingTime != defaultProcessingTime {
		t.Errorf("processing time = %d, want default %d", reply.ProcessingTime, defaultProcessingTime)
	}
}

func TestAsk_AlternateTextFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"answer field", `{"answer": "from answer"}`, "from answer"},
		{"message field", `{"message": "from message"}`, "from message"},
		{"response wins", `{"response": "first", "answer": "second"}`, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			reply, err := newTestClient(srv.URL).Ask(context.Background(), Request{Query: "q"})
			if err != nil {
				t.Fatalf("Ask failed: %v", err)
			}
			if reply.Text != tt.want {
				t.Errorf("text = %q, want %q", reply.Text, tt.want)
			}
		})
	}
}

// =============================================================================
// ERROR MAPPING TESTS
// =============================================================================

func TestAsk_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Ask(context.Background(), Request{Query: "q"})
	if !errors.Is(err, ErrAuthRequired) {
		t.Errorf("err = %v, want ErrAuthRequired", err)
	}
}

func TestAsk_RedirectChallenge(t *testing.T) {
	// Unauthenticated calls get redirected to a login page; the redirect
	// itself must surface as an auth challenge.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Ask(context.Background(), Request{Query: "q"})
	if !errors.Is(err, ErrAuthRequired) {
		t.Errorf("err = %v, want ErrAuthRequired", err)
	}
}

func TestAsk_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend exploded"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Ask(context.Background(), Request{Query: "q"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", apiErr.Status)
	}
	if apiErr.Message != "backend exploded" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAsk_EmptyReply(t *testing.T) {
	bodies := []string{`{}`, `{"response": "   "}`, `not json at all`}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		_, err := newTestClient(srv.URL).Ask(context.Background(), Request{Query: "q"})
		if !errors.Is(err, ErrEmptyReply) {
			t.Errorf("body %q: err = %v, want ErrEmptyReply", body, err)
		}
		srv.Close()
	}
}

func TestAsk_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).Ask(context.Background(), Request{Query: "q"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestAsk_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(srv.URL).Ask(ctx, Request{Query: "q"})
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestMapStatus_TruncatesLongBodies(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}

	err := mapStatus(http.StatusBadGateway, long)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if len(apiErr.Message) != 200 {
		t.Errorf("message length = %d, want 200", len(apiErr.Message))
	}
}

func TestAPIError_Error(t *testing.T) {
	e := &APIError{Status: 503, Message: "down"}
	if e.Error() == "" {
		t.Error("error string must not be empty")
	}
	bare := &APIError{Status: 503}
	if bare.Error() == "" {
		t.Error("error string must not be empty without a message")
	}
}

// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rag provides the HTTP client for the remote retrieval-augmented
// assistant endpoint.
//
// The backend is opaque to the client: one JSON POST per question, one JSON
// answer back. Everything that is not a 2xx with a usable text field is an
// error the caller degrades from; no HTTP detail leaks past this package.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the assistant endpoint.
const (
	// DefaultBaseURL is the production RAG API base URL.
	DefaultBaseURL = "https://gpt.lisec.com/api"

	// DefaultEndpoint is the assistant agent path under the base URL.
	DefaultEndpoint = "/elise-rag-agent"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client to the backend.
	DefaultUserAgent = "elisa-tui/1.0.0"

	// MaxResponseSize caps the response body read.
	// Prevents memory exhaustion on a misbehaving endpoint.
	MaxResponseSize = 1 * 1024 * 1024 // 1MB

	// Defaults applied when the backend omits optional answer fields.
	defaultConfidence     = 0.95
	defaultProcessingTime = 1200
)

// defaultSources is used when the backend returns an answer without sources.
var defaultSources = []string{"eLISA Knowledge Base"}

// sharedHTTPClient pools connections across all requests. Redirects are not
// followed: the production endpoint answers unauthenticated calls with a 302
// to its login page, which must surface as an auth challenge, not as the
// login page's HTML.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAuthRequired indicates the endpoint demanded authentication
	// (401, or a 302 challenge to its login page).
	ErrAuthRequired = errors.New("assistant endpoint requires authentication")

	// ErrUnavailable indicates the endpoint could not be reached at all.
	ErrUnavailable = errors.New("assistant endpoint unavailable")

	// ErrEmptyReply indicates a 2xx response without a usable text field.
	ErrEmptyReply = errors.New("assistant response contained no answer text")
)

// APIError represents a non-2xx response from the assistant endpoint.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("assistant error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("assistant error (HTTP %d)", e.Status)
}

// =============================================================================
// REQUEST / REPLY TYPES
// =============================================================================

// HistoryMessage is one prior conversation turn sent as context.
type HistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientContext tags the request with the calling platform.
type ClientContext struct {
	Platform   string `json:"platform"`
	AppVersion string `json:"app_version"`
}

// Request is one question for the assistant.
type Request struct {
	Query     string
	SessionID string
	UserID    string
	History   []HistoryMessage
	Context   *ClientContext
}

// Reply is a normalized assistant answer. Optional fields the backend
// omitted are filled with defaults.
type Reply struct {
	Text           string
	Confidence     float64
	Sources        []string
	ProcessingTime int64
}

// askRequest is the wire format of a question.
type askRequest struct {
	Query               string           `json:"query"`
	SessionID           string           `json:"session_id"`
	UserID              string           `json:"user_id,omitempty"`
	ConversationHistory []HistoryMessage `json:"conversation_history,omitempty"`
	Context             *ClientContext   `json:"context,omitempty"`
}

// askResponse is the wire format of an answer. The backend has used three
// different names for the text field over time; all are accepted.
type askResponse struct {
	Response       string   `json:"response"`
	Answer         string   `json:"answer"`
	Message        string   `json:"message"`
	Confidence     float64  `json:"confidence"`
	Sources        []string `json:"sources"`
	ProcessingTime float64  `json:"processing_time"`
}

// text returns the first non-empty answer field.
func (r *askResponse) text() string {
	for _, s := range []string{r.Response, r.Answer, r.Message} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the remote assistant endpoint.
type Client struct {
	baseURL    string
	endpoint   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client with production defaults.
func NewClient() *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		endpoint:   DefaultEndpoint,
		userAgent:  DefaultUserAgent,
		httpClient: sharedHTTPClient,
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithEndpoint sets a custom agent path under the base URL.
func (c *Client) WithEndpoint(path string) *Client {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	c.endpoint = path
	return c
}

// WithUserAgent sets the User-Agent header value.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// WithTimeout sets the request timeout. This replaces the shared pooled
// client with a per-client instance carrying the same transport.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	client := *c.httpClient
	client.Timeout = timeout
	c.httpClient = &client
	return c
}

// WithHTTPClient replaces the underlying HTTP client (used in tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithRateLimit throttles outbound requests to rps with the given burst.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// =============================================================================
// ASK
// =============================================================================

// Ask sends one question and returns the normalized answer.
//
// Failures map to sentinel errors: ErrAuthRequired for 401/302 challenges,
// ErrUnavailable for transport failures, ErrEmptyReply for malformed bodies,
// and *APIError for other non-2xx statuses.
func (c *Client) Ask(ctx context.Context, req Request) (*Reply, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(askRequest{
		Query:               req.Query,
		SessionID:           req.SessionID,
		UserID:              req.UserID,
		ConversationHistory: req.History,
		Context:             req.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + c.endpoint
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	c.logRequest(httpReq)
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	payload, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, mapStatus(resp.StatusCode, payload)
	}

	var answer askResponse
	if err := json.Unmarshal(payload, &answer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyReply, err)
	}

	text := answer.text()
	if text == "" {
		return nil, ErrEmptyReply
	}

	reply := &Reply{
		Text:           text,
		Confidence:     answer.Confidence,
		Sources:        answer.Sources,
		ProcessingTime: int64(answer.ProcessingTime),
	}
	if reply.Confidence == 0 {
		reply.Confidence = defaultConfidence
	}
	if len(reply.Sources) == 0 {
		reply.Sources = append([]string(nil), defaultSources...)
	}
	if reply.ProcessingTime == 0 {
		reply.ProcessingTime = defaultProcessingTime
	}
	return reply, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// readResponse reads the body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// mapStatus converts a non-2xx status to the matching error.
func mapStatus(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect:
		return fmt.Errorf("%w (HTTP %d)", ErrAuthRequired, status)
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &APIError{Status: status, Message: msg}
}

// logRequest logs an API request without payload or headers.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("RAG request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status code and duration only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("RAG response: %d (%v)", resp.StatusCode, duration)
}

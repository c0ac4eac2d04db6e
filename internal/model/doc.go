// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the chat data model: messages, senders, delivery
// status and connection state.
//
// A Message is immutable after creation except for its Status field, which
// only applies to user-authored messages and only moves forward
// (sending -> sent -> delivered), with failure reachable from any state.
// Assistant messages optionally carry Metadata with the backend's confidence
// score, source documents and processing time.
package model

// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fallback provides the local substitute responder used when the
// remote assistant is unreachable.
//
// Replies come from a fixed keyword-indexed table of the most common machine
// support topics. Matching is a priority scan, so an input touching several
// categories always gets the highest-priority one.
package fallback

import (
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
)

// =============================================================================
// REPLY TYPE
// =============================================================================

// Reply is one canned answer. Sources is always non-empty and Confidence is
// always in [0.85, 1.0).
type Reply struct {
	Text           string
	Category       string
	Sources        []string
	Confidence     float64
	ProcessingTime int64
}

// =============================================================================
// CANNED RESPONSE TABLE
// =============================================================================

// entry is one row of the canned response table.
type entry struct {
	category string
	keywords []string
	text     string
	sources  []string
}

// table holds the canned replies in match-priority order. The texts mirror
// the production knowledge set for Lisec machine support.
var table = []entry{
	{
		category: "support",
		keywords: []string{"support", "contact"},
		text: "For Lisec technical support, you can contact us through multiple channels:\n\n" +
			"• Phone: +43 7427 200-0\n" +
			"• Email: service@lisec.com\n" +
			"• Online Portal: support.lisec.com\n" +
			"• Emergency Hotline: Available 24/7 for critical issues\n\n" +
			"Our support team is available Monday-Friday, 8:00-17:00 CET.",
		sources: []string{"Lisec Contact Directory", "Support Portal"},
	},
	{
		category: "maintenance",
		keywords: []string{"maintenance", "schedule"},
		text: "Lisec machine maintenance schedules depend on your specific model and usage:\n\n" +
			"• Daily: Visual inspection, cleaning\n" +
			"• Weekly: Lubrication check, safety systems test\n" +
			"• Monthly: Filter replacement, calibration check\n" +
			"• Quarterly: Comprehensive inspection by certified technician\n\n" +
			"I recommend checking your machine's specific maintenance manual for detailed schedules.",
		sources: []string{"Maintenance Manual", "Service Guidelines"},
	},
	{
		category: "parts",
		keywords: []string{"parts", "order", "spare"},
		text: "To order spare parts for your Lisec machine:\n\n" +
			"1. Visit parts.lisec.com\n" +
			"2. Use your machine serial number for compatibility\n" +
			"3. Contact your local Lisec distributor\n" +
			"4. Call our parts department: +43 7427 200-2600\n\n" +
			"Original Lisec parts ensure optimal performance and maintain warranty coverage.",
		sources: []string{"Parts Catalog", "Order System"},
	},
	{
		category: "diagnostics",
		keywords: []string{"light", "signal", "indicator"},
		text: "Lisec machine light signals indicate different operational states:\n\n" +
			"• Green: Normal operation\n" +
			"• Yellow/Amber: Warning - check required\n" +
			"• Red: Error/Stop - immediate attention needed\n" +
			"• Blue: Maintenance mode active\n" +
			"• Flashing: Transitional state\n\n" +
			"Refer to your machine's manual for model-specific light codes.",
		sources: []string{"Machine Manual", "Diagnostic Guide"},
	},
	{
		category: "recommendations",
		keywords: nil, // no keywords: reachable only through no-match selection
		text: "Based on your machine's current status, I recommend:\n\n" +
			"• Checking hydraulic pressure levels\n" +
			"• Inspecting cutting wheel condition\n" +
			"• Verifying glass positioning sensors\n" +
			"• Updating machine software if available\n\n" +
			"Would you like detailed instructions for any of these checks?",
		sources: []string{"Diagnostic System", "Maintenance Database"},
	},
}

// =============================================================================
// RESPONDER
// =============================================================================

// Responder selects canned replies. In deterministic mode (the default) the
// no-match reply, confidence and processing time all derive from a hash of
// the input, so the same question always gets the same answer. Randomized
// mode restores the varied feel of the original behavior.
type Responder struct {
	deterministic bool

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a deterministic responder.
func New() *Responder {
	return &Responder{deterministic: true}
}

// NewRandomized creates a responder that picks no-match replies and jitters
// confidence randomly, seeded from seed.
func NewRandomized(seed int64) *Responder {
	return &Responder{
		deterministic: false,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Respond selects the canned reply for the given user text. It is a pure
// function of the table and the input in deterministic mode.
func (r *Responder) Respond(userText string) Reply {
	lower := strings.ToLower(userText)

	for _, e := range table {
		for _, kw := range e.keywords {
			if strings.Contains(lower, kw) {
				return r.build(e, lower)
			}
		}
	}

	// No category matched: pick from the full set.
	var idx int
	if r.deterministic {
		idx = int(hash(lower) % uint32(len(table)))
	} else {
		r.mu.Lock()
		idx = r.rng.Intn(len(table))
		r.mu.Unlock()
	}
	return r.build(table[idx], lower)
}

// build assembles a Reply with confidence in [0.85, 1.0) and a plausible
// processing time.
func (r *Responder) build(e entry, lower string) Reply {
	var confidence float64
	var processing int64

	if r.deterministic {
		h := hash(lower + e.category)
		confidence = 0.85 + float64(h%150)/1000.0
		processing = 800 + int64(h%1000)
	} else {
		r.mu.Lock()
		confidence = 0.85 + r.rng.Float64()*0.15
		processing = 800 + int64(r.rng.Intn(1000))
		r.mu.Unlock()
	}
	if confidence >= 1.0 {
		confidence = 0.999
	}

	return Reply{
		Text:           e.text,
		Category:       e.category,
		Sources:        append([]string(nil), e.sources...),
		Confidence:     confidence,
		ProcessingTime: processing,
	}
}

// Categories returns the category names in match-priority order.
func Categories() []string {
	out := make([]string, len(table))
	for i, e := range table {
		out[i] = e.category
	}
	return out
}

// hash returns a stable FNV-1a hash of s.
func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Package payment enforces the x402 payment gate: unpaid requests to priced
// routes receive a 402 challenge, paid requests are verified and settled
// against the facilitator before the capability executes.
package payment

import (
	"sync"
	"time"

	"github.com/cronosai/opsgate/types"
)

// DefaultLogRetention bounds the in-process attempt log. Older entries are
// discarded; the log is observability, not durable storage.
const DefaultLogRetention = 256

// AttemptLog is an append-only, bounded record of gate decisions. Entries
// are immutable after append; appends from concurrent requests are
// serialized.
type AttemptLog struct {
	mu      sync.Mutex
	entries []types.PaymentAttempt
	max     int
}

// NewAttemptLog creates a log retaining at most max entries. Non-positive
// max falls back to the default retention.
func NewAttemptLog(max int) *AttemptLog {
	if max <= 0 {
		max = DefaultLogRetention
	}
	return &AttemptLog{max: max}
}

// Append records one terminal gate decision, stamping the entry time.
func (l *AttemptLog) Append(entry types.PaymentAttempt) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Recent returns up to limit of the most recent entries, oldest first.
func (l *AttemptLog) Recent(limit int) []types.PaymentAttempt {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]types.PaymentAttempt, limit)
	copy(out, l.entries[len(l.entries)-limit:])
	return out
}

// Len reports the number of retained entries.
func (l *AttemptLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

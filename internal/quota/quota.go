// Package quota tracks consumption of the YouTube Data API's daily unit
// allowance. Every external call is gated through a Ledger.
package quota

import (
	"log"
	"sync"
)

// Ledger is a process-lifetime counter of API units consumed against a
// fixed daily limit. It is not persisted: a restart silently grants a fresh
// allowance regardless of units already burned that day. Callers get a
// Ledger by injection, never through package state.
type Ledger struct {
	mu               sync.Mutex
	consumed         int
	limit            int
	warningThreshold int
	warned           bool
	onWarning        func(consumed, limit int)
}

// NewLedger creates a ledger with the given daily limit and warning
// threshold. onWarning, if non-nil, fires once per day when consumption
// first reaches the threshold; it must not call back into the ledger.
func NewLedger(limit, warningThreshold int, onWarning func(consumed, limit int)) *Ledger {
	if onWarning == nil {
		onWarning = func(consumed, limit int) {
			log.Printf("quota warning: %d/%d units used", consumed, limit)
		}
	}
	return &Ledger{
		limit:            limit,
		warningThreshold: warningThreshold,
		onWarning:        onWarning,
	}
}

// HasBudget reports whether cost units can still be spent today. Probing
// only; nothing is reserved. Use Reserve when the caller intends to spend.
func (l *Ledger) HasBudget(cost int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consumed+cost <= l.limit
}

// Charge records cost units as spent unconditionally and returns the new
// total. Callers that need the check and the charge to be one step must use
// Reserve instead.
func (l *Ledger) Charge(cost int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.charge(cost)
	return l.consumed
}

// Reserve atomically checks and charges: if cost units fit within the
// limit they are consumed and Reserve returns true, otherwise nothing is
// charged. This is the check-and-charge primitive concurrent callers need;
// separate HasBudget/Charge calls can jointly overspend.
func (l *Ledger) Reserve(cost int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.consumed+cost > l.limit {
		return false
	}
	l.charge(cost)
	return true
}

// charge mutates the counter and fires the warning signal. Caller holds mu.
func (l *Ledger) charge(cost int) {
	l.consumed += cost
	if !l.warned && l.consumed >= l.warningThreshold {
		l.warned = true
		l.onWarning(l.consumed, l.limit)
	}
}

// Remaining returns the units left today.
func (l *Ledger) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit - l.consumed
}

// Consumed returns the units spent today.
func (l *Ledger) Consumed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.consumed
}

// Limit returns the daily allowance.
func (l *Ledger) Limit() int {
	return l.limit
}

// Reset zeroes consumption. Invoked once at the daily boundary.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.consumed = 0
	l.warned = false
}

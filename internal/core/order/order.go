// Package order defines the resting order record held by a price-ordered
// index: an immutable descriptor plus the two fields a matcher mutates
// concurrently, remaining quantity and the logical-delete flag.
package order

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Side is one of Bid or Ask.
type Side int8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "BID"
	}
	return "ASK"
}

// Resting is a single outstanding limit order sitting in a book.
//
// Side, Symbol, Price, OriginalQty and SubmittedAt are set once at
// construction and never change. RemainingQty and the delete flag are
// mutated by matchers via CAS; see Consume, TryClaim and Release.
type Resting struct {
	id          uuid.UUID
	side        Side
	symbol      string
	price       float64
	originalQty int64
	submittedAt time.Time

	remainingQty atomic.Int64
	deleted      atomic.Bool
}

// New constructs a resting order with the given remaining quantity equal
// to its original quantity. qty must be positive.
func New(side Side, symbol string, price float64, qty int64) *Resting {
	r := &Resting{
		id:          uuid.New(),
		side:        side,
		symbol:      symbol,
		price:       price,
		originalQty: qty,
		submittedAt: time.Now(),
	}
	r.remainingQty.Store(qty)
	return r
}

func (r *Resting) ID() uuid.UUID          { return r.id }
func (r *Resting) Side() Side             { return r.side }
func (r *Resting) Symbol() string         { return r.symbol }
func (r *Resting) Price() float64         { return r.price }
func (r *Resting) OriginalQty() int64     { return r.originalQty }
func (r *Resting) SubmittedAt() time.Time { return r.submittedAt }

// RemainingQty is a point-in-time read; callers racing a matcher may see
// a value that changes again before they act on it.
func (r *Resting) RemainingQty() int64 { return r.remainingQty.Load() }

// Deleted reports the current state of the logical-delete flag. True
// means either CLAIMED (a matcher currently owns the node) or DEAD (the
// node is drained and awaiting a sweep) — the two are indistinguishable
// from outside the claimer, by design (spec's dual-role flag).
func (r *Resting) Deleted() bool { return r.deleted.Load() }

// TryClaim attempts the LIVE -> CLAIMED transition. Exactly one caller
// among any number of concurrent matchers observes true.
func (r *Resting) TryClaim() bool {
	return r.deleted.CompareAndSwap(false, true)
}

// Release performs the CLAIMED -> LIVE transition, used when a claimed
// node turns out to still be live after a consumption attempt.
func (r *Resting) Release() {
	r.deleted.Store(false)
}

// MarkDead performs the CLAIMED -> DEAD transition. DEAD is terminal
// until a sweep physically unlinks the node.
func (r *Resting) MarkDead() {
	r.deleted.Store(true)
}

// Consume attempts to fill up to want units against this order's
// remaining quantity via a CAS retry loop. matched is the quantity
// actually taken (0 if the order was already drained). drained reports
// whether remaining quantity reached zero as a result.
//
// Consume must only be called on a node this goroutine currently holds
// CLAIMED (see TryClaim) — it is not itself a synchronization point
// against other matchers, only against torn reads of remaining quantity.
func (r *Resting) Consume(want int64) (matched int64, drained bool) {
	for {
		available := r.remainingQty.Load()
		if available <= 0 {
			return 0, true
		}
		matched = want
		if available < matched {
			matched = available
		}
		next := available - matched
		if r.remainingQty.CompareAndSwap(available, next) {
			return matched, next == 0
		}
	}
}

func (r *Resting) String() string {
	return fmt.Sprintf("{id: %s, side: %v, symbol: %s, price: %.4f, remaining: %d/%d}",
		r.id, r.side, r.symbol, r.price, r.RemainingQty(), r.originalQty)
}

// Package engine is the ambient boundary around the matching core: a
// fixed-size per-symbol book registry, input validation, and the
// Submit entrypoint named in spec's external interfaces. None of this
// package is part of the concurrent core itself — the registry is, per
// spec, "a trivial mapping from symbol name to index".
package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"skadi/internal/core/match"
	"skadi/internal/core/order"
	"skadi/internal/reporting"
)

// InputError classifies a rejected submission, per spec's error
// taxonomy: unknown symbol, non-positive qty/price, unrecognized side.
type InputError struct {
	Op  string
	Err error
}

func (e *InputError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

var (
	ErrUnknownSymbol     = fmt.Errorf("unknown symbol")
	ErrInvalidQty        = fmt.Errorf("quantity must be positive")
	ErrInvalidPrice      = fmt.Errorf("price must be positive")
	ErrInvalidSide       = fmt.Errorf("unrecognized side")
	ErrCancelUnsupported = fmt.Errorf("cancel is not supported by the core index; orders leave the book only by depletion")
)

// Engine owns one book per symbol in a fixed universe, decided at
// construction time.
type Engine struct {
	books    map[string]*match.Book
	symbols  []string
	reporter reporting.Reporter
	log      zerolog.Logger
}

// New constructs an engine with one empty book per symbol. reporter
// receives every match and residual event; log is used for structured
// submission/rejection logging, in the style of the teacher's engine and
// net packages.
func New(symbols []string, reporter reporting.Reporter, log zerolog.Logger) *Engine {
	e := &Engine{
		books:    make(map[string]*match.Book, len(symbols)),
		symbols:  append([]string(nil), symbols...),
		reporter: reporter,
		log:      log,
	}
	for _, s := range symbols {
		e.books[s] = match.NewBook(s)
	}
	return e
}

// Symbols returns the fixed symbol universe this engine was constructed
// with, in registration order.
func (e *Engine) Symbols() []string { return e.symbols }

// Book returns the book for symbol, or nil if the symbol is unknown.
// Exposed for the net layer's LogBook diagnostic path.
func (e *Engine) Book(symbol string) *match.Book { return e.books[symbol] }

// LogBook emits a depth snapshot of every book to the engine's logger.
// Satisfies the net layer's optional BookLogger interface for the
// diagnostic LogBook wire message.
func (e *Engine) LogBook() {
	for _, symbol := range e.symbols {
		snap := reporting.Snapshot(e.books[symbol])
		e.log.Info().
			Str("symbol", symbol).
			Int("bidLevels", len(snap.Bids)).
			Int("askLevels", len(snap.Asks)).
			Any("bids", snap.Bids).
			Any("asks", snap.Asks).
			Msg("book snapshot")
	}
}

// Submit validates and processes one incoming order. It returns true if
// the order was fully filled or its residual was inserted; false only if
// the residual's identity already existed in the book (not expected to
// happen for a freshly constructed order — see core/skiplist's duplicate
// detection contract).
func (e *Engine) Submit(side order.Side, symbol string, qty int64, price float64) (bool, error) {
	book, ok := e.books[symbol]
	if !ok {
		e.log.Warn().Str("symbol", symbol).Msg("rejected order for unknown symbol")
		return false, &InputError{Op: "submit", Err: ErrUnknownSymbol}
	}
	if qty <= 0 {
		e.log.Warn().Int64("qty", qty).Msg("rejected order with non-positive quantity")
		return false, &InputError{Op: "submit", Err: ErrInvalidQty}
	}
	if price <= 0 {
		e.log.Warn().Float64("price", price).Msg("rejected order with non-positive price")
		return false, &InputError{Op: "submit", Err: ErrInvalidPrice}
	}
	if side != order.Bid && side != order.Ask {
		e.log.Warn().Msg("rejected order with unrecognized side")
		return false, &InputError{Op: "submit", Err: ErrInvalidSide}
	}

	e.log.Debug().
		Str("symbol", symbol).
		Str("side", side.String()).
		Int64("qty", qty).
		Float64("price", price).
		Msg("order accepted")

	res := book.Submit(side, price, qty)
	if e.reporter != nil {
		reporting.Emit(e.reporter, symbol, res)
	}
	return res.Inserted, nil
}

// Cancel is named in spec's wire protocol for parity with the teacher's
// protocol, but the core index has no cancel API — orders leave the book
// only by depletion (spec's explicit non-goal). It always fails.
func (e *Engine) Cancel(symbol string, _ string) error {
	if _, ok := e.books[symbol]; !ok {
		return &InputError{Op: "cancel", Err: ErrUnknownSymbol}
	}
	return &InputError{Op: "cancel", Err: ErrCancelUnsupported}
}

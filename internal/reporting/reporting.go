// Package reporting defines the external sink for match and residual
// events (spec's "human-readable sink, not a wire protocol") plus a
// read-only book-depth snapshot used for the LogBook diagnostic path.
package reporting

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/btree"

	"skadi/internal/core/match"
	"skadi/internal/core/order"
)

// Trade is one match event: qty shares of Symbol changed hands at Price
// (always the resting order's price — price improvement accrues to the
// aggressor). BuyLine/SellLine are the two report lines from spec's
// reporting format.
type Trade struct {
	Symbol   string
	Qty      int64
	Price    float64
	BuyLine  string
	SellLine string
}

// Residual describes the resting order left behind, if any, after an
// incoming order's matching pass.
type Residual struct {
	Symbol    string
	Side      order.Side
	Remaining int64
	Original  int64
	Price     float64
}

// Reporter is the sink every Submit call reports to.
type Reporter interface {
	ReportMatch(Trade)
	ReportResidual(Residual)
}

// Stdout is the reference sink: formats spec's literal reporting block
// to stdout and mirrors it to a structured zerolog logger.
type Stdout struct {
	log zerolog.Logger
}

// NewStdout constructs a Stdout reporter logging through log.
func NewStdout(log zerolog.Logger) *Stdout {
	return &Stdout{log: log}
}

func (s *Stdout) ReportMatch(t Trade) {
	fmt.Printf("MATCHED: %d shares of %s at $%.2f\n  %s\n  %s\n",
		t.Qty, t.Symbol, t.Price, t.BuyLine, t.SellLine)
	s.log.Info().
		Str("symbol", t.Symbol).
		Int64("qty", t.Qty).
		Float64("price", t.Price).
		Msg("trade matched")
}

func (s *Stdout) ReportResidual(r Residual) {
	s.log.Debug().
		Str("symbol", r.Symbol).
		Str("side", r.Side.String()).
		Int64("remaining", r.Remaining).
		Int64("original", r.Original).
		Float64("price", r.Price).
		Msg("residual resting on book")
}

// Emit converts a match.Result's fills into reportable Trade
// events, emitting each to the given reporter in order, and reports the
// residual (if any) afterwards.
func Emit(r Reporter, symbol string, res match.Result) {
	for _, f := range res.Fills {
		r.ReportMatch(Trade{Symbol: f.Symbol, Qty: f.Qty, Price: f.Price, BuyLine: f.BuyLine, SellLine: f.SellLine})
	}
	if res.Residual != nil {
		r.ReportResidual(Residual{
			Symbol:    symbol,
			Side:      res.Residual.Side(),
			Remaining: res.Residual.RemainingQty(),
			Original:  res.Residual.OriginalQty(),
			Price:     res.Residual.Price(),
		})
	}
}

// DepthLevel is one aggregated price level in a BookSnapshot.
type DepthLevel struct {
	Price float64
	Qty   int64
}

// BookSnapshot is a read-only depth view of one symbol's book, used for
// the LogBook diagnostic path. It aggregates same-priced resting orders
// into a single level, since the core index does not dedupe by price.
type BookSnapshot struct {
	Symbol string
	Bids   []DepthLevel
	Asks   []DepthLevel
}

// Snapshot walks both sides of book and aggregates live resting orders
// into price levels, using a btree to do the price-level aggregation and
// ordering cheaply rather than re-sorting a slice.
func Snapshot(b *match.Book) BookSnapshot {
	return BookSnapshot{
		Symbol: b.Symbol,
		Bids:   levels(b.Bids.Snapshot(), true),
		Asks:   levels(b.Asks.Snapshot(), false),
	}
}

func levels(orders []*order.Resting, descending bool) []DepthLevel {
	tr := btree.NewBTreeG(func(a, b DepthLevel) bool {
		if descending {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	})

	for _, o := range orders {
		price := o.Price()
		if existing, ok := tr.Get(DepthLevel{Price: price}); ok {
			existing.Qty += o.RemainingQty()
			tr.Set(existing)
		} else {
			tr.Set(DepthLevel{Price: price, Qty: o.RemainingQty()})
		}
	}

	out := make([]DepthLevel, 0, tr.Len())
	tr.Scan(func(lvl DepthLevel) bool {
		out = append(out, lvl)
		return true
	})
	return out
}

// Package match implements the matching orchestrator: for one symbol's
// pair of price-ordered indexes, it repeatedly drains the opposite side
// via FindAndConsume, emits a fill per consumed resting order, sweeps the
// drained nodes from the side it just touched, and then rests any
// uncrossed residual on the incoming order's own side.
package match

import (
	"fmt"

	"skadi/internal/core/order"
	"skadi/internal/core/skiplist"
)

// Book is one symbol's pair of price-ordered indexes: bids sorted
// highest price first, asks sorted lowest price first.
type Book struct {
	Symbol string
	Bids   *skiplist.Index
	Asks   *skiplist.Index
}

// NewBook constructs an empty book for symbol.
func NewBook(symbol string) *Book {
	return &Book{
		Symbol: symbol,
		Bids:   skiplist.New(false),
		Asks:   skiplist.New(true),
	}
}

// Fill describes one resting order consumed during a single Submit call.
// BuyLine and SellLine are pre-formatted per the engine's reporting
// format (one always describes the aggressor, the other the resting
// counterparty — which is which depends on the incoming order's side).
type Fill struct {
	Symbol  string
	Price   float64
	Qty     int64
	BuyLine string
	SellLine string
}

// Result is the outcome of one Submit call.
type Result struct {
	Fills    []Fill
	Residual *order.Resting // nil if the incoming order was fully filled
	Inserted bool            // false only if the residual's identity already existed (never expected for a freshly constructed order)
}

// Submit processes one incoming order of side/price/qty against this
// book: crosses against the opposite side first, then sweeps the opposite
// side's drained nodes, then rests any residual on the same side.
func (b *Book) Submit(side order.Side, price float64, qty int64) Result {
	var opposite, same *skiplist.Index
	var predicate func(float64) bool
	var aggressorTag, restingTag string

	switch side {
	case order.Bid:
		opposite, same = b.Asks, b.Bids
		predicate = func(p float64) bool { return p <= price }
		aggressorTag, restingTag = "BUY", "SELL"
	case order.Ask:
		opposite, same = b.Bids, b.Asks
		predicate = func(p float64) bool { return p >= price }
		aggressorTag, restingTag = "SELL", "BUY"
	}

	remaining := qty
	var fills []Fill
	for remaining > 0 {
		mr := opposite.FindAndConsume(predicate, remaining, restingTag)
		if !mr.Matched() {
			break
		}
		remaining -= mr.MatchedQty

		aggressorLine := fmt.Sprintf("%s ORDER: %d/%d left for %s @ $%.2f",
			aggressorTag, remaining, qty, b.Symbol, price)

		fill := Fill{Symbol: b.Symbol, Price: mr.Price, Qty: mr.MatchedQty}
		if side == order.Bid {
			fill.BuyLine, fill.SellLine = aggressorLine, mr.Description
		} else {
			fill.BuyLine, fill.SellLine = mr.Description, aggressorLine
		}
		fills = append(fills, fill)
	}

	opposite.SweepDeleted()

	res := Result{Fills: fills, Inserted: true}
	if remaining > 0 {
		resting := order.New(side, b.Symbol, price, remaining)
		res.Inserted = same.Insert(resting)
		res.Residual = resting
	}
	return res
}

package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skadi/internal/core/match"
	"skadi/internal/core/order"
)

type recordingReporter struct {
	trades    []Trade
	residuals []Residual
}

func (r *recordingReporter) ReportMatch(t Trade)       { r.trades = append(r.trades, t) }
func (r *recordingReporter) ReportResidual(res Residual) { r.residuals = append(r.residuals, res) }

func TestEmit_ReportsFillsThenResidual(t *testing.T) {
	b := match.NewBook("AAPL")
	b.Asks.Insert(order.New(order.Ask, "AAPL", 9.00, 30))

	res := b.Submit(order.Bid, 10.00, 100)

	r := &recordingReporter{}
	Emit(r, "AAPL", res)

	assert.Len(t, r.trades, 1)
	assert.Equal(t, int64(30), r.trades[0].Qty)
	assert.Equal(t, 9.00, r.trades[0].Price)

	assert.Len(t, r.residuals, 1)
	assert.Equal(t, int64(70), r.residuals[0].Remaining)
	assert.Equal(t, order.Bid, r.residuals[0].Side)
}

func TestEmit_NoResidualWhenFullyFilled(t *testing.T) {
	b := match.NewBook("AAPL")
	b.Asks.Insert(order.New(order.Ask, "AAPL", 10.00, 50))

	res := b.Submit(order.Bid, 10.00, 50)

	r := &recordingReporter{}
	Emit(r, "AAPL", res)

	assert.Len(t, r.trades, 1)
	assert.Empty(t, r.residuals)
}

func TestSnapshot_AggregatesSamePriceLevels(t *testing.T) {
	b := match.NewBook("AAPL")
	b.Asks.Insert(order.New(order.Ask, "AAPL", 10.00, 30))
	b.Asks.Insert(order.New(order.Ask, "AAPL", 10.00, 20))
	b.Asks.Insert(order.New(order.Ask, "AAPL", 11.00, 40))

	snap := Snapshot(b)

	assert.Len(t, snap.Asks, 2)
	assert.Equal(t, 10.00, snap.Asks[0].Price)
	assert.Equal(t, int64(50), snap.Asks[0].Qty)
	assert.Equal(t, 11.00, snap.Asks[1].Price)
	assert.Equal(t, int64(40), snap.Asks[1].Qty)
}

func TestSnapshot_BidsDescendingAsksAscending(t *testing.T) {
	b := match.NewBook("AAPL")
	b.Bids.Insert(order.New(order.Bid, "AAPL", 9.00, 10))
	b.Bids.Insert(order.New(order.Bid, "AAPL", 9.50, 10))
	b.Asks.Insert(order.New(order.Ask, "AAPL", 11.00, 10))
	b.Asks.Insert(order.New(order.Ask, "AAPL", 10.50, 10))

	snap := Snapshot(b)

	assert.Equal(t, []float64{9.50, 9.00}, []float64{snap.Bids[0].Price, snap.Bids[1].Price})
	assert.Equal(t, []float64{10.50, 11.00}, []float64{snap.Asks[0].Price, snap.Asks[1].Price})
}

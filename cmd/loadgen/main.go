// Command loadgen drives the matching engine in-process with concurrent
// random order submissions, for local load testing. This is outside the
// core's own scope, same as the generator/driver used against the teacher
// repo's in-memory book.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"skadi/internal/core/order"
	"skadi/internal/engine"
	"skadi/internal/reporting"
)

func main() {
	symbolsFlag := flag.String("symbols", "AAPL,MSFT,GOOG", "comma-separated symbol universe")
	orders := flag.Int("orders", 100000, "total number of orders to submit")
	concurrency := flag.Int("concurrency", 8, "number of concurrent submitting goroutines")
	minPrice := flag.Float64("min-price", 90.0, "minimum random limit price")
	maxPrice := flag.Float64("max-price", 110.0, "maximum random limit price")
	maxQty := flag.Int64("max-qty", 1000, "maximum random order quantity")
	flag.Parse()

	var symbols []string
	for _, s := range strings.Split(*symbolsFlag, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: flag.CommandLine.Output()}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()

	eng := engine.New(symbols, reporting.NewStdout(logger), logger)

	start := time.Now()
	var submitted int64
	var mu sync.Mutex

	var wg sync.WaitGroup
	perWorker := *orders / *concurrency
	for w := 0; w < *concurrency; w++ {
		n := perWorker
		if w < *orders%*concurrency {
			n++
		}
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < n; i++ {
				side, symbol, qty, price := randomOrder(r, symbols, *minPrice, *maxPrice, *maxQty)
				if _, err := eng.Submit(side, symbol, qty, price); err != nil {
					continue
				}
				mu.Lock()
				submitted++
				mu.Unlock()
			}
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	elapsed := time.Since(start)
	fmt.Printf("submitted %d orders across %d symbols in %s (%.0f orders/sec)\n",
		submitted, len(symbols), elapsed, float64(submitted)/elapsed.Seconds())

	for _, symbol := range symbols {
		snap := reporting.Snapshot(eng.Book(symbol))
		fmt.Printf("%s: %d bid levels, %d ask levels\n", symbol, len(snap.Bids), len(snap.Asks))
	}
}

func randomOrder(r *rand.Rand, symbols []string, minPrice, maxPrice float64, maxQty int64) (order.Side, string, int64, float64) {
	side := order.Bid
	if r.Intn(2) == 1 {
		side = order.Ask
	}
	symbol := symbols[r.Intn(len(symbols))]
	price := minPrice + r.Float64()*(maxPrice-minPrice)
	qty := int64(r.Intn(int(maxQty))) + 1
	return side, symbol, qty, price
}

package order

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	o := New(Bid, "AAPL", 100.0, 50)

	assert.Equal(t, Bid, o.Side())
	assert.Equal(t, "AAPL", o.Symbol())
	assert.Equal(t, 100.0, o.Price())
	assert.Equal(t, int64(50), o.OriginalQty())
	assert.Equal(t, int64(50), o.RemainingQty())
	assert.False(t, o.Deleted())
}

func TestConsume_Partial(t *testing.T) {
	o := New(Ask, "MSFT", 50.0, 100)

	matched, drained := o.Consume(30)
	assert.Equal(t, int64(30), matched)
	assert.False(t, drained)
	assert.Equal(t, int64(70), o.RemainingQty())
}

func TestConsume_ExactlyDrains(t *testing.T) {
	o := New(Ask, "MSFT", 50.0, 30)

	matched, drained := o.Consume(30)
	assert.Equal(t, int64(30), matched)
	assert.True(t, drained)
	assert.Equal(t, int64(0), o.RemainingQty())
}

func TestConsume_WantMoreThanAvailable(t *testing.T) {
	o := New(Bid, "GOOG", 50.0, 10)

	matched, drained := o.Consume(25)
	assert.Equal(t, int64(10), matched)
	assert.True(t, drained)
	assert.Equal(t, int64(0), o.RemainingQty())
}

func TestConsume_AlreadyEmpty(t *testing.T) {
	o := New(Bid, "GOOG", 50.0, 10)
	_, _ = o.Consume(10)

	matched, drained := o.Consume(5)
	assert.Equal(t, int64(0), matched)
	assert.True(t, drained)
}

func TestConsume_NeverOverdrafts(t *testing.T) {
	// Spawning many concurrent consumers against a fixed supply must never
	// let the sum of matched quantities exceed what was originally there.
	o := New(Bid, "AAPL", 100.0, 1000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var totalMatched int64

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			matched, _ := o.Consume(37)
			mu.Lock()
			totalMatched += matched
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), totalMatched)
	assert.Equal(t, int64(0), o.RemainingQty())
}

func TestTryClaim_ExcludesConcurrentMatchers(t *testing.T) {
	o := New(Bid, "AAPL", 100.0, 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if o.TryClaim() {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestRelease_AllowsReclaim(t *testing.T) {
	o := New(Bid, "AAPL", 100.0, 100)

	assert.True(t, o.TryClaim())
	assert.False(t, o.TryClaim())
	o.Release()
	assert.True(t, o.TryClaim())
}

func TestMarkDead_IsPermanent(t *testing.T) {
	o := New(Bid, "AAPL", 100.0, 100)
	o.MarkDead()

	assert.True(t, o.Deleted())
	assert.False(t, o.TryClaim())
}

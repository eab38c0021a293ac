package workerpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tomb "gopkg.in/tomb.v2"
)

func TestPool_ProcessesTasksAcrossWorkers(t *testing.T) {
	pool := New(3)
	results := make(chan int, 10)

	var tm tomb.Tomb
	go pool.Setup(&tm, func(t *tomb.Tomb, task any) error {
		results <- task.(int)
		return nil
	})

	for i := 0; i < 10; i++ {
		pool.AddTask(i)
	}

	seen := make(map[int]bool)
	for i := 0; i < 10; i++ {
		select {
		case v := <-results:
			seen[v] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for task to be processed")
		}
	}
	assert.Len(t, seen, 10)

	tm.Kill(nil)
	_ = tm.Wait()
}

func TestPool_WorkerErrorEndsThatWorker(t *testing.T) {
	pool := New(1)
	done := make(chan struct{})

	var tm tomb.Tomb
	go func() {
		pool.Setup(&tm, func(t *tomb.Tomb, task any) error {
			close(done)
			return assert.AnError
		})
	}()

	pool.AddTask("boom")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker never ran")
	}

	tm.Kill(nil)
	_ = tm.Wait()
}

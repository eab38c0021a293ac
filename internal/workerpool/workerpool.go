// Package workerpool implements a small supervised worker pool: a fixed
// number of goroutines pulling tasks off a shared channel, all tracked by
// a tomb so the owner can tear every worker down together.
//
// This completes what the teacher repo only sketched: internal/net/server.go
// imported a "fenrir/internal/utils" WorkerPool that was never written.
// internal/worker.go held the real (package-private) implementation; it
// is promoted here to its own importable package.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 256

// Func is the work a pool's goroutines perform on each task.
type Func func(t *tomb.Tomb, task any) error

// Pool is a fixed-size pool of worker goroutines draining a shared task
// channel, supervised by a tomb.
type Pool struct {
	n     int
	tasks chan any
}

// New constructs a pool of size workers. Setup must be called to start
// them against a tomb.
func New(size int) Pool {
	return Pool{
		n:     size,
		tasks: make(chan any, taskChanSize),
	}
}

// AddTask enqueues a task for the next free worker.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Setup starts and maintains a full complement of workers under t,
// restarting as they exit, until t starts dying.
func (p *Pool) Setup(t *tomb.Tomb, work Func) {
	log.Info().Int("workers", p.n).Msg("starting worker pool")
	active := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if active < p.n {
				t.Go(func() error {
					for {
						if err := p.run(t, work); err == nil {
							return nil
						}
					}
				})
				active++
			}
		}
	}
}

// run repeatedly performs one unit of work until t dies or work returns
// an error, at which point the goroutine Setup started for it calls run
// again, so the failed worker is replaced without stopping the others.
func (p *Pool) run(t *tomb.Tomb, work Func) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker exiting")
				return err
			}
		}
	}
}

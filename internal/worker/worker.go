// Package worker fans jobs out to one single-consumer goroutine per key, so
// jobs sharing a key never run concurrently and are handled in arrival
// order. A shared semaphore bounds how many keys are processed at once.
package worker

import (
	"context"
	"sync"
)

const laneBuffer = 16

type Dispatcher[K comparable, J any] struct {
	ctx    context.Context
	sem    chan struct{}
	handle func(context.Context, K, J)

	mu    sync.Mutex
	lanes map[K]chan J
}

// NewDispatcher starts dispatching under ctx; lanes drain until ctx is
// cancelled. handle is called from the lane's own goroutine.
func NewDispatcher[K comparable, J any](ctx context.Context, maxConcurrent int, handle func(context.Context, K, J)) *Dispatcher[K, J] {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Dispatcher[K, J]{
		ctx:    ctx,
		sem:    make(chan struct{}, maxConcurrent),
		handle: handle,
		lanes:  make(map[K]chan J),
	}
}

// Dispatch queues the job on its key's lane, creating the lane on first use.
// It blocks while the lane's buffer is full and fails once either context is
// done.
func (d *Dispatcher[K, J]) Dispatch(ctx context.Context, key K, job J) error {
	d.mu.Lock()
	lane, ok := d.lanes[key]
	if !ok {
		lane = make(chan J, laneBuffer)
		d.lanes[key] = lane
		go d.run(key, lane)
	}
	d.mu.Unlock()

	if ctx == nil {
		ctx = d.ctx
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.ctx.Done():
		return d.ctx.Err()
	case lane <- job:
		return nil
	}
}

func (d *Dispatcher[K, J]) run(key K, lane <-chan J) {
	for {
		select {
		case <-d.ctx.Done():
			return
		case job := <-lane:
			select {
			case d.sem <- struct{}{}:
			case <-d.ctx.Done():
				return
			}
			d.handle(d.ctx, key, job)
			<-d.sem
		}
	}
}

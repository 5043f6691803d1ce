package queue

import (
	"context"
	"hash/fnv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes chat reply tasks to a fixed set of workers using
// consistent hashing on the thread key, guaranteeing per-thread reply
// ordering. Each worker holds a task until it is due.
type Dispatcher struct {
	workers   []chan ports.ReplyTask
	processor ports.ReplyProcessor
	log       zerolog.Logger
	pending   atomic.Int64
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.ReplyProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.ReplyTask, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ReplyTask, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// tasks still queued at that point are dropped.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Schedule queues task on the worker responsible for its thread. It never
// blocks and reports false when that worker's buffer is full.
func (d *Dispatcher) Schedule(task ports.ReplyTask) bool {
	select {
	case d.workers[d.shardIndex(task.ThreadKey)] <- task:
		d.pending.Add(1)
		return true
	default:
		return false
	}
}

// Pending returns the number of queued or waiting tasks.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// shardIndex maps a thread key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ReplyTask) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-ch:
			if !ok {
				return
			}
			if !waitUntil(ctx, task.Due) {
				return
			}
			if err := d.processor.DeliverReply(ctx, task); err != nil {
				d.log.Error().Err(err).
					Str("thread", task.ThreadKey).
					Int("worker_id", id).
					Msg("reply delivery failed")
			}
			d.pending.Add(-1)
		}
	}
}

// waitUntil blocks until due or ctx is done, reporting false for the latter.
func waitUntil(ctx context.Context, due time.Time) bool {
	wait := time.Until(due)
	if wait <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

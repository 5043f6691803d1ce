package ports

import (
	"context"
	"time"
)

// ReplyTask asks for the simulated provider reply on one chat thread.
type ReplyTask struct {
	ThreadKey string
	Due       time.Time
}

// ReplyScheduler accepts reply tasks for asynchronous delivery. Schedule
// reports false when the task could not be queued.
type ReplyScheduler interface {
	Schedule(task ReplyTask) bool
}

// ReplyProcessor delivers a due reply.
type ReplyProcessor interface {
	DeliverReply(ctx context.Context, task ReplyTask) error
}

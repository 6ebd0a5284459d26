package router

import (
	"fmt"
	"sync"

	"github.com/chorusmesh/chorus/core"
	"github.com/chorusmesh/chorus/logging"
)

// Maximum automatic re-queues for one message on partial routing failure.
const maxRequeues = 3

type queueItem struct {
	msg      core.AgentMessage
	rctx     *Context
	attempts int
}

// Queue is the router's best-effort asynchronous delivery mode. A single
// worker drains it so retries of the same message are never reordered
// relative to each other.
type Queue struct {
	router *Router
	logger logging.Logger

	ch     chan queueItem
	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

// NewQueue constructs a queue over the router and starts its drain worker.
// Callers must Close the queue when done.
func NewQueue(r *Router, size int, logger logging.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	q := &Queue{
		router: r,
		logger: logger,
		ch:     make(chan queueItem, size),
		done:   make(chan struct{}),
	}
	q.wg.Add(1)
	go q.drain()
	return q
}

// Enqueue submits a message for asynchronous routing. It never blocks: a
// full queue is an error the producer can react to.
func (q *Queue) Enqueue(msg core.AgentMessage, rctx *Context) error {
	select {
	case <-q.done:
		return fmt.Errorf("queue: closed")
	default:
	}

	select {
	case q.ch <- queueItem{msg: msg, rctx: rctx}:
		return nil
	default:
		return fmt.Errorf("queue: full, message %s dropped", msg.ID)
	}
}

// Close stops the drain worker after the current item. Pending items are
// discarded; queued delivery is best-effort.
func (q *Queue) Close() {
	q.closed.Do(func() { close(q.done) })
	q.wg.Wait()
}

// drain is the single worker loop. Partial failures re-queue the item up to
// maxRequeues times; the single-threaded loop preserves per-message retry
// ordering.
func (q *Queue) drain() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case item := <-q.ch:
			execs := q.router.Route(item.msg, item.rctx)
			if !anyFailed(execs) {
				continue
			}
			if item.attempts >= maxRequeues {
				q.logger.Warn("queue: giving up on message after re-queues", "message", item.msg.ID, "attempts", item.attempts)
				continue
			}
			item.attempts++
			select {
			case q.ch <- item:
			default:
				q.logger.Warn("queue: full during re-queue, message dropped", "message", item.msg.ID)
			}
		}
	}
}

func anyFailed(execs []core.RoutingExecution) bool {
	for _, e := range execs {
		if !e.Success {
			return true
		}
	}
	return false
}

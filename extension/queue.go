package extension

import (
	"sync"

	"github.com/wippyai/extension-host/protocol"
)

// commandQueue is an unbounded FIFO. Push never blocks; Pop blocks until
// a command arrives or the queue is closed and drained.
type commandQueue struct {
	cond   *sync.Cond
	mu     sync.Mutex
	items  []protocol.Command
	closed bool
}

func newCommandQueue() *commandQueue {
	q := &commandQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues a command. Returns false if the queue has been closed.
func (q *commandQueue) push(cmd protocol.Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, cmd)
	q.cond.Signal()
	return true
}

// pop dequeues the oldest command. Returns false only after the queue is
// closed and every queued command has been handed out.
func (q *commandQueue) pop() (protocol.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return protocol.Command{}, false
	}

	cmd := q.items[0]
	q.items = q.items[1:]
	return cmd, true
}

// close stops intake. Queued commands remain poppable.
func (q *commandQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

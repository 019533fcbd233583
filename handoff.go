package heightmap

import (
	"context"
	"sync"
)

// delivery is one queued chunk. ack is closed once the chunk has been
// merged, or nil when nobody waits.
type delivery struct {
	chunk Chunk
	ack   chan struct{}
}

// Handoff carries chunks from producer goroutines to the goroutine that
// owns the collection's textures. The queue is bounded: Push blocks while
// QueueDepth chunks are pending, which throttles producers that outrun
// the render loop.
type Handoff struct {
	queue     chan delivery
	done      chan struct{}
	closeOnce sync.Once
}

func newHandoff(depth int) *Handoff {
	return &Handoff{
		queue: make(chan delivery, depth),
		done:  make(chan struct{}),
	}
}

// Push queues c for the next Collection.Update. It blocks while the queue
// is full and gives up when ctx is done or the collection closes.
func (h *Handoff) Push(ctx context.Context, c Chunk) error {
	return h.push(ctx, delivery{chunk: c})
}

// PushAndWait queues c and waits until it has been merged.
func (h *Handoff) PushAndWait(ctx context.Context, c Chunk) error {
	d := delivery{chunk: c, ack: make(chan struct{})}
	if err := h.push(ctx, d); err != nil {
		return err
	}
	select {
	case <-d.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrClosed
	}
}

// Pending returns the number of queued chunks.
func (h *Handoff) Pending() int {
	return len(h.queue)
}

// Capacity returns the queue depth.
func (h *Handoff) Capacity() int {
	return cap(h.queue)
}

func (h *Handoff) push(ctx context.Context, d delivery) error {
	select {
	case <-h.done:
		return ErrClosed
	default:
	}
	select {
	case h.queue <- d:
		// done may have closed while the send was pending.
		select {
		case <-h.done:
			return ErrClosed
		default:
			return nil
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrClosed
	}
}

// drain applies every queued chunk without blocking and acknowledges it.
func (h *Handoff) drain(apply func(Chunk)) int {
	n := 0
	for {
		select {
		case d := <-h.queue:
			apply(d.chunk)
			if d.ack != nil {
				close(d.ack)
			}
			n++
		default:
			return n
		}
	}
}

func (h *Handoff) close() {
	h.closeOnce.Do(func() { close(h.done) })
}

package comm

import (
	"context"
	"fmt"
	"sync"

	"github.com/notargets/patchgrid/types"
)

type slotKey struct {
	src int
	key types.MessageKey
}

type mailSlot[T any] struct {
	queue []T
	ready chan struct{} // holds a token while queue may be non-empty
}

/*
MailBox is the receiving end of one rank. Messages are matched by the
posting rank and a key, messages sharing both are delivered in the order
they were posted. Posting never blocks.
*/
type MailBox[T any] struct {
	mu    sync.Mutex
	slots map[slotKey]*mailSlot[T]
}

func NewMailBox[T any]() *MailBox[T] {
	return &MailBox[T]{
		slots: make(map[slotKey]*mailSlot[T]),
	}
}

func (mb *MailBox[T]) slot(src int, key types.MessageKey) (s *mailSlot[T]) {
	var (
		sk     = slotKey{src, key}
		exists bool
	)
	if s, exists = mb.slots[sk]; !exists {
		s = &mailSlot[T]{ready: make(chan struct{}, 1)}
		mb.slots[sk] = s
	}
	return
}

func (mb *MailBox[T]) PostMessage(src int, key types.MessageKey, msg T) {
	mb.mu.Lock()
	s := mb.slot(src, key)
	s.queue = append(s.queue, msg)
	select {
	case s.ready <- struct{}{}:
	default:
	}
	mb.mu.Unlock()
}

// ReceiveMessage blocks until a message from src with key is available or
// ctx is done.
func (mb *MailBox[T]) ReceiveMessage(ctx context.Context, src int,
	key types.MessageKey) (msg T, err error) {
	sk := slotKey{src, key}
	for {
		mb.mu.Lock()
		s := mb.slot(src, key)
		if len(s.queue) != 0 {
			msg = s.queue[0]
			var zero T
			s.queue[0] = zero
			s.queue = s.queue[1:]
			if len(s.queue) == 0 {
				// keys are not reused by collectives, drop the slot with its
				// stale token; a later post recreates it
				delete(mb.slots, sk)
			}
			mb.mu.Unlock()
			return
		}
		ready := s.ready
		mb.mu.Unlock()
		select {
		case <-ready:
		case <-ctx.Done():
			err = fmt.Errorf("%w: waiting for %s from rank %d: %v",
				ErrAborted, key, src, ctx.Err())
			return
		}
	}
}

// Pending reports the number of undelivered messages, used by tests and
// the end of run checks.
func (mb *MailBox[T]) Pending() (n int) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for _, s := range mb.slots {
		n += len(s.queue)
	}
	return
}

func (mb *MailBox[T]) numSlots() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.slots)
}

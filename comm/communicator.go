package comm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/notargets/patchgrid/types"
)

// Communicator is one rank's handle on a World
type Communicator struct {
	world *World
	rank  int
	ctx   context.Context
	seq   uint64 // collective sequence number
}

func (c *Communicator) Rank() int { return c.rank }

func (c *Communicator) Size() int { return c.world.size }

// ID identifies the group, it is shared by every rank of the World
func (c *Communicator) ID() uuid.UUID { return c.world.id }

func (c *Communicator) SameGroup(other *Communicator) bool {
	return other != nil && c.world.id == other.world.id
}

func (c *Communicator) checkRank(rank int) error {
	if rank < 0 || rank >= c.world.size {
		return fmt.Errorf("%w: %d of %d", ErrBadRank, rank, c.world.size)
	}
	return nil
}

// Request is a posted send or receive. Sends complete when posted,
// receives complete in Wait.
type Request struct {
	c    *Communicator
	recv bool
	done bool
	src  int
	key  types.MessageKey
	buf  []float64
}

// Isend posts a copy of data to dest, it never blocks
func (c *Communicator) Isend(dest int, key types.MessageKey,
	data []float64) (r *Request, err error) {
	if err = c.checkRank(dest); err != nil {
		return
	}
	msg := make([]float64, len(data))
	copy(msg, data)
	c.world.p2p[dest].PostMessage(c.rank, key, msg)
	messagesTotal.WithLabelValues("p2p").Inc()
	valuesTotal.WithLabelValues("p2p").Add(float64(len(msg)))
	r = &Request{c: c, done: true, key: key}
	return
}

// Irecv posts a receive for the message keyed key from src, buf is filled
// when the request is waited on and must match the message length.
func (c *Communicator) Irecv(src int, key types.MessageKey,
	buf []float64) (r *Request, err error) {
	if err = c.checkRank(src); err != nil {
		return
	}
	r = &Request{c: c, recv: true, src: src, key: key, buf: buf}
	return
}

func (r *Request) Wait() (err error) {
	if r.done {
		return
	}
	var msg []float64
	if msg, err = r.c.world.p2p[r.c.rank].ReceiveMessage(r.c.ctx, r.src, r.key); err != nil {
		return
	}
	if len(msg) != len(r.buf) {
		return fmt.Errorf("%w: %s from rank %d: expected %d, got %d",
			ErrBufferSize, r.key, r.src, len(r.buf), len(msg))
	}
	copy(r.buf, msg)
	r.done = true
	return
}

// Waitall completes every request, it is the single barrier of a batch of
// posted messages.
func (c *Communicator) Waitall(reqs []*Request) (err error) {
	start := time.Now()
	defer func() { waitDuration.Observe(time.Since(start).Seconds()) }()
	for _, r := range reqs {
		if err = r.Wait(); err != nil {
			return
		}
	}
	return
}

// Package comm implements an in-process message passing group: each rank is
// a goroutine that owns a Communicator, ranks exchange data only through
// keyed non-blocking point to point messages and collectives.
package comm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAborted    = errors.New("communicator aborted")
	ErrBufferSize = errors.New("buffer size mismatch")
	ErrBadRank    = errors.New("rank out of range")
)

type collective struct {
	Ints   []int
	Floats []float64
}

// World is a fixed group of ranks sharing one set of mailboxes
type World struct {
	id   uuid.UUID
	size int
	p2p  []*MailBox[[]float64] // One for each rank
	coll []*MailBox[collective]
}

func NewWorld(size int) (w *World, err error) {
	if size < 1 {
		err = fmt.Errorf("world size must be positive, have %d", size)
		return
	}
	w = &World{
		id:   uuid.New(),
		size: size,
		p2p:  make([]*MailBox[[]float64], size),
		coll: make([]*MailBox[collective], size),
	}
	for n := 0; n < size; n++ {
		w.p2p[n] = NewMailBox[[]float64]()
		w.coll[n] = NewMailBox[collective]()
	}
	return
}

func (w *World) ID() uuid.UUID { return w.id }

func (w *World) Size() int { return w.size }

// Comm returns a Communicator for rank that is never cancelled. Only one
// Communicator per rank may be used, collectives are sequenced per
// Communicator.
func (w *World) Comm(rank int) *Communicator {
	if rank < 0 || rank >= w.size {
		panic(fmt.Errorf("%w: %d of %d", ErrBadRank, rank, w.size))
	}
	return w.newCommunicator(context.Background(), rank)
}

func (w *World) newCommunicator(ctx context.Context, rank int) *Communicator {
	return &Communicator{
		world: w,
		rank:  rank,
		ctx:   ctx,
	}
}

// Run executes fn once per rank, each on its own goroutine. The first error
// cancels the group so that ranks blocked waiting on the failed rank return
// ErrAborted instead of hanging.
func (w *World) Run(ctx context.Context, fn func(c *Communicator) error) error {
	g, gCtx := errgroup.WithContext(ctx)
	for rank := 0; rank < w.size; rank++ {
		c := w.newCommunicator(gCtx, rank)
		g.Go(func() error {
			if err := fn(c); err != nil {
				return fmt.Errorf("rank %d: %w", c.rank, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Pending is the number of posted point to point messages nobody received
func (w *World) Pending() (n int) {
	for _, mb := range w.p2p {
		n += mb.Pending()
	}
	return
}

package comm

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/patchgrid/types"
)

type Op uint8

const (
	OpSum Op = iota
	OpMax
	OpMin
)

func (op Op) String() string {
	switch op {
	case OpSum:
		return "sum"
	case OpMax:
		return "max"
	case OpMin:
		return "min"
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

func (c *Communicator) nextTag() types.MessageKey {
	c.seq++
	return types.MessageKey(c.seq)
}

func (c *Communicator) post(dest int, tag types.MessageKey, msg collective) {
	c.world.coll[dest].PostMessage(c.rank, tag, msg)
	messagesTotal.WithLabelValues("collective").Inc()
	valuesTotal.WithLabelValues("collective").Add(float64(len(msg.Ints) + len(msg.Floats)))
}

// allgather returns every rank's message indexed by rank
func (c *Communicator) allgather(msg collective) (out []collective, err error) {
	var (
		tag  = c.nextTag()
		size = c.world.size
	)
	for dest := 0; dest < size; dest++ {
		if dest != c.rank {
			c.post(dest, tag, msg)
		}
	}
	out = make([]collective, size)
	out[c.rank] = msg
	for src := 0; src < size; src++ {
		if src == c.rank {
			continue
		}
		if out[src], err = c.world.coll[c.rank].ReceiveMessage(c.ctx, src, tag); err != nil {
			return
		}
	}
	return
}

func (c *Communicator) Barrier() (err error) {
	_, err = c.allgather(collective{})
	return
}

func (c *Communicator) AllgatherInt(v int) (vals []int, err error) {
	var msgs []collective
	if msgs, err = c.allgather(collective{Ints: []int{v}}); err != nil {
		return
	}
	vals = make([]int, len(msgs))
	for i, m := range msgs {
		vals[i] = m.Ints[0]
	}
	return
}

func (c *Communicator) AllgatherFloat(v float64) (vals []float64, err error) {
	var msgs []collective
	if msgs, err = c.allgather(collective{Floats: []float64{v}}); err != nil {
		return
	}
	vals = make([]float64, len(msgs))
	for i, m := range msgs {
		vals[i] = m.Floats[0]
	}
	return
}

func (c *Communicator) AllreduceInt(v int, op Op) (result int, err error) {
	var vals []int
	if vals, err = c.AllgatherInt(v); err != nil {
		return
	}
	result = vals[0]
	for _, val := range vals[1:] {
		switch op {
		case OpSum:
			result += val
		case OpMax:
			result = max(result, val)
		case OpMin:
			result = min(result, val)
		default:
			err = fmt.Errorf("unsupported reduction %s", op)
			return
		}
	}
	return
}

func (c *Communicator) AllreduceFloat(v float64, op Op) (result float64, err error) {
	var vals []float64
	if vals, err = c.AllgatherFloat(v); err != nil {
		return
	}
	switch op {
	case OpSum:
		result = floats.Sum(vals)
	case OpMax:
		result = floats.Max(vals)
	case OpMin:
		result = floats.Min(vals)
	default:
		err = fmt.Errorf("unsupported reduction %s", op)
	}
	return
}

// AlltoallInts sends send[dest] to every rank dest (an absent entry sends an
// empty list) and returns the lists received, keyed by source rank. Ranks
// that sent nothing are absent from the result.
func (c *Communicator) AlltoallInts(send map[int][]int) (recv map[int][]int, err error) {
	var (
		tag  = c.nextTag()
		size = c.world.size
	)
	for dest := range send {
		if err = c.checkRank(dest); err != nil {
			return
		}
	}
	recv = make(map[int][]int)
	if vals := send[c.rank]; len(vals) != 0 {
		recv[c.rank] = append([]int(nil), vals...)
	}
	for dest := 0; dest < size; dest++ {
		if dest != c.rank {
			c.post(dest, tag, collective{Ints: append([]int(nil), send[dest]...)})
		}
	}
	for src := 0; src < size; src++ {
		if src == c.rank {
			continue
		}
		var msg collective
		if msg, err = c.world.coll[c.rank].ReceiveMessage(c.ctx, src, tag); err != nil {
			return
		}
		if len(msg.Ints) != 0 {
			recv[src] = msg.Ints
		}
	}
	return
}

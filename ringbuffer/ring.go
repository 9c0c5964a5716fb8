// Package ringbuffer provides a bounded FIFO ring connecting one producer with one consumer.
package ringbuffer

import (
	"errors"
	"sync/atomic"

	binutils "github.com/jfoster/binary-utilities"
	"github.com/pkg/math"
)

// Limits and defaults.
const (
	MinCapacity     = 4
	MaxCapacity     = 1 << 30
	DefaultCapacity = 256
)

// AlignCapacity adjusts ring capacity to a power of two between minimum and maximum.
// Optional arguments: minimum capacity, default capacity, maximum capacity.
// Default capacity is used if input is zero.
func AlignCapacity(capacity int, opts ...int) int {
	min, dflt, max := MinCapacity, DefaultCapacity, MaxCapacity
	switch len(opts) {
	case 0:
	case 1:
		min, dflt = opts[0], opts[0]
	case 2:
		min, dflt = opts[0], opts[1]
	case 3:
		min, dflt, max = opts[0], opts[1], opts[2]
	default:
		panic("unexpected opts count")
	}
	if dflt < min || dflt > max ||
		binutils.NextPowerOfTwo(int64(min)) != int64(min) ||
		binutils.NextPowerOfTwo(int64(dflt)) != int64(dflt) ||
		binutils.NextPowerOfTwo(int64(max)) != int64(max) {
		panic("invalid min, dflt, max")
	}

	if capacity <= 0 {
		capacity = dflt
	} else {
		capacity = int(binutils.NextPowerOfTwo(int64(capacity)))
	}
	return math.MinInt(math.MaxInt(min, capacity), max)
}

// ProducerMode indicates ring producer synchronization mode.
type ProducerMode int

// Ring producer synchronization modes.
const (
	ProducerSingle ProducerMode = iota
	ProducerMulti
)

// ConsumerMode indicates ring consumer synchronization mode.
type ConsumerMode int

// Ring consumer synchronization modes.
const (
	ConsumerSingle ConsumerMode = iota
	ConsumerMulti
)

// Ring is a bounded FIFO holding elements of type T.
// Enqueue and dequeue never block; they move as many elements as possible and
// report the count.
type Ring[T any] struct {
	name  string
	slots []T
	mask  uint64
	head  atomic.Uint64 // next slot to dequeue
	tail  atomic.Uint64 // next slot to enqueue
}

// New creates a Ring. Capacity is aligned with AlignCapacity.
// Only single-producer single-consumer synchronization is available: the data
// path has exactly one producer and one consumer per ring, so multi modes are
// rejected rather than emulated with locks.
func New[T any](name string, capacity int, pm ProducerMode, cm ConsumerMode) (*Ring[T], error) {
	if pm != ProducerSingle || cm != ConsumerSingle {
		return nil, errors.New("only single-producer single-consumer mode is supported")
	}
	capacity = AlignCapacity(capacity)
	return &Ring[T]{
		name:  name,
		slots: make([]T, capacity),
		mask:  uint64(capacity - 1),
	}, nil
}

func (r *Ring[T]) String() string {
	return r.name
}

// Capacity returns ring capacity.
func (r *Ring[T]) Capacity() int {
	return len(r.slots)
}

// CountAvailable returns free space.
func (r *Ring[T]) CountAvailable() int {
	return r.Capacity() - r.CountInUse()
}

// CountInUse returns used space.
func (r *Ring[T]) CountInUse() int {
	return int(r.tail.Load() - r.head.Load())
}

// EnqueueBurst enqueues up to len(objs) elements, returning the count enqueued.
// Caller must be the sole producer.
func (r *Ring[T]) EnqueueBurst(objs []T) int {
	tail := r.tail.Load()
	free := r.Capacity() - int(tail-r.head.Load())
	n := math.MinInt(len(objs), free)
	for i := 0; i < n; i++ {
		r.slots[(tail+uint64(i))&r.mask] = objs[i]
	}
	r.tail.Store(tail + uint64(n))
	return n
}

// DequeueBurst dequeues up to len(objs) elements into objs, returning the count dequeued.
// Caller must be the sole consumer.
func (r *Ring[T]) DequeueBurst(objs []T) int {
	head := r.head.Load()
	avail := int(r.tail.Load() - head)
	n := math.MinInt(len(objs), avail)
	var zero T
	for i := 0; i < n; i++ {
		idx := (head + uint64(i)) & r.mask
		objs[i] = r.slots[idx]
		r.slots[idx] = zero
	}
	r.head.Store(head + uint64(n))
	return n
}

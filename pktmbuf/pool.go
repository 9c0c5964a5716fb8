// Package pktmbuf implements pooled packet buffers with shared ownership and
// deferred reclamation.
package pktmbuf

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/packetio/l2fwd/core/logging"
	"github.com/packetio/l2fwd/eal"
	"go.uber.org/zap"
)

var logger = logging.New("pktmbuf")

// DefaultHeadroom is the default headroom of a packet buffer.
const DefaultHeadroom = 128

// Pool errors.
var (
	ErrDuplicateName = errors.New("pool name already exists")
	ErrInvalidSocket = errors.New("NUMA socket does not exist on this host")
	ErrExhausted     = errors.New("pool exhausted")
)

// PoolConfig contains Pool configuration.
type PoolConfig struct {
	Capacity  int // number of packet buffers
	CacheSize int // per-lcore cache size, 0 to disable
	Dataroom  int // buffer size including headroom
	PrivSize  int // private metadata area size
	Socket    eal.NumaSocket
}

func (cfg *PoolConfig) applyDefaults() {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 8191
	}
	if cfg.Dataroom <= 0 {
		cfg.Dataroom = DefaultHeadroom + 2048
	}
	if cfg.CacheSize < 0 {
		cfg.CacheSize = 0
	}
}

// ComputeCacheSize calculates an appropriate per-lcore cache size for given pool capacity.
func ComputeCacheSize(capacity int) int {
	const max = 512
	if capacity/16 < max {
		return capacity / 16
	}
	min := max / 4
	for i := max; i >= min; i-- {
		if capacity%i == 0 {
			return i
		}
	}
	return max
}

// Pool is a fixed-capacity arena of packet buffers.
// Buffers are shared with queues and, logically, with the hardware; the pool
// can only be reclaimed once every buffer has returned.
type Pool struct {
	name   string
	cfg    PoolConfig
	free   chan *Packet
	caches [][]*Packet // indexed by lcore ID; each slice touched only by its lcore
	inUse  atomic.Int32
	closed atomic.Bool
}

// NewPool creates a Pool.
// The name must be process-unique and the NUMA socket must exist; either
// violation is reported as an error, which callers treat as fatal.
func NewPool(name string, cfg PoolConfig) (*Pool, error) {
	cfg.applyDefaults()
	if !cfg.Socket.IsAny() && !numaSocketExists(cfg.Socket) {
		return nil, fmt.Errorf("pool %s: socket %s: %w", name, cfg.Socket, ErrInvalidSocket)
	}

	poolsMu.Lock()
	defer poolsMu.Unlock()
	collectLocked()
	if _, ok := pools[name]; ok {
		return nil, fmt.Errorf("pool %s: %w", name, ErrDuplicateName)
	}

	mp := &Pool{
		name: name,
		cfg:  cfg,
		free: make(chan *Packet, cfg.Capacity),
	}
	payload := make([]byte, cfg.Capacity*cfg.Dataroom)
	priv := make([]byte, cfg.Capacity*cfg.PrivSize)
	for i := 0; i < cfg.Capacity; i++ {
		mp.free <- &Packet{
			pool: mp,
			buf:  payload[i*cfg.Dataroom : (i+1)*cfg.Dataroom : (i+1)*cfg.Dataroom],
			priv: priv[i*cfg.PrivSize : (i+1)*cfg.PrivSize : (i+1)*cfg.PrivSize],
		}
	}
	if cfg.CacheSize > 0 {
		mp.caches = make([][]*Packet, eal.MaxLCoreID+1)
	}

	pools[name] = mp
	logger.Info("pool created",
		zap.String("name", name),
		zap.Int("capacity", cfg.Capacity),
		zap.Int("dataroom", cfg.Dataroom),
		zap.String("socket", cfg.Socket.String()),
	)
	return mp, nil
}

func (mp *Pool) String() string {
	return mp.name
}

// Dataroom returns buffer size of each packet buffer.
func (mp *Pool) Dataroom() int {
	return mp.cfg.Dataroom
}

// NumaSocket returns the pool's NUMA affinity.
func (mp *Pool) NumaSocket() eal.NumaSocket {
	return mp.cfg.Socket
}

// CountInUse returns number of allocated packet buffers.
func (mp *Pool) CountInUse() int {
	return int(mp.inUse.Load())
}

// CountAvailable returns number of available packet buffers.
func (mp *Pool) CountAvailable() int {
	return mp.cfg.Capacity - mp.CountInUse()
}

// Alloc allocates one packet buffer, or returns nil if the pool is exhausted.
func (mp *Pool) Alloc() *Packet {
	pkt := mp.cachePop()
	if pkt == nil {
		select {
		case pkt = <-mp.free:
		default:
			return nil
		}
	}
	mp.inUse.Add(1)
	pkt.reset()
	return pkt
}

// AllocBulk fills the remaining capacity of vec with newly allocated packet
// buffers. Allocation is all-or-nothing: on failure vec is unchanged and
// ErrExhausted is returned.
func (mp *Pool) AllocBulk(vec *Vector) error {
	want := cap(*vec) - len(*vec)
	for i := 0; i < want; i++ {
		pkt := mp.Alloc()
		if pkt == nil {
			for _, p := range (*vec)[len(*vec)-i:] {
				p.Close()
			}
			*vec = (*vec)[:cap(*vec)-want]
			return fmt.Errorf("bulk alloc %d from %s: %w", want, mp.name, ErrExhausted)
		}
		*vec = append(*vec, pkt)
	}
	return nil
}

// Close releases the pool.
// If buffers are still in flight (for example awaiting hardware transmit
// completion), reclamation is deferred: the pool joins a process-wide garbage
// list that is retried opportunistically and checked finally at Teardown.
func (mp *Pool) Close() error {
	if mp.closed.Swap(true) {
		return nil
	}
	poolsMu.Lock()
	defer poolsMu.Unlock()
	if mp.inUse.Load() == 0 {
		destroyLocked(mp)
		return nil
	}
	logger.Warn("pool has buffers in flight, reclamation deferred",
		zap.String("name", mp.name),
		zap.Int32("inUse", mp.inUse.Load()),
	)
	garbage.Add(mp)
	return nil
}

// release returns a packet buffer whose last owner dropped it.
func (mp *Pool) release(pkt *Packet) {
	if !mp.cachePush(pkt) {
		mp.free <- pkt
	}
	if mp.inUse.Add(-1) == 0 && mp.closed.Load() {
		CollectGarbage()
	}
}

func (mp *Pool) cachePop() *Packet {
	c := mp.cacheOf()
	if c == nil || len(*c) == 0 {
		return nil
	}
	pkt := (*c)[len(*c)-1]
	*c = (*c)[:len(*c)-1]
	return pkt
}

func (mp *Pool) cachePush(pkt *Packet) bool {
	c := mp.cacheOf()
	if c == nil || len(*c) >= mp.cfg.CacheSize {
		return false
	}
	*c = append(*c, pkt)
	return true
}

func (mp *Pool) cacheOf() *[]*Packet {
	if mp.caches == nil {
		return nil
	}
	lc := eal.CurrentLCore()
	if !lc.Valid() {
		return nil
	}
	c := &mp.caches[lc.ID()]
	if *c == nil {
		*c = make([]*Packet, 0, mp.cfg.CacheSize)
	}
	return c
}

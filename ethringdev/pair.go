package ethringdev

import (
	"fmt"

	"github.com/packetio/l2fwd/eal"
	"github.com/packetio/l2fwd/ethdev"
	"github.com/packetio/l2fwd/pktmbuf"
	"github.com/packetio/l2fwd/ringbuffer"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// PairConfig contains configuration for Pair.
type PairConfig struct {
	NQueues       int            // number of queues on each port
	RingCapacity  int            // ring capacity connecting the two ports
	QueueCapacity int            // queue capacity in each port
	Socket        eal.NumaSocket // where to allocate data structures
	RxPool        *pktmbuf.Pool  // mempool for packet reception
}

func (cfg *PairConfig) applyDefaults() {
	if cfg.NQueues <= 0 {
		cfg.NQueues = 1
	}
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = 1024
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 64
	}
}

// Pair represents a pair of cross-connected ports.
type Pair struct {
	cfg PairConfig

	PortA ethdev.EthDev
	PortB ethdev.EthDev

	ringsAB []*ring
	ringsBA []*ring
}

// NewPair creates a pair of connected ports.
func NewPair(cfg PairConfig) (*Pair, error) {
	cfg.applyDefaults()
	if cfg.RxPool == nil {
		panic("PairConfig.RxPool is missing")
	}

	pair := &Pair{cfg: cfg}
	id := eal.AllocObjectID("ethringdev.Pair")

	createRings := func(direction string) (rings []*ring, e error) {
		for i := 0; i < cfg.NQueues; i++ {
			name := fmt.Sprintf("%s%s%d", id, direction, i)
			r, e := ringbuffer.New[*pktmbuf.Packet](name, cfg.RingCapacity,
				ringbuffer.ProducerSingle, ringbuffer.ConsumerSingle)
			if e != nil {
				return nil, fmt.Errorf("ringbuffer.New(%s): %w", name, e)
			}
			rings = append(rings, r)
		}
		return rings, nil
	}
	var e error
	if pair.ringsAB, e = createRings("AB"); e != nil {
		return nil, e
	}
	if pair.ringsBA, e = createRings("BA"); e != nil {
		return nil, e
	}

	createPort := func(label string, rxRings, txRings []*ring) (ethdev.EthDev, error) {
		return ethdev.Register(newRingDev(id+label, rxRings, txRings, cfg.Socket))
	}
	if pair.PortA, e = createPort("A", pair.ringsBA, pair.ringsAB); e != nil {
		return nil, e
	}
	if pair.PortB, e = createPort("B", pair.ringsAB, pair.ringsBA); e != nil {
		return nil, e
	}
	logger.Info("pair created",
		zap.String("id", id),
		pair.PortA.ZapField("portA"),
		pair.PortB.ZapField("portB"),
		zap.Int("nQueues", cfg.NQueues),
	)
	return pair, nil
}

// EthDevConfig returns an ethdev Config suitable for either port of the pair.
func (pair *Pair) EthDevConfig() (cfg ethdev.Config) {
	cfg.AddRxQueues(pair.cfg.NQueues, ethdev.RxQueueConfig{
		Capacity: pair.cfg.QueueCapacity,
		Socket:   pair.cfg.Socket,
		RxPool:   pair.cfg.RxPool,
	})
	cfg.AddTxQueues(pair.cfg.NQueues, ethdev.TxQueueConfig{
		Capacity: pair.cfg.QueueCapacity,
		Socket:   pair.cfg.Socket,
	})
	return cfg
}

// Close closes both ports and completes in-flight packet buffers.
// Draining the connecting rings is the software analog of the hardware
// finishing transmission: every buffer still in flight returns to its pool.
func (pair *Pair) Close() error {
	var errs error
	if pair.PortA.Valid() {
		errs = multierr.Append(errs, pair.PortA.Close())
	}
	if pair.PortB.Valid() {
		errs = multierr.Append(errs, pair.PortB.Close())
	}
	var drained int
	drain := func(rings []*ring) {
		buf := make([]*pktmbuf.Packet, 64)
		for _, r := range rings {
			for {
				n := r.DequeueBurst(buf)
				if n == 0 {
					break
				}
				pktmbuf.Vector(buf[:n]).Close()
				drained += n
			}
		}
	}
	drain(pair.ringsAB)
	drain(pair.ringsBA)
	if drained > 0 {
		logger.Debug("completed in-flight packet buffers",
			pair.PortA.ZapField("portA"),
			pair.PortB.ZapField("portB"),
			zap.Int("count", drained),
		)
	}
	return errs
}

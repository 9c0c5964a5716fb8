package ethdev

import (
	"github.com/packetio/l2fwd/eal"
	"github.com/packetio/l2fwd/pktmbuf"
	"github.com/packetio/l2fwd/ringbuffer"
)

// Config contains port configuration.
// The number of RX/TX queues requested at Init is the length of the
// corresponding queue config list.
type Config struct {
	RxQueues []RxQueueConfig
	TxQueues []TxQueueConfig
	MTU      int // if non-zero, change MTU
}

// AddRxQueues adds RxQueueConfig for several queues.
func (cfg *Config) AddRxQueues(count int, qcfg RxQueueConfig) {
	for i := 0; i < count; i++ {
		cfg.RxQueues = append(cfg.RxQueues, qcfg)
	}
}

// AddTxQueues adds TxQueueConfig for several queues.
func (cfg *Config) AddTxQueues(count int, qcfg TxQueueConfig) {
	for i := 0; i < count; i++ {
		cfg.TxQueues = append(cfg.TxQueues, qcfg)
	}
}

func (cfg *Config) applyDefaults() {
	for i := range cfg.RxQueues {
		cfg.RxQueues[i].Capacity = ringbuffer.AlignCapacity(cfg.RxQueues[i].Capacity)
	}
	for i := range cfg.TxQueues {
		cfg.TxQueues[i].Capacity = ringbuffer.AlignCapacity(cfg.TxQueues[i].Capacity)
	}
}

// RxQueueConfig contains port RX queue configuration.
// Each RX queue is bound to exactly one pool.
type RxQueueConfig struct {
	Capacity int            // ring capacity
	Socket   eal.NumaSocket // where to allocate the ring
	RxPool   *pktmbuf.Pool  // where to store received packets
}

// TxQueueConfig contains port TX queue configuration.
// A TX queue accepts packet buffers from any pool.
type TxQueueConfig struct {
	Capacity int            // ring capacity
	Socket   eal.NumaSocket // where to allocate the ring
}

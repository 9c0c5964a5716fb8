// Package ethdev provides the port abstraction over the NIC I/O substrate:
// claim-once initialization into pool-bound RX/TX queues, device-level
// controls, and statistics with software-baseline fallback.
package ethdev

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/packetio/l2fwd/core/logging"
	"github.com/packetio/l2fwd/eal"
	"github.com/packetio/l2fwd/pktmbuf"
	"go.uber.org/zap"
)

var logger = logging.New("ethdev")

// MaxEthDevs is the maximum number of ports.
const MaxEthDevs = 32

// ErrAlreadyInUse indicates that a port was claimed twice.
var ErrAlreadyInUse = errors.New("port already in use")

// Device is the substrate driver contract behind a port.
// RxBurst and TxBurst must be non-blocking; they are called from exactly one
// consumer/producer per queue. A device whose hardware cannot reset statistics
// reports errors.ErrUnsupported from ResetStats.
type Device interface {
	Name() string
	MacAddr() net.HardwareAddr
	NumaSocket() eal.NumaSocket
	DevInfo() DevInfo

	Configure(cfg Config) error
	Start() error
	Stop() error
	Close() error
	SetPromiscuous(enable bool)
	IsDown() bool

	RxBurst(queue int, pkts []*pktmbuf.Packet) int
	TxBurst(queue int, pkts []*pktmbuf.Packet) int

	Stats() Stats
	ResetStats() error
}

// DevInfo describes device limits.
type DevInfo struct {
	MaxRxQueues          int
	MaxTxQueues          int
	DynamicQueueTeardown bool // whether queues can be dismantled while the port exists
}

type portState struct {
	dev       Device
	id        int
	claimed   atomic.Bool
	started   bool
	rxBusy    []atomic.Bool
	softStats bool
	statsBase Stats
}

var (
	ethdevMu sync.Mutex
	ethdevs  [MaxEthDevs]*portState
)

// Register adds a device to the port table and assigns a port ID.
func Register(dev Device) (EthDev, error) {
	ethdevMu.Lock()
	defer ethdevMu.Unlock()
	for id := range ethdevs {
		if ethdevs[id] == nil {
			ethdevs[id] = &portState{dev: dev, id: id}
			logger.Info("port registered",
				zap.Int("id", id),
				zap.String("name", dev.Name()),
			)
			return EthDev{id + 1}, nil
		}
	}
	return EthDev{}, errors.New("port table full")
}

// EthDev represents a port.
// Zero value is invalid.
type EthDev struct {
	v int // port ID + 1
}

// FromID converts port ID to EthDev.
func FromID(id int) EthDev {
	if id < 0 || id >= MaxEthDevs || ethdevs[id] == nil {
		return EthDev{}
	}
	return EthDev{id + 1}
}

// List returns registered ports in ID order.
func List() (list []EthDev) {
	ethdevMu.Lock()
	defer ethdevMu.Unlock()
	for id, st := range ethdevs {
		if st != nil {
			list = append(list, EthDev{id + 1})
		}
	}
	return list
}

// Find locates a port by device name.
func Find(name string) EthDev {
	for _, port := range List() {
		if port.Name() == name {
			return port
		}
	}
	return EthDev{}
}

// ID returns port ID.
func (port EthDev) ID() int {
	return port.v - 1
}

// Valid returns true if this is a valid port.
func (port EthDev) Valid() bool {
	return port.v != 0
}

func (port EthDev) String() string {
	if !port.Valid() {
		return "invalid"
	}
	return strconv.Itoa(port.ID())
}

// ZapField returns a zap.Field for logging.
func (port EthDev) ZapField(key string) zap.Field {
	return zap.String(key, port.String())
}

func (port EthDev) state() *portState {
	if !port.Valid() || ethdevs[port.ID()] == nil {
		logger.Panic("invalid port", zap.Int("id", port.v-1))
	}
	return ethdevs[port.ID()]
}

// Name returns device name.
func (port EthDev) Name() string {
	return port.state().dev.Name()
}

// NumaSocket returns the NUMA socket where this port is located.
func (port EthDev) NumaSocket() eal.NumaSocket {
	return port.state().dev.NumaSocket()
}

// MacAddr retrieves MAC address of this port.
func (port EthDev) MacAddr() net.HardwareAddr {
	return port.state().dev.MacAddr()
}

// DevInfo retrieves device limits.
func (port EthDev) DevInfo() DevInfo {
	return port.state().dev.DevInfo()
}

// IsDown determines whether this port's link is down.
func (port EthDev) IsDown() bool {
	return port.state().dev.IsDown()
}

// Init claims and configures the port, creating one pool-bound RX queue and
// one TX queue per configured index. A second claim fails with ErrAlreadyInUse.
// The statistics reset mode is probed here: if the device cannot reset
// hardware counters, a software baseline is captured instead and used for the
// port's lifetime.
func (port EthDev) Init(cfg Config) (rx []RxQueue, tx []TxQueue, e error) {
	st := port.state()
	if !st.claimed.CompareAndSwap(false, true) {
		return nil, nil, fmt.Errorf("port %s: %w", port, ErrAlreadyInUse)
	}
	defer func() {
		// a rejected configuration releases the claim for retry
		if e != nil {
			st.claimed.Store(false)
		}
	}()

	cfg.applyDefaults()
	info := st.dev.DevInfo()
	if info.MaxRxQueues > 0 && len(cfg.RxQueues) > info.MaxRxQueues {
		return nil, nil, fmt.Errorf("port %s: cannot add more than %d RX queues", port, info.MaxRxQueues)
	}
	if info.MaxTxQueues > 0 && len(cfg.TxQueues) > info.MaxTxQueues {
		return nil, nil, fmt.Errorf("port %s: cannot add more than %d TX queues", port, info.MaxTxQueues)
	}
	for i, qcfg := range cfg.RxQueues {
		if qcfg.RxPool == nil {
			return nil, nil, fmt.Errorf("port %s: RX queue %d has no pool", port, i)
		}
	}

	if e := st.dev.Configure(cfg); e != nil {
		return nil, nil, fmt.Errorf("port %s: configure: %w", port, e)
	}

	st.rxBusy = make([]atomic.Bool, len(cfg.RxQueues))
	for i := range cfg.RxQueues {
		rx = append(rx, RxQueue{Port: uint16(port.ID()), Queue: uint16(i)})
	}
	for i := range cfg.TxQueues {
		tx = append(tx, TxQueue{Port: uint16(port.ID()), Queue: uint16(i)})
	}

	if e := st.dev.ResetStats(); e != nil {
		st.softStats = true
		st.statsBase = st.dev.Stats()
		logger.Info("hardware stats reset unsupported, using software baseline",
			port.ZapField("port"), zap.Error(e))
	}
	return rx, tx, nil
}

// Start starts the device.
func (port EthDev) Start() error {
	st := port.state()
	if e := st.dev.Start(); e != nil {
		return fmt.Errorf("port %s: start: %w", port, e)
	}
	st.started = true
	return nil
}

// Stop stops the device.
func (port EthDev) Stop() error {
	st := port.state()
	st.started = false
	return st.dev.Stop()
}

// SetPromiscuous enables or disables promiscuous mode.
func (port EthDev) SetPromiscuous(enable bool) {
	port.state().dev.SetPromiscuous(enable)
}

// Stats retrieves port counters, consistent with the reset mode detected at Init.
func (port EthDev) Stats() Stats {
	st := port.state()
	if st.softStats {
		return st.dev.Stats().Sub(st.statsBase)
	}
	return st.dev.Stats()
}

// ResetStats clears port counters.
func (port EthDev) ResetStats() {
	st := port.state()
	if st.softStats {
		st.statsBase = st.dev.Stats()
		return
	}
	st.dev.ResetStats()
}

// Close stops and releases the port.
// Queues that the driver cannot dismantle dynamically are logged and left to
// the device teardown.
func (port EthDev) Close() error {
	st := port.state()
	if st.started {
		port.Stop()
	}
	if !st.dev.DevInfo().DynamicQueueTeardown {
		logger.Warn("driver cannot dismantle queues dynamically, deferring to device teardown",
			port.ZapField("port"))
	}
	e := st.dev.Close()
	ethdevMu.Lock()
	ethdevs[port.ID()] = nil
	ethdevMu.Unlock()
	return e
}

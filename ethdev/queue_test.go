package ethdev_test

import (
	"net"
	"testing"
	"time"

	"github.com/packetio/l2fwd/core/macaddr"
	"github.com/packetio/l2fwd/eal"
	"github.com/packetio/l2fwd/ethdev"
	"github.com/packetio/l2fwd/pktmbuf"
	"github.com/packetio/l2fwd/pktmbuf/mbuftestenv"
)

// slowDevice stalls inside RxBurst until released, keeping one consumer
// inside the queue while another attempts to poll it.
type slowDevice struct {
	mac     net.HardwareAddr
	entered chan struct{}
	release chan struct{}
}

func newSlowDevice() *slowDevice {
	return &slowDevice{
		mac:     macaddr.MakeRandom(false),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (dev *slowDevice) Name() string                  { return "slow0" }
func (dev *slowDevice) MacAddr() net.HardwareAddr     { return dev.mac }
func (dev *slowDevice) NumaSocket() eal.NumaSocket    { return eal.NumaSocket{} }
func (dev *slowDevice) Configure(ethdev.Config) error { return nil }
func (dev *slowDevice) Start() error                  { return nil }
func (dev *slowDevice) Stop() error                   { return nil }
func (dev *slowDevice) Close() error                  { return nil }
func (dev *slowDevice) SetPromiscuous(bool)           {}
func (dev *slowDevice) IsDown() bool                  { return false }
func (dev *slowDevice) Stats() ethdev.Stats           { return ethdev.Stats{} }
func (dev *slowDevice) ResetStats() error             { return nil }

func (dev *slowDevice) DevInfo() ethdev.DevInfo {
	return ethdev.DevInfo{MaxRxQueues: 1, MaxTxQueues: 1, DynamicQueueTeardown: true}
}

func (dev *slowDevice) RxBurst(queue int, pkts []*pktmbuf.Packet) int {
	close(dev.entered)
	<-dev.release
	return 0
}

func (dev *slowDevice) TxBurst(queue int, pkts []*pktmbuf.Packet) int {
	return len(pkts)
}

func TestRxSingleConsumer(t *testing.T) {
	assert, require := makeAR(t)

	dev := newSlowDevice()
	port, e := ethdev.Register(dev)
	require.NoError(e)
	defer port.Close()

	var cfg ethdev.Config
	cfg.AddRxQueues(1, ethdev.RxQueueConfig{RxPool: mbuftestenv.Direct.Pool()})
	cfg.AddTxQueues(1, ethdev.TxQueueConfig{})
	rx, _, e := port.Init(cfg)
	require.NoError(e)
	require.NoError(port.Start())

	done := make(chan struct{})
	go func() {
		defer close(done)
		vec := pktmbuf.MakeVector(4)
		rx[0].Rx(&vec)
	}()

	select {
	case <-dev.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("RxBurst never entered")
	}

	// second consumer on the same queue is a programming error
	assert.Panics(func() {
		vec := pktmbuf.MakeVector(4)
		rx[0].Rx(&vec)
	})

	close(dev.release)
	<-done
}

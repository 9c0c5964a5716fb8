// Package ethringdev implements ports backed by software rings, standing in
// for hardware NICs. A pair of such ports is cross-connected: packets
// transmitted on one become receivable on the other.
package ethringdev

import (
	"errors"
	"net"
	"sync/atomic"

	"github.com/packetio/l2fwd/core/logging"
	"github.com/packetio/l2fwd/core/macaddr"
	"github.com/packetio/l2fwd/eal"
	"github.com/packetio/l2fwd/ethdev"
	"github.com/packetio/l2fwd/pktmbuf"
	"github.com/packetio/l2fwd/ringbuffer"
)

var logger = logging.New("ethringdev")

type ring = ringbuffer.Ring[*pktmbuf.Packet]

type ringDev struct {
	name    string
	mac     net.HardwareAddr
	socket  eal.NumaSocket
	rx, tx  []*ring
	started atomic.Bool
	promisc atomic.Bool

	ipackets, ibytes atomic.Uint64
	opackets, obytes atomic.Uint64
}

func newRingDev(name string, rxRings, txRings []*ring, socket eal.NumaSocket) *ringDev {
	return &ringDev{
		name:   name,
		mac:    macaddr.MakeRandom(false),
		socket: socket,
		rx:     rxRings,
		tx:     txRings,
	}
}

func (dev *ringDev) Name() string {
	return dev.name
}

func (dev *ringDev) MacAddr() net.HardwareAddr {
	return dev.mac
}

func (dev *ringDev) NumaSocket() eal.NumaSocket {
	return dev.socket
}

func (dev *ringDev) DevInfo() ethdev.DevInfo {
	return ethdev.DevInfo{
		MaxRxQueues:          len(dev.rx),
		MaxTxQueues:          len(dev.tx),
		DynamicQueueTeardown: false,
	}
}

func (dev *ringDev) Configure(cfg ethdev.Config) error {
	// rings are created with the pair; queue capacity is fixed there
	return nil
}

func (dev *ringDev) Start() error {
	dev.started.Store(true)
	return nil
}

func (dev *ringDev) Stop() error {
	dev.started.Store(false)
	return nil
}

func (dev *ringDev) Close() error {
	return nil
}

func (dev *ringDev) SetPromiscuous(enable bool) {
	dev.promisc.Store(enable)
}

func (dev *ringDev) IsDown() bool {
	return !dev.started.Load()
}

func (dev *ringDev) RxBurst(queue int, pkts []*pktmbuf.Packet) int {
	if !dev.started.Load() {
		return 0
	}
	n := dev.rx[queue].DequeueBurst(pkts)
	var octets uint64
	for _, pkt := range pkts[:n] {
		octets += uint64(pkt.Len())
	}
	dev.ipackets.Add(uint64(n))
	dev.ibytes.Add(octets)
	return n
}

func (dev *ringDev) TxBurst(queue int, pkts []*pktmbuf.Packet) int {
	if !dev.started.Load() {
		return 0
	}
	n := dev.tx[queue].EnqueueBurst(pkts)
	var octets uint64
	for _, pkt := range pkts[:n] {
		octets += uint64(pkt.Len())
	}
	dev.opackets.Add(uint64(n))
	dev.obytes.Add(octets)
	return n
}

func (dev *ringDev) Stats() ethdev.Stats {
	return ethdev.Stats{
		Ipackets: dev.ipackets.Load(),
		Ibytes:   dev.ibytes.Load(),
		Opackets: dev.opackets.Load(),
		Obytes:   dev.obytes.Load(),
	}
}

// ResetStats reports that the device has no hardware counter reset, causing
// the port layer to fall back to a software baseline.
func (dev *ringDev) ResetStats() error {
	return errors.ErrUnsupported
}

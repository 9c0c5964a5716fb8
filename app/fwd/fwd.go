// Package fwd implements the forwarding dataplane: port pairing, lcore work
// assignment, and the per-lcore forwarding worker.
package fwd

import (
	"net"

	"github.com/packetio/l2fwd/core/logging"
	"github.com/packetio/l2fwd/core/macaddr"
	"github.com/packetio/l2fwd/eal"
	"github.com/packetio/l2fwd/ethdev"
)

var logger = logging.New("fwd")

// PortQueues is an initialized port with its forwarding queues.
type PortQueues struct {
	Port ethdev.EthDev
	Rx   ethdev.RxQueue
	Tx   ethdev.TxQueue
}

// Desc directs traffic from one RX queue to one TX queue.
// MAC addresses for the header rewrite are captured once at pairing time:
// the source becomes the egress port's address and the destination is a
// placeholder synthesized from the egress port ID.
type Desc struct {
	Rx     ethdev.RxQueue
	Tx     ethdev.TxQueue
	SrcMAC net.HardwareAddr
	DstMAC net.HardwareAddr

	srcPort, dstPort ethdev.EthDev
}

func makeDesc(src, dst PortQueues) Desc {
	return Desc{
		Rx:      src.Rx,
		Tx:      dst.Tx,
		SrcMAC:  dst.Port.MacAddr(),
		DstMAC:  macaddr.Placeholder(dst.Port.ID()),
		srcPort: src.Port,
		dstPort: dst.Port,
	}
}

// PairPorts pairs ports in discovery order: port[2i] forwards to port[2i+1]
// and vice versa. A leftover unpaired port forwards to itself.
func PairPorts(ports []PortQueues) (descs []Desc) {
	for i := 0; i+1 < len(ports); i += 2 {
		descs = append(descs,
			makeDesc(ports[i], ports[i+1]),
			makeDesc(ports[i+1], ports[i]),
		)
	}
	if len(ports)%2 == 1 {
		last := ports[len(ports)-1]
		logger.Warn("odd number of ports, last one will forward to itself",
			last.Port.ZapField("port"))
		descs = append(descs, makeDesc(last, last))
	}
	return descs
}

// Assignment maps one lcore to its forwarding descriptors.
type Assignment struct {
	LCore eal.LCore
	Descs []Desc
}

// AssignWork distributes descriptors across lcores in chunks of queuesPerLCore,
// round-robin in enumeration order. When more chunks exist than lcores, the
// excess is appended to the last lcore's list rather than rejected.
func AssignWork(lcores []eal.LCore, descs []Desc, queuesPerLCore int) (assignments []Assignment) {
	if queuesPerLCore <= 0 {
		queuesPerLCore = 1
	}
	if len(lcores) == 0 {
		return nil
	}
	for off := 0; off < len(descs); off += queuesPerLCore {
		if len(assignments) == len(lcores) {
			logger.Warn("not enough lcores, last one will have more queues")
			last := &assignments[len(assignments)-1]
			last.Descs = descs[off-len(last.Descs):]
			break
		}
		assignments = append(assignments, Assignment{
			LCore: lcores[len(assignments)],
			Descs: descs[off:min(off+queuesPerLCore, len(descs))],
		})
	}
	return assignments
}

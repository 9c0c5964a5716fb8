package ethdev

import (
	"github.com/packetio/l2fwd/pktmbuf"
)

// TxBuffer stages owned packet buffers to amortize per-submission hardware
// cost. It is owned by exactly one forwarding worker and is not safe for
// concurrent use.
type TxBuffer struct {
	vec pktmbuf.Vector
}

// NewTxBuffer creates a TxBuffer holding up to capacity packet buffers.
func NewTxBuffer(capacity int) *TxBuffer {
	return &TxBuffer{vec: pktmbuf.MakeVector(capacity)}
}

// Len returns the number of staged packet buffers.
func (b *TxBuffer) Len() int {
	return len(b.vec)
}

// Capacity returns the staging capacity.
func (b *TxBuffer) Capacity() int {
	return cap(b.vec)
}

// Tx stages one packet buffer, taking ownership. When the buffer becomes full
// it is immediately flushed; see Flush for the returned values and the
// disposal obligation on unsent.
func (b *TxBuffer) Tx(q TxQueue, pkt *pktmbuf.Packet) (sent int, unsent pktmbuf.Vector) {
	b.vec = append(b.vec, pkt)
	if len(b.vec) == cap(b.vec) {
		return b.Flush(q)
	}
	return 0, nil
}

// Flush submits the full staged batch through the queue. It is a no-op on an
// empty buffer. Returns the count accepted by hardware and, if the hardware
// ring was full, the unsent remainder in submission order.
//
// Every unsent packet buffer must be disposed exactly once — released or
// requeued — before new buffers are staged: the returned vector shares storage
// with the staging area.
func (b *TxBuffer) Flush(q TxQueue) (sent int, unsent pktmbuf.Vector) {
	staged := len(b.vec)
	if staged == 0 {
		return 0, nil
	}
	sent = q.Tx(&b.vec)
	if len(b.vec) == 0 {
		return sent, nil
	}
	unsent = b.vec
	b.vec = b.vec[:0]
	return sent, unsent
}

package ethdev

import (
	"github.com/packetio/l2fwd/pktmbuf"
	"go.uber.org/zap"
)

// RxQueue represents an RX queue.
// It is single-consumer: concurrent polling is a programming error and is
// rejected by a run-time guard.
type RxQueue struct {
	Port  uint16
	Queue uint16
}

// Rx polls the queue, appending newly received packet buffers at the tail of
// vec up to its remaining capacity. It never blocks; absence of traffic yields
// zero. Returns the count received.
func (q RxQueue) Rx(vec *pktmbuf.Vector) int {
	st := EthDev{int(q.Port) + 1}.state()
	room := cap(*vec) - len(*vec)
	if room == 0 {
		return 0
	}
	if !st.rxBusy[q.Queue].CompareAndSwap(false, true) {
		logger.Panic("concurrent poll on single-consumer RX queue",
			zap.Uint16("port", q.Port), zap.Uint16("queue", q.Queue))
	}
	n := st.dev.RxBurst(int(q.Queue), (*vec)[len(*vec):len(*vec)+room])
	st.rxBusy[q.Queue].Store(false)
	*vec = (*vec)[:len(*vec)+n]
	return n
}

// TxQueue represents a TX queue.
type TxQueue struct {
	Port  uint16
	Queue uint16
}

// Tx hands the staged packet buffers to the hardware ring and returns the
// count accepted. Accepted buffers are transferred to hardware and released
// asynchronously upon transmit completion; the caller must not touch them
// again. The unaccepted remainder is compacted to the front of vec in
// submission order, for the caller to retry.
func (q TxQueue) Tx(vec *pktmbuf.Vector) int {
	st := EthDev{int(q.Port) + 1}.state()
	n := len(*vec)
	if n == 0 {
		return 0
	}
	sent := st.dev.TxBurst(int(q.Queue), *vec)
	rem := n - sent
	copy(*vec, (*vec)[sent:n])
	for i := rem; i < n; i++ {
		(*vec)[i] = nil
	}
	*vec = (*vec)[:rem]
	return sent
}

// TxCloned transmits the packet buffers while leaving the caller's copies
// valid: reference counts are incremented before submission, and the clones
// hardware did not accept are released. vec itself is unchanged.
func (q TxQueue) TxCloned(vec pktmbuf.Vector) int {
	st := EthDev{int(q.Port) + 1}.state()
	if len(vec) == 0 {
		return 0
	}
	for _, pkt := range vec {
		pkt.Ref()
	}
	sent := st.dev.TxBurst(int(q.Queue), vec)
	for _, pkt := range vec[sent:] {
		pkt.Close()
	}
	return sent
}

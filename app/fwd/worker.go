package fwd

import (
	"sync/atomic"
	"time"

	"github.com/packetio/l2fwd/eal"
	"github.com/packetio/l2fwd/ethdev"
	"github.com/packetio/l2fwd/pktmbuf"
	"go.uber.org/zap"
)

const (
	// MaxPktBurst is the RX poll burst size and TX staging capacity.
	MaxPktBurst = 32

	// DrainInterval bounds how long a staged batch may wait before a forced
	// flush, trading a few microseconds of staleness for amortized submission.
	DrainInterval = 100 * time.Microsecond

	// shortFrameLogInterval limits the short-frame diagnostic to every Nth
	// occurrence, keeping the hot loop out of the logger.
	shortFrameLogInterval = 1024
)

// Counters is a snapshot of one worker's packet counters.
type Counters struct {
	Received    uint64 `json:"received"`
	Sent        uint64 `json:"sent"`
	Dropped     uint64 `json:"dropped"`
	ShortFrames uint64 `json:"shortFrames"`
}

// Worker runs the forwarding loop for a fixed list of descriptors on one lcore.
// It has a single running state and loops until Stop; the data path itself
// never blocks and never takes a lock.
type Worker struct {
	lc     eal.LCore
	descs  []Desc
	txBufs []*ethdev.TxBuffer
	rxVecs []pktmbuf.Vector

	drainTsc int64
	tscNow   func() eal.TscTime
	prevTsc  eal.TscTime

	stop chan struct{}

	received atomic.Uint64
	sent     atomic.Uint64
	dropped  atomic.Uint64

	shortFrames atomic.Uint64
}

// NewWorker creates a Worker for the given lcore and descriptors.
func NewWorker(lc eal.LCore, descs []Desc) *Worker {
	w := &Worker{
		lc:       lc,
		descs:    descs,
		drainTsc: eal.ToTscDuration(DrainInterval),
		tscNow:   eal.TscNow,
		stop:     make(chan struct{}),
	}
	for range descs {
		w.txBufs = append(w.txBufs, ethdev.NewTxBuffer(MaxPktBurst))
		w.rxVecs = append(w.rxVecs, pktmbuf.MakeVector(MaxPktBurst))
	}
	return w
}

// LCore returns the assigned lcore.
func (w *Worker) LCore() eal.LCore {
	return w.lc
}

// Counters returns a snapshot of the worker's counters.
func (w *Worker) Counters() Counters {
	return Counters{
		Received:    w.received.Load(),
		Sent:        w.sent.Load(),
		Dropped:     w.dropped.Load(),
		ShortFrames: w.shortFrames.Load(),
	}
}

// Launch starts the forwarding loop on the worker's lcore.
func (w *Worker) Launch() bool {
	return w.lc.RemoteLaunch(w.main)
}

// Stop signals the loop to exit and waits for it. Staged packets are flushed
// on the way out. The loop itself has no termination path; stopping exists
// for process teardown and tests only.
func (w *Worker) Stop() {
	close(w.stop)
	w.lc.Wait()
}

func (w *Worker) main() int {
	logger.Info("entering forwarding loop",
		w.lc.ZapField("lc"),
		zap.Int("descs", len(w.descs)),
	)
	for _, d := range w.descs {
		logger.Info("forwarding",
			w.lc.ZapField("lc"),
			d.srcPort.ZapField("srcPort"),
			d.dstPort.ZapField("dstPort"),
		)
	}

	w.prevTsc = w.tscNow()
	for {
		select {
		case <-w.stop:
			w.flushAll()
			return 0
		default:
		}
		w.iteration(w.tscNow())
	}
}

// iteration performs one pass: a drain check bounding latency for low-traffic
// flows, then an RX burst, rewrite and staged TX per descriptor.
func (w *Worker) iteration(now eal.TscTime) {
	if int64(now-w.prevTsc) > w.drainTsc {
		w.flushAll()
		w.prevTsc = now
	}

	for i := range w.descs {
		d := &w.descs[i]
		vec := w.rxVecs[i][:0]
		if d.Rx.Rx(&vec) == 0 {
			continue
		}
		w.received.Add(uint64(len(vec)))

		for _, pkt := range vec {
			if !RewriteMacs(pkt.Data(), d.SrcMAC, d.DstMAC) {
				// log every Nth occurrence; the frame is forwarded unmodified
				if n := w.shortFrames.Add(1); n%shortFrameLogInterval == 1 {
					logger.Warn("frame too short for header rewrite, forwarding unmodified",
						w.lc.ZapField("lc"), d.srcPort.ZapField("srcPort"),
						zap.Uint64("total", n))
				}
			}
			sent, unsent := w.txBufs[i].Tx(d.Tx, pkt)
			w.account(sent, unsent)
		}
	}
}

func (w *Worker) flushAll() {
	for i := range w.descs {
		sent, unsent := w.txBufs[i].Flush(w.descs[i].Tx)
		w.account(sent, unsent)
	}
}

// account records a flush outcome; the unsent remainder is dropped, which is
// its exactly-once disposal.
func (w *Worker) account(sent int, unsent pktmbuf.Vector) {
	w.sent.Add(uint64(sent))
	if len(unsent) > 0 {
		w.dropped.Add(uint64(len(unsent)))
		unsent.Close()
	}
}

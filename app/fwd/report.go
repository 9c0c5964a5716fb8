package fwd

import (
	"time"

	"github.com/packetio/l2fwd/ethdev"
	"go.uber.org/zap"
)

// MaxStatsPeriod caps the statistics refresh period.
const MaxStatsPeriod = 24*time.Hour - time.Second

// ReporterConfig configures a Reporter.
type ReporterConfig struct {
	// Period between reports. Zero disables reporting; values beyond
	// MaxStatsPeriod are clamped.
	Period time.Duration

	Ports   []ethdev.EthDev
	Workers []*Worker
}

func (cfg *ReporterConfig) applyDefaults() {
	if cfg.Period > MaxStatsPeriod {
		cfg.Period = MaxStatsPeriod
	}
}

// Reporter periodically logs port and worker statistics.
type Reporter struct {
	cfg  ReporterConfig
	stop chan struct{}
	done chan struct{}
}

// NewReporter creates a Reporter.
func NewReporter(cfg ReporterConfig) *Reporter {
	cfg.applyDefaults()
	return &Reporter{
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start launches the reporting loop, unless reporting is disabled.
func (r *Reporter) Start() {
	if r.cfg.Period <= 0 {
		close(r.done)
		return
	}
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.cfg.Period)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.report()
			}
		}
	}()
}

// Stop terminates the reporting loop and emits one final report.
func (r *Reporter) Stop() {
	close(r.stop)
	<-r.done
	if r.cfg.Period > 0 {
		r.report()
	}
}

func (r *Reporter) report() {
	for _, port := range r.cfg.Ports {
		es := port.Stats()
		logger.Info("port stats",
			port.ZapField("port"),
			zap.Uint64("rxPackets", es.Ipackets),
			zap.Uint64("rxBytes", es.Ibytes),
			zap.Uint64("rxMissed", es.Imissed),
			zap.Uint64("rxErrors", es.Ierrors),
			zap.Uint64("txPackets", es.Opackets),
			zap.Uint64("txBytes", es.Obytes),
			zap.Uint64("txErrors", es.Oerrors),
		)
	}
	var total Counters
	for _, w := range r.cfg.Workers {
		cnt := w.Counters()
		total.Received += cnt.Received
		total.Sent += cnt.Sent
		total.Dropped += cnt.Dropped
		total.ShortFrames += cnt.ShortFrames
	}
	logger.Info("forwarding stats",
		zap.Uint64("received", total.Received),
		zap.Uint64("sent", total.Sent),
		zap.Uint64("dropped", total.Dropped),
		zap.Uint64("shortFrames", total.ShortFrames),
	)
}

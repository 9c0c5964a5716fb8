package fwd

import (
	"strconv"

	"github.com/packetio/l2fwd/ethdev"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	portRxPacketsDesc = prometheus.NewDesc("l2fwd_port_rx_packets_total",
		"Packets received on a port.", []string{"port"}, nil)
	portTxPacketsDesc = prometheus.NewDesc("l2fwd_port_tx_packets_total",
		"Packets transmitted on a port.", []string{"port"}, nil)
	portRxBytesDesc = prometheus.NewDesc("l2fwd_port_rx_bytes_total",
		"Octets received on a port.", []string{"port"}, nil)
	portTxBytesDesc = prometheus.NewDesc("l2fwd_port_tx_bytes_total",
		"Octets transmitted on a port.", []string{"port"}, nil)
	workerSentDesc = prometheus.NewDesc("l2fwd_worker_sent_packets_total",
		"Packets forwarded by a worker.", []string{"lcore"}, nil)
	workerDroppedDesc = prometheus.NewDesc("l2fwd_worker_dropped_packets_total",
		"Packets dropped by a worker on full hardware rings.", []string{"lcore"}, nil)
	workerShortFramesDesc = prometheus.NewDesc("l2fwd_worker_short_frames_total",
		"Frames too short for the header rewrite, forwarded unmodified.", []string{"lcore"}, nil)
)

// Collector exposes port and worker counters as Prometheus metrics.
type Collector struct {
	Ports   []ethdev.EthDev
	Workers []*Worker
}

var _ prometheus.Collector = Collector{}

// Describe implements prometheus.Collector.
func (c Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- portRxPacketsDesc
	ch <- portTxPacketsDesc
	ch <- portRxBytesDesc
	ch <- portTxBytesDesc
	ch <- workerSentDesc
	ch <- workerDroppedDesc
	ch <- workerShortFramesDesc
}

// Collect implements prometheus.Collector.
func (c Collector) Collect(ch chan<- prometheus.Metric) {
	for _, port := range c.Ports {
		es := port.Stats()
		label := port.String()
		ch <- prometheus.MustNewConstMetric(portRxPacketsDesc, prometheus.CounterValue, float64(es.Ipackets), label)
		ch <- prometheus.MustNewConstMetric(portTxPacketsDesc, prometheus.CounterValue, float64(es.Opackets), label)
		ch <- prometheus.MustNewConstMetric(portRxBytesDesc, prometheus.CounterValue, float64(es.Ibytes), label)
		ch <- prometheus.MustNewConstMetric(portTxBytesDesc, prometheus.CounterValue, float64(es.Obytes), label)
	}
	for _, w := range c.Workers {
		cnt := w.Counters()
		label := strconv.Itoa(w.LCore().ID())
		ch <- prometheus.MustNewConstMetric(workerSentDesc, prometheus.CounterValue, float64(cnt.Sent), label)
		ch <- prometheus.MustNewConstMetric(workerDroppedDesc, prometheus.CounterValue, float64(cnt.Dropped), label)
		ch <- prometheus.MustNewConstMetric(workerShortFramesDesc, prometheus.CounterValue, float64(cnt.ShortFrames), label)
	}
}

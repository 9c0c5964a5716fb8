// Command l2fwd forwards Ethernet frames between pairs of ports, rewriting
// the MAC header on each forwarded frame.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/packetio/l2fwd/app/fwd"
	"github.com/packetio/l2fwd/eal"
	"github.com/packetio/l2fwd/ethdev"
	"github.com/packetio/l2fwd/ethringdev"
	"github.com/packetio/l2fwd/pktmbuf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

var interrupt = make(chan os.Signal, 1)

func parsePortmask(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	mask, e := strconv.ParseUint(s, 16, 64)
	if e != nil {
		return 0, fmt.Errorf("bad portmask %q: %w", s, e)
	}
	return mask, nil
}

var app = &cli.App{
	Usage: "L2 forwarding between pairs of ring-connected ports.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "portmask",
			Aliases: []string{"p"},
			Usage:   "hexadecimal `bitmask` of enabled ports (default: all)",
		},
		&cli.IntFlag{
			Name:    "queues-per-core",
			Aliases: []string{"q"},
			Value:   1,
			Usage:   "`number` of RX queues served by each lcore",
		},
		&cli.DurationFlag{
			Name:    "stats-period",
			Aliases: []string{"T"},
			Value:   10 * time.Second,
			Usage:   "`period` between statistics reports (0 disables)",
		},
		&cli.IntSliceFlag{
			Name:  "cores",
			Usage: "usable CPU `IDs`; first one becomes the main lcore (default: all)",
		},
		&cli.IntFlag{
			Name:  "pairs",
			Value: 1,
			Usage: "`number` of cross-connected port pairs to create",
		},
		&cli.StringFlag{
			Name:  "metrics",
			Usage: "`address` to serve Prometheus metrics on (empty disables)",
		},
	},
	Action: run,
}

func run(c *cli.Context) error {
	if e := eal.Init(eal.Config{Cores: c.IntSlice("cores")}); e != nil {
		return cli.Exit(e, 1)
	}

	defer pktmbuf.Teardown()
	mp, e := pktmbuf.NewPool("MBUF_POOL", pktmbuf.PoolConfig{})
	if e != nil {
		return cli.Exit(e, 1)
	}
	defer mp.Close()

	var pairs []*ethringdev.Pair
	defer func() {
		for _, pair := range pairs {
			pair.Close()
		}
	}()
	cfgs := map[int]ethdev.Config{}
	for i := 0; i < c.Int("pairs"); i++ {
		pair, e := ethringdev.NewPair(ethringdev.PairConfig{RxPool: mp})
		if e != nil {
			return cli.Exit(e, 1)
		}
		pairs = append(pairs, pair)
		cfgs[pair.PortA.ID()] = pair.EthDevConfig()
		cfgs[pair.PortB.ID()] = pair.EthDevConfig()
	}

	mask := ^uint64(0)
	if s := c.String("portmask"); s != "" {
		if mask, e = parsePortmask(s); e != nil {
			return cli.Exit(e, 1)
		}
	}

	var ports []fwd.PortQueues
	var enabled []ethdev.EthDev
	for _, port := range ethdev.List() {
		if mask&(1<<uint(port.ID())) == 0 {
			continue
		}
		rx, tx, e := port.Init(cfgs[port.ID()])
		if e != nil {
			return cli.Exit(fmt.Errorf("%s init: %w", port, e), 1)
		}
		port.SetPromiscuous(true)
		if e := port.Start(); e != nil {
			return cli.Exit(fmt.Errorf("%s start: %w", port, e), 1)
		}
		ports = append(ports, fwd.PortQueues{Port: port, Rx: rx[0], Tx: tx[0]})
		enabled = append(enabled, port)
	}
	if len(ports) == 0 {
		return cli.Exit(errors.New("no ports enabled by portmask"), 1)
	}

	lcores := eal.Workers
	if len(lcores) == 0 {
		lcores = []eal.LCore{eal.MainLCore}
	}
	descs := fwd.PairPorts(ports)
	assignments := fwd.AssignWork(lcores, descs, c.Int("queues-per-core"))

	var workers []*fwd.Worker
	for _, a := range assignments {
		w := fwd.NewWorker(a.LCore, a.Descs)
		if !w.Launch() {
			return cli.Exit(fmt.Errorf("cannot launch worker on %s", a.LCore), 1)
		}
		workers = append(workers, w)
	}

	reporter := fwd.NewReporter(fwd.ReporterConfig{
		Period:  c.Duration("stats-period"),
		Ports:   enabled,
		Workers: workers,
	})
	reporter.Start()

	if addr := c.String("metrics"); addr != "" {
		prometheus.MustRegister(fwd.Collector{Ports: enabled, Workers: workers})
		go func() {
			if e := http.ListenAndServe(addr, promhttp.Handler()); e != nil {
				fmt.Fprintln(os.Stderr, e)
			}
		}()
	}

	<-interrupt
	for _, w := range workers {
		w.Stop()
	}
	reporter.Stop()
	return nil
}

func main() {
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	if e := app.Run(os.Args); e != nil {
		fmt.Fprintln(os.Stderr, e)
		os.Exit(1)
	}
}

// Package eal exposes the process runtime consumed by the forwarding engine:
// the set of usable logical cores, a monotonic cycle counter, and NUMA topology.
// Bootstrap (driver loading, core enumeration) is performed by the process
// entry point; this package only holds its results.
package eal

import (
	"errors"
	"runtime"
	"sort"

	"github.com/packetio/l2fwd/core/logging"
	"go.uber.org/zap"
)

var logger = logging.New("eal")

// ErrInitialized indicates that Init was called more than once.
var ErrInitialized = errors.New("eal already initialized")

// Runtime variables, available after Init().
var (
	// MainLCore is the lcore running the process entry point.
	MainLCore LCore
	// Workers are lcores available for forwarding workers.
	Workers []LCore
	// Sockets are NUMA sockets of worker lcores, deduplicated.
	Sockets []NumaSocket
)

var initialized bool

// Config selects the lcores used by this process.
type Config struct {
	// Cores lists usable CPU IDs. First entry becomes the main lcore.
	// Empty list selects all online CPUs.
	Cores []int
}

// Init initializes the runtime.
// The calling goroutine becomes the main lcore and is locked to its OS thread.
func Init(cfg Config) error {
	if initialized {
		return ErrInitialized
	}

	cores := cfg.Cores
	if len(cores) == 0 {
		for i := 0; i < runtime.NumCPU() && i <= MaxLCoreID; i++ {
			cores = append(cores, i)
		}
	}
	for _, id := range cores {
		if id < 0 || id > MaxLCoreID {
			return errors.New("lcore ID out of range")
		}
	}

	MainLCore = LCoreFromID(cores[0])
	Workers = nil
	for _, id := range cores[1:] {
		Workers = append(Workers, LCoreFromID(id))
	}

	runtime.LockOSThread()
	if e := setAffinity(MainLCore.ID()); e != nil {
		logger.Warn("cannot pin main lcore", MainLCore.ZapField("lc"), zap.Error(e))
	}
	if tid := threadID(); tid >= 0 {
		curLCore.Store(tid, MainLCore)
	}

	seen := map[int]bool{}
	for _, lc := range Workers {
		if socket := lc.NumaSocket(); !socket.IsAny() && !seen[socket.ID()] {
			seen[socket.ID()] = true
			Sockets = append(Sockets, socket)
		}
	}
	sort.Slice(Sockets, func(i, j int) bool { return Sockets[i].v < Sockets[j].v })

	initialized = true
	logger.Info("runtime initialized",
		MainLCore.ZapField("main"),
		zap.Int("workers", len(Workers)),
		zap.Int("sockets", len(Sockets)),
	)
	return nil
}

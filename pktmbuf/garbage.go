package pktmbuf

import (
	"os"
	"strconv"
	"sync"

	"github.com/eapache/queue"
	"github.com/packetio/l2fwd/eal"
	"go.uber.org/zap"
)

// Process-wide pool registry and deferred-reclamation list.
// Guarded by one mutex, touched only on pool creation/destruction — never on
// the per-packet path.
var (
	poolsMu sync.Mutex
	pools   = map[string]*Pool{}
	garbage = queue.New()
)

// CollectGarbage retries reclamation of closed pools that still had buffers in
// flight. It is invoked opportunistically on pool creation, on the last buffer
// release into a closed pool, and at Teardown.
func CollectGarbage() {
	poolsMu.Lock()
	defer poolsMu.Unlock()
	collectLocked()
}

func collectLocked() {
	for i := garbage.Length(); i > 0; i-- {
		mp := garbage.Remove().(*Pool)
		if mp.inUse.Load() == 0 {
			destroyLocked(mp)
		} else {
			garbage.Add(mp)
		}
	}
}

func destroyLocked(mp *Pool) {
	delete(pools, mp.name)
	logger.Info("pool destroyed", zap.String("name", mp.name))
}

// Teardown runs a final reclamation pass.
// A pool that still cannot be reclaimed at process teardown means buffers
// leaked or hardware never completed; this is a fatal invariant violation.
func Teardown() {
	poolsMu.Lock()
	defer poolsMu.Unlock()
	collectLocked()
	if n := garbage.Length(); n > 0 {
		names := make([]string, 0, n)
		for i := 0; i < n; i++ {
			mp := garbage.Remove().(*Pool)
			names = append(names, mp.name+"("+strconv.Itoa(mp.CountInUse())+" in flight)")
			garbage.Add(mp)
		}
		logger.Panic("packet buffer pools unreclaimed at teardown", zap.Strings("pools", names))
	}
}

// numaSocketExists reports whether the NUMA node is present on this host.
// Hosts without exposed NUMA topology accept any socket.
func numaSocketExists(socket eal.NumaSocket) bool {
	if _, e := os.Stat("/sys/devices/system/node"); e != nil {
		return true
	}
	_, e := os.Stat("/sys/devices/system/node/node" + strconv.Itoa(socket.ID()))
	return e == nil
}

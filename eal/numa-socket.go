package eal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// MaxNumaNodes is the maximum NUMA socket ID plus one.
const MaxNumaNodes = 32

// NumaSocket represents a NUMA socket.
// Zero value is "any socket".
type NumaSocket struct {
	v int // socket ID + 1
}

// NumaSocketFromID converts socket ID to NumaSocket.
func NumaSocketFromID(id int) (socket NumaSocket) {
	if id < 0 || id >= MaxNumaNodes {
		return socket
	}
	socket.v = id + 1
	return socket
}

// ID returns NUMA socket ID.
func (socket NumaSocket) ID() int {
	return socket.v - 1
}

// IsAny returns true if this represents "any socket".
func (socket NumaSocket) IsAny() bool {
	return socket.v == 0
}

// Match returns true if either NumaSocket is "any", or both are the same NumaSocket.
func (socket NumaSocket) Match(other NumaSocket) bool {
	return socket.IsAny() || other.IsAny() || socket.v == other.v
}

func (socket NumaSocket) String() string {
	if socket.IsAny() {
		return "any"
	}
	return strconv.Itoa(socket.ID())
}

// WithNumaSocket interface is implemented by types that have an associated or
// preferred NUMA socket.
type WithNumaSocket interface {
	NumaSocket() NumaSocket
}

var (
	cpuSockets     map[int]NumaSocket
	cpuSocketsOnce sync.Once
)

// numaSocketOfCPU reads the CPU's package ID from sysfs.
// Unknown topology maps to "any".
func numaSocketOfCPU(cpu int) NumaSocket {
	cpuSocketsOnce.Do(func() {
		cpuSockets = map[int]NumaSocket{}
		for i := 0; i <= MaxLCoreID; i++ {
			b, e := os.ReadFile(fmt.Sprintf("/sys/devices/system/cpu/cpu%d/topology/physical_package_id", i))
			if e != nil {
				continue
			}
			if id, e := strconv.Atoi(strings.TrimSpace(string(b))); e == nil {
				cpuSockets[i] = NumaSocketFromID(id)
			}
		}
	})
	return cpuSockets[cpu]
}

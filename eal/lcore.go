package eal

import (
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// MaxLCoreID is the maximum logical core ID.
const MaxLCoreID = 127

// LCore represents a logical core.
// Zero value is invalid lcore.
type LCore struct {
	v int // lcore ID + 1
}

// LCoreFromID converts lcore ID to LCore.
func LCoreFromID(id int) (lc LCore) {
	if id < 0 || id > MaxLCoreID {
		return lc
	}
	lc.v = id + 1
	return lc
}

// ID returns lcore ID.
func (lc LCore) ID() int {
	return lc.v - 1
}

// Valid returns true if this is a valid lcore (not zero value).
func (lc LCore) Valid() bool {
	return lc.v != 0
}

func (lc LCore) String() string {
	if !lc.Valid() {
		return "invalid"
	}
	return strconv.Itoa(lc.ID())
}

// ZapField returns a zap.Field for logging.
func (lc LCore) ZapField(key string) zap.Field {
	return zap.String(key, lc.String())
}

// NumaSocket returns the NUMA socket where this lcore is located.
func (lc LCore) NumaSocket() (socket NumaSocket) {
	if !lc.Valid() {
		return socket
	}
	return numaSocketOfCPU(lc.ID())
}

// IsBusy returns true if this lcore is running a function.
func (lc LCore) IsBusy() bool {
	return lc.Valid() && lcoreStates[lc.ID()].busy.Load()
}

type lcoreState struct {
	busy atomic.Bool
	ret  int
	done chan struct{}
}

var lcoreStates [MaxLCoreID + 1]lcoreState

// curLCore maps OS thread ID to the LCore pinned on that thread.
var curLCore sync.Map

// CurrentLCore returns the lcore executing the caller, if the caller runs on
// a launched lcore thread. Other goroutines observe an invalid LCore.
func CurrentLCore() LCore {
	tid := threadID()
	if tid < 0 {
		return LCore{}
	}
	if lc, ok := curLCore.Load(tid); ok {
		return lc.(LCore)
	}
	return LCore{}
}

// RemoteLaunch asynchronously launches a function on this lcore.
// The function runs on an OS thread pinned to the lcore's CPU.
// Returns whether success.
func (lc LCore) RemoteLaunch(f func() int) bool {
	if !lc.Valid() {
		panic("invalid lcore")
	}
	st := &lcoreStates[lc.ID()]
	if !st.busy.CompareAndSwap(false, true) {
		return false
	}
	st.done = make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if e := setAffinity(lc.ID()); e != nil {
			logger.Warn("cannot pin lcore", lc.ZapField("lc"), zap.Error(e))
		}
		if tid := threadID(); tid >= 0 {
			curLCore.Store(tid, lc)
			defer curLCore.Delete(tid)
		}
		st.ret = f()
		st.busy.Store(false)
		close(st.done)
	}()
	return true
}

// Wait blocks until this lcore finishes running, and returns lcore function's
// return value. If this lcore is not running, returns 0 immediately.
func (lc LCore) Wait() int {
	if !lc.Valid() {
		return 0
	}
	st := &lcoreStates[lc.ID()]
	if done := st.done; done != nil {
		<-done
	}
	return st.ret
}

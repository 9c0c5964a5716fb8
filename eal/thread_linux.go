//go:build linux

package eal

import (
	"golang.org/x/sys/unix"
)

// setAffinity pins the calling OS thread to one CPU.
func setAffinity(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}

// threadID returns the OS thread ID of the calling thread.
// The caller must hold runtime.LockOSThread for the result to stay meaningful.
func threadID() int {
	return unix.Gettid()
}

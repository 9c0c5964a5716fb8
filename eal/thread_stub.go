//go:build !linux

package eal

// setAffinity is a no-op where thread affinity is unsupported.
func setAffinity(int) error {
	return nil
}

func threadID() int {
	return -1
}

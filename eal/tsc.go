package eal

import (
	"time"
)

// TscTime represents a time point on the TSC clock.
//
// Without direct access to the hardware counter, the TSC is virtualized on the
// Go monotonic clock at nanosecond resolution; TscHz is therefore 1e9. All
// arithmetic below is independent of the actual tick rate.
type TscTime uint64

var tscBase = time.Now()

// TscNow returns current TscTime.
func TscNow() TscTime {
	return TscTime(time.Since(tscBase))
}

// TscHz returns the number of TSC ticks in one second.
func TscHz() uint64 {
	return uint64(time.Second)
}

// Add returns t+d.
func (t TscTime) Add(d time.Duration) TscTime {
	return t + TscTime(ToTscDuration(d))
}

// Sub returns t-t0.
func (t TscTime) Sub(t0 TscTime) time.Duration {
	return FromTscDuration(int64(t - t0))
}

// GetNanosInTscUnit returns number of nanoseconds in a TSC time unit.
func GetNanosInTscUnit() float64 {
	return float64(time.Second) / float64(TscHz())
}

// FromTscDuration converts TSC duration to time.Duration.
func FromTscDuration(d int64) time.Duration {
	return time.Duration(GetNanosInTscUnit() * float64(d))
}

// ToTscDuration converts time.Duration to TSC duration.
func ToTscDuration(d time.Duration) int64 {
	return int64(float64(d) / GetNanosInTscUnit())
}

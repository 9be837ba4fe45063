package clock

import "time"

// Clock abstracts the device clock so services and tests can control time.
// All attendance validation runs against device-local time; server skew is
// tracked separately and never applied here.
type Clock interface {
	Now() time.Time
	NowMillis() int64
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// NewSystemClock returns a Clock backed by the OS clock.
func NewSystemClock() Clock {
	return systemClock{}
}

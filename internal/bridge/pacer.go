package bridge

import "time"

// Pacer inserts a delay between items of a bulk publish.
type Pacer interface {
	// Pace blocks until the next item may be published.
	Pace()
}

// NewFixedPacer returns a pacer with a constant inter-item delay.
// A zero or negative delay paces nothing.
func NewFixedPacer(delay time.Duration) Pacer {
	if delay <= 0 {
		return NopPacer{}
	}
	return fixedPacer{delay: delay}
}

type fixedPacer struct {
	delay time.Duration
}

func (p fixedPacer) Pace() {
	time.Sleep(p.delay)
}

// NopPacer never delays. Used in tests and for zero-delay configs.
type NopPacer struct{}

// Pace returns immediately.
func (NopPacer) Pace() {}

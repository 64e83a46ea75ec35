package bridge

import (
	"sync"
	"time"
)

// ConnState is the lifecycle state of one upstream connection.
type ConnState int

// Connection states.
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// StateTracker follows one connection through
// disconnected/connecting/connected. When Connecting is not followed by
// Connected within the timeout, the force-disconnect hook fires and the
// state drops back to disconnected; the transport's own reconnect takes
// it from there.
type StateTracker struct {
	mu      sync.Mutex
	state   ConnState
	timeout time.Duration
	timer   *time.Timer

	// onTimeout forces the transport to give up the attempt.
	onTimeout func()
}

// NewStateTracker creates a tracker with the given connect timeout.
// onTimeout may be nil.
func NewStateTracker(timeout time.Duration, onTimeout func()) *StateTracker {
	return &StateTracker{
		timeout:   timeout,
		onTimeout: onTimeout,
	}
}

// State returns the current state.
func (t *StateTracker) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connecting marks the start of a connection attempt and arms the
// connect timer.
func (t *StateTracker) Connecting() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateConnecting
	t.stopTimer()
	if t.timeout > 0 {
		t.timer = time.AfterFunc(t.timeout, t.timedOut)
	}
}

// Connected marks the connection established and disarms the timer.
func (t *StateTracker) Connected() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateConnected
	t.stopTimer()
}

// Disconnected marks the connection lost.
func (t *StateTracker) Disconnected() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateDisconnected
	t.stopTimer()
}

func (t *StateTracker) timedOut() {
	t.mu.Lock()
	if t.state != StateConnecting {
		t.mu.Unlock()
		return
	}
	t.state = StateDisconnected
	hook := t.onTimeout
	t.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (t *StateTracker) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

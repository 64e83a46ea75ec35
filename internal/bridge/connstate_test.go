package bridge

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestStateTracker_Lifecycle(t *testing.T) {
	tracker := NewStateTracker(time.Minute, nil)

	if tracker.State() != StateDisconnected {
		t.Errorf("initial state = %v, want disconnected", tracker.State())
	}

	tracker.Connecting()
	if tracker.State() != StateConnecting {
		t.Errorf("state = %v, want connecting", tracker.State())
	}

	tracker.Connected()
	if tracker.State() != StateConnected {
		t.Errorf("state = %v, want connected", tracker.State())
	}

	tracker.Disconnected()
	if tracker.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", tracker.State())
	}
}

func TestStateTracker_ConnectTimeout(t *testing.T) {
	var fired atomic.Int32
	tracker := NewStateTracker(20*time.Millisecond, func() {
		fired.Add(1)
	})

	tracker.Connecting()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fired.Load() == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if fired.Load() != 1 {
		t.Fatal("timeout hook did not fire")
	}
	if tracker.State() != StateDisconnected {
		t.Errorf("state after timeout = %v, want disconnected", tracker.State())
	}
}

func TestStateTracker_ConnectedCancelsTimer(t *testing.T) {
	var fired atomic.Int32
	tracker := NewStateTracker(20*time.Millisecond, func() {
		fired.Add(1)
	})

	tracker.Connecting()
	tracker.Connected()

	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("timeout hook fired after successful connect")
	}
	if tracker.State() != StateConnected {
		t.Errorf("state = %v, want connected", tracker.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state ConnState
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFixedPacer(t *testing.T) {
	start := time.Now()
	pacer := NewFixedPacer(10 * time.Millisecond)
	pacer.Pace()
	pacer.Pace()
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("two paces took %v, want at least 20ms", elapsed)
	}

	if _, ok := NewFixedPacer(0).(NopPacer); !ok {
		t.Error("zero delay should yield NopPacer")
	}
}

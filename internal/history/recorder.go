package history

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/hobbybridge/internal/device"
)

const (
	// recorderBuffer bounds the number of pending writes before
	// updates are dropped.
	recorderBuffer = 256

	// writeTimeout bounds a single insert.
	writeTimeout = 5 * time.Second
)

// Logger interface for recorder diagnostics.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Recorder bridges the status callback path to the store without
// blocking it. It satisfies the bridge's StatusSink.
type Recorder struct {
	store  *Store
	logger Logger

	queue     chan Entry
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRecorder creates a recorder and starts its writer goroutine.
func NewRecorder(store *Store, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	r := &Recorder{
		store:  store,
		logger: logger,
		queue:  make(chan Entry, recorderBuffer),
		done:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// RecordStatus enqueues a state change. Full buffers drop the update
// with a warning rather than stall the event stream.
func (r *Recorder) RecordStatus(dev device.Device, delta device.Properties) {
	entry := Entry{
		DeviceUUID: dev.UUID,
		Model:      dev.Model,
		Properties: dev.Properties.Clone(),
		Touched:    delta.Names(),
	}

	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("history buffer full, dropping update", "uuid", dev.UUID)
	}
}

// Close drains pending writes and stops the writer goroutine.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

func (r *Recorder) run() {
	defer r.wg.Done()

	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		case <-r.done:
			// Drain whatever is already queued.
			for {
				select {
				case entry := <-r.queue:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.Error("history write failed", "uuid", entry.DeviceUUID, "error", err)
	}
}

package record

import (
	"fmt"
	"log"
	"sync"

	"github.com/itohio/goadc/pkg/device"
)

// Recorder keeps a sliding window of the most recent frames received from a
// device. The window is a FIFO kept in arrival order: index 0 is the oldest
// frame, the last index is the newest. The display can be frozen, which
// pins a snapshot of the window while recording continues underneath.
type Recorder struct {
	window int

	mu       sync.RWMutex
	frames   []device.Frame
	frozen   bool
	snapshot []device.Frame
	received uint64

	// Update callbacks receive a copy of the current window. They should
	// copy what they need quickly and return as fast as possible.
	callbacks []func(frames []device.Frame)
	cbMu      sync.RWMutex
}

// New creates a Recorder keeping at most window frames.
func New(window int) (*Recorder, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}

	return &Recorder{
		window: window,
		frames: make([]device.Frame, 0, window),
	}, nil
}

// Run consumes frames from the input channel until it closes. Call it in
// its own goroutine.
func (r *Recorder) Run(input <-chan device.Frame) {
	for f := range input {
		r.add(f)
	}
}

// add appends one frame, trims the window, and notifies observers. A frame
// with a different channel count than the window's current contents resets
// the window: the stream has no framing besides field count, so a count
// change means the device was reconfigured or lines were corrupted.
func (r *Recorder) add(f device.Frame) {
	r.mu.Lock()

	if n := len(r.frames); n > 0 && len(f.Values) != len(r.frames[n-1].Values) {
		log.Printf("Channel count changed from %d to %d, resetting window",
			len(r.frames[n-1].Values), len(f.Values))
		r.frames = r.frames[:0]
	}

	r.frames = append(r.frames, f)
	if len(r.frames) > r.window {
		// Drop the oldest frames beyond the window.
		r.frames = append(r.frames[:0], r.frames[len(r.frames)-r.window:]...)
	}
	r.received++

	windowCopy := make([]device.Frame, len(r.frames))
	copy(windowCopy, r.frames)
	r.mu.Unlock()

	r.notifyCallbacks(windowCopy)
}

// Snapshot returns a copy of the current window, or of the pinned snapshot
// while frozen.
func (r *Recorder) Snapshot() []device.Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.frames
	if r.frozen {
		src = r.snapshot
	}
	out := make([]device.Frame, len(src))
	copy(out, src)
	return out
}

// Freeze pins the current window so Snapshot keeps returning it while
// recording continues. Freezing twice re-pins the latest window.
func (r *Recorder) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshot = make([]device.Frame, len(r.frames))
	copy(r.snapshot, r.frames)
	r.frozen = true
}

// Unfreeze resumes live snapshots.
func (r *Recorder) Unfreeze() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frozen = false
	r.snapshot = nil
}

// IsFrozen returns whether the display snapshot is pinned.
func (r *Recorder) IsFrozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Received returns the total number of frames recorded, including frames
// that have since left the window.
func (r *Recorder) Received() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.received
}

// Len returns the number of frames currently in the window.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.frames)
}

// OnUpdate registers a callback invoked with a copy of the window after
// every recorded frame.
func (r *Recorder) OnUpdate(callback func(frames []device.Frame)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

// notifyCallbacks invokes all registered callbacks without holding the
// window lock.
func (r *Recorder) notifyCallbacks(frames []device.Frame) {
	r.cbMu.RLock()
	callbacks := make([]func(frames []device.Frame), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(frames)
		}
	}
}

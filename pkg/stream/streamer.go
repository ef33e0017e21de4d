package stream

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueDepth is the default number of encoded lines the hand-off
// queue can hold between the capture and transmit goroutines.
const DefaultQueueDepth = 100

// Streamer periodically samples a fixed channel set and writes one encoded
// line per tick to an output sink. Capture and transmission are decoupled:
// the capture goroutine never blocks on the sink. Instead, encoded lines are
// handed to a transmit goroutine through a bounded queue. When the queue is
// full the newest line is rejected and counted, so a slow transport degrades
// into counted drops instead of an unbounded stall on the sampling path.
type Streamer struct {
	sampler  *Sampler
	w        io.Writer
	interval time.Duration

	queue chan []byte
	free  chan []byte

	dropped atomic.Uint64
	missed  atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New creates a Streamer that samples through sampler every interval and
// writes encoded lines to w. A non-positive queueDepth selects
// DefaultQueueDepth. All buffers are allocated here; the periodic path
// allocates nothing.
func New(sampler *Sampler, w io.Writer, interval time.Duration, queueDepth int) (*Streamer, error) {
	if sampler == nil {
		return nil, fmt.Errorf("nil sampler")
	}
	if w == nil {
		return nil, fmt.Errorf("nil output writer")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sampling interval must be positive, got %v", interval)
	}
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}

	s := &Streamer{
		sampler:  sampler,
		w:        w,
		interval: interval,
		queue:    make(chan []byte, queueDepth),
		free:     make(chan []byte, queueDepth+2),
	}

	// Pre-fill the recycle pool with one line buffer per queue slot plus
	// one in flight in each of the capture and transmit loops.
	for i := 0; i < queueDepth+2; i++ {
		s.free <- make([]byte, 0, LineCapacity(sampler.Len()))
	}

	return s, nil
}

// Start launches the capture and transmit goroutines. It returns an error if
// the streamer is already running. A stopped streamer can be started again;
// the drop and missed counters carry over.
func (s *Streamer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("already running")
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go s.capture(ctx)
	go s.transmit(ctx)

	return nil
}

// Stop halts both goroutines and waits for them to finish. Lines still
// queued at shutdown are discarded without touching the drop counter.
// Stopping a streamer that is not running is a no-op.
func (s *Streamer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	s.running = false

	// Reclaim any lines left in the queue for the next run.
	for {
		select {
		case buf := <-s.queue:
			s.recycle(buf)
		default:
			return nil
		}
	}
}

// IsRunning returns whether the capture and transmit goroutines are active.
func (s *Streamer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Dropped returns the number of encoded lines rejected because the hand-off
// queue was full, i.e. the transport could not keep up.
func (s *Streamer) Dropped() uint64 {
	return s.dropped.Load()
}

// Missed returns the number of trigger periods that elapsed without a
// capture, which happens when a single capture takes longer than one
// sampling interval.
func (s *Streamer) Missed() uint64 {
	return s.missed.Load()
}

// capture runs in its own goroutine: one snapshot and one encoded line per
// tick, handed to the transmit goroutine without ever blocking.
func (s *Streamer) capture(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// Ticks that arrive late by more than half a period mean
			// whole periods elapsed while the previous capture ran.
			if !last.IsZero() {
				if gap := now.Sub(last); gap > s.interval+s.interval/2 {
					s.missed.Add(uint64(gap/s.interval) - 1)
				}
			}
			last = now

			var buf []byte
			select {
			case buf = <-s.free:
				buf = buf[:0]
			default:
				// Every buffer is in flight, so the queue is full too.
				s.dropped.Add(1)
				continue
			}

			buf = AppendLine(buf, s.sampler.Sample())

			select {
			case s.queue <- buf:
			default:
				// Queue full: reject the newest line, keep what is
				// already queued intact.
				s.dropped.Add(1)
				s.recycle(buf)
			}
		}
	}
}

// transmit drains the queue and performs the blocking writes, so transport
// back-pressure never reaches the capture path.
func (s *Streamer) transmit(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case buf := <-s.queue:
			if _, err := s.w.Write(buf); err != nil {
				log.Printf("Failed to write sample line: %v", err)
			}
			s.recycle(buf)
		}
	}
}

func (s *Streamer) recycle(buf []byte) {
	select {
	case s.free <- buf:
	default:
	}
}

package device

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/goadc/pkg/config"
	"github.com/itohio/goadc/pkg/stream"
)

// Mock simulates a sampling device for testing and development. It runs the
// same capture/encode/transmit pump the firmware uses, pointed at an
// in-memory pipe, and decodes its own wire output back into frames, so the
// whole line protocol is exercised without hardware. Channel readings are
// synthesized waveforms: one sine per channel with per-channel frequency,
// plus configurable noise, in the float32 math a small device would use.
type Mock struct {
	cfg *config.Config

	frames    chan Frame
	mu        sync.RWMutex
	connected bool

	streamer *stream.Streamer
	pw       *io.PipeWriter
	start    time.Time
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Mock{
		cfg:    cfg,
		frames: make(chan Frame, DefaultBufferSize),
	}
}

// Connect builds the sampling pump and starts streaming, mirroring a device
// that begins emitting on power-up.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.start = time.Now()

	sampler, err := stream.NewSampler(m.cfg.Sampling.Channels, m.read)
	if err != nil {
		return fmt.Errorf("failed to build sampler: %w", err)
	}

	pr, pw := io.Pipe()
	streamer, err := stream.New(sampler, pw, m.cfg.Sampling.Interval(), m.cfg.Sampling.QueueDepth)
	if err != nil {
		pw.Close()
		return fmt.Errorf("failed to build streamer: %w", err)
	}

	m.streamer = streamer
	m.pw = pw
	m.connected = true

	go m.readFrames(pr)

	if err := streamer.Start(); err != nil {
		return fmt.Errorf("failed to start streaming: %w", err)
	}

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	// Stop the pump first; the reader keeps draining until the pipe
	// closes, so the transmit goroutine can always finish its write.
	if err := m.streamer.Stop(); err != nil {
		log.Printf("Error stopping mock streamer: %v", err)
	}
	m.pw.Close()

	m.connected = false

	return nil
}

// Frames returns the channel for reading decoded frames.
func (m *Mock) Frames() <-chan Frame {
	return m.frames
}

// StartStream resumes the sample stream, like sending the start command to
// real hardware.
func (m *Mock) StartStream() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}
	if m.streamer.IsRunning() {
		return nil
	}
	return m.streamer.Start()
}

// StopStream pauses the sample stream.
func (m *Mock) StopStream() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}
	return m.streamer.Stop()
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Dropped exposes the pump's drop counter, for observing simulated
// transport saturation.
func (m *Mock) Dropped() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.streamer == nil {
		return 0
	}
	return m.streamer.Dropped()
}

// readFrames decodes the mock's own wire output, the same way the serial
// device reader does, and closes the frames channel when the pipe closes.
func (m *Mock) readFrames(pr *io.PipeReader) {
	defer close(m.frames)

	scanner := bufio.NewScanner(pr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		values, err := parseLine(line)
		if err != nil {
			log.Printf("Failed to parse mock line '%s': %v", line, err)
			continue
		}

		select {
		case m.frames <- Frame{Timestamp: time.Now(), Values: values}:
		default:
			// Channel full, skip
		}
	}
}

// read synthesizes one channel reading: a sine waveform whose frequency
// scales with the channel position, biased to mid-scale, with a small
// deterministic noise term.
func (m *Mock) read(ch int) int {
	t := float32(time.Since(m.start).Seconds())
	period := float32(m.cfg.Mock.Period.Seconds())
	if period <= 0 {
		period = 1
	}

	idx := 0
	for i, c := range m.cfg.Sampling.Channels {
		if c == ch {
			idx = i
			break
		}
	}

	phase := 2 * math32.Pi * t / period * float32(idx+1)
	v := 0.5 * (1 + math32.Sin(phase))
	v += m.cfg.Mock.NoiseLevel * math32.Sin(t*997+float32(idx)*13)

	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}

	return int(v * float32(m.cfg.Mock.FullScale))
}

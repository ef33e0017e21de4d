package stream

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineCollector is an output sink that records every write as one line.
type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(p))
	return len(p), nil
}

func (c *lineCollector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// gatedWriter blocks every write until the gate is released, simulating a
// saturated transport.
type gatedWriter struct {
	gate chan struct{}
}

func (w *gatedWriter) Write(p []byte) (int, error) {
	<-w.gate
	return len(p), nil
}

func TestNew_Validation(t *testing.T) {
	sampler, err := NewSampler([]int{0}, func(ch int) int { return 0 })
	require.NoError(t, err)

	_, err = New(nil, &lineCollector{}, time.Millisecond, 0)
	assert.Error(t, err, "nil sampler must be rejected")

	_, err = New(sampler, nil, time.Millisecond, 0)
	assert.Error(t, err, "nil writer must be rejected")

	_, err = New(sampler, &lineCollector{}, 0, 0)
	assert.Error(t, err, "zero interval must be rejected")

	_, err = New(sampler, &lineCollector{}, -time.Second, 0)
	assert.Error(t, err, "negative interval must be rejected")
}

func TestStreamer_EmitsWellFormedLines(t *testing.T) {
	sampler, err := NewSampler([]int{0, 1, 2}, func(ch int) int {
		return []int{10, -3, 255}[ch]
	})
	require.NoError(t, err)

	sink := &lineCollector{}
	s, err := New(sampler, sink, time.Millisecond, 10)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "double start must fail")

	// Wait until a few lines have been transmitted.
	deadline := time.After(2 * time.Second)
	for len(sink.Lines()) < 5 {
		select {
		case <-deadline:
			t.Fatal("No lines transmitted within timeout")
		case <-time.After(5 * time.Millisecond):
		}
	}
	require.NoError(t, s.Stop())

	for _, line := range sink.Lines() {
		assert.Equal(t, "10 -3 255\n", line)
	}
	assert.EqualValues(t, 0, s.Dropped(), "a fast sink must not cause drops")
}

func TestStreamer_FieldCountPerTick(t *testing.T) {
	n := 5
	channels := make([]int, n)
	for i := range channels {
		channels[i] = i
	}

	sampler, err := NewSampler(channels, func(ch int) int {
		return ch*17 - 8
	})
	require.NoError(t, err)

	sink := &lineCollector{}
	s, err := New(sampler, sink, time.Millisecond, 0)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop())

	lines := sink.Lines()
	require.NotEmpty(t, lines)
	for _, line := range lines {
		fields := strings.Split(strings.TrimSuffix(line, "\n"), " ")
		assert.Len(t, fields, n, "every line must carry exactly one field per channel")
		for _, f := range fields {
			_, err := strconv.Atoi(f)
			assert.NoError(t, err, "every field must be a decimal integer")
		}
	}
}

func TestStreamer_SaturationSurfacesDrops(t *testing.T) {
	sampler, err := NewSampler([]int{0, 1, 2}, func(ch int) int { return ch })
	require.NoError(t, err)

	// A transport that never accepts a byte, with a two-line queue and a
	// 1ms interval, must start counting drops instead of stalling capture
	// or corrupting output.
	w := &gatedWriter{gate: make(chan struct{})}
	s, err := New(sampler, w, time.Millisecond, 2)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	deadline := time.After(2 * time.Second)
	for s.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("Saturated transport did not surface a drop count")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Release the writer so Stop can join the transmit goroutine.
	close(w.gate)
	require.NoError(t, s.Stop())
	assert.Greater(t, s.Dropped(), uint64(0))
}

func TestStreamer_SlowCaptureCountsMissedTriggers(t *testing.T) {
	// Each capture takes several periods, so trigger firings are missed
	// and must be counted rather than silently lost.
	sampler, err := NewSampler([]int{0}, func(ch int) int {
		time.Sleep(5 * time.Millisecond)
		return 1
	})
	require.NoError(t, err)

	sink := &lineCollector{}
	s, err := New(sampler, sink, time.Millisecond, 10)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	deadline := time.After(2 * time.Second)
	for s.Missed() == 0 {
		select {
		case <-deadline:
			t.Fatal("Slow capture did not surface a missed-trigger count")
		case <-time.After(10 * time.Millisecond):
		}
	}
	require.NoError(t, s.Stop())
	assert.Greater(t, s.Missed(), uint64(0))
}

func TestStreamer_StopAndRestart(t *testing.T) {
	sampler, err := NewSampler([]int{0}, func(ch int) int { return 7 })
	require.NoError(t, err)

	sink := &lineCollector{}
	s, err := New(sampler, sink, time.Millisecond, 10)
	require.NoError(t, err)

	require.NoError(t, s.Stop(), "stopping a streamer that never ran is a no-op")

	require.NoError(t, s.Start())
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	emitted := len(sink.Lines())
	assert.Greater(t, emitted, 0)

	// No further lines may arrive after Stop returns.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, emitted, len(sink.Lines()))

	// A stopped streamer can be restarted.
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	deadline := time.After(2 * time.Second)
	for len(sink.Lines()) <= emitted {
		select {
		case <-deadline:
			t.Fatal("No lines after restart")
		case <-time.After(5 * time.Millisecond):
		}
	}
	require.NoError(t, s.Stop())
}

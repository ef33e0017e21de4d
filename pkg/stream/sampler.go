package stream

import (
	"fmt"
)

// ReadFunc reads the current value of a single analog channel. On hardware
// this wraps an ADC conversion; in tests and simulations it can be any
// synthetic source. Readings may be negative.
type ReadFunc func(channel int) int

// Sampler captures one snapshot of a fixed, ordered set of analog channels
// per call. The channel list is immutable after construction and the sample
// buffer is allocated exactly once, so nothing allocates on the sampling
// path.
type Sampler struct {
	channels []int
	buf      []int
	read     ReadFunc
}

// NewSampler creates a Sampler for the given ordered channel list. The list
// must contain at least one channel; an empty list is a configuration defect
// and is rejected here rather than producing blank lines downstream.
func NewSampler(channels []int, read ReadFunc) (*Sampler, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels configured")
	}
	if read == nil {
		return nil, fmt.Errorf("nil channel read function")
	}

	chs := make([]int, len(channels))
	copy(chs, channels)

	return &Sampler{
		channels: chs,
		buf:      make([]int, len(chs)),
		read:     read,
	}, nil
}

// Sample reads every configured channel in list order into the internal
// buffer and returns it. Readings are not atomic with respect to each other:
// the first and last channel may reflect slightly different instants, bounded
// by the total read time. The returned slice is owned by the Sampler and is
// overwritten on the next call.
func (s *Sampler) Sample() []int {
	for i, ch := range s.channels {
		s.buf[i] = s.read(ch)
	}
	return s.buf
}

// Values returns the buffer from the most recent Sample call without
// re-reading the channels.
func (s *Sampler) Values() []int {
	return s.buf
}

// Channels returns a copy of the configured channel list.
func (s *Sampler) Channels() []int {
	chs := make([]int, len(s.channels))
	copy(chs, s.channels)
	return chs
}

// Len returns the number of configured channels.
func (s *Sampler) Len() int {
	return len(s.channels)
}

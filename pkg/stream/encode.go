package stream

import (
	"fmt"
	"strconv"
)

// Per-sample byte cost on the wire: decimal digits plus the separator or
// terminator. Empirical figure used for throughput budgeting; a 16-bit
// reading is at most 5 digits wide, negative readings add a sign.
const bytesPerSample = 7

// AppendLine appends the wire encoding of one snapshot to dst and returns
// the extended slice: decimal values separated by single spaces, terminated
// by a line feed. No space precedes the terminator; a single value is
// followed immediately by the terminator.
func AppendLine(dst []byte, values []int) []byte {
	for i, v := range values {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendInt(dst, int64(v), 10)
	}
	return append(dst, '\n')
}

// LineCapacity returns a buffer capacity sufficient for one encoded line of
// n channels in the common case, so line buffers can be allocated up front.
func LineCapacity(n int) int {
	return n*bytesPerSample + 1
}

// RequiredBaud returns the minimum transport rate, in bits per second, able
// to carry the encoded output of n channels sampled every intervalMicros
// microseconds. One encoded sample costs about bytesPerSample bytes at
// 8 bits each; the configured rate must exceed this or queued bytes back up
// behind the transmitter and samples are dropped or delayed.
func RequiredBaud(intervalMicros int64, n int) int {
	linesPerSecond := 1e6 / float64(intervalMicros)
	return int(linesPerSecond * float64(n) * 8 * bytesPerSample)
}

// CheckRate verifies the throughput constraint for a baud rate, sampling
// interval and channel count, returning a descriptive error when the rate
// cannot keep up.
func CheckRate(baud int, intervalMicros int64, n int) error {
	if baud <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", baud)
	}
	if intervalMicros <= 0 {
		return fmt.Errorf("sampling interval must be positive, got %dus", intervalMicros)
	}
	if required := RequiredBaud(intervalMicros, n); baud < required {
		return fmt.Errorf("baud rate %d cannot carry %d channels every %dus: need at least %d", baud, n, intervalMicros, required)
	}
	return nil
}

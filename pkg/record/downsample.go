package record

import "github.com/itohio/goadc/pkg/device"

// Downsample decimates a slice of frames to a maximum number of points for
// display or compact export.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// Returns the destination slice (may be dst if reused, or a new slice if dst was too small).
// If len(frames) <= maxPoints, copies all frames to dst (or allocates if dst is nil/too small).
func Downsample(dst []device.Frame, frames []device.Frame, maxPoints int) []device.Frame {
	if len(frames) <= maxPoints {
		// Need to copy all frames
		if cap(dst) >= len(frames) {
			dst = dst[:len(frames)]
			copy(dst, frames)
			return dst
		}
		// dst too small, allocate new
		result := make([]device.Frame, len(frames))
		copy(result, frames)
		return result
	}

	// Need to downsample
	if cap(dst) >= maxPoints {
		// Reuse dst
		dst = dst[:0] // Reset length but keep capacity
	} else {
		// Allocate new slice
		dst = make([]device.Frame, 0, maxPoints)
	}

	// Calculate step size for decimation
	step := float64(len(frames)) / float64(maxPoints)

	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(frames) {
			dst = append(dst, frames[idx])
		}
	}

	return dst
}

package link

import (
	"math"

	"animahead/protocol"
)

// Sweep returns a stream generator moving every channel through a sine
// around its centre. steps is the number of frames per full period.
func Sweep(center Pose, amplitude uint8, steps int) func(i int) Pose {
	if steps <= 0 {
		steps = 1
	}
	return func(i int) Pose {
		phase := math.Sin(2 * math.Pi * float64(i%steps) / float64(steps))
		offset := int(math.Round(phase * float64(amplitude)))
		return Pose{
			Chin:   protocol.ClampChannel(int(center.Chin) + offset),
			NeckRy: protocol.ClampChannel(int(center.NeckRy) + offset),
			NeckRx: protocol.ClampChannel(int(center.NeckRx) + offset),
			NeckRz: protocol.ClampChannel(int(center.NeckRz) - offset),
		}
	}
}

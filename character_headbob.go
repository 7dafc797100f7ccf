package marcher

import (
	"github.com/chewxy/math32"
)

const (
	headBobDuration  = 0.1
	headBobFrequency = 0.8
	headBobAmplitude = 0.09
)

// HeadBobController offsets the first person camera while walking. A bob
// started by movement always finishes its half period.
type HeadBobController struct {
	timer    float32
	amount   float32
	lastDiff float32
	active   bool
}

func (b *HeadBobController) HeadBob(timeDiff float32, isMoving bool) float32 {
	if !b.active {
		b.active = isMoving
	}

	if b.active {
		current := b.timer * headBobFrequency * (1 / headBobDuration)
		diff := math32.Mod(current, math32.Pi)

		b.timer += timeDiff
		b.amount = math32.Sin(current) * headBobAmplitude

		if diff < b.lastDiff {
			b.active = false
		}
		b.lastDiff = diff
	}

	return b.amount
}

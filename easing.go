package marcher

import (
	"github.com/chewxy/math32"
)

func Lerp(start, end, t float32) float32 {
	return start*(1-t) + end*t
}

func Clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// EaseOutExpo returns exactly 1 at x == 1.
func EaseOutExpo(x float32) float32 {
	if x == 1 {
		return 1
	}
	return 1 - math32.Pow(2, -10*x)
}

func EaseOutCirc(x float32) float32 {
	return math32.Sqrt(1 - math32.Pow(x-1, 2))
}

// UpDownCirc rises from 0 to 1 and falls back to 0 over x in [0,1].
func UpDownCirc(x float32) float32 {
	return math32.Sin(EaseOutCirc(x) * math32.Pi)
}

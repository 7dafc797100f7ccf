package marcher

const ScrollAnimationSpeed = 2

// ZoomController eases the camera distance toward the wheel level.
type ZoomController struct {
	Zoom float32

	lastZoomLevel      float32
	startZoomAnimation float32
	startingZoom       float32
	isAnimating        bool
}

func NewZoomController() *ZoomController {
	return &ZoomController{Zoom: MinZoomLevel}
}

func (z *ZoomController) IsAnimating() bool {
	return z.isAnimating
}

// Update restarts the animation whenever level differs from the previous
// call. The animation lasts 1/ScrollAnimationSpeed seconds.
func (z *ZoomController) Update(level, timestamp float32) {
	time := timestamp * ScrollAnimationSpeed
	target := Clamp(level, MinZoomLevel, MaxZoomLevel)

	if level != z.lastZoomLevel {
		z.startingZoom = z.Zoom
		z.startZoomAnimation = time
		z.isAnimating = true
	}

	if z.isAnimating {
		progress := time - z.startZoomAnimation
		z.Zoom = Lerp(z.startingZoom, target, EaseOutExpo(progress))
		if progress >= 1 {
			z.isAnimating = false
		}
	}

	z.lastZoomLevel = level
}

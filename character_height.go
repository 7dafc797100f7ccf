package marcher

const (
	JumpDuration  = 0.4
	JumpAmplitude = 2
)

// HeightController integrates the vertical movement of the character:
// free fall while airborne plus an eased jump curve. Timestamps are in
// seconds.
type HeightController struct {
	Height       float32
	MovePerFrame float32

	lastHeight         float32
	startFallAnimation float32
	fallProgress       float32
	jumpProgress       float32
	startJumpAnimation float32
	isAnimating        bool
	animatingJump      bool
	grounded           bool
	isTabOpen          bool
}

func (h *HeightController) Grounded() bool {
	return h.grounded
}

func (h *HeightController) SetGrounded(grounded bool) {
	h.grounded = grounded
}

// SetJumpFactor starts a jump for a positive factor unless one is running.
func (h *HeightController) SetJumpFactor(factor float32) {
	if !h.animatingJump {
		h.animatingJump = factor > 0
	}
}

func (h *HeightController) Jumping() bool {
	return h.animatingJump
}

// TabReopened makes the next fall update resume from the stored progress
// instead of counting the time the window was hidden.
func (h *HeightController) TabReopened() {
	h.isTabOpen = true
}

func (h *HeightController) Update(timestamp, timeDiff float32) {
	if h.isAnimating {
		if h.isTabOpen {
			h.startFallAnimation = timestamp - h.fallProgress
			h.startJumpAnimation = 0
			h.isTabOpen = false
		} else {
			h.fallProgress = timestamp - h.startFallAnimation
			t := h.fallProgress
			h.Height = 0.5 * DefaultGravity.Y() * t * t
			h.MovePerFrame = h.Height - h.lastHeight
		}
	} else {
		h.Height = 0
		h.lastHeight = 0
		h.MovePerFrame = 0
		h.startFallAnimation = timestamp
	}

	h.jumpProgress = timestamp - h.startJumpAnimation

	if h.grounded && !h.animatingJump {
		h.startJumpAnimation = timestamp
	} else {
		h.MovePerFrame += Lerp(0, JumpAmplitude, UpDownCirc(Clamp(h.jumpProgress/JumpDuration, 0, 1)))
	}

	if h.jumpProgress > JumpDuration {
		h.animatingJump = false
	}

	h.lastHeight = h.Height
	h.isAnimating = !h.grounded
}

package marcher

import (
	"time"
)

// MaxTimeDiff caps the frame delta handed to per-tick consumers, in ms.
const MaxTimeDiff = 100

// TickData is the per-frame timing every system reads. Timestamps and
// differences are in milliseconds since the app started.
type TickData struct {
	Timestamp float64
	// TimeDiff is clamped to [0, MaxTimeDiff].
	TimeDiff float64
	// Fps uses the raw, unclamped difference.
	Fps float64

	start time.Time
}

// Advance moves the tick to timestampMs.
func (t *TickData) Advance(timestampMs float64) {
	raw := timestampMs - t.Timestamp
	if raw > 0 {
		t.Fps = 1000 / raw
	} else {
		t.Fps = 0
	}
	t.TimeDiff = min(max(raw, 0), MaxTimeDiff)
	t.Timestamp = timestampMs
}

// Seconds returns the timestamp and the capped difference in seconds.
func (t *TickData) Seconds() (ts, dt float32) {
	return float32(t.Timestamp / 1000), float32(t.TimeDiff / 1000)
}

type TimeModule struct {
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&TickData{
		start: time.Now(),
	})
	app.UseSystem(
		System(tickSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func tickSystem(tick *TickData) {
	tick.Advance(float64(time.Since(tick.start).Microseconds()) / 1000)
}

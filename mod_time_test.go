package marcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickData_Advance(t *testing.T) {
	var tick TickData

	tick.Advance(16)
	tick.Advance(32)
	assert.Equal(t, 32.0, tick.Timestamp)
	assert.Equal(t, 16.0, tick.TimeDiff)
	assert.Equal(t, 62.5, tick.Fps)

	ts, dt := tick.Seconds()
	assert.InDelta(t, 0.032, ts, 1e-6)
	assert.InDelta(t, 0.016, dt, 1e-6)
}

func TestTickData_CapsLargeGaps(t *testing.T) {
	var tick TickData
	tick.Advance(10)
	tick.Advance(510)

	assert.Equal(t, float64(MaxTimeDiff), tick.TimeDiff)
	assert.Equal(t, 2.0, tick.Fps, "fps uses the raw difference")
}

func TestTickData_NonPositiveDiff(t *testing.T) {
	var tick TickData
	tick.Advance(50)
	tick.Advance(50)

	assert.Equal(t, 0.0, tick.TimeDiff)
	assert.Equal(t, 0.0, tick.Fps)
}

func TestTimeModule_RunsInPrelude(t *testing.T) {
	app := NewAppBuilder().UseModule(TimeModule{}).Build()
	app.Step()
	app.Step()

	tick, ok := Resource[TickData](app)
	if !ok {
		t.Fatalf("TickData resource missing")
	}
	assert.GreaterOrEqual(t, tick.Timestamp, 0.0)
	assert.Equal(t, uint64(2), app.Frames())
}

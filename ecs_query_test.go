package marcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_RequiredAndOptionalComponents(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()

	moving := cmd.AddEntity(testPosition{x: 1}, testVelocity{dx: 2})
	still := cmd.AddEntity(testPosition{x: 5})
	cmd.AddEntity(testTag{name: "alone"})
	app.FlushCommands()

	seen := map[EntityId]bool{}
	MakeQuery2[testPosition, testVelocity](cmd).Map(func(eid EntityId, p *testPosition, v *testVelocity) bool {
		seen[eid] = true
		p.x += v.dx
		return true
	})
	assert.Equal(t, map[EntityId]bool{moving: true}, seen)

	var withoutVelocity int
	MakeQuery2[testPosition, testVelocity](cmd).Map(func(eid EntityId, p *testPosition, v *testVelocity) bool {
		if v == nil {
			withoutVelocity++
			assert.Equal(t, still, eid)
			return true
		}
		// writes through the pointer stick
		assert.Equal(t, float32(3), p.x)
		return true
	}, testVelocity{})
	assert.Equal(t, 1, withoutVelocity)
}

func TestQuery_StopsWhenCallbackReturnsFalse(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()
	for i := 0; i < 5; i++ {
		cmd.AddEntity(testPosition{x: float32(i)})
	}
	app.FlushCommands()

	calls := 0
	MakeQuery1[testPosition](cmd).Map(func(EntityId, *testPosition) bool {
		calls++
		return calls < 2
	})
	assert.Equal(t, 2, calls)
}

func TestQuery_ThreeAndFourComponents(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()
	cmd.AddEntity(testPosition{}, testVelocity{}, testTag{name: "a"}, TransformComponent{})
	cmd.AddEntity(testPosition{}, testVelocity{}, testTag{name: "b"})
	app.FlushCommands()

	three := 0
	MakeQuery3[testPosition, testVelocity, testTag](cmd).Map(func(EntityId, *testPosition, *testVelocity, *testTag) bool {
		three++
		return true
	})
	assert.Equal(t, 2, three)

	var names []string
	MakeQuery4[testPosition, testVelocity, testTag, TransformComponent](cmd).Map(func(_ EntityId, _ *testPosition, _ *testVelocity, tag *testTag, _ *TransformComponent) bool {
		names = append(names, tag.name)
		return true
	})
	assert.Equal(t, []string{"a"}, names)
}

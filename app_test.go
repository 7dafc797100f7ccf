package marcher

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResource1 struct {
	name string
}
type mockResource2 struct {
	name string
}

func TestApp_changeState(t *testing.T) {
	app := &App{
		stateful:     true,
		initialState: 1,
		state:        1,
		finalState:   2,
	}

	app.changeState(2)
	if app.nextState != State(2) {
		t.Errorf("The nextState should be set correctly.")
	}
	if !app.stateTransitioning {
		t.Errorf("The stateTransitioning flag should be true.")
	}

	app.executeChangeState(2)
	if app.state != State(2) {
		t.Errorf("The app state should change correctly.")
	}
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := &mockResource1{name: "Resource1"}
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem())

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	app.addResources(&mockResource2{name: "Resource2"})
	got, ok := Resource[mockResource2](app)
	require.True(t, ok)
	assert.Equal(t, "Resource2", got.name)

	_, ok = Resource[Physics](app)
	assert.False(t, ok)
}

func TestApp_SystemsReceiveResources(t *testing.T) {
	app := NewAppBuilder().Build()
	app.addResources(&mockResource1{name: "a"})

	var order []string
	app.UseSystem(System(func(r *mockResource1) { order = append(order, "update:"+r.name) }).InStage(Update))
	app.UseSystem(System(func(cmd *Commands) {
		order = append(order, "prelude")
		cmd.AddEntity(testTag{name: "spawned"})
	}).InStage(Prelude))

	app.Step()
	assert.Equal(t, []string{"prelude", "update:a"}, order)
	assert.Equal(t, uint64(1), app.Frames())

	// commands issued in a stage are flushed before the next one
	n := 0
	MakeQuery1[testTag](app.Commands()).Map(func(EntityId, *testTag) bool { n++; return true })
	assert.Equal(t, 1, n)
}

func TestApp_UnresolvedDependencyPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(*mockResource2) {}).InStage(Update))
	assert.Panics(t, func() { app.Step() })
}

func TestApp_RunUntilFinalState(t *testing.T) {
	var events []string
	app := NewAppBuilder().
		UseStates(StateRunning, StateShutdown).
		Build()

	app.UseSystem(System(func() { events = append(events, "enter") }).InState(OnEnter(StateRunning)))
	app.UseSystem(System(func(cmd *Commands) {
		events = append(events, "execute")
		cmd.ChangeState(StateShutdown)
	}).InState(OnExecute(StateRunning)))
	app.UseSystem(System(func() { events = append(events, "exit") }).InState(OnExit(StateRunning)))
	app.UseSystem(System(func() { events = append(events, "shutdown") }).InState(OnEnter(StateShutdown)))

	app.OnShutdown(func() { events = append(events, "release:first") })
	app.OnShutdown(func() { events = append(events, "release:second") })

	app.Run()
	assert.Equal(t, []string{"enter", "execute", "exit", "shutdown", "release:second", "release:first"}, events)
}

func TestApp_UseStage(t *testing.T) {
	app := NewAppBuilder().Build()
	physicsStage := Stage{Name: "Physics", UpdateType: FixedUpdate}
	app.UseStage(physicsStage, AfterStage(PreUpdate))

	names := make([]string, 0, len(app.stages))
	for _, s := range app.stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Prelude", "PreUpdate", "Physics", "Update"}, names[:4])

	ran := false
	app.UseSystem(System(func() { ran = true }).InStage(physicsStage).InAnyState())
	app.Step()
	assert.True(t, ran)

	assert.Panics(t, func() { app.UseStage(Stage{Name: "x"}, BeforeStage(Stage{Name: "missing"})) })
	assert.Panics(t, func() {
		app.UseSystem(System(func() {}).InState(OnEnter(StateRunning)))
	})
}

func TestApp_CommandsComponents(t *testing.T) {
	app := NewAppBuilder().Build()
	cmd := app.Commands()

	eid := cmd.AddEntity(testPosition{x: 1})
	app.FlushCommands()
	cmd.AddComponents(eid, testTag{name: "t"})
	app.FlushCommands()
	assert.Len(t, cmd.GetAllComponents(eid), 2)

	cmd.RemoveComponents(eid, testPosition{})
	app.FlushCommands()
	assert.Equal(t, []any{testTag{name: "t"}}, cmd.GetAllComponents(eid))

	cmd.RemoveEntity(eid)
	app.FlushCommands()
	assert.Nil(t, cmd.GetAllComponents(eid))
}

package marcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPosition struct{ x, y float32 }
type testVelocity struct{ dx, dy float32 }
type testTag struct{ name string }

func TestEcs_MakeEcs(t *testing.T) {
	ecs := MakeEcs()

	if len(ecs.archetypes) != 0 {
		t.Errorf("Expected archetypes to be empty, got %v", ecs.archetypes)
	}
	if len(ecs.entityIndex) != 0 {
		t.Errorf("Expected entityIndex to be empty, got %v", ecs.entityIndex)
	}
	if ecs.nextId != 0 {
		t.Errorf("Expected nextId to be 0, got %v", ecs.nextId)
	}
}

func TestEcs_AddEntity(t *testing.T) {
	ecs := MakeEcs()

	e1 := ecs.addEntity()
	e2 := ecs.addEntity(testPosition{x: 1})
	e3 := ecs.addEntity(&testPosition{x: 2})

	require.True(t, ecs.hasEntity(e1))
	require.True(t, ecs.hasEntity(e2))
	assert.NotEqual(t, ecs.entityIndex[e1], ecs.entityIndex[e2])
	// pointers and values share the archetype of the struct type
	assert.Equal(t, ecs.entityIndex[e2], ecs.entityIndex[e3])
}

func TestEcs_ArchetypeKeyIgnoresOrder(t *testing.T) {
	ecs := MakeEcs()

	a := ecs.addEntity(testPosition{}, testVelocity{})
	b := ecs.addEntity(testVelocity{}, testPosition{})
	assert.Equal(t, ecs.entityIndex[a], ecs.entityIndex[b])
}

func TestEcs_AddAndRemoveComponents(t *testing.T) {
	ecs := MakeEcs()
	eid := ecs.addEntity(testPosition{x: 3, y: 4})

	ecs.addComponents(eid, testVelocity{dx: 1}, &testTag{name: "ball"})
	arch := ecs.archetypes[ecs.entityIndex[eid]]
	require.Len(t, arch.key, 3)

	r := arch.entities[eid]
	pos := reflectSliceGet(arch.componentData[componentIdOf[testPosition](&ecs)], int(r)).Interface().(testPosition)
	assert.Equal(t, testPosition{x: 3, y: 4}, pos)

	ecs.removeComponents(eid, testVelocity{})
	arch = ecs.archetypes[ecs.entityIndex[eid]]
	require.Len(t, arch.key, 2)
	tag := reflectSliceGet(arch.componentData[componentIdOf[testTag](&ecs)], int(arch.entities[eid])).Interface().(testTag)
	assert.Equal(t, "ball", tag.name)
}

func TestEcs_RemovedRowsAreRecycled(t *testing.T) {
	ecs := MakeEcs()
	a := ecs.addEntity(testPosition{x: 1})
	ecs.addEntity(testPosition{x: 2})

	arch := ecs.archetypes[ecs.entityIndex[a]]
	freed := arch.entities[a]
	ecs.removeEntity(a)
	assert.False(t, ecs.hasEntity(a))

	c := ecs.addEntity(testPosition{x: 3})
	assert.Equal(t, freed, arch.entities[c])
	assert.Len(t, arch.componentData[componentIdOf[testPosition](&ecs)].([]testPosition), 2)

	// unknown entities are ignored
	ecs.removeEntity(EntityId(999))
	ecs.addComponents(EntityId(999), testTag{})
}

func TestEcs_NonStructComponentPanics(t *testing.T) {
	ecs := MakeEcs()
	assert.Panics(t, func() { ecs.addEntity(42) })
}

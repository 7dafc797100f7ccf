package marcher

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"
)

type EntityId uint64
type archetypeId uint64
type archetypeKey []componentId
type componentId uint32
type row int
type set[T comparable] = map[T]struct{}

// Ecs stores components in archetype tables: one reflect-built slice per
// component type, all indexed by the same row.
type Ecs struct {
	archetypes  map[archetypeId]*archetype
	entityIndex map[EntityId]archetypeId

	idLock sync.Mutex
	nextId EntityId

	registry componentRegistry
}

type componentRegistry struct {
	mu     sync.Mutex
	next   componentId
	byType map[reflect.Type]componentId
	byId   map[componentId]reflect.Type
}

type archetype struct {
	id            archetypeId
	key           archetypeKey
	entities      map[EntityId]row
	componentData map[componentId]any
	recycled      []row
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:  make(map[archetypeId]*archetype),
		entityIndex: make(map[EntityId]archetypeId),
		registry: componentRegistry{
			byType: make(map[reflect.Type]componentId),
			byId:   make(map[componentId]reflect.Type),
		},
	}
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	arch := ecs.archetypeFor(ecs.keyOf(components...))

	r := ecs.reserveRow(arch)
	arch.entities[entityId] = r
	for _, component := range components {
		ecs.writeComponent(arch, r, component)
	}
	ecs.entityIndex[entityId] = arch.id

	return entityId
}

func (ecs *Ecs) hasEntity(entityId EntityId) bool {
	_, ok := ecs.entityIndex[entityId]
	return ok
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	if !ecs.hasEntity(entityId) {
		return
	}
	ecs.releaseRow(entityId)
}

func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	if !ecs.hasEntity(entityId) {
		return
	}
	src := ecs.archetypes[ecs.entityIndex[entityId]]
	dst := ecs.archetypeFor(mergeKeys(src.key, ecs.keyOf(components...)))
	ecs.migrate(entityId, src, dst, components...)
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	if !ecs.hasEntity(entityId) {
		return
	}
	src := ecs.archetypes[ecs.entityIndex[entityId]]

	drop := make(set[componentId])
	for _, c := range components {
		drop[ecs.registry.id(structType(c))] = struct{}{}
	}

	var key archetypeKey
	for _, id := range src.key {
		if _, ok := drop[id]; !ok {
			key = append(key, id)
		}
	}
	ecs.migrate(entityId, src, ecs.archetypeFor(key))
}

// migrate copies the shared columns of an entity into dst, writes the extra
// components and frees the source row.
func (ecs *Ecs) migrate(entityId EntityId, src, dst *archetype, extra ...any) {
	srcRow := src.entities[entityId]
	dstRow := ecs.reserveRow(dst)

	for _, id := range dst.key {
		srcColumn, ok := src.componentData[id]
		if !ok {
			continue
		}
		reflectSliceSet(dst.componentData[id], int(dstRow), reflectSliceGet(srcColumn, int(srcRow)))
	}
	for _, component := range extra {
		ecs.writeComponent(dst, dstRow, component)
	}

	ecs.releaseRow(entityId)
	dst.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dst.id
}

func (ecs *Ecs) writeComponent(dst *archetype, r row, component any) {
	value := reflect.ValueOf(component)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		panic(fmt.Errorf("expected Component to be a struct or a pointer to a struct, got %s", value.Kind()))
	}
	reflectSliceSet(dst.componentData[ecs.registry.id(value.Type())], int(r), value)
}

func (ecs *Ecs) releaseRow(entityId EntityId) {
	arch := ecs.archetypes[ecs.entityIndex[entityId]]
	arch.recycled = append(arch.recycled, arch.entities[entityId])

	delete(arch.entities, entityId)
	delete(ecs.entityIndex, entityId)
}

func (ecs *Ecs) reserveRow(arch *archetype) row {
	if n := len(arch.recycled); n > 0 {
		r := arch.recycled[n-1]
		arch.recycled = arch.recycled[:n-1]
		return r
	}

	r := row(len(arch.entities))
	for _, id := range arch.key {
		arch.componentData[id] = reflectSliceAppend(arch.componentData[id], reflect.Zero(ecs.registry.typeOf(id)))
	}
	return r
}

func (ecs *Ecs) archetypeFor(key archetypeKey) *archetype {
	id := hashKey(key)
	if arch, ok := ecs.archetypes[id]; ok {
		return arch
	}

	arch := &archetype{
		id:            id,
		key:           key,
		entities:      make(map[EntityId]row),
		componentData: make(map[componentId]any, len(key)),
	}
	for _, componentId := range key {
		arch.componentData[componentId] = reflectSliceMake(ecs.registry.typeOf(componentId))
	}
	ecs.archetypes[id] = arch
	return arch
}

// keyOf returns the sorted, deduplicated component ids of a component set.
// An archetype id is a hash of that key.
func (ecs *Ecs) keyOf(components ...any) archetypeKey {
	var key archetypeKey
	for _, component := range components {
		key = append(key, ecs.registry.id(structType(component)))
	}
	return normalizeKey(key)
}

func structType(component any) reflect.Type {
	t := reflect.TypeOf(component)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		panic("component should be a struct")
	}
	return t
}

func mergeKeys(a, b archetypeKey) archetypeKey {
	merged := make(archetypeKey, 0, len(a)+len(b))
	merged = append(merged, a...)
	return normalizeKey(append(merged, b...))
}

func normalizeKey(key archetypeKey) archetypeKey {
	res := slices.Clone(key)
	slices.Sort(res)
	return slices.Compact(res)
}

func hashKey(key archetypeKey) archetypeId {
	hash := fnv.New64a()
	var b [8]byte
	for _, id := range key {
		binary.LittleEndian.PutUint64(b[:], uint64(id))
		hash.Write(b[:])
	}
	return archetypeId(hash.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idLock.Lock()
	defer ecs.idLock.Unlock()

	id := ecs.nextId
	ecs.nextId++
	return id
}

func (r *componentRegistry) id(t reflect.Type) componentId {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byType[t]; ok {
		return id
	}
	id := r.next
	r.next++
	r.byType[t] = id
	r.byId[id] = t
	return id
}

func (r *componentRegistry) typeOf(id componentId) reflect.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.byId[id]; ok {
		return t
	}
	panic("ComponentID not registered")
}

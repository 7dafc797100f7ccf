package marcher

import (
	"reflect"
)

// Queries visit every entity whose archetype holds all required components.
// Component types passed as optionals may be missing, in which case the
// callback receives nil for them. Returning false from the callback stops
// the iteration.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }
type Query4[A, B, C, D any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: cmd.app.ecs}
}

type queryColumn[T any] struct {
	data   []T
	absent bool
}

func (c queryColumn[T]) at(r row) *T {
	if c.absent {
		return nil
	}
	return &c.data[r]
}

// columnOf resolves the column of T in arch. ok is false when T is required
// and the archetype lacks it.
func columnOf[T any](ecs *Ecs, arch *archetype, optionals set[componentId]) (queryColumn[T], bool) {
	id := componentIdOf[T](ecs)
	if data, ok := arch.componentData[id]; ok {
		return queryColumn[T]{data: data.([]T)}, true
	}
	if _, ok := optionals[id]; ok {
		return queryColumn[T]{absent: true}, true
	}
	return queryColumn[T]{}, false
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	opt := identifyOptionals(q.ecs, optionals...)
	for _, arch := range q.ecs.archetypes {
		a, ok := columnOf[A](q.ecs, arch, opt)
		if !ok {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, a.at(r)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	opt := identifyOptionals(q.ecs, optionals...)
	for _, arch := range q.ecs.archetypes {
		a, okA := columnOf[A](q.ecs, arch, opt)
		b, okB := columnOf[B](q.ecs, arch, opt)
		if !okA || !okB {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, a.at(r), b.at(r)) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	opt := identifyOptionals(q.ecs, optionals...)
	for _, arch := range q.ecs.archetypes {
		a, okA := columnOf[A](q.ecs, arch, opt)
		b, okB := columnOf[B](q.ecs, arch, opt)
		c, okC := columnOf[C](q.ecs, arch, opt)
		if !okA || !okB || !okC {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, a.at(r), b.at(r), c.at(r)) {
				return
			}
		}
	}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	opt := identifyOptionals(q.ecs, optionals...)
	for _, arch := range q.ecs.archetypes {
		a, okA := columnOf[A](q.ecs, arch, opt)
		b, okB := columnOf[B](q.ecs, arch, opt)
		c, okC := columnOf[C](q.ecs, arch, opt)
		d, okD := columnOf[D](q.ecs, arch, opt)
		if !okA || !okB || !okC || !okD {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, a.at(r), b.at(r), c.at(r), d.at(r)) {
				return
			}
		}
	}
}

func identifyOptionals(ecs *Ecs, components ...any) set[componentId] {
	res := make(set[componentId])
	for _, c := range components {
		res[ecs.registry.id(structType(c))] = struct{}{}
	}
	return res
}

func componentIdOf[T any](ecs *Ecs) componentId {
	return ecs.registry.id(reflect.TypeOf((*T)(nil)).Elem())
}

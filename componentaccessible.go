package silo

import "github.com/TheBitDrifter/table"

// AccessibleComponent extends a base Component with table-based accessibility.
// It provides methods to retrieve components using different access patterns,
// and is the type-safe handle user code holds onto for a registered
// component type (the compile-time derivation of column addresses the spec's
// view/query layer, C5, asks for).
type AccessibleComponent[T any] struct {
	table.ElementType
	table.Accessor[T] // concrete.
	hash              uint32
}

// typeHash implements Component.
func (c AccessibleComponent[T]) typeHash() uint32 {
	return c.hash
}

// With pairs this component with an initial value, for use in
// World.Spawn/World.AddComponents value-taking overloads. Values are matched
// to columns by component hash, never by argument position (spec §4.4).
func (c AccessibleComponent[T]) With(value T) ComponentValue {
	return ComponentValue{Component: c, Value: value}
}

// GetFromCursor retrieves a component value for the entity at the cursor's
// current row.
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(cursor.entityIndex-1, cursor.currentArchetype.table)
}

// GetFromCursorSafe safely retrieves a component value, checking first that
// the component exists on the cursor's current archetype.
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.Accessor.Check(cursor.currentArchetype.table) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor determines if the component exists in the archetype at the
// cursor's current position.
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	return c.Accessor.Check(cursor.currentArchetype.table)
}

// GetFromEntity retrieves a component value for the specified entity.
func (c AccessibleComponent[T]) GetFromEntity(entity Entity, world *World) *T {
	row, tbl := world.locate(entity)
	return c.Get(row, tbl)
}

// ComponentValue pairs a registered component with an initial value supplied
// by the caller, e.g. for world.Spawn(position.With(Position{1, 2})).
type ComponentValue struct {
	Component Component
	Value     any
}

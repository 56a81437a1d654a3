package silo

import "github.com/TheBitDrifter/table"

// factory implements the factory pattern for silo's entry points, exactly
// as the teacher's factory.go does for warehouse.Storage.
type factory struct{}

// Factory is the global factory instance for constructing worlds, queries
// and cursors.
var Factory factory

// NewWorld creates a World backed by the given schema.
func (f factory) NewWorld(schema table.Schema, opts ...WorldOption) *World {
	return newWorld(schema, opts...)
}

// NewQuery creates an empty, composable Query.
func (f factory) NewQuery() *Query {
	return newQuery()
}

// NewCursor creates a Cursor over world for the given query node.
func (f factory) NewCursor(query QueryNode, world *World) *Cursor {
	return newCursor(query, world)
}

// FactoryNewComponent registers (on first use) and returns the accessible
// handle for component type T.
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	iden := table.FactoryNewElementType[T]()
	d := register[T]()
	return AccessibleComponent[T]{
		ElementType: iden,
		Accessor:    table.FactoryNewAccessor[T](iden),
		hash:        d.hash,
	}
}

// FactoryNewCache creates a new Cache with the specified capacity.
func FactoryNewCache[T any](cap int) Cache[T] {
	return NewSimpleCache[T](cap)
}

package silo

import (
	"errors"
	"fmt"
)

// Sentinel errors, checked with errors.Is (spec §7).
var (
	// ErrInvalidEntity is returned when an operation targets a dead or
	// never-issued entity handle.
	ErrInvalidEntity = errors.New("silo: invalid or dead entity")

	// ErrMissingComponent is returned when a value can't be matched to any
	// column of the destination archetype.
	ErrMissingComponent = errors.New("silo: component not present")

	// ErrHashCollision is wrapped in the panic raised when two distinct
	// component type names hash to the same 32-bit value at registration
	// time. This is fatal: signature hashing can no longer be trusted to
	// distinguish archetypes.
	ErrHashCollision = errors.New("silo: component type hash collision")

	// ErrAllocationFailure wraps a failure to grow an archetype's backing
	// table.
	ErrAllocationFailure = errors.New("silo: archetype allocation failure")

	// ErrStorageLocked names the state of a world holding at least one
	// stage lock. No World operation returns it: while a lock is held,
	// AddComponents, AddComponentsWithValues, RemoveComponents and Kill log
	// the mutation to worker 0's command buffer instead.
	ErrStorageLocked = errors.New("silo: storage is locked")

	// ErrEntityRelation is returned by SetParent when the child already has
	// a parent.
	ErrEntityRelation = errors.New("silo: entity already has a parent")

	// ErrCacheFull is returned when the transition cache is at capacity; the
	// caller should fall back to computing the transition directly.
	ErrCacheFull = errors.New("silo: cache at capacity")

	// ErrUnknownStage is returned by Scheduler.RunStage for a stage not part
	// of the fixed pipeline.
	ErrUnknownStage = errors.New("silo: unknown stage")

	// ErrCycle is returned when a stage's before/after constraints form a
	// cycle.
	ErrCycle = errors.New("silo: system ordering cycle")
)

// ComponentExistsError describes a component the entity already carries.
// AddComponents does not return it: adding only components the entity
// already carries is a no-op that returns nil.
type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("silo: component already present on entity: %T", e.Component)
}

// ComponentNotFoundError describes a component the entity does not carry.
// RemoveComponents does not return it: removing only components the entity
// does not carry is a no-op that returns nil.
type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("silo: component not present on entity: %T", e.Component)
}

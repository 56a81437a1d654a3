package silo

import (
	"fmt"
	"hash/fnv"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/table"
)

// Component represents a data attribute/state that can be attached to entities.
// Components can be used to create queries for entities.
type Component interface {
	table.ElementType

	// typeHash is the stable FNV-1a-32 hash of the component's canonical type name.
	typeHash() uint32
}

// descriptor holds compile/registration-time metadata for one component type.
//
// The four thunks the source specification asks for (default-construct-n,
// move-construct-n, move-assign-one, destroy-n) are subsumed here by
// table.Table's own element handling: Go values don't have user-definable
// move/copy constructors the way the C++ original does, so there is nothing
// for a thunk to dispatch to beyond a plain value copy, which table.Table
// already performs on NewEntries/TransferEntries/DeleteEntries. What we do
// keep, because nothing upstream exposes it, is the type's size, alignment,
// canonical name and triviality flags; the name is what the
// registration-time collision check compares.
type descriptor struct {
	hash                  uint32
	size                  uintptr
	align                 uintptr
	name                  string
	triviallyRelocatable  bool
	triviallyCopyable     bool
	triviallyMoveAssigned bool
}

// registry is the process-wide, append-only component type table (spec §9,
// "Global mutable state"). Concurrent first-use registration is synchronised
// with a mutex; the table only ever grows.
type registry struct {
	mu     sync.Mutex
	byHash map[uint32]descriptor
	byType map[reflect.Type]uint32
}

var globalRegistry = &registry{
	byHash: make(map[uint32]descriptor),
	byType: make(map[reflect.Type]uint32),
}

// fnv1a32 hashes a component's canonical type name, per spec §4.1.
func fnv1a32(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}

// register records T's descriptor on first use and returns it. A 32-bit hash
// collision between two distinct type names is fatal (ErrHashCollision) and
// is detected here by comparing canonical names.
func register[T any]() descriptor {
	var zero T
	t := reflect.TypeOf(zero)
	name := t.PkgPath() + "." + t.Name()
	if t.PkgPath() == "" {
		name = t.String()
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if h, ok := globalRegistry.byType[t]; ok {
		return globalRegistry.byHash[h]
	}

	h := fnv1a32(name)
	if existing, collided := globalRegistry.byHash[h]; collided && existing.name != name {
		panic(fmt.Errorf("%w: %q and %q both hash to %d", ErrHashCollision, existing.name, name, h))
	}

	d := descriptor{
		hash:                  h,
		size:                  t.Size(),
		align:                 uintptr(t.Align()),
		name:                  name,
		triviallyRelocatable:  isTriviallyRelocatable(t),
		triviallyCopyable:     isTriviallyRelocatable(t),
		triviallyMoveAssigned: isTriviallyRelocatable(t),
	}
	globalRegistry.byHash[h] = d
	globalRegistry.byType[t] = h
	return d
}

// isTriviallyRelocatable reports whether a value of type t can be relocated
// with a raw byte copy: it holds no pointers, so no internal aliasing
// invariant can be broken by memcpy-style relocation.
func isTriviallyRelocatable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.String, reflect.UnsafePointer:
		return false
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !isTriviallyRelocatable(t.Field(i).Type) {
				return false
			}
		}
		return true
	case reflect.Array:
		if t.Len() == 0 {
			return true
		}
		return isTriviallyRelocatable(t.Elem())
	default:
		return true
	}
}

// defaultAlignmentFloor is the minimum column alignment silo guarantees, to
// aid SIMD-friendly loads over component columns (spec §4.2). table.Table
// owns the actual column allocation; this constant documents the contract
// a conforming table.Table implementation is expected to honor.
const defaultAlignmentFloor = 32

// initialArchetypeCapacity is DefaultRuntimeConfig's InitialCapacity, the
// row count cmd/siloctl passes to World.ReserveArchetype. newArchetype does
// not pass it to table.Table, which sizes new columns itself.
const initialArchetypeCapacity = 64

package silo

import (
	"fmt"
	"reflect"
	"strings"
)

// WorldStats is a point-in-time snapshot of a World, for tooling and
// diagnostics (spec-full supplement, grounded on
// delaneyj-arche/ecs/stats/stats.go; the original system's
// proton/archetype.hpp exposes similar per-archetype bookkeeping that the
// distilled spec.md dropped).
type WorldStats struct {
	Entities        EntityStats
	ArchetypeCount  int
	TransitionEdges int
	Locked          bool
	Archetypes      []ArchetypeStats
}

// EntityStats describes the entity directory's occupancy.
type EntityStats struct {
	Used     int
	Capacity int
	Recycled int
}

// ArchetypeStats describes one archetype.
type ArchetypeStats struct {
	Size           int
	Components     int
	ComponentHashes []uint32
	ComponentTypes []reflect.Type
}

// Stats snapshots the world's current size and shape.
func (w *World) Stats() WorldStats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	w.directory.mu.RLock()
	used := len(w.directory.slots) - 1 - w.directory.free.Len()
	capacity := len(w.directory.slots) - 1
	recycled := w.directory.free.Len()
	w.directory.mu.RUnlock()

	archStats := make([]ArchetypeStats, len(w.archetypes))
	for i, a := range w.archetypes {
		types := make([]reflect.Type, len(a.components))
		for j, c := range a.components {
			types[j] = reflect.TypeOf(c)
		}
		archStats[i] = ArchetypeStats{
			Size:            a.Len(),
			Components:      len(a.components),
			ComponentHashes: a.hashes,
			ComponentTypes:  types,
		}
	}

	edges := 0
	if sc, ok := w.transitions.(*SimpleCache[uint64]); ok {
		edges = len(sc.itemIndices)
	}

	return WorldStats{
		Entities: EntityStats{
			Used:     used,
			Capacity: capacity,
			Recycled: recycled,
		},
		ArchetypeCount:  len(w.archetypes),
		TransitionEdges: edges,
		Locked:         !w.locks.IsEmpty(),
		Archetypes:     archStats,
	}
}

func (s WorldStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "World -- Archetypes: %d, Locked: %t\n", s.ArchetypeCount, s.Locked)
	fmt.Fprintf(&b, "  Entities -- Used: %d, Recycled: %d, Capacity: %d\n",
		s.Entities.Used, s.Entities.Recycled, s.Entities.Capacity)
	for _, a := range s.Archetypes {
		names := make([]string, len(a.ComponentTypes))
		for i, t := range a.ComponentTypes {
			names[i] = t.String()
		}
		fmt.Fprintf(&b, "  Archetype -- Size: %d, Components: %s\n", a.Size, strings.Join(names, ", "))
	}
	return b.String()
}

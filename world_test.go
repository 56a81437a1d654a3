package silo

import (
	"testing"

	"github.com/TheBitDrifter/table"
)

func newTestWorld() *World {
	schema := table.Factory.NewSchema()
	return Factory.NewWorld(schema)
}

func TestSpawnAndReadComponents(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	velocity := FactoryNewComponent[testVelocity]()

	e, err := w.Spawn(position.With(testPosition{X: 1, Y: 2}), velocity.With(testVelocity{X: 3, Y: 4}))
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if !w.IsAlive(e) {
		t.Fatalf("spawned entity reported not alive")
	}

	row, tbl := w.locate(e)
	if tbl == nil {
		t.Fatalf("locate returned a nil table for a live entity")
	}
	pos := position.Get(row, tbl)
	if pos.X != 1 || pos.Y != 2 {
		t.Fatalf("Position = %+v, want {1 2}", *pos)
	}
}

func TestKillThenIsAliveFalse(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	e, err := w.Spawn(position.With(testPosition{X: 1, Y: 1}))
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if err := w.Kill(e); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	if w.IsAlive(e) {
		t.Fatalf("killed entity still reports alive")
	}
}

func TestKillSwapRemoveKeepsSurvivorReadable(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()

	e1, _ := w.Spawn(position.With(testPosition{X: 1, Y: 1}))
	e2, _ := w.Spawn(position.With(testPosition{X: 2, Y: 2}))
	e3, _ := w.Spawn(position.With(testPosition{X: 3, Y: 3}))

	if err := w.Kill(e1); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}

	if !w.IsAlive(e2) || !w.IsAlive(e3) {
		t.Fatalf("killing e1 incorrectly invalidated a survivor")
	}

	row, tbl := w.locate(e3)
	pos := position.Get(row, tbl)
	if pos.X != 3 {
		t.Fatalf("after swap-remove, e3's Position.X = %v, want 3", pos.X)
	}
	_ = e2
}

func TestAddComponentsMovesArchetypePreservingValues(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	velocity := FactoryNewComponent[testVelocity]()

	e, _ := w.Spawn(position.With(testPosition{X: 5, Y: 6}))
	if err := w.AddComponentsWithValues(e, velocity.With(testVelocity{X: 1, Y: 1})); err != nil {
		t.Fatalf("AddComponentsWithValues failed: %v", err)
	}

	row, tbl := w.locate(e)
	pos := position.Get(row, tbl)
	if pos.X != 5 || pos.Y != 6 {
		t.Fatalf("Position lost across archetype move: %+v", *pos)
	}
	vel := velocity.Get(row, tbl)
	if vel.X != 1 || vel.Y != 1 {
		t.Fatalf("Velocity = %+v, want {1 1}", *vel)
	}
}

func TestRemoveComponentsMovesArchetype(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	velocity := FactoryNewComponent[testVelocity]()

	e, _ := w.Spawn(position.With(testPosition{X: 1, Y: 1}), velocity.With(testVelocity{X: 2, Y: 2}))
	if err := w.RemoveComponents(e, velocity); err != nil {
		t.Fatalf("RemoveComponents failed: %v", err)
	}

	row, tbl := w.locate(e)
	if tbl.Contains(velocity) {
		t.Fatalf("velocity column still present after RemoveComponents")
	}
	pos := position.Get(row, tbl)
	if pos.X != 1 {
		t.Fatalf("Position lost across removal: %+v", *pos)
	}
}

func TestInvalidEntityOperationsError(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	e, _ := w.Spawn(position.With(testPosition{}))
	if err := w.Kill(e); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}
	if err := w.Kill(e); err == nil {
		t.Fatalf("killing an already-dead entity did not error")
	}
	if err := w.AddComponents(e, position); err == nil {
		t.Fatalf("AddComponents on a dead entity did not error")
	}
}

func TestTransitionCacheRecordsSymmetricEdge(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	velocity := FactoryNewComponent[testVelocity]()

	e, _ := w.Spawn(position.With(testPosition{}))
	base := w.Archetypes()[0].signature

	if err := w.AddComponents(e, velocity); err != nil {
		t.Fatalf("AddComponents failed: %v", err)
	}
	dest, _, _ := w.directory.locate(e)

	delta := base ^ dest.signature
	if _, ok := w.transitions.GetIndex(deltaKey(base, delta)); !ok {
		t.Fatalf("forward transition edge not recorded")
	}
	if _, ok := w.transitions.GetIndex(deltaKey(dest.signature, delta)); !ok {
		t.Fatalf("inverse transition edge not recorded")
	}
}

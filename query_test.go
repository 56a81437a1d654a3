package silo

import "testing"

func TestQueryWithFiltersToMatchingArchetypesOnly(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	velocity := FactoryNewComponent[testVelocity]()
	tag := FactoryNewComponent[testTag]()

	pOnly, _ := w.Spawn(position.With(testPosition{X: 1}))
	_, _ = w.Spawn(velocity.With(testVelocity{X: 2}))
	pv, _ := w.Spawn(position.With(testPosition{X: 3}), velocity.With(testVelocity{X: 4}))

	node := Factory.NewQuery().With(position).Node()
	cursor := Factory.NewCursor(node, w)

	seen := map[Entity]bool{}
	for cursor.Next() {
		seen[cursor.CurrentEntity()] = true
	}
	if !seen[pOnly] || !seen[pv] {
		t.Fatalf("With(position) missed an entity that has position: %v", seen)
	}
	if len(seen) != 2 {
		t.Fatalf("With(position) matched %d entities, want 2", len(seen))
	}
	_ = tag
}

func TestQueryWithoutExcludesArchetype(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	velocity := FactoryNewComponent[testVelocity]()

	pOnly, _ := w.Spawn(position.With(testPosition{X: 1}))
	_, _ = w.Spawn(position.With(testPosition{X: 1}), velocity.With(testVelocity{X: 2}))

	node := Factory.NewQuery().With(position).Without(velocity).Node()
	cursor := Factory.NewCursor(node, w)

	count := 0
	var got Entity
	for cursor.Next() {
		got = cursor.CurrentEntity()
		count++
	}
	if count != 1 || got != pOnly {
		t.Fatalf("Without(velocity) matched %d entities, want exactly pOnly", count)
	}
}

func TestQueryWithAnyMatchesEither(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	velocity := FactoryNewComponent[testVelocity]()
	tag := FactoryNewComponent[testTag]()

	_, _ = w.Spawn(position.With(testPosition{}))
	_, _ = w.Spawn(velocity.With(testVelocity{}))
	_, _ = w.Spawn(tag.With(testTag{}))

	node := Factory.NewQuery().WithAny(position, velocity).Node()
	cursor := Factory.NewCursor(node, w)

	count := cursor.TotalMatched()
	if count != 2 {
		t.Fatalf("WithAny(position, velocity) matched %d, want 2", count)
	}
}

func TestCursorIterationMutatesInPlace(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	velocity := FactoryNewComponent[testVelocity]()

	_, _ = w.Spawn(position.With(testPosition{X: 0, Y: 0}), velocity.With(testVelocity{X: 1, Y: 2}))
	_, _ = w.Spawn(position.With(testPosition{X: 10, Y: 10}), velocity.With(testVelocity{X: 1, Y: 2}))

	node := Factory.NewQuery().With(position, velocity).Node()
	cursor := Factory.NewCursor(node, w)
	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

	node2 := Factory.NewQuery().With(position).Node()
	cursor2 := Factory.NewCursor(node2, w)
	var xs []float64
	for cursor2.Next() {
		xs = append(xs, position.GetFromCursor(cursor2).X)
	}
	if len(xs) != 2 || (xs[0] != 1 && xs[1] != 1) {
		t.Fatalf("mutation through cursor did not persist: %v", xs)
	}
}

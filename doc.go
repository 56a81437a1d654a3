/*
Package silo is an archetype-based Entity-Component-System (ECS) core.

Silo stores a dynamic population of entities, each tagged with a
heterogeneous set of components, in Structure-of-Arrays columns grouped by
archetype (the exact set of component types an entity carries). Entities
sharing a signature live in the same archetype and are iterated in tight,
cache-friendly loops.

Core Concepts:

  - Entity: a 64-bit (generation, index) handle.
  - Component: a data type registered once and attached to entities.
  - Archetype: the SoA storage for every entity sharing one component signature.
  - World: the registry mapping entities to archetypes and signatures to archetypes.
  - Query / Cursor: a filtered, joined iterator over one or more archetypes.
  - CommandBuffer: a deferred log of structural mutations, drained at stage boundaries.
  - Scheduler: the fixed stage pipeline systems run within.

Basic Usage:

	schema := table.Factory.NewSchema()
	world := silo.Factory.NewWorld(schema)

	position := silo.FactoryNewComponent[Position]()
	velocity := silo.FactoryNewComponent[Velocity]()

	e1, _ := world.Spawn(position.With(Position{1, 2}), velocity.With(Velocity{3, 4}))

	node := silo.Factory.NewQuery().With(position, velocity).Node()
	cursor := silo.Factory.NewCursor(node, world)

	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
	}

Silo is a library, not a process: windowing, rendering, and application
bootstrap are external collaborators driven by the stage scheduler contract
in scheduler.go.
*/
package silo

package silo

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

// Cursor is a filtered, joined iterator over every archetype matching a
// query (spec §5, C5). It walks matching archetypes in registration order
// and, within each, rows in lockstep; AccessibleComponent's GetFromCursor
// reads column T at the cursor's current row.
type Cursor struct {
	query QueryNode
	world *World

	currentArchetype *archetype
	archIndex        int
	entityIndex      int
	remaining        int

	initialized bool
	matched     []*archetype
}

func newCursor(query QueryNode, world *World) *Cursor {
	return &Cursor{query: query, world: world}
}

// Next advances to the next matching entity, returning false once every
// matching archetype has been exhausted (at which point the cursor resets
// and releases its stage lock, ready to be reused).
func (c *Cursor) Next() bool {
	if c.entityIndex < c.remaining {
		c.entityIndex++
		return true
	}
	return c.advance()
}

func (c *Cursor) advance() bool {
	if !c.initialized {
		c.initialize()
	}
	for c.archIndex < len(c.matched) {
		c.currentArchetype = c.matched[c.archIndex]
		c.remaining = c.currentArchetype.Len()
		if c.entityIndex < c.remaining {
			c.entityIndex++
			return true
		}
		c.archIndex++
		c.entityIndex = 0
	}
	c.Reset()
	return false
}

// Entities returns an iterator sequence of (row, table) pairs across every
// matching archetype, for range-over-func style consumption.
func (c *Cursor) Entities() iter.Seq2[int, table.Table] {
	return func(yield func(int, table.Table) bool) {
		c.initialize()
		for c.archIndex < len(c.matched) {
			c.currentArchetype = c.matched[c.archIndex]
			c.remaining = c.currentArchetype.Len()
			for c.entityIndex < c.remaining {
				if !yield(c.entityIndex, c.currentArchetype.table) {
					c.Reset()
					return
				}
				c.entityIndex++
			}
			c.entityIndex = 0
			c.archIndex++
		}
		c.Reset()
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.world.AddLock(cursorLockBit)
	c.matched = c.matched[:0]
	for _, arch := range c.world.Archetypes() {
		if c.query.evaluate(arch, c.world) {
			c.matched = append(c.matched, arch)
		}
	}
	if len(c.matched) > 0 {
		c.archIndex = 0
		c.currentArchetype = c.matched[0]
		c.remaining = c.currentArchetype.Len()
	}
	c.initialized = true
}

// Reset clears cursor state and releases the stage lock it took during
// initialize, draining any command buffers queued while it held the lock.
func (c *Cursor) Reset() {
	c.archIndex = 0
	c.entityIndex = 0
	c.remaining = 0
	c.matched = nil
	c.initialized = false
	_ = c.world.RemoveLock(cursorLockBit)
}

// CurrentEntity returns the entity occupying the cursor's current row.
func (c *Cursor) CurrentEntity() Entity {
	return c.currentArchetype.entityAt(c.entityIndex - 1)
}

// EntityAtOffset returns the entity at an offset from the cursor's current
// row, within the current archetype only.
func (c *Cursor) EntityAtOffset(offset int) Entity {
	return c.currentArchetype.entityAt(c.entityIndex - 1 + offset)
}

// EntityIndex returns the 1-based row position within the current
// archetype.
func (c *Cursor) EntityIndex() int { return c.entityIndex }

// RemainingInArchetype returns how many rows are left in the current
// archetype, including the current one.
func (c *Cursor) RemainingInArchetype() int { return c.remaining - c.entityIndex + 1 }

// TotalMatched returns the total row count across every matching archetype.
func (c *Cursor) TotalMatched() int {
	c.initialize()
	total := 0
	for _, arch := range c.matched {
		total += arch.Len()
	}
	c.Reset()
	return total
}

// cursorLockBit is the stage-lock bit cursors use to defer structural
// mutation while iterating. Distinct system-authored locks should use other
// bits of the same mask.Mask256 (scheduler.go holds stageLockBit for every
// stage).
const cursorLockBit = 31

package silo

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

type archetypeID uint32

// archetype is the SoA column store for every live entity sharing one exact
// component signature (spec §4.2, C2). Column allocation, growth (strict
// doubling from a 64-row initial capacity) and the physical swap-remove are
// delegated to table.Table -- this is the teacher's own storage mechanism,
// unchanged. What archetype owns on top is the identity bookkeeping
// table.Table has no notion of: the signature hash, the sorted per-type
// hash list, a fast filter mask, and the dense row<->entity directory.
type archetype struct {
	id         archetypeID
	signature  uint64
	hashes     []uint32 // ascending, canonical
	components []Component
	filterMask mask.Mask
	table      table.Table

	rows []Entity // row -> owning entity, kept dense
}

func newArchetype(id archetypeID, schema table.Schema, entryIndex table.EntryIndex, components []Component) (*archetype, error) {
	hashes := make([]uint32, len(components))
	elementTypes := make([]table.ElementType, len(components))
	var filterMask mask.Mask

	for i, c := range components {
		hashes[i] = c.typeHash()
		elementTypes[i] = c
		schema.Register(c)
		filterMask.Mark(schema.RowIndexFor(c))
	}
	hashes = canonicalHashes(hashes)

	tbl, err := table.NewTableBuilder().
		WithSchema(schema).
		WithEntryIndex(entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(Config.tableEvents).
		Build()
	if err != nil {
		return nil, bark.AddTrace(fmt.Errorf("%w: %v", ErrAllocationFailure, err))
	}

	return &archetype{
		id:         id,
		signature:  signatureHash(hashes),
		hashes:     hashes,
		components: components,
		filterMask: filterMask,
		table:      tbl,
	}, nil
}

func (a *archetype) Len() int { return a.table.Length() }

func (a *archetype) has(c Component) bool { return a.table.Contains(c) }

func (a *archetype) matchesAll(m mask.Mask) bool  { return a.filterMask.ContainsAll(m) }
func (a *archetype) matchesAny(m mask.Mask) bool  { return a.filterMask.ContainsAny(m) }
func (a *archetype) matchesNone(m mask.Mask) bool { return a.filterMask.ContainsNone(m) }

// entityAt returns the entity occupying row, or NullEntity if out of range.
func (a *archetype) entityAt(row int) Entity {
	if row < 0 || row >= len(a.rows) {
		return NullEntity
	}
	return a.rows[row]
}

// emplace reserves n fresh rows for the given entities and records them in
// the row directory. The returned table.Entry slice lets the caller learn
// each entity's stable table.EntryID and starting row.
func (a *archetype) emplace(entities ...Entity) ([]table.Entry, error) {
	entries, err := a.table.NewEntries(len(entities))
	if err != nil {
		return nil, bark.AddTrace(fmt.Errorf("%w: %v", ErrAllocationFailure, err))
	}
	a.rows = append(a.rows, entities...)
	return entries, nil
}

// appendRow records an entity already physically transferred into this
// archetype's table by a caller (see World.AddComponents/RemoveComponents).
func (a *archetype) appendRow(e Entity) {
	a.rows = append(a.rows, e)
}

// removeRowBookkeeping updates the row directory after some other operation
// (table.TransferEntries, or our own eraseRow) has already swap-removed the
// physical row at the table layer. It performs the identical transform on
// a.rows: the last row's entity is moved into the vacated slot.
func (a *archetype) removeRowBookkeeping(row int) (moved Entity, hadMove bool) {
	last := len(a.rows) - 1
	if row != last {
		moved = a.rows[last]
		hadMove = true
		a.rows[row] = moved
	}
	a.rows = a.rows[:last]
	return moved, hadMove
}

// eraseRow deletes the physical row identified by entryID and updates the
// row directory to match.
func (a *archetype) eraseRow(row int, entryID table.EntryID) (moved Entity, hadMove bool, err error) {
	if _, delErr := a.table.DeleteEntries(int(entryID)); delErr != nil {
		return NullEntity, false, bark.AddTrace(delErr)
	}
	moved, hadMove = a.removeRowBookkeeping(row)
	return moved, hadMove, nil
}

// transferRowTo moves the physical row at srcRow from a into dst, appending
// it to dst's columns. It does not touch either archetype's row directory;
// the caller (World) is responsible for removeRowBookkeeping on a and
// appendRow on dst, since only it knows the entity identity involved.
func (a *archetype) transferRowTo(dst *archetype, srcRow int) error {
	if err := a.table.TransferEntries(dst.table, srcRow); err != nil {
		return bark.AddTrace(err)
	}
	return nil
}

// clear empties the archetype, discarding every row without running any
// per-entity teardown (callers are expected to have already freed the
// entity directory slots).
func (a *archetype) clear() error {
	if len(a.rows) == 0 {
		return nil
	}
	ids := make([]int, 0, len(a.rows))
	for row := range a.rows {
		entry, err := a.table.Entry(row)
		if err != nil {
			return bark.AddTrace(err)
		}
		ids = append(ids, int(entry.ID()))
	}
	if _, err := a.table.DeleteEntries(ids...); err != nil {
		return bark.AddTrace(err)
	}
	a.rows = a.rows[:0]
	return nil
}

package silo

import (
	"container/heap"
	"fmt"
	"math"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// Entity is an opaque 64-bit handle: a 32-bit generation packed over a
// 32-bit index (spec §3). Index zero is reserved and never issued; it is
// the zero value of Entity, so a never-assigned Entity variable reads as
// invalid rather than as entity zero.
type Entity uint64

// NullEntity is the reserved, never-alive handle.
const NullEntity Entity = 0

func newEntityHandle(generation, index uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index returns the handle's slot index.
func (e Entity) Index() uint32 { return uint32(e) }

// Generation returns the handle's generation counter.
func (e Entity) Generation() uint32 { return uint32(e >> 32) }

func (e Entity) String() string {
	return fmt.Sprintf("Entity{gen:%d idx:%d}", e.Generation(), e.Index())
}

// generationMax is the point past which an index's generation counter is
// retired rather than recycled (spec §3, "generation exhaustion").
const generationMax = math.MaxUint32

// EntityDestroyCallback is invoked with the destroyed entity when it dies.
type EntityDestroyCallback func(Entity)

// entitySlot is one row of the entity directory (C3).
type entitySlot struct {
	generation uint32
	alive      bool
	archetype  *archetype
	entryID    table.EntryID

	parent    Entity
	onDestroy EntityDestroyCallback
}

// entityDirectory is the world's entity table: generation counters, the
// free-index min-heap, and the archetype/row each live entity currently
// occupies. Structural mutation elsewhere (archetype transfers) updates an
// entity's archetype pointer here; the row itself is never cached -- it is
// always re-resolved from the live table.Entry, the same way the teacher's
// entity.entry() does, so a swap-remove anywhere never leaves a stale row
// number lying around for someone to read.
type entityDirectory struct {
	mu    sync.RWMutex
	slots []entitySlot // slots[0] is the reserved null slot
	free  indexHeap
}

func newEntityDirectory() *entityDirectory {
	return &entityDirectory{slots: make([]entitySlot, 1)}
}

// alloc reserves a fresh handle. It does not place the entity in any
// archetype; callers must follow with setLocation once the entity has a
// row.
func (d *entityDirectory) alloc() Entity {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.free.Len() > 0 {
		idx := heap.Pop(&d.free).(uint32)
		slot := &d.slots[idx]
		slot.alive = true
		return newEntityHandle(slot.generation, idx)
	}

	idx := uint32(len(d.slots))
	d.slots = append(d.slots, entitySlot{alive: true})
	return newEntityHandle(0, idx)
}

// free retires e. If its generation has not been exhausted the index is
// returned to the pool for reuse; otherwise the index is permanently
// dropped and never issued again.
func (d *entityDirectory) free(e Entity) {
	d.mu.Lock()
	slot := &d.slots[e.Index()]
	callback := slot.onDestroy
	slot.alive = false
	slot.archetype = nil
	slot.parent = NullEntity
	slot.onDestroy = nil
	if slot.generation < generationMax {
		slot.generation++
		heap.Push(&d.free, e.Index())
	}
	d.mu.Unlock()

	if callback != nil {
		callback(e)
	}
}

func (d *entityDirectory) isAlive(e Entity) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.isAliveLocked(e)
}

func (d *entityDirectory) isAliveLocked(e Entity) bool {
	idx := e.Index()
	if idx == 0 || int(idx) >= len(d.slots) {
		return false
	}
	slot := d.slots[idx]
	return slot.alive && slot.generation == e.Generation()
}

// locate returns the archetype and table entry id currently backing e.
func (d *entityDirectory) locate(e Entity) (*archetype, table.EntryID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.isAliveLocked(e) {
		return nil, 0, false
	}
	slot := d.slots[e.Index()]
	return slot.archetype, slot.entryID, true
}

func (d *entityDirectory) setLocation(e Entity, arch *archetype, id table.EntryID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	slot := &d.slots[e.Index()]
	slot.archetype = arch
	slot.entryID = id
}

// setParent records that child is owned by parent: when parent is
// destroyed, callback fires with the parent handle. Mirrors the teacher's
// single-callback-slot relationship model exactly, limitation included --
// a second SetParent call on an already-parented child returns
// ErrEntityRelation, and a parent holds one callback, so naming the same
// parent for another child replaces the parent's earlier callback.
func (d *entityDirectory) setParent(child, parent Entity, callback EntityDestroyCallback) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.isAliveLocked(child) || !d.isAliveLocked(parent) {
		return bark.AddTrace(fmt.Errorf("%w: child or parent not alive", ErrInvalidEntity))
	}
	cs := &d.slots[child.Index()]
	if cs.parent != NullEntity {
		return bark.AddTrace(fmt.Errorf("%w: child %v already has parent %v", ErrEntityRelation, child, cs.parent))
	}
	cs.parent = parent
	ps := &d.slots[parent.Index()]
	ps.onDestroy = callback
	return nil
}

func (d *entityDirectory) parentOf(child Entity) Entity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.isAliveLocked(child) {
		return NullEntity
	}
	cs := d.slots[child.Index()]
	if cs.parent == NullEntity || !d.isAliveLocked(cs.parent) {
		return NullEntity
	}
	return cs.parent
}

func (d *entityDirectory) count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.slots) - 1 - d.free.Len()
}

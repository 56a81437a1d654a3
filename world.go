package silo

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// World is the registry tying entities, archetypes and signatures together
// (spec §4.3/§4.4, C4). It owns the entity directory, the archetype set
// keyed by signature hash, and a symmetric transition cache in which every
// add/remove-component transition records both of its edges. Transitions
// resolve their destination from the signature map each time; they do not
// read the transition cache.
type World struct {
	mu         sync.RWMutex
	schema     table.Schema
	entryIndex table.EntryIndex

	directory  *entityDirectory
	archetypes []*archetype
	byHash     map[uint64]*archetype
	nextID     archetypeID

	transitions Cache[uint64]

	locks   mask.Mask256
	buffers []*CommandBuffer

	// Resources is the typed singleton registry (spec-full supplement,
	// grounded on delaneyj-arche's ecs/resources.go): values addressable by
	// systems without being a component on every entity.
	Resources *Resources

	metrics metricsSink
}

// WorldOption configures a World at construction time.
type WorldOption func(*World)

// WithMetrics installs a metrics sink (metrics.go); the default is a no-op
// sink.
func WithMetrics(sink metricsSink) WorldOption {
	return func(w *World) { w.metrics = sink }
}

// WithTransitionCacheCapacity bounds the symmetric transition cache. The
// default is generous (4096 edges); systems churning through thousands of
// distinct signatures may want a larger bound.
func WithTransitionCacheCapacity(n int) WorldOption {
	return func(w *World) { w.transitions = NewSimpleCache[uint64](n) }
}

func newWorld(schema table.Schema, opts ...WorldOption) *World {
	w := &World{
		schema:      schema,
		entryIndex:  table.Factory.NewEntryIndex(),
		directory:   newEntityDirectory(),
		byHash:      make(map[uint64]*archetype),
		nextID:      1,
		transitions: NewSimpleCache[uint64](4096),
		Resources:   newResources(),
		metrics:     noopMetrics{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// archetypeFor returns the archetype for an exact component set, creating
// it (and registering its signature) on first use.
func (w *World) archetypeFor(components []Component) (*archetype, error) {
	hashes := make([]uint32, len(components))
	for i, c := range components {
		hashes[i] = c.typeHash()
	}
	hashes = canonicalHashes(hashes)
	sig := signatureHash(hashes)

	w.mu.Lock()
	defer w.mu.Unlock()

	if a, ok := w.byHash[sig]; ok {
		return a, nil
	}
	a, err := newArchetype(w.nextID, w.schema, w.entryIndex, components)
	if err != nil {
		return nil, err
	}
	w.nextID++
	w.byHash[sig] = a
	w.archetypes = append(w.archetypes, a)
	w.metrics.archetypeCreated()
	return a, nil
}

func componentsOf(values []ComponentValue) []Component {
	components := make([]Component, len(values))
	for i, v := range values {
		components[i] = v.Component
	}
	return components
}

// Spawn creates one entity with the given component values, matched to
// columns by component hash rather than argument order (spec §4.4).
func (w *World) Spawn(values ...ComponentValue) (Entity, error) {
	arch, err := w.archetypeFor(componentsOf(values))
	if err != nil {
		return NullEntity, err
	}
	e := w.directory.alloc()
	entries, err := arch.emplace(e)
	if err != nil {
		w.directory.free(e)
		return NullEntity, err
	}
	w.directory.setLocation(e, arch, entries[0].ID())

	row := entries[0].Index()
	for _, v := range values {
		if err := setColumnValue(arch.table, row, v.Value); err != nil {
			return e, err
		}
	}
	w.metrics.entitySpawned()
	return e, nil
}

// SpawnEmpty creates an entity with no components.
func (w *World) SpawnEmpty() (Entity, error) {
	arch, err := w.archetypeFor(nil)
	if err != nil {
		return NullEntity, err
	}
	e := w.directory.alloc()
	entries, err := arch.emplace(e)
	if err != nil {
		w.directory.free(e)
		return NullEntity, err
	}
	w.directory.setLocation(e, arch, entries[0].ID())
	w.metrics.entitySpawned()
	return e, nil
}

// SpawnN creates n entities sharing the given component set, with
// zero-valued columns.
func (w *World) SpawnN(n int, components ...Component) ([]Entity, error) {
	if n <= 0 {
		return nil, nil
	}
	arch, err := w.archetypeFor(components)
	if err != nil {
		return nil, err
	}
	entities := make([]Entity, n)
	for i := range entities {
		entities[i] = w.directory.alloc()
	}
	entries, err := arch.emplace(entities...)
	if err != nil {
		for _, e := range entities {
			w.directory.free(e)
		}
		return nil, err
	}
	for i, e := range entities {
		w.directory.setLocation(e, arch, entries[i].ID())
	}
	w.metrics.entitiesSpawned(n)
	return entities, nil
}

// setColumnValue matches value to the column of its dynamic type and writes
// it at row.
func setColumnValue(tbl table.Table, row int, value any) error {
	valueType := reflect.TypeOf(value)
	for _, r := range tbl.Rows() {
		if r.Type().Elem() == valueType {
			reflect.Value(r).Index(row).Set(reflect.ValueOf(value))
			return nil
		}
	}
	return bark.AddTrace(fmt.Errorf("%w: no column for type %v", ErrMissingComponent, valueType))
}

func mergeComponents(existing []Component, add []Component) []Component {
	out := make([]Component, len(existing), len(existing)+len(add))
	copy(out, existing)
	for _, c := range add {
		found := false
		for _, e := range existing {
			if e.typeHash() == c.typeHash() {
				found = true
				break
			}
		}
		if !found {
			out = append(out, c)
		}
	}
	return out
}

func subtractComponents(existing []Component, remove []Component) []Component {
	out := make([]Component, 0, len(existing))
	for _, e := range existing {
		drop := false
		for _, r := range remove {
			if e.typeHash() == r.typeHash() {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, e)
		}
	}
	return out
}

func deltaHashOf(components []Component) uint64 {
	hashes := make([]uint32, len(components))
	for i, c := range components {
		hashes[i] = c.typeHash()
	}
	return signatureHash(canonicalHashes(hashes))
}

// AddComponents moves e into the archetype for its current component set
// plus the given components, preserving existing column values and
// zero-initializing the new columns.
func (w *World) AddComponents(e Entity, components ...Component) error {
	arch, entryID, ok := w.directory.locate(e)
	if !ok {
		return bark.AddTrace(fmt.Errorf("%w: %v", ErrInvalidEntity, e))
	}
	if w.Locked() {
		return w.enqueueAdd(e, components, nil)
	}
	merged := mergeComponents(arch.components, components)
	if len(merged) == len(arch.components) {
		return nil
	}
	return w.transition(e, arch, entryID, merged)
}

// AddComponentsWithValues is AddComponents, additionally writing initial
// values into the newly added columns.
func (w *World) AddComponentsWithValues(e Entity, values ...ComponentValue) error {
	arch, entryID, ok := w.directory.locate(e)
	if !ok {
		return bark.AddTrace(fmt.Errorf("%w: %v", ErrInvalidEntity, e))
	}
	if w.Locked() {
		return w.enqueueAdd(e, componentsOf(values), values)
	}
	merged := mergeComponents(arch.components, componentsOf(values))
	if err := w.transition(e, arch, entryID, merged); err != nil {
		return err
	}
	dest, _, _ := w.directory.locate(e)
	row, err := w.rowOf(entryID)
	if err != nil {
		return err
	}
	for _, v := range values {
		if err := setColumnValue(dest.table, row, v.Value); err != nil {
			return err
		}
	}
	return nil
}

// RemoveComponents moves e into the archetype for its current component set
// minus the given components.
func (w *World) RemoveComponents(e Entity, components ...Component) error {
	arch, entryID, ok := w.directory.locate(e)
	if !ok {
		return bark.AddTrace(fmt.Errorf("%w: %v", ErrInvalidEntity, e))
	}
	if w.Locked() {
		return w.enqueueRemove(e, components)
	}
	reduced := subtractComponents(arch.components, components)
	if len(reduced) == len(arch.components) {
		return nil
	}
	return w.transition(e, arch, entryID, reduced)
}

// transition moves e from arch to the archetype for newComponents, looked
// up (or created) by signature hash. It populates the symmetric transition
// cache keyed by (signature, arch.signature XOR destination signature) but
// does not read it.
func (w *World) transition(e Entity, arch *archetype, entryID table.EntryID, newComponents []Component) error {
	hashes := canonicalHashes(componentHashes(newComponents))
	destSig := signatureHash(hashes)

	w.mu.RLock()
	dest, known := w.byHash[destSig]
	w.mu.RUnlock()

	if !known {
		var err error
		dest, err = w.archetypeFor(newComponents)
		if err != nil {
			return err
		}
	}
	w.recordTransitionEdge(arch.signature, dest.signature)

	row, err := w.rowOf(entryID)
	if err != nil {
		return err
	}
	if err := arch.transferRowTo(dest, row); err != nil {
		return err
	}
	if moved, had := arch.removeRowBookkeeping(row); had {
		w.directory.setLocation(moved, arch, entryIDOf(arch, moved))
	}
	dest.appendRow(e)
	w.directory.setLocation(e, dest, entryID)
	return nil
}

// entryIDOf resolves the current table.EntryID for an entity known to be in
// arch, by reading the row it's at and asking the table for that row's
// entry.
func entryIDOf(arch *archetype, e Entity) table.EntryID {
	for row, owner := range arch.rows {
		if owner == e {
			entry, err := arch.table.Entry(row)
			if err != nil {
				return 0
			}
			return entry.ID()
		}
	}
	return 0
}

func componentHashes(components []Component) []uint32 {
	hashes := make([]uint32, len(components))
	for i, c := range components {
		hashes[i] = c.typeHash()
	}
	return hashes
}

// recordTransitionEdge stores both directions of a discovered transition,
// so later traffic in either direction (add then remove, or vice versa)
// benefits from the cache (spec §4.3 "symmetric").
func (w *World) recordTransitionEdge(fromSig, toSig uint64) {
	delta := fromSig ^ toSig
	_, _ = w.transitions.Register(deltaKey(fromSig, delta), toSig)
	_, _ = w.transitions.Register(deltaKey(toSig, delta), fromSig)
}

// rowOf resolves an entity's current row from its stable table.EntryID,
// the way the teacher's entity.entry() does: never cached, always read live
// from the entry index, so it can never go stale across a swap-remove.
func (w *World) rowOf(entryID table.EntryID) (int, error) {
	entry, err := w.entryIndex.Entry(int(entryID) - 1)
	if err != nil {
		return 0, bark.AddTrace(err)
	}
	return entry.Index(), nil
}

// Kill destroys e, swap-removing its row and retiring (or recycling) its
// directory slot.
func (w *World) Kill(e Entity) error {
	arch, entryID, ok := w.directory.locate(e)
	if !ok {
		return bark.AddTrace(fmt.Errorf("%w: %v", ErrInvalidEntity, e))
	}
	if w.Locked() {
		w.enqueueKill(e)
		return nil
	}
	row, err := w.rowOf(entryID)
	if err != nil {
		return err
	}
	if moved, had, err := arch.eraseRow(row, entryID); err != nil {
		return err
	} else if had {
		w.directory.setLocation(moved, arch, entryIDOf(arch, moved))
	}
	w.directory.free(e)
	w.metrics.entityKilled()
	return nil
}

// IsAlive reports whether e refers to a currently-live entity with a
// matching generation.
func (w *World) IsAlive(e Entity) bool {
	return w.directory.isAlive(e)
}

// SetParent establishes a parent/child relationship: callback fires with
// parent's handle when parent is destroyed.
func (w *World) SetParent(child, parent Entity, callback EntityDestroyCallback) error {
	return w.directory.setParent(child, parent, callback)
}

// Parent returns child's parent, or NullEntity if it has none or the
// parent is no longer alive.
func (w *World) Parent(child Entity) Entity {
	return w.directory.parentOf(child)
}

// ReserveArchetype preallocates row capacity for the archetype matching
// components, creating it if necessary. This is a first-class World
// operation in silo, where the original spec left it implicit in Reserve.
func (w *World) ReserveArchetype(capacity int, components ...Component) error {
	arch, err := w.archetypeFor(components)
	if err != nil {
		return err
	}
	if capacity <= arch.Len() {
		return nil
	}
	placeholders := make([]Entity, capacity-arch.Len())
	entries, err := arch.emplace(placeholders...)
	if err != nil {
		return err
	}
	ids := make([]int, len(entries))
	for i, entry := range entries {
		ids[i] = int(entry.ID())
	}
	_, err = arch.table.DeleteEntries(ids...)
	if err != nil {
		return bark.AddTrace(err)
	}
	arch.rows = arch.rows[:len(arch.rows)-len(placeholders)]
	return nil
}

// Clear destroys every entity in the world, across every archetype.
func (w *World) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, arch := range w.archetypes {
		for _, e := range arch.rows {
			w.directory.free(e)
		}
		if err := arch.clear(); err != nil {
			return err
		}
	}
	return nil
}

// locate resolves an entity's current row and backing table, for
// AccessibleComponent.GetFromEntity. Returns (0, nil) for a dead entity.
func (w *World) locate(e Entity) (int, table.Table) {
	arch, entryID, ok := w.directory.locate(e)
	if !ok {
		return 0, nil
	}
	row, err := w.rowOf(entryID)
	if err != nil {
		return 0, nil
	}
	return row, arch.table
}

// Archetypes returns every archetype currently registered. Used by the
// query/cursor layer; callers must not mutate the returned slice.
func (w *World) Archetypes() []*archetype {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.archetypes
}

// RowIndexFor returns the schema bit index for a component, used to build
// query filter masks.
func (w *World) RowIndexFor(c Component) uint32 {
	return w.schema.RowIndexFor(c)
}

// Locked reports whether any stage lock is currently held.
func (w *World) Locked() bool {
	return !w.locks.IsEmpty()
}

// AddLock marks a stage lock bit, deferring structural mutation until every
// bit is released.
func (w *World) AddLock(bit uint32) {
	w.locks.Mark(bit)
}

// RemoveLock releases a stage lock bit. Once every bit is clear, every
// worker's command buffer is drained in worker-id order (spec §5, C6).
func (w *World) RemoveLock(bit uint32) error {
	w.locks.Unmark(bit)
	if w.Locked() {
		return nil
	}
	return w.drainBuffers()
}

package silo

import "sync"

// FutureEntity is a placeholder returned by CommandBuffer.Spawn before the
// entity it names actually exists. It is only meaningful to the buffer that
// produced it, and only resolves to a real Entity once that buffer is
// drained (spec §5, C6).
type FutureEntity uint32

type commandKind int

const (
	cmdSpawn commandKind = iota
	cmdAddComponents
	cmdAddComponentsWithValues
	cmdRemoveComponents
	cmdKill
)

type deferredCommand struct {
	kind       commandKind
	entity     Entity
	future     FutureEntity
	useFuture  bool
	components []Component
	values     []ComponentValue
}

// CommandBuffer is a per-worker, append-only log of structural mutations
// (spec §5, C6). Systems running inside a locked stage record their
// intended mutations here instead of touching the world directly; the
// world applies every worker's buffer, in worker-id order, once the stage
// releases its lock.
type CommandBuffer struct {
	world    *World
	workerID int

	mu         sync.Mutex
	commands   []deferredCommand
	nextFuture FutureEntity
	resolved   map[FutureEntity]Entity
}

// WorkerID returns the worker this buffer was issued to.
func (b *CommandBuffer) WorkerID() int { return b.workerID }

// Spawn logs a deferred entity creation and returns a placeholder usable by
// later calls on the same buffer (AddComponentsToFuture, KillFuture) within
// one stage.
func (b *CommandBuffer) Spawn(values ...ComponentValue) FutureEntity {
	b.mu.Lock()
	defer b.mu.Unlock()
	f := b.nextFuture
	b.nextFuture++
	b.commands = append(b.commands, deferredCommand{kind: cmdSpawn, future: f, values: values})
	return f
}

// AddComponents logs a deferred component addition targeting an existing
// entity.
func (b *CommandBuffer) AddComponents(e Entity, components ...Component) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, deferredCommand{kind: cmdAddComponents, entity: e, components: components})
}

// AddComponentsWithValues is AddComponents with initial column values.
func (b *CommandBuffer) AddComponentsWithValues(e Entity, values ...ComponentValue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, deferredCommand{kind: cmdAddComponentsWithValues, entity: e, values: values})
}

// RemoveComponents logs a deferred component removal.
func (b *CommandBuffer) RemoveComponents(e Entity, components ...Component) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, deferredCommand{kind: cmdRemoveComponents, entity: e, components: components})
}

// Kill logs a deferred entity destruction.
func (b *CommandBuffer) Kill(e Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, deferredCommand{kind: cmdKill, entity: e})
}

// AddComponentsToFuture is AddComponents, targeting a FutureEntity produced
// earlier on this same buffer.
func (b *CommandBuffer) AddComponentsToFuture(f FutureEntity, components ...Component) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, deferredCommand{kind: cmdAddComponents, useFuture: true, future: f, components: components})
}

// KillFuture is Kill, targeting a FutureEntity produced earlier on this
// same buffer.
func (b *CommandBuffer) KillFuture(f FutureEntity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, deferredCommand{kind: cmdKill, useFuture: true, future: f})
}

// apply drains and runs every logged command in order, resolving
// FutureEntity placeholders as their originating Spawn commands execute.
func (b *CommandBuffer) apply() error {
	b.mu.Lock()
	commands := b.commands
	b.commands = nil
	if b.resolved == nil {
		b.resolved = make(map[FutureEntity]Entity)
	}
	b.mu.Unlock()

	for _, cmd := range commands {
		switch cmd.kind {
		case cmdSpawn:
			e, err := b.world.Spawn(cmd.values...)
			if err != nil {
				return err
			}
			b.resolved[cmd.future] = e

		case cmdAddComponents:
			if err := b.world.AddComponents(b.resolve(cmd), cmd.components...); err != nil {
				return err
			}

		case cmdAddComponentsWithValues:
			if err := b.world.AddComponentsWithValues(b.resolve(cmd), cmd.values...); err != nil {
				return err
			}

		case cmdRemoveComponents:
			if err := b.world.RemoveComponents(b.resolve(cmd), cmd.components...); err != nil {
				return err
			}

		case cmdKill:
			if err := b.world.Kill(b.resolve(cmd)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *CommandBuffer) resolve(cmd deferredCommand) Entity {
	if cmd.useFuture {
		return b.resolved[cmd.future]
	}
	return cmd.entity
}

// bufferFor returns (creating if necessary) the command buffer for a given
// worker id.
func (w *World) bufferFor(id int) *CommandBuffer {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.buffers) <= id {
		w.buffers = append(w.buffers, &CommandBuffer{
			world:    w,
			workerID: len(w.buffers),
			resolved: make(map[FutureEntity]Entity),
		})
	}
	return w.buffers[id]
}

// CommandBuffer returns the deferred command buffer for workerID, creating
// it if this is the first request for that worker this stage.
func (w *World) CommandBuffer(workerID int) *CommandBuffer {
	return w.bufferFor(workerID)
}

// drainBuffers applies every outstanding worker buffer in worker-id order,
// then discards them (a fresh set is created lazily for the next stage).
func (w *World) drainBuffers() error {
	w.mu.Lock()
	buffers := w.buffers
	w.buffers = nil
	w.mu.Unlock()

	for _, buf := range buffers {
		if err := buf.apply(); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) enqueueAdd(e Entity, components []Component, values []ComponentValue) error {
	buf := w.bufferFor(0)
	if values != nil {
		buf.AddComponentsWithValues(e, values...)
		return nil
	}
	buf.AddComponents(e, components...)
	return nil
}

func (w *World) enqueueRemove(e Entity, components []Component) error {
	w.bufferFor(0).RemoveComponents(e, components...)
	return nil
}

func (w *World) enqueueKill(e Entity) {
	w.bufferFor(0).Kill(e)
}

package silo

import "testing"

func TestCommandBufferDefersUntilDrain(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	e, _ := w.Spawn(position.With(testPosition{X: 1}))

	w.AddLock(1)
	buf := w.CommandBuffer(0)
	buf.Kill(e)

	if !w.IsAlive(e) {
		t.Fatalf("Kill logged on a locked world's buffer applied immediately")
	}

	if err := w.RemoveLock(1); err != nil {
		t.Fatalf("RemoveLock/drain failed: %v", err)
	}
	if w.IsAlive(e) {
		t.Fatalf("deferred Kill was never applied after drain")
	}
}

func TestCommandBufferFutureEntityResolvesAtDrain(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()

	w.AddLock(1)
	buf := w.CommandBuffer(0)
	future := buf.Spawn(position.With(testPosition{X: 9}))
	buf.AddComponentsToFuture(future, FactoryNewComponent[testVelocity]())

	if err := w.RemoveLock(1); err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	resolved := buf.resolved[future]
	if !w.IsAlive(resolved) {
		t.Fatalf("future entity never resolved to a live entity")
	}
}

func TestDrainAppliesBuffersInWorkerOrder(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()

	w.AddLock(1)
	bufs := make([]*CommandBuffer, 3)
	futures := make([]FutureEntity, 3)
	for id := 2; id >= 0; id-- {
		bufs[id] = w.CommandBuffer(id)
		futures[id] = bufs[id].Spawn(position.With(testPosition{X: float64(id)}))
	}
	if err := w.RemoveLock(1); err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	// The buffers were requested in descending worker-id order, but they
	// drain in ascending order, so worker 0's spawn takes the first index.
	for id := range bufs {
		if got := bufs[id].resolved[futures[id]].Index(); got != uint32(id+1) {
			t.Fatalf("worker %d's spawn got index %d, want %d", id, got, id+1)
		}
	}
	if w.Stats().Entities.Used != 3 {
		t.Fatalf("expected 3 spawned entities after drain, got %d", w.Stats().Entities.Used)
	}
}

package silo

import (
	"context"
	"testing"
)

func TestSchedulerRunsStageSystemsAndDrains(t *testing.T) {
	w := newTestWorld()
	position := FactoryNewComponent[testPosition]()
	e, _ := w.Spawn(position.With(testPosition{X: 1}))

	s := NewScheduler(w)
	s.AddSystem(System{
		Name:  "kill-it",
		Stage: StageUpdate,
		Run: func(ctx context.Context, world *World, workerID int) error {
			world.CommandBuffer(workerID).Kill(e)
			return nil
		},
	})

	if err := s.RunStage(context.Background(), StageUpdate); err != nil {
		t.Fatalf("RunStage failed: %v", err)
	}
	if w.IsAlive(e) {
		t.Fatalf("system's deferred kill was not applied by stage drain")
	}
}

func TestSchedulerOrdersByBeforeAfter(t *testing.T) {
	w := newTestWorld()
	s := NewScheduler(w)

	var order []string
	s.AddSystem(System{
		Name: "b", Stage: StageUpdate, After: []string{"a"},
		Run: func(ctx context.Context, world *World, workerID int) error {
			order = append(order, "b")
			return nil
		},
	})
	s.AddSystem(System{
		Name: "a", Stage: StageUpdate,
		Run: func(ctx context.Context, world *World, workerID int) error {
			order = append(order, "a")
			return nil
		},
	})

	if err := s.RunStage(context.Background(), StageUpdate); err != nil {
		t.Fatalf("RunStage failed: %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", order)
	}
}

func TestSchedulerDetectsCycle(t *testing.T) {
	w := newTestWorld()
	s := NewScheduler(w)
	noop := func(ctx context.Context, world *World, workerID int) error { return nil }

	s.AddSystem(System{Name: "a", Stage: StageUpdate, After: []string{"b"}, Run: noop})
	s.AddSystem(System{Name: "b", Stage: StageUpdate, After: []string{"a"}, Run: noop})

	if err := s.RunStage(context.Background(), StageUpdate); err == nil {
		t.Fatalf("cyclic before/after constraints did not error")
	}
}

func TestSchedulerFixedStagePipeline(t *testing.T) {
	w := newTestWorld()
	s := NewScheduler(w)

	var ran []Stage
	for _, stage := range append([]Stage{StagePreStartup, StageStartup, StagePostStartup}, loopStages...) {
		stage := stage
		s.AddSystem(System{
			Name: stage.String(), Stage: stage,
			Run: func(ctx context.Context, world *World, workerID int) error {
				ran = append(ran, stage)
				return nil
			},
		})
	}

	ctx := context.Background()
	if err := s.RunStartup(ctx); err != nil {
		t.Fatalf("RunStartup failed: %v", err)
	}
	if err := s.RunTick(ctx); err != nil {
		t.Fatalf("RunTick failed: %v", err)
	}

	want := append([]Stage{StagePreStartup, StageStartup, StagePostStartup}, loopStages...)
	if len(ran) != len(want) {
		t.Fatalf("ran %d stages, want %d", len(ran), len(want))
	}
	for i, stage := range want {
		if ran[i] != stage {
			t.Fatalf("stage[%d] = %s, want %s", i, ran[i], stage)
		}
	}
}

package silo

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Stage is one step of the fixed pipeline contract systems run within
// (spec §6, C7):
//
//	pre_startup -> startup -> post_startup ->
//	  (first -> pre_update -> update -> post_update -> render -> last)* ->
//	shutdown
//
// Cross-stage order is fixed; within a stage, System.Before/System.After
// define a DAG the Scheduler topologically sorts.
type Stage int

const (
	StagePreStartup Stage = iota
	StageStartup
	StagePostStartup
	StageFirst
	StagePreUpdate
	StageUpdate
	StagePostUpdate
	StageRender
	StageLast
	StageShutdown
)

func (s Stage) String() string {
	switch s {
	case StagePreStartup:
		return "pre_startup"
	case StageStartup:
		return "startup"
	case StagePostStartup:
		return "post_startup"
	case StageFirst:
		return "first"
	case StagePreUpdate:
		return "pre_update"
	case StageUpdate:
		return "update"
	case StagePostUpdate:
		return "post_update"
	case StageRender:
		return "render"
	case StageLast:
		return "last"
	case StageShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// loopStages is the per-tick cycle that repeats between post_startup and
// shutdown.
var loopStages = []Stage{StageFirst, StagePreUpdate, StageUpdate, StagePostUpdate, StageRender, StageLast}

// stageLockBit is the mask.Mask256 bit the scheduler holds for the duration
// of a stage's systems, deferring structural mutation until every system in
// the stage has returned. Distinct from cursor.go's cursorLockBit so that a
// query held open across a yield point doesn't get mistaken for a drained
// stage, or vice versa.
const stageLockBit = 0

// System is one unit of scheduled work. Before/After name other systems in
// the same stage that must run after/before this one; systems with no
// relative ordering may run concurrently within the stage.
type System struct {
	Name   string
	Stage  Stage
	Before []string
	After  []string
	Run    func(ctx context.Context, world *World, workerID int) error
}

// Scheduler holds the registered systems and runs them stage by stage,
// draining every worker's command buffer once a stage's systems have all
// completed (spec §6).
type Scheduler struct {
	world   *World
	systems map[Stage][]*System
}

// NewScheduler constructs a Scheduler bound to world.
func NewScheduler(world *World) *Scheduler {
	return &Scheduler{world: world, systems: make(map[Stage][]*System)}
}

// AddSystem registers a system. Order among AddSystem calls does not matter;
// RunStage resolves Before/After into an execution order at call time.
func (s *Scheduler) AddSystem(sys System) {
	s.systems[sys.Stage] = append(s.systems[sys.Stage], &sys)
}

// order topologically sorts a stage's systems by Before/After, grouping
// mutually-unordered systems into "levels" that the reference executor runs
// concurrently.
func (s *Scheduler) order(stage Stage) ([][]*System, error) {
	systems := s.systems[stage]
	if len(systems) == 0 {
		return nil, nil
	}

	byName := make(map[string]*System, len(systems))
	for _, sys := range systems {
		byName[sys.Name] = sys
	}

	// edge[a] = b means a must run before b.
	indegree := make(map[string]int, len(systems))
	edges := make(map[string][]string, len(systems))
	for _, sys := range systems {
		indegree[sys.Name] = 0
	}
	addEdge := func(before, after string) {
		if _, ok := byName[before]; !ok {
			return
		}
		if _, ok := byName[after]; !ok {
			return
		}
		edges[before] = append(edges[before], after)
		indegree[after]++
	}
	for _, sys := range systems {
		for _, before := range sys.Before {
			addEdge(sys.Name, before)
		}
		for _, after := range sys.After {
			addEdge(after, sys.Name)
		}
	}

	var levels [][]*System
	remaining := len(systems)
	visited := make(map[string]bool, len(systems))
	for remaining > 0 {
		var level []*System
		for _, sys := range systems {
			if !visited[sys.Name] && indegree[sys.Name] == 0 {
				level = append(level, sys)
			}
		}
		if len(level) == 0 {
			return nil, fmt.Errorf("%w: stage %s", ErrCycle, stage)
		}
		for _, sys := range level {
			visited[sys.Name] = true
			remaining--
			for _, next := range edges[sys.Name] {
				indegree[next]--
			}
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// RunStage executes every system registered for stage, level by level
// (each level's systems run concurrently via errgroup), then drains every
// worker's command buffer once the stage completes.
func (s *Scheduler) RunStage(ctx context.Context, stage Stage) error {
	if stage < StagePreStartup || stage > StageShutdown {
		return fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	levels, err := s.order(stage)
	if err != nil {
		return err
	}

	s.world.AddLock(stageLockBit)
	var runErr error
	for _, level := range levels {
		g, gctx := errgroup.WithContext(ctx)
		for i, sys := range level {
			sys := sys
			workerID := i
			g.Go(func() error {
				return sys.Run(gctx, s.world, workerID)
			})
		}
		if err := g.Wait(); err != nil {
			runErr = err
			break
		}
	}

	start := time.Now()
	drainErr := s.world.RemoveLock(stageLockBit)
	s.world.metrics.drainDuration(time.Since(start).Seconds())

	if runErr != nil {
		return runErr
	}
	return drainErr
}

// RunStartup runs pre_startup, startup and post_startup in order.
func (s *Scheduler) RunStartup(ctx context.Context) error {
	for _, stage := range []Stage{StagePreStartup, StageStartup, StagePostStartup} {
		if err := s.RunStage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

// RunTick runs one pass of the repeating loop stages
// (first/pre_update/update/post_update/render/last).
func (s *Scheduler) RunTick(ctx context.Context) error {
	for _, stage := range loopStages {
		if err := s.RunStage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

// RunShutdown runs the shutdown stage.
func (s *Scheduler) RunShutdown(ctx context.Context) error {
	return s.RunStage(ctx, StageShutdown)
}

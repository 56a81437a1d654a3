// Command siloctl is a thin reference host around the silo core package. It
// demonstrates the host contract: build a World and Scheduler, run startup
// once, run ticks on an interval, then run shutdown on interrupt.
//
// siloctl doesn't know anything about any particular game or simulation: it
// registers one toy component and one toy system just so a tick produces
// visible output, the way a smoke-test host would.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheBitDrifter/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/latticegames/silo"
)

type tick struct {
	Count int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "siloctl",
		Short: "Run a silo World against a fixed stage pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML runtime config file")
	return root
}

func run(configPath string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Info("runtime config loaded",
		zap.Int("tick_rate", cfg.TickRate),
		zap.Int("initial_capacity", cfg.InitialCapacity),
		zap.Int("worker_count", cfg.WorkerCount),
		zap.Int("transition_cache_size", cfg.TransitionCacheSize),
	)

	registry := prometheus.NewRegistry()
	metrics := silo.NewPrometheusMetrics(registry)

	schema := table.Factory.NewSchema()
	world := silo.Factory.NewWorld(schema,
		silo.WithMetrics(metrics),
		silo.WithTransitionCacheCapacity(cfg.TransitionCacheSize),
	)

	tickComponent := silo.FactoryNewComponent[tick]()
	if err := world.ReserveArchetype(cfg.InitialCapacity, tickComponent); err != nil {
		return fmt.Errorf("reserving archetype: %w", err)
	}
	if _, err := world.Spawn(tickComponent.With(tick{})); err != nil {
		return fmt.Errorf("spawning tick entity: %w", err)
	}

	scheduler := silo.NewScheduler(world)
	scheduler.AddSystem(silo.System{
		Name:  "advance_tick",
		Stage: silo.StageUpdate,
		Run: func(ctx context.Context, world *silo.World, workerID int) error {
			node := silo.Factory.NewQuery().With(tickComponent).Node()
			cursor := silo.Factory.NewCursor(node, world)
			for cursor.Next() {
				t := tickComponent.GetFromCursor(cursor)
				t.Count++
				logger.Debug("tick advanced", zap.Int("count", t.Count))
			}
			return nil
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running startup stages")
	if err := scheduler.RunStartup(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	period := time.Second / time.Duration(cfg.TickRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	logger.Info("entering tick loop", zap.Duration("period", period))
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			if err := scheduler.RunTick(ctx); err != nil {
				logger.Error("tick failed", zap.Error(err))
				break loop
			}
		}
	}

	logger.Info("running shutdown stage")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := scheduler.RunShutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	stats := world.Stats()
	logger.Info("final world stats", zap.String("stats", stats.String()))
	return nil
}

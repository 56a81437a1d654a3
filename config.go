package silo

import "github.com/TheBitDrifter/table"

// Config holds process-wide settings consulted when building new
// archetypes. Kept as a package-level var, exactly as the teacher does it,
// since table.TableEvents is plumbed through every archetype's table
// builder and there is no natural per-World home for it before the first
// archetype exists.
var Config config

type config struct {
	tableEvents table.TableEvents
}

// SetTableEvents installs a callback invoked by table.Table on structural
// changes to any archetype's columns (row insert/delete/transfer). This is
// the event/notification hook original_source's construct_from_world.hpp
// describes, carried into silo from the teacher's own config.go.
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}

// RuntimeConfig is the ambient host configuration loaded by cmd/siloctl
// (ticks per second, initial archetype row capacity, worker count). It has
// no bearing on core package semantics; it exists so the reference host has
// something concrete to decode from TOML.
type RuntimeConfig struct {
	TickRate            int `toml:"tick_rate"`
	InitialCapacity     int `toml:"initial_capacity"`
	WorkerCount         int `toml:"worker_count"`
	TransitionCacheSize int `toml:"transition_cache_size"`
}

// DefaultRuntimeConfig returns the values a freshly-started host uses absent
// a config file.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		TickRate:            60,
		InitialCapacity:     initialArchetypeCapacity,
		WorkerCount:         1,
		TransitionCacheSize: 4096,
	}
}

// Package world implements the per-world session registry: admission and
// eviction of agents (Registry), per-session move serialization
// (ActionQueue), and idle eviction (IdleSweeper). One instance of each
// lives per world, owning that world's agents end to end.
package world

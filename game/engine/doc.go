// Package engine implements the grid and agent mechanics shared by every
// world: tiles, movement vectors, the immutable Grid, and the LocalSession
// that steps a single agent across it.
//
// Core Types:
//
// Grid is a fixed-size, immutable W×H array of optional Tile loaded once
// at world boot. LocalSession owns one agent's position and alive flag and
// applies the Move contract: an admissible Vector either leaves the agent
// on a safe cell or kills it with a specific reason.
//
// Usage:
//
//	grid, err := engine.LoadGrid("maps/classic.png")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	session := engine.NewLocalSession(grid)
//	session.OnDied(func(reason engine.DeathReason) {
//		log.Printf("agent died: %s", reason)
//	})
//	outcome := session.Move(engine.Vector{X: 1, Y: 0})
package engine

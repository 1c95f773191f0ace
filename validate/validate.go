// Command validate is a small CLI that validates a world manifest and the
// map images it references before a WorldHost boots. It checks:
//   - JSON structure, required fields, and port uniqueness
//   - At most one world requesting visualize:true
//   - Every referenced map decodes as an image with positive dimensions
//   - Reachability of the map from the fixed spawn point (0,0) under the
//     admissible move set
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/multiworld-game/game/config"
	"github.com/wricardo/multiworld-game/game/engine"
	"github.com/wricardo/multiworld-game/game/visual"
)

// ValidationResult captures the outcome of validating a single world.
// Errors holds the validation errors found plus informational messages
// prefixed with "✓"; for an invalid result main prints only the errors.
type ValidationResult struct {
	World  string
	Valid  bool
	Errors []string
}

// validateManifest loads and validates every world entry in the manifest
// at path, returning a synthetic "manifest" result for port uniqueness
// followed by one ValidationResult per world. A manifest that fails to
// load, including one with more than one visualize:true world, yields a
// single invalid result named after the file.
func validateManifest(path string) []ValidationResult {
	var results []ValidationResult

	specs, err := config.LoadManifest(path)
	if err != nil {
		return []ValidationResult{{
			World:  filepath.Base(path),
			Valid:  false,
			Errors: []string{fmt.Sprintf("Failed to load manifest: %v", err)},
		}}
	}

	results = append(results, validatePorts(specs))

	resourcesDir := filepath.Dir(path)
	for _, spec := range specs {
		results = append(results, validateWorld(spec, resourcesDir))
	}

	return results
}

func validatePorts(specs []config.WorldSpec) ValidationResult {
	result := ValidationResult{World: "manifest", Valid: true}

	seen := make(map[int]string)
	for _, spec := range specs {
		if other, ok := seen[spec.Port]; ok {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("port %d used by both %q and %q", spec.Port, other, spec.Name))
			continue
		}
		seen[spec.Port] = spec.Name
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ %d world(s) declare distinct ports", len(specs)))
	}
	return result
}

// validateWorld checks one manifest entry: required fields, color
// recognition, the referenced map's decodability, and spawn reachability.
func validateWorld(spec config.WorldSpec, resourcesDir string) ValidationResult {
	result := ValidationResult{World: spec.Name, Valid: true}

	if spec.Name == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "name is empty")
	}
	if spec.Port <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("port must be positive, got %d", spec.Port))
	}
	if spec.Map == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "map is empty")
	}
	if spec.Color != "" && !visual.IsValidColor(visual.Color(spec.Color)) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("unrecognized color %q", spec.Color))
	}

	if spec.Map == "" {
		return result
	}

	grid, err := engine.LoadGrid(filepath.Join(resourcesDir, spec.Map))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load map %s: %v", spec.Map, err))
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ map: %dx%d", grid.Width(), grid.Height()))

	reachable, total := reachabilityFromSpawn(grid)
	result.Errors = append(result.Errors, fmt.Sprintf("✓ reachable from spawn: %d/%d non-trap cells", reachable, total))
	others := reachable
	if _, spawnIsTrap := grid.TrapAt(0, 0); !spawnIsTrap {
		others-- // the spawn cell counts itself as reachable
	}
	if others == 0 && total > reachable {
		result.Valid = false
		result.Errors = append(result.Errors, "spawn point (0,0) cannot reach any other non-trap cell")
	}

	return result
}

// reachabilityFromSpawn runs a breadth-first search from (0,0) using the
// engine's admissible move set, and reports how many of the grid's
// non-trap cells are reachable out of the total.
func reachabilityFromSpawn(grid *engine.Grid) (reachable, total int) {
	visited := make(map[engine.Vector]bool)
	queue := []engine.Vector{{X: 0, Y: 0}}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		if visited[curr] {
			continue
		}
		visited[curr] = true

		for _, move := range engine.AdmissibleMoves {
			next := curr.Add(move)
			if visited[next] || !grid.InBounds(next.X, next.Y) {
				continue
			}
			if _, isTrap := grid.TrapAt(next.X, next.Y); isTrap {
				continue
			}
			queue = append(queue, next)
		}
	}

	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			if _, isTrap := grid.TrapAt(x, y); isTrap {
				continue
			}
			total++
			if visited[engine.Vector{X: x, Y: y}] {
				reachable++
			}
		}
	}
	return reachable, total
}

// main validates the manifest named by the first argument (default
// resources/worlds.json) and exits non-zero if any world fails.
func main() {
	path := "resources/worlds.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	results := validateManifest(path)

	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.World)
		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, msg := range result.Errors {
				if !strings.HasPrefix(msg, "✓") {
					fmt.Println("  ❌ " + msg)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All worlds are valid!")
	} else {
		fmt.Println("❌ Some worlds have errors")
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/multiworld-game/game/config"
	"github.com/wricardo/multiworld-game/game/engine"
)

func writeManifest(t *testing.T, dir string, specs []config.WorldSpec) string {
	t.Helper()
	path := filepath.Join(dir, "worlds.json")
	data, err := json.Marshal(specs)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func writeMap(t *testing.T, dir, name string, w, h int, trapAt func(x, y int) bool) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if trapAt != nil && trapAt(x, y) {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Encode: %v", err)
	}
}

func contains(s, substr string) bool { return strings.Contains(s, substr) }

func TestValidateManifestValid(t *testing.T) {
	dir := t.TempDir()
	writeMap(t, dir, "alpha.png", 3, 3, nil)
	path := writeManifest(t, dir, []config.WorldSpec{
		{Name: "alpha", Color: "Blue", Port: 9001, Map: "alpha.png"},
	})

	results := validateManifest(path)
	for _, r := range results {
		if !r.Valid {
			t.Errorf("world %q invalid: %v", r.World, r.Errors)
		}
	}
}

func TestValidateManifestMissingFile(t *testing.T) {
	results := validateManifest(filepath.Join(t.TempDir(), "missing.json"))
	if len(results) != 1 || results[0].Valid {
		t.Fatalf("results = %+v, want a single invalid result", results)
	}
	if !contains(results[0].Errors[0], "Failed to load manifest") {
		t.Errorf("errors = %v, want 'Failed to load manifest'", results[0].Errors)
	}
}

func TestValidatePortsDetectsDuplicates(t *testing.T) {
	result := validatePorts([]config.WorldSpec{
		{Name: "alpha", Port: 9001},
		{Name: "beta", Port: 9001},
	})
	if result.Valid {
		t.Fatal("expected duplicate ports to be invalid")
	}
	found := false
	for _, e := range result.Errors {
		if contains(e, "used by both") {
			found = true
		}
	}
	if !found {
		t.Error("expected a 'used by both' error")
	}
}

func TestValidateWorldRejectsMissingFields(t *testing.T) {
	dir := t.TempDir()
	result := validateWorld(config.WorldSpec{}, dir)
	if result.Valid {
		t.Fatal("expected empty WorldSpec to be invalid")
	}
	for _, want := range []string{"name is empty", "port must be positive", "map is empty"} {
		found := false
		for _, e := range result.Errors {
			if contains(e, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("expected error containing %q, got %v", want, result.Errors)
		}
	}
}

func TestValidateWorldRejectsUnrecognizedColor(t *testing.T) {
	dir := t.TempDir()
	writeMap(t, dir, "alpha.png", 3, 3, nil)
	result := validateWorld(config.WorldSpec{Name: "alpha", Port: 9001, Map: "alpha.png", Color: "Plaid"}, dir)
	if result.Valid {
		t.Fatal("expected unrecognized color to be invalid")
	}
}

func TestValidateWorldReportsMissingMap(t *testing.T) {
	dir := t.TempDir()
	result := validateWorld(config.WorldSpec{Name: "alpha", Port: 9001, Map: "missing.png"}, dir)
	if result.Valid {
		t.Fatal("expected missing map file to be invalid")
	}
}

func TestReachabilityFromSpawnAllOpen(t *testing.T) {
	grid, err := engine.NewGrid(5, 5)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	reachable, total := reachabilityFromSpawn(grid)
	if reachable != total || total != 25 {
		t.Fatalf("reachable=%d total=%d, want 25/25", reachable, total)
	}
}

func TestReachabilityFromSpawnIsolatedPocket(t *testing.T) {
	dir := t.TempDir()
	// A 3-wide, 5-tall grid where rows y=1 and y=2 are entirely trap. The
	// admissible move set's two-cell jumps can clear a single-cell
	// barrier, so the band must be two rows thick to actually isolate
	// rows y=3,4 from the spawn row y=0.
	writeMap(t, dir, "isolated.png", 3, 5, func(x, y int) bool { return y == 1 || y == 2 })

	grid, err := engine.LoadGrid(filepath.Join(dir, "isolated.png"))
	if err != nil {
		t.Fatalf("LoadGrid: %v", err)
	}

	reachable, total := reachabilityFromSpawn(grid)
	if reachable >= total {
		t.Fatalf("reachable=%d total=%d, want reachable < total (far rows isolated)", reachable, total)
	}
}

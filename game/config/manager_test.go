package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeManifest(t *testing.T, specs []WorldSpec) string {
	t.Helper()
	dir := t.TempDir()
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

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, []WorldSpec{
		{Name: "alpha", Color: "Blue", Port: 9001, Map: "alpha.png", Visualize: true},
		{Name: "beta", Color: "Red", Port: 9002, Map: "beta.png"},
	})

	specs, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("len(specs) = %d, want 2", len(specs))
	}
	if specs[0].Name != "alpha" || !specs[0].Visualize {
		t.Fatalf("specs[0] = %+v", specs[0])
	}
}

func TestLoadManifestRejectsMultipleVisualized(t *testing.T) {
	path := writeManifest(t, []WorldSpec{
		{Name: "alpha", Port: 9001, Visualize: true},
		{Name: "beta", Port: 9002, Visualize: true},
	})

	if _, err := LoadManifest(path); err != ErrMultipleVisualized {
		t.Fatalf("LoadManifest = %v, want ErrMultipleVisualized", err)
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.json")); err != ErrManifestNotFound {
		t.Fatalf("LoadManifest = %v, want ErrManifestNotFound", err)
	}
}

func TestLoadManifestMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worlds.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("LoadManifest with malformed JSON = nil error, want error")
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.MaxSessionsPerClient != 20 || s.IdleTimeout != 5*time.Second || s.SessionActionCooldown != 50*time.Millisecond {
		t.Fatalf("DefaultSettings() = %+v, unexpected defaults", s)
	}
}

func TestSettingsFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("MAX_SESSIONS_PER_CLIENT", "5")
	t.Setenv("IDLE_TIMEOUT", "2s")
	t.Setenv("NO_VISUALIZER", "true")
	t.Setenv("PORT", "9999")

	s := SettingsFromEnv()
	if s.MaxSessionsPerClient != 5 {
		t.Errorf("MaxSessionsPerClient = %d, want 5", s.MaxSessionsPerClient)
	}
	if s.IdleTimeout != 2*time.Second {
		t.Errorf("IdleTimeout = %v, want 2s", s.IdleTimeout)
	}
	if !s.NoVisualizer {
		t.Error("NoVisualizer = false, want true")
	}
	if s.Port != 9999 {
		t.Errorf("Port = %d, want 9999", s.Port)
	}
}

func TestSettingsFromEnvIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("MAX_SESSIONS_PER_CLIENT", "not-a-number")
	s := SettingsFromEnv()
	if s.MaxSessionsPerClient != DefaultSettings().MaxSessionsPerClient {
		t.Fatalf("MaxSessionsPerClient = %d, want default preserved on unparsable override", s.MaxSessionsPerClient)
	}
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	// ErrManifestNotFound is returned when the configured manifest path
	// does not exist.
	ErrManifestNotFound = errors.New("config: manifest file not found")
	// ErrMultipleVisualized is returned when more than one world in a
	// manifest requests visualize:true.
	ErrMultipleVisualized = errors.New("config: at most one world may set visualize:true")
)

// WorldSpec is one entry of the JSON manifest describing a world to boot.
type WorldSpec struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	Port      int    `json:"port"`
	Map       string `json:"map"`
	Visualize bool   `json:"visualize"`
}

// Settings holds the process-wide values illustrative of spec configuration:
// resource paths, ports, and the per-session tunables.
type Settings struct {
	ResourcesPath         string
	Port                  int
	ChallengePortStart    int
	NoVisualizer          bool
	MaxSessionsPerClient  int
	IdleTimeout           time.Duration
	SessionActionCooldown time.Duration
}

// DefaultSettings returns the documented defaults before any environment
// override is applied.
func DefaultSettings() Settings {
	return Settings{
		ResourcesPath:         "resources",
		Port:                  8080,
		ChallengePortStart:    8081,
		NoVisualizer:          false,
		MaxSessionsPerClient:  20,
		IdleTimeout:           5 * time.Second,
		SessionActionCooldown: 50 * time.Millisecond,
	}
}

// SettingsFromEnv overlays environment variables on top of defaults. It
// mirrors the illustrative configuration table: each field has a single
// environment variable name and is left at its default when unset or
// unparsable.
func SettingsFromEnv() Settings {
	s := DefaultSettings()

	if v := os.Getenv("RESOURCES_PATH"); v != "" {
		s.ResourcesPath = v
	}
	if v, ok := envInt("PORT"); ok {
		s.Port = v
	}
	if v, ok := envInt("CHALLENGE_PORT_START"); ok {
		s.ChallengePortStart = v
	}
	if v := os.Getenv("NO_VISUALIZER"); v != "" {
		s.NoVisualizer = v == "true" || v == "1"
	}
	if v, ok := envInt("MAX_SESSIONS_PER_CLIENT"); ok {
		s.MaxSessionsPerClient = v
	}
	if v, ok := envDuration("IDLE_TIMEOUT"); ok {
		s.IdleTimeout = v
	}
	if v, ok := envDuration("SESSION_ACTION_COOLDOWN"); ok {
		s.SessionActionCooldown = v
	}

	return s
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, true
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// LoadManifest reads and validates a JSON manifest of worlds. At most one
// entry may set Visualize; if exactly one does, NoVisualizer must be false
// for that world's VSID requirement to apply (enforced by the caller
// wiring WorldHost, not here).
func LoadManifest(path string) ([]WorldSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrManifestNotFound
		}
		return nil, fmt.Errorf("config: read manifest %s: %w", path, err)
	}

	var specs []WorldSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("config: parse manifest %s: %w", path, err)
	}

	visualized := 0
	for _, spec := range specs {
		if spec.Visualize {
			visualized++
		}
	}
	if visualized > 1 {
		return nil, ErrMultipleVisualized
	}

	return specs, nil
}

// Package config loads the process-wide configuration a WorldHost needs
// to boot: a JSON manifest of worlds ({name, color, port, map, visualize})
// and the environment-derived Settings (resource paths, ports, session
// tunables).
//
// Usage:
//
//	settings := config.SettingsFromEnv()
//	worlds, err := config.LoadManifest(filepath.Join(settings.ResourcesPath, "worlds.json"))
//	if err != nil {
//		log.Fatal(err)
//	}
package config

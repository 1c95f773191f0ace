// Command multiworldgame starts one or more grid-exploration worlds
// described by a JSON manifest, each behind its own REST ConnectionHandler,
// with at most one world fanning its session events out to a WebSocket
// visualizer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wricardo/multiworld-game/api"
	"github.com/wricardo/multiworld-game/game/config"
	"github.com/wricardo/multiworld-game/game/engine"
	"github.com/wricardo/multiworld-game/game/visual"
	"github.com/wricardo/multiworld-game/game/world"
	"github.com/wricardo/multiworld-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Multiworld Game Server"
)

var (
	manifestPath = flag.String("manifest", "", "Path to the world manifest JSON (default <resources-path>/worlds.json)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	settings := config.SettingsFromEnv()

	path := *manifestPath
	if path == "" {
		path = filepath.Join(settings.ResourcesPath, "worlds.json")
	}

	worlds, err := config.LoadManifest(path)
	if err != nil {
		log.Fatalf("Failed to load world manifest: %v", err)
	}
	if len(worlds) == 0 {
		log.Fatalf("World manifest %s defines no worlds", path)
	}

	log.Printf("Starting %s v%s (%d world(s))", AppName, Version, len(worlds))

	run(worlds, settings)
}

// bootedWorld pairs a booted HTTP server with the name run logs it under.
type bootedWorld struct {
	name   string
	server *http.Server
}

// run boots every world's ConnectionHandler, wires the single visualized
// world's hub, and blocks until an interrupt or SIGTERM signal triggers a
// coordinated shutdown.
func run(worlds []config.WorldSpec, settings config.Settings) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	var booted []bootedWorld

	for _, spec := range worlds {
		srv, err := bootWorld(ctx, spec, settings)
		if err != nil {
			log.Fatalf("Failed to boot world %q: %v", spec.Name, err)
		}
		booted = append(booted, bootedWorld{name: spec.Name, server: srv})

		wg.Add(1)
		go func(name string, httpServer *http.Server) {
			defer wg.Done()
			log.Printf("world %q listening on %s", name, httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("world %q server error: %v", name, err)
			}
		}(spec.Name, srv)
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, bw := range booted {
		if err := bw.server.Shutdown(shutdownCtx); err != nil {
			log.Printf("world %q shutdown error: %v", bw.name, err)
		}
	}

	wg.Wait()
	log.Println("Server stopped")
}

// bootWorld loads spec's map, builds its SessionRegistry and idle
// sweeper, and returns the http.Server serving its ConnectionHandler (and,
// if spec.Visualize is set and the process has not disabled it, a
// WebSocket endpoint fed by the registry's observers).
func bootWorld(ctx context.Context, spec config.WorldSpec, settings config.Settings) (*http.Server, error) {
	grid, err := engine.LoadGrid(filepath.Join(settings.ResourcesPath, spec.Map))
	if err != nil {
		return nil, fmt.Errorf("load map: %w", err)
	}

	// A visualized world requires a VSID from every connecting client,
	// per the "requires VSID" rule; a process-wide NoVisualizer override
	// lifts that requirement along with the visualizer itself.
	requireVSID := spec.Visualize && !settings.NoVisualizer

	reservation := visual.ReservationContext{
		WhiteIsBackground: requireVSID,
		MapGlyphs:         grid.Glyphs(),
	}

	registry := world.NewRegistry(grid, requireVSID, settings.MaxSessionsPerClient, settings.SessionActionCooldown, reservation)

	sweeper := world.NewIdleSweeper(registry, settings.IdleTimeout)
	go sweeper.Run()
	go func() {
		<-ctx.Done()
		sweeper.Stop()
	}()

	registry.OnSessionConnected(func(rec *world.SessionRecord, username string) {
		log.Printf("world %q: session %s connected (user=%q)", spec.Name, rec.SID, username)
	})
	registry.OnAgentDied(func(rec *world.SessionRecord, reason engine.DeathReason) {
		log.Printf("world %q: session %s died: %s (recent moves: %v)", spec.Name, rec.SID, reason, rec.Session.History())
	})

	mux := http.NewServeMux()
	mux.Handle("/", api.NewServer(registry))

	if requireVSID {
		hub := websocket.NewHub()
		go hub.Run()

		registry.OnSessionConnected(func(rec *world.SessionRecord, username string) {
			hub.NotifySessionConnected(rec.SID, rec.Identifier, username)
		})
		registry.OnAgentMoved(func(rec *world.SessionRecord, prev, curr engine.Vector) {
			hub.NotifyAgentMoved(rec.SID, prev, curr)
		})
		registry.OnAgentDied(func(rec *world.SessionRecord, reason engine.DeathReason) {
			hub.NotifyAgentDied(rec.SID, reason)
		})

		mux.HandleFunc("/ws", hub.ServeWS)
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", spec.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}

// Command sarakt runs the universe daemon: the cycle engine, the SQLite
// store, the ledger outbox and the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/sarakt/internal/api"
	"github.com/talgya/sarakt/internal/bridge"
	"github.com/talgya/sarakt/internal/config"
	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/entropy"
	"github.com/talgya/sarakt/internal/persistence"
	"github.com/talgya/sarakt/internal/snapshot"
)

func main() {
	configPath := flag.String("config", os.Getenv("SARAKT_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	slog.SetDefault(config.NewLogger(os.Stdout, cfg.Logging))
	slog.Info("Sarakt universe daemon")

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		os.MkdirAll(dir, 0o755)
	}
	db, err := persistence.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	// ── Load or Generate Universe ────────────────────────────────────
	u, fresh, err := loadOrCreate(db, cfg.Universe)
	if err != nil {
		slog.Error("failed to prepare universe", "error", err)
		os.Exit(1)
	}
	if fresh {
		if err := db.SaveWorldState(u.Export()); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}
	st := u.Status()

	// ── Engine ───────────────────────────────────────────────────────
	eng := engine.NewEngine(u, cfg.Engine.CycleInterval)
	if every := uint64(cfg.Engine.SaveEvery); every > 0 {
		eng.OnCycle(func(u *engine.Universe, r engine.CycleReport) {
			if r.Cycle%every != 0 {
				return
			}
			if err := db.SaveWorldState(u.Export()); err != nil {
				slog.Error("auto-save failed", "cycle", r.Cycle, "error", err)
			}
		})
	}

	outbox := persistence.NewOutbox(db)
	br := bridge.New(eng, outbox)

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.Server.AdminKey == "" {
		slog.Warn("SARAKT_ADMIN_KEY not set; admin POST endpoints will be disabled")
	}
	srv := api.NewServer(cfg.Server, cfg.RateLimit, eng, br)
	srv.DB = db
	srv.Outbox = outbox
	srv.SnapshotDir = cfg.Snapshot.Dir

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nSarakt is alive: %s actors across %d bodies, seed %d.\n",
		humanize.Comma(int64(st.Actors)), st.Bodies, u.Config().Seed)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
	if !fresh {
		fmt.Printf("Resuming from cycle %s\n", humanize.Comma(int64(st.Cycle)))
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.Run(ctx)
	}()

	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("HTTP API failed", "error", err)
		stop()
	}
	<-ctx.Done()
	wg.Wait()

	// Final save on shutdown.
	slog.Info("final save...")
	eng.Exec(func(u *engine.Universe) error {
		state := u.Export()
		if err := db.SaveWorldState(state); err != nil {
			slog.Error("final save failed", "error", err)
		}
		if cfg.Snapshot.OnShutdown && cfg.Snapshot.Dir != "" {
			path := filepath.Join(cfg.Snapshot.Dir, snapshot.FileName(state.Cycle))
			if err := snapshot.Write(path, state); err != nil {
				slog.Error("shutdown snapshot failed", "error", err)
			} else {
				slog.Info("snapshot written", "path", path)
			}
		}
		return nil
	})

	fmt.Println("Universe stopped. State saved.")
}

// loadOrCreate restores the saved universe or generates a new one. A zero
// seed is replaced with a random one on first start.
func loadOrCreate(db *persistence.DB, ucfg config.Universe) (*engine.Universe, bool, error) {
	if db.HasWorldState() {
		slog.Info("found saved universe, loading...")
		state, err := db.LoadWorldState()
		if err != nil {
			return nil, false, fmt.Errorf("load state: %w", err)
		}
		u, err := engine.Restore(state)
		if err != nil {
			return nil, false, fmt.Errorf("restore: %w", err)
		}
		slog.Info("universe restored", "cycle", u.Cycle, "actors", len(u.Actors), "bodies", len(u.Bodies))
		return u, false, nil
	}

	if ucfg.Seed == 0 {
		ucfg.Seed = entropy.RandomSeed()
		slog.Info("picked random universe seed", "seed", ucfg.Seed)
	}
	slog.Info("no saved state found, generating universe...", "seed", ucfg.Seed)
	u := engine.NewUniverse(ucfg)
	if err := u.Initialize(); err != nil {
		return nil, false, err
	}
	slog.Info("universe ready",
		"bodies", len(u.Bodies),
		"plots", ucfg.Plots,
		"actors", len(u.Actors),
	)
	return u, true, nil
}

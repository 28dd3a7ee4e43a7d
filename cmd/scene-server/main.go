package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/dataflows/pkg/config"
	"github.com/ritzau/dataflows/pkg/logging"
	"github.com/ritzau/dataflows/pkg/store"
	"github.com/ritzau/dataflows/pkg/watcher"
	"github.com/ritzau/dataflows/pkg/web"
)

const (
	quietPeriod   = 300 * time.Millisecond
	maxWait       = 2 * time.Second
	shutdownGrace = 5 * time.Second
)

func main() {
	f := pflag.NewFlagSet("scene-server", pflag.ExitOnError)
	f.String("addr", "", "Address to listen on")
	f.Int("port", 8080, "Port to listen on")
	f.String("store", string(store.KindMemory), "Scene store: memory, sqlite, redis or file")
	f.String("path", "scenes", "Database file (sqlite) or directory (file)")
	f.String("redis", "127.0.0.1:6379", "Redis address")
	f.Bool("watch", false, "Publish changes made to the file store directory")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	f.Bool("json", false, "Log as JSON")
	_ = f.Parse(os.Args[1:])

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level := logging.LevelFromVerbosity(cfg.Verbosity, cfg.Verbose)
	if cfg.JSON {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		logging.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	kind, err := store.ParseKind(cfg.Store)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, store.Options{Kind: kind, Path: cfg.Path, RedisAddr: cfg.Redis})
	if err != nil {
		return fmt.Errorf("opening %s store: %w", kind, err)
	}
	defer func() {
		if err := store.Close(st); err != nil {
			logging.Warn("closing store", "error", err)
		}
	}()

	server := web.NewServer(st)
	logging.Info("opened scene store", "store", kind)

	if cfg.Watch {
		if err := follow(ctx, server, st); err != nil {
			return err
		}
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start(cfg.ListenAddr())
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// follow publishes edits made directly in a file store's directory
func follow(ctx context.Context, server *web.Server, st store.SceneStore) error {
	fs, ok := st.(*store.FileStore)
	if !ok {
		logging.Warn("--watch needs the file store, ignoring")
		return nil
	}

	fw, err := watcher.NewFileWatcher(fs.Dir())
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)
	go server.Follow(ctx, debouncer.Output())

	logging.Info("watching scene directory", "dir", fs.Dir())
	return nil
}

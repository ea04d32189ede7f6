// ABOUTME: serve command: wires store, watcher, sandbox, log store, and ingress
// ABOUTME: Runs until SIGINT/SIGTERM, then drains shutdown under a short deadline

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/hook"
	"github.com/agentdeck/agentdeck/internal/hookstore"
	"github.com/agentdeck/agentdeck/internal/log"
	"github.com/agentdeck/agentdeck/internal/logstore"
	"github.com/agentdeck/agentdeck/internal/pipeline"
	"github.com/agentdeck/agentdeck/internal/registry"
	"github.com/agentdeck/agentdeck/internal/sandbox"
	"github.com/agentdeck/agentdeck/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hook pipeline daemon and HTTP ingress",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(config.UserHooksDir(), 0o755); err != nil {
		return fmt.Errorf("create hooks dir: %w", err)
	}

	reg, err := registry.Load(config.RegistryFile())
	if err != nil {
		return err
	}

	dbPath := settings.LogDBPath
	if dbPath == "" {
		dbPath = config.LogDBFile()
	}
	logs, err := logstore.Open(dbPath, settings.LogCap)
	if err != nil {
		return fmt.Errorf("open log store: %w", err)
	}
	defer logs.Close()

	store := hookstore.New()
	defer store.Close()
	if err := store.LoadAll(hook.ScopeUser, ""); err != nil {
		return fmt.Errorf("load user hooks: %w", err)
	}
	if err := store.Watch(hook.ScopeUser, ""); err != nil {
		return fmt.Errorf("watch user hooks: %w", err)
	}

	runner := sandbox.NewGojaRunner(sandbox.Options{
		Timeout:       settings.HookTimeout(),
		AllowHosts:    settings.FetchAllowHosts,
		LLMServiceURL: settings.LLMServiceURL,
	})

	p := pipeline.New(store, runner, logs, pipeline.Options{
		DrainInterval: settings.DrainInterval(),
		Registry:      reg,
	})
	p.Start()
	defer p.Stop()

	for name, proj := range reg.Projects() {
		if err := p.RegisterProject(proj.Path); err != nil {
			log.Warn("serve: project %s: %v", name, err)
		}
	}

	srv := server.New(settings.IngressAddr, settings.IngressToken, p, store, logs)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info("agentdeck serving, %d project(s) registered", len(reg.Projects()))
	return g.Wait()
}

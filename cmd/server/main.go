package main

import (
	"fmt"
	"log/slog"

	log "github.com/charmbracelet/log"
	"github.com/selimk/teller/infra/initializer"
	"github.com/selimk/teller/pkg/config"
	"github.com/selimk/teller/webapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	app := webapi.NewApp(*deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	deps.Logger.Info("starting server", "env", cfg.Env, "address", addr)

	return app.Listen(addr)
}

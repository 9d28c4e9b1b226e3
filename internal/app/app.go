package app

import (
	"log/slog"
	"net/http"

	"github.com/Shalbulov/zentro-risk-prediction/internal/config"
	"github.com/Shalbulov/zentro-risk-prediction/internal/observability"
)

// App holds everything the api binary needs to run and shut down cleanly.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Observability: runtime}
}

// Package prep wires the interview-prep components into a runnable
// application and exposes them over HTTP.
package prep

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/genai"

	"github.com/interviewprep-dev/interviewprep/pkg/prep/cache"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/config"
	apperrors "github.com/interviewprep-dev/interviewprep/pkg/prep/errors"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/llm"
	"github.com/interviewprep-dev/interviewprep/pkg/prep/orchestrator"
)

// App is the assembled application: one orchestrator behind an HTTP
// surface. The mutex serializes workflow access, matching the
// single-session concurrency model.
type App struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator

	logger *slog.Logger
	router *mux.Router
	mu     sync.Mutex
}

// New assembles an application from its collaborators. Used directly by
// tests; production code goes through NewFromConfig.
func New(cfg *config.Config, caches cache.Service, gen llm.Generator, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		Config:       cfg,
		Orchestrator: orchestrator.New(cfg, caches, gen, logger),
		logger:       logger,
	}
	app.router = mux.NewRouter()
	app.setupRoutes()
	return app
}

// NewFromConfig builds the Gemini client and assembles the application.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "failed to create Gemini client", err)
	}

	caches := cache.NewManager(client, logger)
	gen := llm.NewGemini(client)
	return New(cfg, caches, gen, logger), nil
}

// Build creates the HTTP server for serve mode.
func (a *App) Build() *http.Server {
	return &http.Server{
		Addr:        fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:     a.router,
		ReadTimeout: 30 * time.Second,
		// Stage actions block on the model for up to the request timeout
		WriteTimeout: a.Config.Workflow.RequestTimeout + 30*time.Second,
	}
}

// Handler exposes the router for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) setupRoutes() {
	a.router.HandleFunc("/health", a.handleHealth).Methods("GET")

	a.router.HandleFunc("/api/session", a.handleSession).Methods("GET")
	a.router.HandleFunc("/api/documents", a.handleDocuments).Methods("POST")
	a.router.HandleFunc("/api/actions/{action}", a.handleAction).Methods("POST")
	a.router.HandleFunc("/api/simulation/start", a.handleSimulationStart).Methods("POST")
	a.router.HandleFunc("/api/simulation/turns", a.handleSimulationTurn).Methods("POST")
	a.router.HandleFunc("/api/simulation/end", a.handleSimulationEnd).Methods("POST")
	a.router.HandleFunc("/api/restart", a.handleRestart).Methods("POST")
}

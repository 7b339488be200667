package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/timeline/backend-go/internal/auth"
	"github.com/inamate/timeline/backend-go/internal/collab"
	"github.com/inamate/timeline/backend-go/internal/config"
	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/engine"
	mw "github.com/inamate/timeline/backend-go/internal/middleware"
	"github.com/inamate/timeline/backend-go/internal/project"
	"github.com/inamate/timeline/backend-go/internal/typeid"
)

// Playground project allows anonymous access
const playgroundProjectID = "proj_playground"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	hub := collab.NewHub(engineFactory(cfg))
	go hub.Run()

	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	projectService := project.NewService(hub)
	projectService.Ensure(playgroundProjectID, "Playground")

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(cfg, hub, authService, projectService),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "sample_content", cfg.SampleContent)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// engineFactory builds the engine for a newly opened room.
func engineFactory(cfg *config.Config) collab.EngineFactory {
	settings := cfg.EngineSettings()
	return func(projectID string) *engine.Engine {
		eng := engine.New(settings)
		if !cfg.SampleContent {
			return eng
		}
		if err := eng.Load(document.NewSampleTimeline()); err != nil {
			slog.Error("load sample timeline", "project_id", projectID, "error", err)
		}
		return eng
	}
}

func newRouter(cfg *config.Config, hub *collab.Hub, authService *auth.Service, projectService *project.Service) *mux.Router {
	authHandler := auth.NewHandler(authService)
	projectHandler := project.NewHandler(projectService)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Auth routes (public)
	r.HandleFunc("/auth/guest", authHandler.Guest).Methods("POST", "OPTIONS")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)
	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	projectHandler.Routes(api)

	r.HandleFunc("/ws/project/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, cfg, hub, authService, projectService)
	})

	return r
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, cfg *config.Config, hub *collab.Hub, authSvc *auth.Service, projects *project.Service) {
	projectID := mux.Vars(r)["projectId"]

	var userID, displayName string
	if projectID == playgroundProjectID {
		userID = typeid.NewUserID()
		displayName = "Anonymous"
	} else {
		// Browsers cannot set headers on the upgrade request.
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		user, err := authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID, displayName = user.ID, user.DisplayName
	}

	if _, err := projects.Get(r.Context(), projectID); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: cfg.OriginPatterns(),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, projectID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

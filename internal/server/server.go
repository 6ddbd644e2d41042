package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/api"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/config"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/engine"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/store"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/tasks"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/worker"
)

// Server holds all the components for the web application
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	router     *mux.Router
	engine     *engine.Engine
	records    store.RecordStore
	retrainer  *worker.Retrainer
	queue      tasks.Enqueuer
}

// New creates a new Server over an engine and record store. queue may be nil.
func New(
	cfg config.Config,
	e *engine.Engine,
	records store.RecordStore,
	retrainer *worker.Retrainer,
	queue tasks.Enqueuer,
) *Server {
	s := &Server{
		cfg:       cfg,
		router:    mux.NewRouter(),
		engine:    e,
		records:   records,
		retrainer: retrainer,
		queue:     queue,
	}

	s.setupRoutes()

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger)

	apiHandler := api.NewHandler(s.engine, s.records, s.retrainer, s.queue, s.cfg)

	// API routes
	apiHandler.RegisterRoutes(s.router)

	// Record routes at the root, where existing clients post
	apiHandler.RegisterDataRoutes(s.router)

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/", s.handleHome).Methods("GET")
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Travel recommendation API is running."})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("http request")
	})
}

// Start begins listening for HTTP connections
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	log.Infof("Server listening on http://localhost:%d", s.cfg.Server.Port)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server. The record store is owned by the
// caller and left open.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

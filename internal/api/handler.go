package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/config"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/engine"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/store"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/tasks"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/worker"
)

const (
	maxBodyBytes = 1 << 20

	// apiPrefix is registered as part of each path rather than through a
	// subrouter, so a wrong method gets 405 instead of 404.
	apiPrefix = "/api"
)

// Handler provides HTTP API endpoints
type Handler struct {
	engine    *engine.Engine
	records   store.RecordStore
	retrainer *worker.Retrainer
	queue     tasks.Enqueuer
	cfg       config.Config
}

// NewHandler creates a new API handler. retrainer must be the one shared with
// the rest of the process so training runs stay serialised. queue may be nil,
// in which case retraining after an added record runs in the request.
func NewHandler(
	e *engine.Engine,
	records store.RecordStore,
	retrainer *worker.Retrainer,
	queue tasks.Enqueuer,
	cfg config.Config,
) *Handler {
	return &Handler{
		engine:    e,
		records:   records,
		retrainer: retrainer,
		queue:     queue,
		cfg:       cfg,
	}
}

// RegisterRoutes sets up all API routes under /api on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc(apiPrefix+"/health", h.handleHealth).Methods("GET")
	r.HandleFunc(apiPrefix+"/info", h.handleInfo).Methods("GET")

	// Model
	r.HandleFunc(apiPrefix+"/recommend", h.handleRecommend).Methods("POST")
	r.HandleFunc(apiPrefix+"/train", h.handleTrain).Methods("POST")

	// Records
	r.HandleFunc(apiPrefix+"/records", h.handleGetUserData).Methods("GET")
	r.HandleFunc(apiPrefix+"/records", h.handleAddUserData).Methods("POST")
}

// RegisterDataRoutes mounts the record endpoints under the paths existing
// clients call
func (h *Handler) RegisterDataRoutes(r *mux.Router) {
	r.HandleFunc("/getUserData", h.handleGetUserData).Methods("GET")
	r.HandleFunc("/addUserData", h.handleAddUserData).Methods("POST")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (*models.ContextRecord, bool) {
	var rec models.ContextRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&rec); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	return &rec, true
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version":       h.cfg.Version,
		"store":         h.cfg.Store.Driver,
		"top_k":         h.engine.TopK(),
		"trained":       false,
		"places":        []string{},
		"async_retrain": h.queue != nil,
	}
	if p, err := h.engine.LoadPredictor(); err == nil {
		info["trained"] = true
		info["places"] = p.Vocabulary().Places()
	}
	respondJSON(w, http.StatusOK, info)
}

// handleGetUserData returns every stored record
func (h *Handler) handleGetUserData(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.List(r.Context())
	if err != nil {
		log.WithError(err).Error("list records failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.UserDataResponse{Data: records})
}

// handleAddUserData predicts for the posted record, labels it with the top
// suggestion unless the client chose a place, and stores it
func (h *Handler) handleAddUserData(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	prediction, err := h.engine.Label(rec)
	if err != nil {
		log.WithError(err).Error("prediction failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.records.Add(r.Context(), rec); err != nil {
		log.WithError(err).Error("store record failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.cfg.Training.RetrainOnAdd {
		h.scheduleRetrain(r.Context())
	}

	respondJSON(w, http.StatusOK, models.AddUserDataResponse{
		Message:    "User data added successfully!",
		Prediction: prediction,
		ID:         rec.ID,
	})
}

func (h *Handler) scheduleRetrain(ctx context.Context) {
	if h.queue != nil {
		if err := h.queue.EnqueueRetrain(ctx, "record added"); err != nil {
			log.WithError(err).Warn("could not enqueue retrain")
		}
		return
	}
	if _, err := h.retrainer.Retrain(ctx); err != nil && !errors.Is(err, engine.ErrEmptyTrainingSet) {
		log.WithError(err).Warn("retrain after add failed")
	}
}

// handleRecommend returns the top places for the posted record
func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	suggestions, err := h.engine.Suggest(*rec)
	if err != nil {
		log.WithError(err).Error("recommendation failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, models.RecommendResponse{
		SuggestedPlaces: engine.Places(suggestions),
		Details:         suggestions,
	})
}

// handleTrain retrains on every stored record, or queues the run when
// ?async=true and a queue is configured
func (h *Handler) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" {
		if h.queue == nil {
			respondError(w, http.StatusBadRequest, "no job queue configured")
			return
		}
		if err := h.queue.EnqueueRetrain(r.Context(), "api request"); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	report, err := h.retrainer.Retrain(r.Context())
	if errors.Is(err, engine.ErrEmptyTrainingSet) {
		respondError(w, http.StatusConflict, "no labeled records to train on")
		return
	}
	if err != nil {
		log.WithError(err).Error("training failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, models.TrainResponse{
		VocabularySize: report.VocabularySize,
		Records:        report.Records,
		Balanced:       report.Balanced,
		PerLabel:       report.PerLabel,
		Epochs:         report.Epochs,
		Loss:           report.Loss,
	})
}

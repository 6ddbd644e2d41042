// Package engine trains the travel recommender and serves ranked place
// suggestions from its persisted artifacts.
package engine

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/nn"
)

// Options configures an Engine
type Options struct {
	Model ModelOptions
	Train nn.TrainOptions
	TopK  int
}

// DefaultOptions trains one unshuffled epoch, one example at a time, and
// returns the top 3 places.
func DefaultOptions() Options {
	return Options{
		Model: DefaultModelOptions(),
		Train: nn.TrainOptions{Epochs: 1, BatchSize: 1},
		TopK:  DefaultTopK,
	}
}

// Engine is the caller-facing train/recommend surface over one artifact pair.
// It holds no loaded state: every Recommend reads the artifacts afresh. Use
// LoadPredictor to load once and reuse.
type Engine struct {
	artifacts Artifacts
	opts      Options
	trainer   *Trainer
}

// New creates an engine bound to the given artifacts
func New(artifacts Artifacts, opts Options) *Engine {
	if opts.TopK < 1 {
		opts.TopK = DefaultTopK
	}
	return &Engine{
		artifacts: artifacts,
		opts:      opts,
		trainer:   NewTrainer(artifacts, opts.Model, opts.Train),
	}
}

// Artifacts returns the artifact locations
func (e *Engine) Artifacts() Artifacts {
	return e.artifacts
}

// TopK returns how many places a recommendation holds at most
func (e *Engine) TopK() int {
	return e.opts.TopK
}

// Train overwrites the vocabulary and parameters from records.
func (e *Engine) Train(records []models.ContextRecord) (*TrainReport, error) {
	return e.trainer.Train(records)
}

// LoadPredictor loads the current artifacts for repeated use.
func (e *Engine) LoadPredictor() (*Predictor, error) {
	return LoadPredictor(e.artifacts, e.opts.Model)
}

// Suggest returns the ranked suggestions with their probabilities. An
// untrained engine yields an empty list and no error.
func (e *Engine) Suggest(r models.ContextRecord) ([]models.Suggestion, error) {
	p, err := e.LoadPredictor()
	if err != nil {
		if errors.Is(err, ErrUntrained) {
			log.Warn("No vocabulary found, train the model first")
			RecommendationsTotal.WithLabelValues("untrained").Inc()
			return []models.Suggestion{}, nil
		}
		RecommendationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	return Suggest(p, r, e.opts.TopK)
}

// Recommend returns up to TopK place names, most likely first, or an empty
// list when the engine has not been trained.
func (e *Engine) Recommend(r models.ContextRecord) ([]string, error) {
	suggestions, err := e.Suggest(r)
	if err != nil {
		return nil, err
	}
	return Places(suggestions), nil
}

// Label predicts for r and, when the caller left SuggestedPlace empty, sets
// it to the top prediction. It returns the top prediction, which is empty
// for an untrained engine.
func (e *Engine) Label(r *models.ContextRecord) (string, error) {
	places, err := e.Recommend(*r)
	if err != nil {
		return "", err
	}
	top := ""
	if len(places) > 0 {
		top = places[0]
	}
	if r.SuggestedPlace == "" {
		r.SuggestedPlace = top
	}
	return top, nil
}

// Suggest ranks r with an already loaded predictor, recording metrics.
func Suggest(p *Predictor, r models.ContextRecord, k int) ([]models.Suggestion, error) {
	suggestions, err := p.Recommend(r, k)
	if err != nil {
		RecommendationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	RecommendationsTotal.WithLabelValues("ok").Inc()
	return suggestions, nil
}

// Places extracts the place names from ranked suggestions
func Places(suggestions []models.Suggestion) []string {
	out := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, s.Place)
	}
	return out
}

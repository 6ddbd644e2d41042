package engine

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/dataset"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/features"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/nn"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/vocab"
)

// ModelOptions are the architecture knobs that do not depend on the vocabulary.
type ModelOptions struct {
	HiddenDim    int
	LearningRate float64
	Seed         int64
}

// DefaultModelOptions matches the recommender's reference architecture.
func DefaultModelOptions() ModelOptions {
	d := nn.DefaultConfig(1)
	return ModelOptions{HiddenDim: d.HiddenDim, LearningRate: d.LearningRate, Seed: d.Seed}
}

func (o ModelOptions) config(outputDim int) nn.Config {
	cfg := nn.DefaultConfig(outputDim)
	if o.HiddenDim > 0 {
		cfg.HiddenDim = o.HiddenDim
	}
	if o.LearningRate > 0 {
		cfg.LearningRate = o.LearningRate
	}
	cfg.Seed = o.Seed
	return cfg
}

// TrainReport summarises a completed training run.
type TrainReport struct {
	VocabularySize int
	Records        int
	Balanced       int
	PerLabel       int
	Epochs         int
	Loss           float64
	Duration       time.Duration
}

// Trainer fits a fresh model on labeled records and persists it together
// with its vocabulary.
type Trainer struct {
	artifacts Artifacts
	model     ModelOptions
	opts      nn.TrainOptions
}

// NewTrainer creates a trainer writing to the given artifacts
func NewTrainer(artifacts Artifacts, model ModelOptions, opts nn.TrainOptions) *Trainer {
	return &Trainer{artifacts: artifacts, model: model, opts: opts}
}

// Train runs vocabulary -> model -> balance -> encode -> fit -> persist.
// An empty or unlabeled input returns ErrEmptyTrainingSet and leaves any
// existing artifacts untouched.
func (t *Trainer) Train(records []models.ContextRecord) (*TrainReport, error) {
	start := time.Now()
	report, err := t.train(records)
	switch {
	case err == nil:
		report.Duration = time.Since(start)
		TrainingRunsTotal.WithLabelValues("ok").Inc()
		TrainingDuration.Observe(report.Duration.Seconds())
	case errors.Is(err, ErrEmptyTrainingSet):
		TrainingRunsTotal.WithLabelValues("empty").Inc()
	default:
		TrainingRunsTotal.WithLabelValues("error").Inc()
	}
	return report, err
}

func (t *Trainer) train(records []models.ContextRecord) (*TrainReport, error) {
	if len(records) == 0 {
		log.Warn("No user data found, training aborted")
		return nil, ErrEmptyTrainingSet
	}

	v := vocab.Build(records)
	if v.Len() == 0 {
		log.Warnf("None of %d records carries a place, training aborted", len(records))
		return nil, ErrEmptyTrainingSet
	}

	if err := t.artifacts.ensureDirs(); err != nil {
		return nil, err
	}
	if err := v.Save(t.artifacts.VocabularyPath); err != nil {
		return nil, fmt.Errorf("persist vocabulary: %w", err)
	}
	VocabularySize.Set(float64(v.Len()))

	model, err := nn.NewRecommenderModel(t.model.config(v.Len()))
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	balanced := dataset.Balance(records)
	inputs := make([][]float64, 0, len(balanced))
	targets := make([]int, 0, len(balanced))
	for _, r := range balanced {
		inputs = append(inputs, features.Encode(r).Slice())
		targets = append(targets, labelFor(v, r.SuggestedPlace))
	}
	TrainingExamples.Set(float64(len(balanced)))

	opts := t.opts
	if opts.Epochs < 1 {
		opts.Epochs = 1
	}

	loss, err := model.Train(inputs, targets, opts)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	if err := model.Save(t.artifacts.ModelPath); err != nil {
		return nil, fmt.Errorf("persist model: %w", err)
	}

	report := &TrainReport{
		VocabularySize: v.Len(),
		Records:        len(records),
		Balanced:       len(balanced),
		PerLabel:       dataset.MinCount(dataset.Counts(records)),
		Epochs:         opts.Epochs,
		Loss:           loss,
	}
	log.WithFields(log.Fields{
		"places":   report.VocabularySize,
		"records":  report.Records,
		"balanced": report.Balanced,
		"loss":     report.Loss,
	}).Info("Model training complete")

	return report, nil
}

// labelFor maps a place to its class id. A place missing from the vocabulary
// falls back to class 0 instead of failing the run.
func labelFor(v *vocab.Vocabulary, place string) int {
	id, ok := v.ID(place)
	if !ok {
		log.Warnf("Place %q is not in the vocabulary, using class 0", place)
		return 0
	}
	return id
}

package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/config"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/engine"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/importer"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/nn"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/store"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/tasks"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/weather"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/worker"
)

// App holds the initialised components shared by the commands
type App struct {
	Config *config.Config

	Records   store.RecordStore
	Engine    *engine.Engine
	Retrainer *worker.Retrainer
	Weather   *weather.Client
	Importer  *importer.Importer

	// Jobs is nil when no Redis address is configured
	Jobs *tasks.Client
}

// NewApp opens the record store and builds the engine, weather client and
// optional job client from cfg
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	records, err := store.Open(ctx, StoreConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("init record store: %w", err)
	}
	a.Records = records

	a.Engine = engine.New(Artifacts(cfg), EngineOptions(cfg))
	a.Retrainer = worker.NewRetrainer(worker.RetrainDeps{Records: a.Records, Trainer: a.Engine})
	a.Importer = importer.New(a.Records)
	a.Weather = weather.New(weather.Config{
		APIKey:              cfg.Weather.APIKey,
		DefaultCity:         cfg.Weather.DefaultCity,
		FallbackTemperature: cfg.Weather.FallbackTemperature,
		Timeout:             cfg.Weather.Timeout,
	})

	if cfg.Redis.Address != "" {
		jobs, err := tasks.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init job client: %w", err)
		}
		a.Jobs = jobs
	}

	log.WithFields(log.Fields{
		"store":     cfg.Store.Driver,
		"artifacts": cfg.Artifacts.Dir,
		"queue":     a.Jobs != nil,
	}).Debug("application initialised")
	return a, nil
}

// Queue returns the job client as an Enqueuer, or nil when none is configured
func (a *App) Queue() tasks.Enqueuer {
	if a.Jobs == nil {
		return nil
	}
	return a.Jobs
}

// Close releases the store and job client
func (a *App) Close() error {
	var firstErr error
	if a.Jobs != nil {
		if err := a.Jobs.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Records != nil {
		if err := a.Records.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StoreConfig maps the store section onto the driver config
func StoreConfig(cfg *config.Config) store.Config {
	return store.Config{
		Driver:          cfg.Store.Driver,
		SQLitePath:      cfg.Store.SQLitePath,
		MongoURI:        cfg.Store.MongoURI,
		MongoDatabase:   cfg.Store.MongoDatabase,
		MongoCollection: cfg.Store.MongoCollection,
		BadgerPath:      cfg.Store.BadgerPath,
	}
}

// Artifacts maps the artifacts section onto the engine's file locations
func Artifacts(cfg *config.Config) engine.Artifacts {
	return engine.NewArtifacts(cfg.Artifacts.Dir, cfg.Artifacts.VocabularyFile, cfg.Artifacts.ModelFile)
}

// EngineOptions maps the model, training and recommend sections
func EngineOptions(cfg *config.Config) engine.Options {
	return engine.Options{
		Model: engine.ModelOptions{
			HiddenDim:    cfg.Model.HiddenDim,
			LearningRate: cfg.Model.LearningRate,
			Seed:         cfg.Model.Seed,
		},
		Train: nn.TrainOptions{
			Epochs:    cfg.Training.Epochs,
			BatchSize: cfg.Training.BatchSize,
			Shuffle:   cfg.Training.Shuffle,
			Seed:      cfg.Model.Seed,
		},
		TopK: cfg.Recommend.TopK,
	}
}

// ConfigureLogging applies log.level and log.format
func ConfigureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

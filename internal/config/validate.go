package config

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

var ErrInvalid = errors.New("config: invalid")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks ranges and the driver selection
func (c *Config) Validate() error {
	if c.Artifacts.Dir == "" {
		return invalid("artifacts.dir is required")
	}
	if c.Artifacts.VocabularyFile == "" || c.Artifacts.ModelFile == "" {
		return invalid("artifacts.vocabulary_file and artifacts.model_file are required")
	}
	if c.Artifacts.VocabularyFile == c.Artifacts.ModelFile {
		return invalid("artifacts.vocabulary_file and artifacts.model_file must differ")
	}

	if c.Model.HiddenDim <= 0 {
		return invalid("model.hidden_dim must be positive")
	}
	if c.Model.LearningRate <= 0 {
		return invalid("model.learning_rate must be positive")
	}

	if c.Training.Epochs <= 0 {
		return invalid("training.epochs must be positive")
	}
	if c.Training.BatchSize <= 0 {
		return invalid("training.batch_size must be positive")
	}

	if c.Recommend.TopK <= 0 {
		return invalid("recommend.top_k must be positive")
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return invalid("store.sqlite_path is required for the sqlite driver")
		}
	case "mongo":
		if c.Store.MongoURI == "" {
			return invalid("store.mongo_uri (or MONGO_URI) is required for the mongo driver")
		}
	case "badger":
	default:
		return invalid("store.driver %q is not one of sqlite, mongo, badger", c.Store.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalid("server.port %d is out of range", c.Server.Port)
	}

	if c.Weather.Timeout <= 0 {
		return invalid("weather.timeout must be positive")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return invalid("log.format %q is not one of text, json", c.Log.Format)
	}

	return nil
}

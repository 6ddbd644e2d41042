package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Artifacts struct {
		Dir            string `mapstructure:"dir"`
		VocabularyFile string `mapstructure:"vocabulary_file"`
		ModelFile      string `mapstructure:"model_file"`
	} `mapstructure:"artifacts"`

	Model struct {
		HiddenDim    int     `mapstructure:"hidden_dim"`
		LearningRate float64 `mapstructure:"learning_rate"`
		Seed         int64   `mapstructure:"seed"`
	} `mapstructure:"model"`

	Training struct {
		Epochs       int  `mapstructure:"epochs"`
		BatchSize    int  `mapstructure:"batch_size"`
		Shuffle      bool `mapstructure:"shuffle"`
		RetrainOnAdd bool `mapstructure:"retrain_on_add"`
	} `mapstructure:"training"`

	Recommend struct {
		TopK int `mapstructure:"top_k"`
	} `mapstructure:"recommend"`

	Store struct {
		Driver          string `mapstructure:"driver"`
		SQLitePath      string `mapstructure:"sqlite_path"`
		MongoURI        string `mapstructure:"mongo_uri"`
		MongoDatabase   string `mapstructure:"mongo_database"`
		MongoCollection string `mapstructure:"mongo_collection"`
		BadgerPath      string `mapstructure:"badger_path"`
	} `mapstructure:"store"`

	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`

	Weather struct {
		APIKey              string        `mapstructure:"api_key"`
		DefaultCity         string        `mapstructure:"default_city"`
		FallbackTemperature float64       `mapstructure:"fallback_temperature"`
		Timeout             time.Duration `mapstructure:"timeout"`
	} `mapstructure:"weather"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Version string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("artifacts.dir", "data")
	v.SetDefault("artifacts.vocabulary_file", "place_map.json")
	v.SetDefault("artifacts.model_file", "travel_model.gob")

	v.SetDefault("model.hidden_dim", 10)
	v.SetDefault("model.learning_rate", 0.001)
	v.SetDefault("model.seed", 42)

	v.SetDefault("training.epochs", 1)
	v.SetDefault("training.batch_size", 1)
	v.SetDefault("training.shuffle", false)
	v.SetDefault("training.retrain_on_add", false)

	v.SetDefault("recommend.top_k", 3)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", filepath.Join("data", "travel.db"))
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.mongo_database", "usertravel")
	v.SetDefault("store.mongo_collection", "places")
	v.SetDefault("store.badger_path", filepath.Join("data", "records"))

	v.SetDefault("server.port", 5000)

	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.default_city", "Chennai")
	v.SetDefault("weather.fallback_temperature", 25.0)
	v.SetDefault("weather.timeout", 10*time.Second)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from defaults, an optional config.yaml, a .env
// file and TRAVEL_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.travel")
	return load(v)
}

// LoadFile reads configuration from an explicit file path
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("TRAVEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the deployment sets these without the prefix
	v.BindEnv("store.mongo_uri", "TRAVEL_STORE_MONGO_URI", "MONGO_URI")
	v.BindEnv("weather.api_key", "TRAVEL_WEATHER_API_KEY", "OPENWEATHER_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// VocabularyPath is the full path of the place vocabulary artifact
func (c *Config) VocabularyPath() string {
	return filepath.Join(c.Artifacts.Dir, c.Artifacts.VocabularyFile)
}

// ModelPath is the full path of the model parameters artifact
func (c *Config) ModelPath() string {
	return filepath.Join(c.Artifacts.Dir, c.Artifacts.ModelFile)
}

// Package store persists the labeled travel records the recommender learns
// from. Records are append-only and listed in insertion order.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
)

var (
	ErrUnknownDriver = errors.New("store: unknown driver")
	ErrClosed        = errors.New("store: closed")
)

// RecordStore is the record source and sink used by training and the API.
type RecordStore interface {
	// Add appends r, assigning ID and CreatedAt when they are unset.
	Add(ctx context.Context, r *models.ContextRecord) error
	// List returns every record in insertion order.
	List(ctx context.Context) ([]models.ContextRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverBadger = "badger"
)

// Config selects and configures a RecordStore driver
type Config struct {
	Driver          string
	SQLitePath      string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	BadgerPath      string
}

// Open creates the store named by cfg.Driver
func Open(ctx context.Context, cfg Config) (RecordStore, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return NewSQLiteStore(cfg.SQLitePath)
	case DriverMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case DriverBadger:
		return NewBadgerStore(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// prepare fills the store-assigned fields
func prepare(r *models.ContextRecord) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

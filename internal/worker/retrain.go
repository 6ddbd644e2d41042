// Package worker runs queued background jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/engine"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/tasks"
)

// RecordLister supplies the training records
type RecordLister interface {
	List(ctx context.Context) ([]models.ContextRecord, error)
}

// Trainer rebuilds the artifacts from records
type Trainer interface {
	Train(records []models.ContextRecord) (*engine.TrainReport, error)
}

// RetrainDeps holds what the retrain handler needs
type RetrainDeps struct {
	Records RecordLister
	Trainer Trainer
}

// Retrainer lists every record and trains on it, one run at a time.
type Retrainer struct {
	deps RetrainDeps
	mu   sync.Mutex
}

// NewRetrainer creates a Retrainer
func NewRetrainer(deps RetrainDeps) *Retrainer {
	return &Retrainer{deps: deps}
}

// Retrain trains on the current contents of the record store
func (r *Retrainer) Retrain(ctx context.Context) (*engine.TrainReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.deps.Records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return r.deps.Trainer.Train(records)
}

// HandleRetrain processes TypeRetrain tasks. A store without labeled records
// is not retried.
func (r *Retrainer) HandleRetrain(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseRetrainPayload(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	report, err := r.Retrain(ctx)
	if errors.Is(err, engine.ErrEmptyTrainingSet) {
		log.WithField("reason", payload.Reason).Warn("retrain skipped: no labeled records")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"reason":     payload.Reason,
		"places":     report.VocabularySize,
		"records":    report.Records,
		"balanced":   report.Balanced,
		"loss":       report.Loss,
		"elapsed_ms": report.Duration.Milliseconds(),
	}).Info("retrain finished")
	return nil
}

// RegisterHandlers wires the job handlers onto mux
func RegisterHandlers(mux *asynq.ServeMux, r *Retrainer) {
	mux.HandleFunc(tasks.TypeRetrain, r.HandleRetrain)
}

// ServerConfig is the asynq server configuration for the worker process.
// The training queue runs a single job at a time.
func ServerConfig() asynq.Config {
	return asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{tasks.QueueTraining: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.WithFields(log.Fields{
				"type":    task.Type(),
				"payload": string(task.Payload()),
			}).WithError(err).Error("task failed")
		}),
	}
}

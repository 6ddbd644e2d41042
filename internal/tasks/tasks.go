package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

const (
	// TypeRetrain rebuilds the vocabulary and model from every stored record.
	TypeRetrain = "train:retrain"

	// QueueTraining is served with concurrency 1 so retrains never overlap.
	QueueTraining = "training"
)

// RetrainPayload is carried by TypeRetrain tasks
type RetrainPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRetrainTask builds a retrain task
func NewRetrainTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(RetrainPayload{Reason: reason, RequestedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("encode retrain payload: %w", err)
	}
	return asynq.NewTask(TypeRetrain, payload), nil
}

// ParseRetrainPayload decodes the payload of a retrain task. An empty payload
// is accepted.
func ParseRetrainPayload(t *asynq.Task) (RetrainPayload, error) {
	var p RetrainPayload
	if len(t.Payload()) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode retrain payload: %w", err)
	}
	return p, nil
}

// Enqueuer schedules background retraining
type Enqueuer interface {
	EnqueueRetrain(ctx context.Context, reason string) error
}

// Client enqueues tasks on the asynq (Redis) queue
type Client struct {
	client *asynq.Client
}

// NewClient connects to Redis at addr
func NewClient(addr, password string, db int) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	cli := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Client{client: cli}, nil
}

// EnqueueRetrain queues a retrain on the training queue
func (c *Client) EnqueueRetrain(ctx context.Context, reason string) error {
	task, err := NewRetrainTask(reason)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueTraining),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue retrain: %w", err)
	}
	log.WithFields(log.Fields{"task_id": info.ID, "reason": reason}).Debug("enqueued retrain")
	return nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

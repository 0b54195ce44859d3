package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	PredictionQueue = "prediction_queue"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// PredictionTaskPayload references a durably recorded task by id; the worker
// reloads the full record from the task store before executing.
type PredictionTaskPayload struct {
	TaskId uuid.UUID
}

type Publisher interface {
	PublishPredictionTask(ctx context.Context, payload PredictionTaskPayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}

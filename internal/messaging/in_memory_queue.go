package messaging

import (
	"context"
	"encoding/json"
)

type inMemoryTask struct {
	queue   string
	payload []byte
	source  *InMemoryQueue
}

func (t *inMemoryTask) Type() string {
	return t.queue
}

func (t *inMemoryTask) Payload() []byte {
	return t.payload
}

func (t *inMemoryTask) Ack() error {
	return nil
}

// Nack puts the task back on the queue, matching the RabbitMQ requeue
// semantics for transient failures.
func (t *inMemoryTask) Nack() error {
	t.source.redeliver(t)
	return nil
}

func (t *inMemoryTask) Reject() error {
	return nil
}

// InMemoryQueue is both Publisher and Reciever for single-process
// deployments and tests.
type InMemoryQueue struct {
	tasks chan Task
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		tasks: make(chan Task, 100),
	}
}

func (q *InMemoryQueue) publishTaskInternal(queue string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	q.tasks <- &inMemoryTask{queue: queue, payload: data, source: q}

	return nil
}

func (q *InMemoryQueue) redeliver(t *inMemoryTask) {
	if q.tasks != nil {
		q.tasks <- t
	}
}

func (q *InMemoryQueue) PublishPredictionTask(ctx context.Context, payload PredictionTaskPayload) error {
	return q.publishTaskInternal(PredictionQueue, payload)
}

func (q *InMemoryQueue) Tasks() <-chan Task {
	return q.tasks
}

func (q *InMemoryQueue) Close() {
	if q.tasks != nil {
		close(q.tasks)
		q.tasks = nil
	}
}

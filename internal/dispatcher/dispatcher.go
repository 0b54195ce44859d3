package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/internal/ledger"
	"github.com/Stillgh/sentiment-analysis/internal/messaging"
	"github.com/Stillgh/sentiment-analysis/internal/metrics"
	"github.com/Stillgh/sentiment-analysis/internal/registry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultMinInputLength = 5

var (
	ErrInvalidInput   = errors.New("invalid inference input")
	ErrEnqueueFailure = errors.New("failed to enqueue prediction task")
)

// Dispatcher accepts a prediction request, validates it, checks affordability,
// records a PENDING task, and hands it to the worker queue. It never blocks
// on inference: Submit returns as soon as the task is durably recorded and
// enqueued.
type Dispatcher struct {
	db        *gorm.DB
	registry  *registry.Registry
	publisher messaging.Publisher

	// Inputs of length <= minInputLength are rejected before any side effect.
	minInputLength int
}

func NewDispatcher(db *gorm.DB, reg *registry.Registry, publisher messaging.Publisher, minInputLength int) *Dispatcher {
	if minInputLength <= 0 {
		minInputLength = DefaultMinInputLength
	}
	return &Dispatcher{db: db, registry: reg, publisher: publisher, minInputLength: minInputLength}
}

// Submit runs the synchronous half of the task lifecycle. Failures before the
// task row exists (invalid input, unknown model, insufficient balance) are
// returned directly and leave no trace; after the row exists the caller
// always gets a task id it can poll, even if enqueueing fails.
func (d *Dispatcher) Submit(ctx context.Context, accountId uuid.UUID, modelName string, input string) (uuid.UUID, error) {
	if len(input) <= d.minInputLength {
		return uuid.Nil, fmt.Errorf("%w: input must be longer than %d characters", ErrInvalidInput, d.minInputLength)
	}

	model, err := d.resolveModel(ctx, modelName)
	if err != nil {
		return uuid.Nil, err
	}

	account, err := database.GetAccount(ctx, d.db, accountId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ledger.ErrAccountNotFound
		}
		return uuid.Nil, err
	}

	// Advisory affordability check only: no funds are reserved here, the
	// debit happens after successful inference. Two concurrent submissions
	// can both pass against the same balance; the debit is the backstop.
	if account.Balance.LessThan(model.PredictionCost) {
		return uuid.Nil, fmt.Errorf("%w: required %s, available %s",
			ledger.ErrInsufficientFunds, model.PredictionCost, account.Balance)
	}

	task := database.PredictionTask{
		Id:               uuid.New(),
		AccountId:        account.Id,
		ModelId:          model.Id,
		InferenceInput:   input,
		BalanceBefore:    account.Balance,
		RequestTimestamp: time.Now().UTC(),
		Withdrawal:       decimal.Zero,
	}

	if err := d.db.WithContext(ctx).Create(&task).Error; err != nil {
		slog.Error("error creating prediction task", "account_id", accountId, "error", err)
		return uuid.Nil, fmt.Errorf("error creating prediction task: %w", err)
	}
	metrics.TasksSubmitted.Inc()

	if err := d.publisher.PublishPredictionTask(ctx, messaging.PredictionTaskPayload{TaskId: task.Id}); err != nil {
		// The row already exists; fail it immediately rather than leaving an
		// orphan PENDING record no worker will ever pick up.
		slog.Error("error enqueueing prediction task", "task_id", task.Id, "error", err)
		if finErr := database.FinalizeTask(ctx, d.db, task.Id, "failed to enqueue task for execution", false, decimal.Zero); finErr != nil {
			slog.Error("error finalizing unqueued task", "task_id", task.Id, "error", finErr)
		}
		metrics.TasksFailed.Inc()
		return task.Id, fmt.Errorf("%w: %v", ErrEnqueueFailure, err)
	}

	slog.Info("dispatched prediction task", "task_id", task.Id, "account_id", accountId, "model", model.Name)
	return task.Id, nil
}

func (d *Dispatcher) resolveModel(ctx context.Context, modelName string) (database.Model, error) {
	if modelName != "" {
		return d.registry.ByName(ctx, modelName)
	}
	return d.registry.Default(ctx)
}

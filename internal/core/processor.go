package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Stillgh/sentiment-analysis/internal/core/utils"
	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/internal/ledger"
	"github.com/Stillgh/sentiment-analysis/internal/messaging"
	"github.com/Stillgh/sentiment-analysis/internal/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxConcurrentTaskLocks = 10000

// TaskProcessor is the worker side of the dispatch protocol: it consumes
// prediction tasks from the queue, runs the predictor, finalizes the task
// record exactly once, and settles the ledger on success.
type TaskProcessor struct {
	db       *gorm.DB
	ledger   *ledger.Ledger
	reciever messaging.Reciever
	loaders  map[ModelKind]PredictorLoader

	// Guards against two in-process deliveries of the same task id executing
	// concurrently; the guarded finalize update remains the cross-process
	// backstop.
	running utils.MutexMap
}

func NewTaskProcessor(db *gorm.DB, ldg *ledger.Ledger, reciever messaging.Reciever, loaders map[ModelKind]PredictorLoader) *TaskProcessor {
	return &TaskProcessor{
		db:       db,
		ledger:   ldg,
		reciever: reciever,
		loaders:  loaders,
		running:  utils.NewMutexMap(maxConcurrentTaskLocks),
	}
}

func (proc *TaskProcessor) Start() {
	slog.Info("starting task processor")

	for task := range proc.reciever.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *TaskProcessor) Stop() {
	slog.Info("stopping task processor")

	proc.reciever.Close()
}

func (proc *TaskProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	if task.Type() != messaging.PredictionQueue {
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	var payload messaging.PredictionTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("error unmarshalling prediction task", "error", err)
		if err := task.Reject(); err != nil { // Discard malformed message
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err := proc.processPredictionTask(ctx, payload); err != nil {
		slog.Error("error processing task", "queue", task.Type(), "task_id", payload.TaskId, "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		slog.Info("successfully processed task", "queue", task.Type(), "task_id", payload.TaskId)
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}

// processPredictionTask returns an error only for infrastructure failures
// that warrant a redelivery. A predictor failure is not one of those: it is
// absorbed into the task's terminal FAILED state.
func (proc *TaskProcessor) processPredictionTask(ctx context.Context, payload messaging.PredictionTaskPayload) error {
	taskId := payload.TaskId

	if err := proc.running.Lock(taskId.String()); err != nil {
		return fmt.Errorf("error acquiring task lock: %w", err)
	}
	defer proc.running.Unlock(taskId.String()) //nolint:errcheck

	task, err := database.GetTask(ctx, proc.db, taskId)
	if err != nil {
		return fmt.Errorf("error loading prediction task %s: %w", taskId, err)
	}

	if task.Terminal() {
		slog.Info("task already finalized, skipping", "task_id", taskId)
		return nil
	}

	model, err := proc.loadModel(ctx, task.ModelId)
	if err != nil {
		return err
	}

	predictor, err := LoadPredictor(proc.loaders, model)
	if err != nil {
		// A model that cannot be resolved to a predictor will never succeed,
		// so the task is failed rather than redelivered.
		slog.Error("error resolving predictor", "task_id", taskId, "model", model.Name, "error", err)
		return proc.finalizeFailed(ctx, taskId, err)
	}

	start := time.Now()
	label, predErr := predictor.Predict(ctx, task.InferenceInput)
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())

	if predErr != nil {
		slog.Info("prediction failed", "task_id", taskId, "model", model.Name, "error", predErr)
		return proc.finalizeFailed(ctx, taskId, predErr)
	}

	// Finalize strictly before the debit: a reader must never observe a
	// debited balance for a task that does not yet show SUCCEEDED. The
	// recorded withdrawal amount is the evidence of what the debit owes.
	if err := database.FinalizeTask(ctx, proc.db, taskId, label, true, model.PredictionCost); err != nil {
		if errors.Is(err, database.ErrAlreadyFinalized) {
			slog.Warn("task finalized concurrently, skipping debit", "task_id", taskId)
			return nil
		}
		return fmt.Errorf("error finalizing prediction task %s: %w", taskId, err)
	}
	metrics.TasksSucceeded.Inc()

	if err := proc.ledger.Withdraw(ctx, task.AccountId, model.PredictionCost); err != nil {
		// The task keeps its SUCCEEDED result: inference did produce a usable
		// label. The missed debit is surfaced, not retried.
		metrics.DebitFailures.Inc()
		slog.Error("ledger debit failed after successful prediction",
			"task_id", taskId, "account_id", task.AccountId, "amount", model.PredictionCost, "error", err)
	}

	return nil
}

func (proc *TaskProcessor) loadModel(ctx context.Context, modelId uuid.UUID) (database.Model, error) {
	var model database.Model
	if err := proc.db.WithContext(ctx).First(&model, "id = ?", modelId).Error; err != nil {
		return model, fmt.Errorf("error loading model %s: %w", modelId, err)
	}
	return model, nil
}

func (proc *TaskProcessor) finalizeFailed(ctx context.Context, taskId uuid.UUID, cause error) error {
	if err := database.FinalizeTask(ctx, proc.db, taskId, cause.Error(), false, decimal.Zero); err != nil {
		if errors.Is(err, database.ErrAlreadyFinalized) {
			slog.Warn("task finalized concurrently", "task_id", taskId)
			return nil
		}
		return fmt.Errorf("error finalizing failed task %s: %w", taskId, err)
	}
	metrics.TasksFailed.Inc()
	return nil
}

package dispatcher_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/internal/dispatcher"
	"github.com/Stillgh/sentiment-analysis/internal/ledger"
	"github.com/Stillgh/sentiment-analysis/internal/messaging"
	"github.com/Stillgh/sentiment-analysis/internal/registry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

func createAccount(balance int64) *database.Account {
	return &database.Account{
		Id:             uuid.New(),
		Email:          uuid.NewString() + "@example.com",
		HashedPassword: "x",
		Balance:        decimal.NewFromInt(balance),
		Role:           database.RoleUser,
		CreationTime:   time.Now(),
	}
}

func setup(t *testing.T, balance int64, publisher messaging.Publisher) (*gorm.DB, *dispatcher.Dispatcher, *database.Account) {
	account := createAccount(balance)
	db := createDB(t, account)
	reg := registry.NewRegistry(db)
	require.NoError(t, reg.Bootstrap(context.Background()))
	return db, dispatcher.NewDispatcher(db, reg, publisher, 0), account
}

func taskCount(t *testing.T, db *gorm.DB) int64 {
	var count int64
	require.NoError(t, db.Model(&database.PredictionTask{}).Count(&count).Error)
	return count
}

func TestSubmitCreatesPendingTask(t *testing.T) {
	queue := messaging.NewInMemoryQueue()
	db, disp, account := setup(t, 1000, queue)

	taskId, err := disp.Submit(context.Background(), account.Id, "", "what a great day")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, taskId)

	task, err := database.GetTask(context.Background(), db, taskId)
	require.NoError(t, err)
	assert.Equal(t, database.TaskPending, task.Status())
	assert.Equal(t, account.Id, task.AccountId)
	assert.Equal(t, "what a great day", task.InferenceInput)
	assert.True(t, task.BalanceBefore.Equal(decimal.NewFromInt(1000)))

	// The task must be on the queue exactly once.
	queued := <-queue.Tasks()
	assert.Equal(t, messaging.PredictionQueue, queued.Type())
}

func TestSubmitRejectsShortInput(t *testing.T) {
	db, disp, account := setup(t, 1000, messaging.NewInMemoryQueue())

	_, err := disp.Submit(context.Background(), account.Id, "", "abc")
	assert.ErrorIs(t, err, dispatcher.ErrInvalidInput)

	assert.Zero(t, taskCount(t, db))
}

func TestSubmitRejectsInsufficientBalance(t *testing.T) {
	db, disp, account := setup(t, 50, messaging.NewInMemoryQueue())

	_, err := disp.Submit(context.Background(), account.Id, "", "what a great day")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	assert.Zero(t, taskCount(t, db))
}

func TestSubmitRejectsUnknownModel(t *testing.T) {
	db, disp, account := setup(t, 1000, messaging.NewInMemoryQueue())

	_, err := disp.Submit(context.Background(), account.Id, "NoSuchModel", "what a great day")
	assert.ErrorIs(t, err, registry.ErrModelNotFound)

	assert.Zero(t, taskCount(t, db))
}

func TestSubmitRejectsUnknownAccount(t *testing.T) {
	_, disp, _ := setup(t, 1000, messaging.NewInMemoryQueue())

	_, err := disp.Submit(context.Background(), uuid.New(), "", "what a great day")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

type failingPublisher struct{}

func (failingPublisher) PublishPredictionTask(ctx context.Context, payload messaging.PredictionTaskPayload) error {
	return errors.New("queue unavailable")
}

func (failingPublisher) Close() {}

func TestEnqueueFailureFailsTaskImmediately(t *testing.T) {
	db, disp, account := setup(t, 1000, failingPublisher{})

	taskId, err := disp.Submit(context.Background(), account.Id, "", "what a great day")
	assert.ErrorIs(t, err, dispatcher.ErrEnqueueFailure)
	require.NotEqual(t, uuid.Nil, taskId)

	// No orphan PENDING record: the task exists and is already FAILED.
	task, getErr := database.GetTask(context.Background(), db, taskId)
	require.NoError(t, getErr)
	assert.Equal(t, database.TaskFailed, task.Status())
	assert.False(t, task.IsSuccess)
	assert.True(t, task.Withdrawal.IsZero())
}

func TestAdvisoryCheckDoesNotReserveFunds(t *testing.T) {
	queue := messaging.NewInMemoryQueue()
	db, disp, account := setup(t, 150, queue)

	// Both submissions pass the affordability check against the same balance;
	// nothing is reserved at submission time.
	first, err := disp.Submit(context.Background(), account.Id, "", "what a great day")
	require.NoError(t, err)
	second, err := disp.Submit(context.Background(), account.Id, "", "what a terrible day")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.EqualValues(t, 2, taskCount(t, db))

	stored, err := database.GetAccount(context.Background(), db, account.Id)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(150)))
}

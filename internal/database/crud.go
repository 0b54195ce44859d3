package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound     = errors.New("prediction task not found")
	ErrAlreadyFinalized = errors.New("prediction task already finalized")
)

func GetTask(ctx context.Context, db *gorm.DB, taskId uuid.UUID) (PredictionTask, error) {
	var task PredictionTask
	err := db.WithContext(ctx).
		Preload("Account").
		Preload("Model").
		First(&task, "id = ?", taskId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return task, ErrTaskNotFound
	}
	if err != nil {
		return task, fmt.Errorf("error getting prediction task %s: %w", taskId, err)
	}
	return task, nil
}

func GetTasksForAccount(ctx context.Context, db *gorm.DB, accountId uuid.UUID) ([]PredictionTask, error) {
	var tasks []PredictionTask
	err := db.WithContext(ctx).
		Preload("Account").
		Preload("Model").
		Where("account_id = ?", accountId).
		Order("request_timestamp DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("error listing prediction tasks for account %s: %w", accountId, err)
	}
	return tasks, nil
}

func GetAllTasks(ctx context.Context, db *gorm.DB) ([]PredictionTask, error) {
	var tasks []PredictionTask
	err := db.WithContext(ctx).
		Preload("Account").
		Preload("Model").
		Order("request_timestamp DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("error listing prediction tasks: %w", err)
	}
	return tasks, nil
}

// FinalizeTask performs the single PENDING -> terminal transition. The update
// is guarded on result_timestamp still being null so that a redelivered task
// can never overwrite a committed outcome.
func FinalizeTask(ctx context.Context, db *gorm.DB, taskId uuid.UUID, result string, success bool, withdrawal decimal.Decimal) error {
	res := db.WithContext(ctx).
		Model(&PredictionTask{}).
		Where("id = ? AND result_timestamp IS NULL", taskId).
		Updates(map[string]any{
			"result":           sql.NullString{String: result, Valid: true},
			"is_success":       success,
			"withdrawal":       withdrawal,
			"result_timestamp": sql.NullTime{Time: time.Now().UTC(), Valid: true},
		})
	if res.Error != nil {
		return fmt.Errorf("error finalizing prediction task %s: %w", taskId, res.Error)
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := db.WithContext(ctx).Model(&PredictionTask{}).Where("id = ?", taskId).Count(&count).Error; err != nil {
			return fmt.Errorf("error checking prediction task %s: %w", taskId, err)
		}
		if count == 0 {
			return ErrTaskNotFound
		}
		return ErrAlreadyFinalized
	}
	return nil
}

func GetAccount(ctx context.Context, db *gorm.DB, accountId uuid.UUID) (Account, error) {
	var account Account
	err := db.WithContext(ctx).First(&account, "id = ?", accountId).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return account, fmt.Errorf("error getting account %s: %w", accountId, err)
	}
	return account, err
}

func GetAllAccounts(ctx context.Context, db *gorm.DB) ([]Account, error) {
	var accounts []Account
	if err := db.WithContext(ctx).Order("creation_time").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	return accounts, nil
}

func GetAccountByEmail(ctx context.Context, db *gorm.DB, email string) (Account, error) {
	var account Account
	err := db.WithContext(ctx).First(&account, "email = ?", email).Error
	if err != nil {
		return account, err
	}
	return account, nil
}

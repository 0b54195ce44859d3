package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Schema snapshot at migration 0. These structs are frozen copies so that
// later changes to the live schema types do not rewrite history.

type Account struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	Name           string
	Surname        string
	HashedPassword string          `gorm:"not null"`
	Balance        decimal.Decimal `gorm:"type:numeric;not null"`
	Role           string          `gorm:"size:20;not null;default:USER"`
	Disabled       bool            `gorm:"default:false"`
	CreationTime   time.Time
}

type BalanceChange struct {
	Id            int64     `gorm:"primaryKey;autoIncrement"`
	AccountId     uuid.UUID `gorm:"type:uuid;index;not null"`
	Account       *Account  `gorm:"foreignKey:AccountId"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null"`
	Timestamp     time.Time       `gorm:"index"`
}

type Model struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"uniqueIndex;not null"`
	Kind           string    `gorm:"size:20;not null"`
	PredictionCost decimal.Decimal `gorm:"type:numeric;not null"`
	Artifact       string
	CreationTime   time.Time
}

type PredictionTask struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountId        uuid.UUID `gorm:"type:uuid;index;not null"`
	Account          *Account  `gorm:"foreignKey:AccountId"`
	ModelId          uuid.UUID `gorm:"type:uuid;index;not null"`
	Model            *Model    `gorm:"foreignKey:ModelId"`
	InferenceInput   string    `gorm:"not null"`
	BalanceBefore    decimal.Decimal `gorm:"type:numeric;not null"`
	RequestTimestamp time.Time       `gorm:"index"`
	Result           sql.NullString
	IsSuccess        bool
	Withdrawal       decimal.Decimal `gorm:"type:numeric;not null"`
	ResultTimestamp  sql.NullTime
}

func Migration(txn *gorm.DB) error {
	return txn.AutoMigrate(&Account{}, &BalanceChange{}, &Model{}, &PredictionTask{})
}

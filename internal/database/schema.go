package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleUser  string = "USER"
	RoleAdmin string = "ADMIN"
)

type Account struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email          string `gorm:"uniqueIndex;not null"`
	Name           string
	Surname        string
	HashedPassword string `gorm:"not null"`

	Balance  decimal.Decimal `gorm:"type:numeric;not null"`
	Role     string          `gorm:"size:20;not null;default:USER"`
	Disabled bool            `gorm:"default:false"`

	CreationTime time.Time
}

// BalanceChange rows are append-only: one row per committed credit or debit,
// never updated or deleted afterwards. The auto-increment id doubles as the
// insertion-order tiebreaker when two changes share a timestamp.
type BalanceChange struct {
	Id        int64     `gorm:"primaryKey;autoIncrement"`
	AccountId uuid.UUID `gorm:"type:uuid;index;not null"`
	Account   *Account  `gorm:"foreignKey:AccountId"`

	BalanceBefore decimal.Decimal `gorm:"type:numeric;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null"`
	Timestamp     time.Time       `gorm:"index"`
}

const (
	ModelKindLexicon string = "lexicon"
	ModelKindRemote  string = "remote"
)

type Model struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name string `gorm:"uniqueIndex;not null"`
	Kind string `gorm:"size:20;not null"`

	PredictionCost decimal.Decimal `gorm:"type:numeric;not null"`

	// Artifact locates whatever the predictor for this model needs: a lexicon
	// name for in-process models, an endpoint URL for remote ones.
	Artifact string

	CreationTime time.Time
}

const (
	TaskPending   string = "PENDING"
	TaskSucceeded string = "SUCCEEDED"
	TaskFailed    string = "FAILED"
)

// PredictionTask is insert-then-single-update: the request phase fields are
// written once at submission, the result phase fields exactly once at
// finalization. ResultTimestamp doubles as the terminal-state discriminator.
type PredictionTask struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	AccountId uuid.UUID `gorm:"type:uuid;index;not null"`
	Account   *Account  `gorm:"foreignKey:AccountId"`
	ModelId   uuid.UUID `gorm:"type:uuid;index;not null"`
	Model     *Model    `gorm:"foreignKey:ModelId"`

	InferenceInput   string          `gorm:"not null"`
	BalanceBefore    decimal.Decimal `gorm:"type:numeric;not null"`
	RequestTimestamp time.Time       `gorm:"index"`

	Result          sql.NullString
	IsSuccess       bool
	Withdrawal      decimal.Decimal `gorm:"type:numeric;not null"`
	ResultTimestamp sql.NullTime
}

func (t *PredictionTask) Terminal() bool {
	return t.ResultTimestamp.Valid
}

func (t *PredictionTask) Status() string {
	switch {
	case !t.Terminal():
		return TaskPending
	case t.IsSuccess:
		return TaskSucceeded
	default:
		return TaskFailed
	}
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Stillgh/sentiment-analysis/internal/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountDisabled   = errors.New("account is disabled")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Ledger owns account balances and their append-only change history. Both
// mutating operations run as one transaction over the balance + history pair,
// with the account row locked so concurrent debits serialize per account.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Credit(ctx context.Context, accountId uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return l.apply(ctx, accountId, amount)
}

func (l *Ledger) Withdraw(ctx context.Context, accountId uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return l.apply(ctx, accountId, amount.Neg())
}

func (l *Ledger) apply(ctx context.Context, accountId uuid.UUID, delta decimal.Decimal) error {
	return l.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var account database.Account
		if err := lockForUpdate(txn).First(&account, "id = ?", accountId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("error loading account %s: %w", accountId, err)
		}

		if account.Disabled {
			return ErrAccountDisabled
		}

		newBalance := account.Balance.Add(delta)
		if newBalance.IsNegative() {
			return ErrInsufficientFunds
		}

		change := database.BalanceChange{
			AccountId:     accountId,
			BalanceBefore: account.Balance,
			Amount:        delta,
			Timestamp:     time.Now().UTC(),
		}

		if err := txn.Model(&database.Account{}).Where("id = ?", accountId).Update("balance", newBalance).Error; err != nil {
			return fmt.Errorf("error updating balance for account %s: %w", accountId, err)
		}
		if err := txn.Create(&change).Error; err != nil {
			return fmt.Errorf("error appending balance change for account %s: %w", accountId, err)
		}

		slog.Info("applied balance change", "account_id", accountId, "amount", delta, "balance", newBalance)
		return nil
	})
}

// History returns all balance changes for the account, newest first. Entries
// sharing a timestamp fall back to insertion order via the auto-increment id.
func (l *Ledger) History(ctx context.Context, accountId uuid.UUID) ([]database.BalanceChange, error) {
	var changes []database.BalanceChange
	err := l.db.WithContext(ctx).
		Where("account_id = ?", accountId).
		Order("timestamp DESC, id DESC").
		Find(&changes).Error
	if err != nil {
		return nil, fmt.Errorf("error listing balance history for account %s: %w", accountId, err)
	}
	return changes, nil
}

// lockForUpdate takes a row lock on postgres. Sqlite has a single writer and
// does not accept FOR UPDATE syntax, so the transaction alone suffices there.
func lockForUpdate(txn *gorm.DB) *gorm.DB {
	if txn.Dialector.Name() == "postgres" {
		return txn.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return txn
}

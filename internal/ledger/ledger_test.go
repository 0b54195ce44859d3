package ledger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/internal/ledger"

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

func TestCreditAndWithdraw(t *testing.T) {
	account := createAccount(100)
	db := createDB(t, account)
	ldg := ledger.NewLedger(db)
	ctx := context.Background()

	require.NoError(t, ldg.Credit(ctx, account.Id, decimal.NewFromInt(50)))
	require.NoError(t, ldg.Withdraw(ctx, account.Id, decimal.NewFromInt(30)))

	stored, err := database.GetAccount(ctx, db, account.Id)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(120)), "balance is %s", stored.Balance)

	history, err := ldg.History(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestBalanceMatchesHistorySum(t *testing.T) {
	initial := decimal.NewFromInt(1000)
	account := createAccount(1000)
	db := createDB(t, account)
	ldg := ledger.NewLedger(db)
	ctx := context.Background()

	amounts := []int64{100, 250, 70, 400, 5}
	require.NoError(t, ldg.Credit(ctx, account.Id, decimal.NewFromInt(amounts[0])))
	require.NoError(t, ldg.Withdraw(ctx, account.Id, decimal.NewFromInt(amounts[1])))
	require.NoError(t, ldg.Credit(ctx, account.Id, decimal.NewFromInt(amounts[2])))
	require.NoError(t, ldg.Withdraw(ctx, account.Id, decimal.NewFromInt(amounts[3])))
	require.NoError(t, ldg.Withdraw(ctx, account.Id, decimal.NewFromInt(amounts[4])))

	history, err := ldg.History(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, history, len(amounts))

	sum := decimal.Zero
	for _, change := range history {
		sum = sum.Add(change.Amount)
	}

	stored, err := database.GetAccount(ctx, db, account.Id)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(initial.Add(sum)), "balance %s != initial %s + sum %s", stored.Balance, initial, sum)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	account := createAccount(50)
	db := createDB(t, account)
	ldg := ledger.NewLedger(db)
	ctx := context.Background()

	err := ldg.Withdraw(ctx, account.Id, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Neither the balance nor the history may change on a failed debit.
	stored, err := database.GetAccount(ctx, db, account.Id)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(50)))

	history, err := ldg.History(ctx, account.Id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestInvalidAmounts(t *testing.T) {
	account := createAccount(100)
	db := createDB(t, account)
	ldg := ledger.NewLedger(db)
	ctx := context.Background()

	assert.ErrorIs(t, ldg.Credit(ctx, account.Id, decimal.Zero), ledger.ErrInvalidAmount)
	assert.ErrorIs(t, ldg.Credit(ctx, account.Id, decimal.NewFromInt(-10)), ledger.ErrInvalidAmount)
	assert.ErrorIs(t, ldg.Withdraw(ctx, account.Id, decimal.Zero), ledger.ErrInvalidAmount)
	assert.ErrorIs(t, ldg.Withdraw(ctx, account.Id, decimal.NewFromInt(-10)), ledger.ErrInvalidAmount)
}

func TestUnknownAccount(t *testing.T) {
	db := createDB(t)
	ldg := ledger.NewLedger(db)
	ctx := context.Background()

	assert.ErrorIs(t, ldg.Credit(ctx, uuid.New(), decimal.NewFromInt(10)), ledger.ErrAccountNotFound)
	assert.ErrorIs(t, ldg.Withdraw(ctx, uuid.New(), decimal.NewFromInt(10)), ledger.ErrAccountNotFound)
}

func TestDisabledAccount(t *testing.T) {
	account := createAccount(100)
	account.Disabled = true
	db := createDB(t, account)
	ldg := ledger.NewLedger(db)

	assert.ErrorIs(t, ldg.Withdraw(context.Background(), account.Id, decimal.NewFromInt(10)), ledger.ErrAccountDisabled)
}

func TestHistoryTiesBreakByInsertionOrder(t *testing.T) {
	account := createAccount(100)
	db := createDB(t, account)
	ldg := ledger.NewLedger(db)
	ctx := context.Background()

	// Three changes sharing one timestamp: ordering must fall back to the
	// order they were appended in, newest first.
	when := time.Now().UTC().Truncate(time.Second)
	for _, amount := range []int64{10, 20, 30} {
		change := database.BalanceChange{
			AccountId:     account.Id,
			BalanceBefore: decimal.NewFromInt(100),
			Amount:        decimal.NewFromInt(amount),
			Timestamp:     when,
		}
		require.NoError(t, db.Create(&change).Error)
	}

	history, err := ldg.History(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.True(t, history[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, history[1].Amount.Equal(decimal.NewFromInt(20)))
	assert.True(t, history[2].Amount.Equal(decimal.NewFromInt(10)))
	assert.Greater(t, history[0].Id, history[1].Id)
	assert.Greater(t, history[1].Id, history[2].Id)
}

func TestSequentialDebitsSeeEachOthersEffect(t *testing.T) {
	account := createAccount(100)
	db := createDB(t, account)
	ldg := ledger.NewLedger(db)
	ctx := context.Background()

	// Two debits that are individually affordable but not jointly: the second
	// must observe the first's effect and fail instead of losing an update.
	require.NoError(t, ldg.Withdraw(ctx, account.Id, decimal.NewFromInt(70)))
	assert.ErrorIs(t, ldg.Withdraw(ctx, account.Id, decimal.NewFromInt(70)), ledger.ErrInsufficientFunds)

	stored, err := database.GetAccount(ctx, db, account.Id)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(decimal.NewFromInt(30)))

	history, err := ldg.History(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Amount.Equal(decimal.NewFromInt(-70)))
	assert.True(t, history[0].BalanceBefore.Equal(decimal.NewFromInt(100)))
}

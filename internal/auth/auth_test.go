package auth_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Stillgh/sentiment-analysis/internal/auth"
	"github.com/Stillgh/sentiment-analysis/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	return db
}

func TestSignupAndLogin(t *testing.T) {
	db := createDB(t)
	service := auth.NewService(db, "test-secret", time.Hour)

	account, err := service.Signup(context.Background(), "jane@example.com", "hunter22", "Jane", "Doe")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", account.Email)
	assert.Equal(t, database.RoleUser, account.Role)
	assert.True(t, account.Balance.IsZero())
	assert.NotEqual(t, "hunter22", account.HashedPassword)

	token, err := service.Login(context.Background(), "jane@example.com", "hunter22")
	require.NoError(t, err)

	accountId, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.Id, accountId)
}

func TestSignupDuplicateEmail(t *testing.T) {
	db := createDB(t)
	service := auth.NewService(db, "test-secret", time.Hour)

	_, err := service.Signup(context.Background(), "jane@example.com", "hunter22", "Jane", "Doe")
	require.NoError(t, err)

	_, err = service.Signup(context.Background(), "jane@example.com", "other", "Janet", "Doe")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	db := createDB(t)
	service := auth.NewService(db, "test-secret", time.Hour)

	_, err := service.Signup(context.Background(), "jane@example.com", "hunter22", "Jane", "Doe")
	require.NoError(t, err)

	_, err = service.Login(context.Background(), "jane@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = service.Login(context.Background(), "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	service := auth.NewService(createDB(t), "test-secret", time.Hour)

	_, err := service.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	db := createDB(t)
	issuer := auth.NewService(db, "secret-a", time.Hour)
	verifier := auth.NewService(db, "secret-b", time.Hour)

	_, err := issuer.Signup(context.Background(), "jane@example.com", "hunter22", "Jane", "Doe")
	require.NoError(t, err)

	token, err := issuer.Login(context.Background(), "jane@example.com", "hunter22")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	db := createDB(t)
	service := auth.NewService(db, "test-secret", -time.Minute)

	_, err := service.Signup(context.Background(), "jane@example.com", "hunter22", "Jane", "Doe")
	require.NoError(t, err)

	token, err := service.Login(context.Background(), "jane@example.com", "hunter22")
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

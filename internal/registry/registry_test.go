package registry_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Stillgh/sentiment-analysis/internal/database"
	"github.com/Stillgh/sentiment-analysis/internal/registry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

func TestBootstrapAndDefault(t *testing.T) {
	db := createDB(t)
	reg := registry.NewRegistry(db)
	ctx := context.Background()

	_, err := reg.Default(ctx)
	assert.ErrorIs(t, err, registry.ErrModelNotFound)

	require.NoError(t, reg.Bootstrap(ctx))

	model, err := reg.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, registry.DefaultModelName, model.Name)
	assert.Equal(t, database.ModelKindLexicon, model.Kind)
	assert.True(t, model.PredictionCost.Equal(decimal.NewFromInt(100)))

	// Bootstrap must be idempotent.
	require.NoError(t, reg.Bootstrap(ctx))

	models, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, models, 2)
}

func TestRegisterIdempotentByName(t *testing.T) {
	db := createDB(t)
	reg := registry.NewRegistry(db)
	ctx := context.Background()

	first, err := reg.Register(ctx, database.Model{
		Name:           "custom",
		Kind:           database.ModelKindLexicon,
		PredictionCost: decimal.NewFromInt(42),
	})
	require.NoError(t, err)

	second, err := reg.Register(ctx, database.Model{
		Name:           "custom",
		Kind:           database.ModelKindRemote,
		PredictionCost: decimal.NewFromInt(9000),
	})
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, database.ModelKindLexicon, second.Kind)
	assert.True(t, second.PredictionCost.Equal(decimal.NewFromInt(42)))
}

func TestByNameAndById(t *testing.T) {
	db := createDB(t)
	reg := registry.NewRegistry(db)
	ctx := context.Background()

	stored, err := reg.Register(ctx, database.Model{
		Name:           "custom",
		Kind:           database.ModelKindLexicon,
		PredictionCost: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	byName, err := reg.ByName(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, stored.Id, byName.Id)

	byId, err := reg.ById(ctx, stored.Id)
	require.NoError(t, err)
	assert.Equal(t, "custom", byId.Name)

	_, err = reg.ByName(ctx, "missing")
	assert.ErrorIs(t, err, registry.ErrModelNotFound)

	_, err = reg.ById(ctx, uuid.New())
	assert.ErrorIs(t, err, registry.ErrModelNotFound)
}

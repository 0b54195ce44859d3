package registry

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
)

var ErrModelNotFound = errors.New("model not found")

// DefaultModelName is the well-known model created at bootstrap and used when
// a submission does not name a model.
const DefaultModelName = "LogisticRegression"

type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) ByName(ctx context.Context, name string) (database.Model, error) {
	var model database.Model
	err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model, ErrModelNotFound
	}
	if err != nil {
		return model, fmt.Errorf("error getting model %q: %w", name, err)
	}
	return model, nil
}

func (r *Registry) ById(ctx context.Context, id uuid.UUID) (database.Model, error) {
	var model database.Model
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model, ErrModelNotFound
	}
	if err != nil {
		return model, fmt.Errorf("error getting model %s: %w", id, err)
	}
	return model, nil
}

// Default returns the bootstrap model. ErrModelNotFound here means bootstrap
// never ran, which callers treat as a fatal configuration error.
func (r *Registry) Default(ctx context.Context) (database.Model, error) {
	return r.ByName(ctx, DefaultModelName)
}

// Register is idempotent by name: if a model with the same name already
// exists the stored row is returned unchanged.
func (r *Registry) Register(ctx context.Context, model database.Model) (database.Model, error) {
	if model.Id == uuid.Nil {
		model.Id = uuid.New()
	}
	if model.CreationTime.IsZero() {
		model.CreationTime = time.Now().UTC()
	}

	var stored database.Model
	err := r.db.WithContext(ctx).
		Where(database.Model{Name: model.Name}).
		Attrs(model).
		FirstOrCreate(&stored).Error
	if err != nil {
		return stored, fmt.Errorf("error registering model %q: %w", model.Name, err)
	}
	return stored, nil
}

func (r *Registry) List(ctx context.Context) ([]database.Model, error) {
	var models []database.Model
	if err := r.db.WithContext(ctx).Order("creation_time").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("error listing models: %w", err)
	}
	return models, nil
}

// Bootstrap registers the well-known models. Safe to run on every startup.
func (r *Registry) Bootstrap(ctx context.Context) error {
	seed := []database.Model{
		{
			Name:           DefaultModelName,
			Kind:           database.ModelKindLexicon,
			PredictionCost: decimal.NewFromInt(100),
			Artifact:       "sentiment",
		},
		{
			Name:           "GradientBoostingClassifier",
			Kind:           database.ModelKindLexicon,
			PredictionCost: decimal.NewFromInt(500),
			Artifact:       "sentiment",
		},
	}

	for _, model := range seed {
		stored, err := r.Register(ctx, model)
		if err != nil {
			return err
		}
		slog.Info("registered model", "model_id", stored.Id, "name", stored.Name, "cost", stored.PredictionCost)
	}
	return nil
}

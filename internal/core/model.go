package core

import (
	"context"
	"fmt"

	"github.com/Stillgh/sentiment-analysis/internal/database"
)

// Predictor is the inference capability behind a registered model: given
// opaque input text it returns a label or fails.
type Predictor interface {
	Predict(ctx context.Context, input string) (string, error)
}

type ModelKind string

const (
	KindLexicon = ModelKind(database.ModelKindLexicon)
	KindRemote  = ModelKind(database.ModelKindRemote)
)

func ToModelKind(kind string) (ModelKind, error) {
	switch ModelKind(kind) {
	case KindLexicon, KindRemote:
		return ModelKind(kind), nil
	default:
		return "", fmt.Errorf("unknown model kind %q", kind)
	}
}

// PredictorLoader resolves a registered model into a runnable predictor.
// New model kinds are added by extending this table, not by subtyping.
type PredictorLoader func(model database.Model) (Predictor, error)

func NewPredictorLoaders() map[ModelKind]PredictorLoader {
	return map[ModelKind]PredictorLoader{
		KindLexicon: func(model database.Model) (Predictor, error) {
			return NewLexiconClassifier(), nil
		},
		KindRemote: func(model database.Model) (Predictor, error) {
			if model.Artifact == "" {
				return nil, fmt.Errorf("remote model %q has no endpoint configured", model.Name)
			}
			return NewRemotePredictor(model.Artifact), nil
		},
	}
}

// LoadPredictor resolves the model's kind through the loader table.
func LoadPredictor(loaders map[ModelKind]PredictorLoader, model database.Model) (Predictor, error) {
	kind, err := ToModelKind(model.Kind)
	if err != nil {
		return nil, err
	}
	loader, ok := loaders[kind]
	if !ok {
		return nil, fmt.Errorf("no predictor loader for model kind %q", kind)
	}
	return loader(model)
}

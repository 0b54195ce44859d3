package core_test

import (
	"context"
	"testing"

	"github.com/Stillgh/sentiment-analysis/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexiconClassifier(t *testing.T) {
	classifier := core.NewLexiconClassifier()

	tests := []struct {
		input string
		label string
	}{
		{"this movie was great, loved it", core.LabelPositive},
		{"GREAT and Amazing!", core.LabelPositive},
		{"absolutely terrible, the worst", core.LabelNegative},
		{"the delivery arrived on tuesday", core.LabelNeutral},
		{"good plot but terrible acting", core.LabelNeutral},
	}

	for _, test := range tests {
		label, err := classifier.Predict(context.Background(), test.input)
		require.NoError(t, err)
		assert.Equal(t, test.label, label, "input: %q", test.input)
	}
}

func TestLexiconClassifierNoWords(t *testing.T) {
	classifier := core.NewLexiconClassifier()

	_, err := classifier.Predict(context.Background(), "!!! ??? ...")
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestLexiconClassifierCancelledContext(t *testing.T) {
	classifier := core.NewLexiconClassifier()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := classifier.Predict(ctx, "this movie was great")
	assert.ErrorIs(t, err, context.Canceled)
}

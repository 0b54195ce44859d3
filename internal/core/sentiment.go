package core

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

var ErrEmptyInput = errors.New("input contains no words")

// LexiconClassifier is the in-process sentiment model: it scores input text
// against fixed positive/negative word lists. Deliberately simple, but it has
// the same contract as any heavier predictor.
type LexiconClassifier struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

var (
	positiveWords = []string{
		"good", "great", "excellent", "amazing", "awesome", "fantastic",
		"wonderful", "love", "loved", "like", "liked", "best", "happy",
		"nice", "perfect", "brilliant", "enjoyable", "enjoyed", "superb",
		"positive", "recommend", "impressive", "delightful",
	}
	negativeWords = []string{
		"bad", "terrible", "awful", "horrible", "worst", "hate", "hated",
		"dislike", "disliked", "poor", "boring", "sad", "disappointing",
		"disappointed", "negative", "broken", "useless", "mediocre",
		"annoying", "dreadful", "unusable",
	}
)

func NewLexiconClassifier() *LexiconClassifier {
	c := &LexiconClassifier{
		positive: make(map[string]struct{}, len(positiveWords)),
		negative: make(map[string]struct{}, len(negativeWords)),
	}
	for _, w := range positiveWords {
		c.positive[w] = struct{}{}
	}
	for _, w := range negativeWords {
		c.negative[w] = struct{}{}
	}
	return c
}

func (c *LexiconClassifier) Predict(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	words := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		return "", ErrEmptyInput
	}

	score := 0
	for _, w := range words {
		if _, ok := c.positive[w]; ok {
			score++
		}
		if _, ok := c.negative[w]; ok {
			score--
		}
	}

	switch {
	case score > 0:
		return LabelPositive, nil
	case score < 0:
		return LabelNegative, nil
	default:
		return LabelNeutral, nil
	}
}

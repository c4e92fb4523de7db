// Package classify wraps language detection, sentiment analysis and spam
// scoring behind one Classifier. Backends may fail; the adapters never do,
// they fall back to fixed values instead.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/feedbackhub/internal/logging"
)

const (
	// UnknownLanguage is reported when no language could be detected.
	UnknownLanguage = "unknown"

	// NeutralSentiment is reported when sentiment analysis fails.
	NeutralSentiment = "Neutral"

	// MaxSentimentRunes is how much text the sentiment model sees.
	MaxSentimentRunes = 512

	// SpamThreshold is the lowest score treated as spam.
	SpamThreshold = 0.5
)

// Sentiment labels produced by the bundled models.
const (
	VeryNegative = "Very Negative"
	Negative     = "Negative"
	Neutral      = NeutralSentiment
	Positive     = "Positive"
	VeryPositive = "Very Positive"
)

// Labels lists sentiment labels from most negative to most positive.
var Labels = []string{VeryNegative, Negative, Neutral, Positive, VeryPositive}

// Classifier is what the intake flow depends on. Implementations must not
// fail: every method returns a usable value for any input.
type Classifier interface {
	DetectLanguage(ctx context.Context, text string) string
	AnalyzeSentiment(ctx context.Context, text string) string
	DetectSpam(ctx context.Context, text string) (spam bool, score float64)
}

type LanguageDetector interface {
	Detect(ctx context.Context, text string) (string, error)
}

type SentimentModel interface {
	Sentiment(ctx context.Context, text string) (string, error)
}

// SpamModel returns a spam probability in [0, 1].
type SpamModel interface {
	SpamScore(ctx context.Context, text string) (float64, error)
}

var errPanicked = errors.New("classifier panicked")

// Adapters turns three fallible backends into a Classifier.
type Adapters struct {
	lang      LanguageDetector
	sentiment SentimentModel
	spam      SpamModel
	logger    logging.Logger
}

var _ Classifier = (*Adapters)(nil)

func NewAdapters(lang LanguageDetector, sentiment SentimentModel, spam SpamModel, logger logging.Logger) *Adapters {
	return &Adapters{
		lang:      lang,
		sentiment: sentiment,
		spam:      spam,
		logger:    logger.With("module", "classify"),
	}
}

func (a *Adapters) DetectLanguage(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return UnknownLanguage
	}

	lang, err := guard(func() (string, error) { return a.lang.Detect(ctx, text) })
	if err != nil {
		a.logger.Warn(ctx, "language detection failed", "error", err)
		return UnknownLanguage
	}
	if lang = strings.TrimSpace(lang); lang == "" {
		return UnknownLanguage
	}
	return lang
}

func (a *Adapters) AnalyzeSentiment(ctx context.Context, text string) string {
	label, err := guard(func() (string, error) { return a.sentiment.Sentiment(ctx, Truncate(text, MaxSentimentRunes)) })
	if err != nil {
		a.logger.Warn(ctx, "sentiment analysis failed", "error", err)
		return NeutralSentiment
	}
	if label = strings.TrimSpace(label); label == "" {
		return NeutralSentiment
	}
	return label
}

// DetectSpam treats blank text as certain spam without asking the model.
// A failing model yields ham with score 0.
func (a *Adapters) DetectSpam(ctx context.Context, text string) (bool, float64) {
	if strings.TrimSpace(text) == "" {
		return true, 1.0
	}

	score, err := guard(func() (float64, error) { return a.spam.SpamScore(ctx, text) })
	if err != nil {
		a.logger.Warn(ctx, "spam detection failed", "error", err)
		return false, 0
	}

	score = clamp01(score)
	return score >= SpamThreshold, score
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func clamp01(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// guard converts a backend panic into an error.
func guard[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", errPanicked, p)
		}
	}()
	return fn()
}

// NewDefault wires the in-process backends: whatlanggo language detection,
// the lexicon sentiment model and the heuristic spam model.
func NewDefault(logger logging.Logger, spamKeywords ...string) *Adapters {
	return NewAdapters(NewWhatlangDetector(), NewLexiconSentiment(), NewHeuristicSpam(spamKeywords...), logger)
}

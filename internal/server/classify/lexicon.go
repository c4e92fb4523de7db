package classify

import (
	"context"
	"strings"
	"unicode"
)

// LexiconSentiment scores text with a weighted word list. Negators flip the
// next scored word; intensifiers amplify it.
type LexiconSentiment struct {
	words        map[string]float64
	negators     map[string]struct{}
	intensifiers map[string]float64
}

func NewLexiconSentiment() *LexiconSentiment {
	return &LexiconSentiment{
		words:        defaultLexicon,
		negators:     defaultNegators,
		intensifiers: defaultIntensifiers,
	}
}

func (l *LexiconSentiment) Sentiment(_ context.Context, text string) (string, error) {
	var (
		score   float64
		negate  bool
		boost   = 1.0
		pending int
	)

	for _, tok := range tokenize(text) {
		if _, ok := l.negators[tok]; ok {
			negate = true
			pending = 3
			continue
		}
		if m, ok := l.intensifiers[tok]; ok {
			boost *= m
			continue
		}

		if w, ok := l.words[tok]; ok {
			w *= boost
			if negate {
				w = -w * 0.75
			}
			score += w
			negate, boost, pending = false, 1.0, 0
			continue
		}

		boost = 1.0
		if pending > 0 {
			pending--
			if pending == 0 {
				negate = false
			}
		}
	}

	return labelFor(score), nil
}

func labelFor(score float64) string {
	switch {
	case score <= -2.5:
		return VeryNegative
	case score < -0.25:
		return Negative
	case score >= 2.5:
		return VeryPositive
	case score > 0.25:
		return Positive
	default:
		return Neutral
	}
}

// tokenize lower-cases text and splits it into letter runs, keeping
// apostrophes inside words ("don't").
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

var defaultNegators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "don't": {}, "doesn't": {}, "didn't": {},
	"isn't": {}, "wasn't": {}, "aren't": {}, "weren't": {}, "can't": {}, "won't": {},
	"nothing": {}, "hardly": {}, "без": {}, "не": {}, "ні": {},
}

var defaultIntensifiers = map[string]float64{
	"very": 1.5, "really": 1.4, "extremely": 1.8, "so": 1.3, "super": 1.5,
	"absolutely": 1.7, "totally": 1.5, "incredibly": 1.7, "дуже": 1.5, "очень": 1.5,
}

var defaultLexicon = map[string]float64{
	// positive
	"good": 1, "great": 1.5, "excellent": 2, "amazing": 2, "awesome": 2, "fantastic": 2,
	"love": 1.5, "loved": 1.5, "like": 0.5, "liked": 0.75, "nice": 1, "helpful": 1.25,
	"friendly": 1, "responsive": 1, "fast": 0.75, "quick": 0.75, "clean": 0.75,
	"happy": 1.25, "satisfied": 1.25, "pleased": 1.25, "thanks": 0.75, "thank": 0.75,
	"perfect": 2, "best": 1.5, "wonderful": 2, "recommend": 1.25, "polite": 1,
	"professional": 1, "comfortable": 0.75, "easy": 0.5, "improved": 0.75, "support": 0.25,
	"добре": 1, "чудово": 1.5, "дякую": 0.75, "гарно": 1, "хорошо": 1, "спасибо": 0.75,
	// negative
	"bad": -1, "terrible": -2, "awful": -2, "horrible": -2, "worst": -2, "hate": -1.75,
	"hated": -1.75, "poor": -1, "slow": -0.75, "rude": -1.5, "dirty": -1.25, "broken": -1,
	"disappointed": -1.5, "disappointing": -1.5, "useless": -1.5, "unhelpful": -1.25,
	"angry": -1.5, "problem": -0.75, "problems": -0.75, "issue": -0.5, "issues": -0.5,
	"late": -0.5, "wait": -0.25, "waiting": -0.5, "expensive": -0.5, "unfair": -1.25,
	"noisy": -0.75, "cold": -0.25, "complaint": -0.75, "ignored": -1.25,
	"погано": -1, "жахливо": -2, "плохо": -1, "ужасно": -2,
}

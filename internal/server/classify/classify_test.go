package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/dmitrijs2005/feedbackhub/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type stubLang struct {
	out   string
	err   error
	calls int
}

func (s *stubLang) Detect(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.out, s.err
}

type stubSentiment struct {
	out  string
	err  error
	seen string
	boom bool
}

func (s *stubSentiment) Sentiment(_ context.Context, text string) (string, error) {
	if s.boom {
		panic("model crashed")
	}
	s.seen = text
	return s.out, s.err
}

type stubSpam struct {
	score float64
	err   error
	calls int
}

func (s *stubSpam) SpamScore(_ context.Context, _ string) (float64, error) {
	s.calls++
	return s.score, s.err
}

func newAdapters(l LanguageDetector, se SentimentModel, sp SpamModel) *Adapters {
	return NewAdapters(l, se, sp, logging.Nop())
}

func TestDetectLanguage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		lang *stubLang
		text string
		want string
	}{
		{name: "detected", lang: &stubLang{out: "en"}, text: "hello there", want: "en"},
		{name: "backend error", lang: &stubLang{err: errors.New("unsupported script")}, text: "ᚠᚢᚦ", want: UnknownLanguage},
		{name: "empty answer", lang: &stubLang{out: " "}, text: "hello there", want: UnknownLanguage},
		{name: "blank text skips backend", lang: &stubLang{out: "en"}, text: "   ", want: UnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapters(tt.lang, &stubSentiment{}, &stubSpam{})
			assert.Equal(t, tt.want, a.DetectLanguage(ctx, tt.text))
		})
	}
}

func TestAnalyzeSentiment_TruncatesTo512Runes(t *testing.T) {
	s := &stubSentiment{out: Positive}
	a := newAdapters(&stubLang{}, s, &stubSpam{})

	text := strings.Repeat("ж", 600)
	assert.Equal(t, Positive, a.AnalyzeSentiment(context.Background(), text))
	assert.Equal(t, MaxSentimentRunes, utf8.RuneCountInString(s.seen))
	assert.True(t, utf8.ValidString(s.seen))
}

func TestAnalyzeSentiment_Fallbacks(t *testing.T) {
	ctx := context.Background()

	a := newAdapters(&stubLang{}, &stubSentiment{err: errors.New("oom")}, &stubSpam{})
	assert.Equal(t, NeutralSentiment, a.AnalyzeSentiment(ctx, "whatever"))

	a = newAdapters(&stubLang{}, &stubSentiment{boom: true}, &stubSpam{})
	assert.Equal(t, NeutralSentiment, a.AnalyzeSentiment(ctx, "whatever"))

	a = newAdapters(&stubLang{}, &stubSentiment{out: ""}, &stubSpam{})
	assert.Equal(t, NeutralSentiment, a.AnalyzeSentiment(ctx, "whatever"))
}

func TestDetectSpam(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		model     *stubSpam
		text      string
		wantSpam  bool
		wantScore float64
		wantCalls int
	}{
		{name: "blank is spam without model", model: &stubSpam{score: 0}, text: " \n\t", wantSpam: true, wantScore: 1, wantCalls: 0},
		{name: "below threshold", model: &stubSpam{score: 0.49}, text: "hi there", wantSpam: false, wantScore: 0.49, wantCalls: 1},
		{name: "at threshold", model: &stubSpam{score: 0.5}, text: "hi there", wantSpam: true, wantScore: 0.5, wantCalls: 1},
		{name: "clamped high", model: &stubSpam{score: 3}, text: "hi there", wantSpam: true, wantScore: 1, wantCalls: 1},
		{name: "clamped low", model: &stubSpam{score: -1}, text: "hi there", wantSpam: false, wantScore: 0, wantCalls: 1},
		{name: "model error is ham", model: &stubSpam{err: errors.New("timeout")}, text: "hi there", wantSpam: false, wantScore: 0, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapters(&stubLang{}, &stubSentiment{}, tt.model)
			spam, score := a.DetectSpam(ctx, tt.text)
			assert.Equal(t, tt.wantSpam, spam)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
			assert.Equal(t, tt.wantCalls, tt.model.calls)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "пр", Truncate("привіт", 2))
}

func TestNewDefault_AcmeScenario(t *testing.T) {
	a := NewDefault(logging.Nop())
	ctx := context.Background()
	text := "I loved the support team, very responsive!"

	assert.Equal(t, "en", a.DetectLanguage(ctx, text))
	assert.Contains(t, Labels, a.AnalyzeSentiment(ctx, text))

	spam, score := a.DetectSpam(ctx, text)
	assert.False(t, spam)
	assert.Less(t, score, SpamThreshold)
}

package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexiconSentiment(t *testing.T) {
	l := NewLexiconSentiment()

	tests := []struct {
		text string
		want string
	}{
		{"The lecture was on Tuesday", Neutral},
		{"The staff were helpful", Positive},
		{"Excellent teachers, amazing campus, I love it", VeryPositive},
		{"The wifi is slow", Negative},
		{"Terrible service, rude staff, the worst experience", VeryNegative},
		{"The food was not good", Negative},
		{"not bad at all", Positive},
		{"", Neutral},
	}

	for _, tt := range tests {
		got, err := l.Sentiment(context.Background(), tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%q", tt.text)
	}
}

func TestWhatlangDetector(t *testing.T) {
	d := NewWhatlangDetector()

	got, err := d.Detect(context.Background(), "The support team answered every question quickly and politely")
	require.NoError(t, err)
	assert.Equal(t, "en", got)

	got, err = d.Detect(context.Background(), "Дуже дякую викладачам за терпіння та чудові лекції цього семестру")
	require.NoError(t, err)
	assert.Contains(t, []string{"uk", "ru", "be"}, got)
}

package classify

import (
	"context"
	"errors"

	"github.com/abadojack/whatlanggo"
)

var errUndetected = errors.New("language not detected")

// WhatlangDetector detects the language with trigram statistics and reports
// its ISO 639-1 code, or ISO 639-3 for languages without a two-letter code.
type WhatlangDetector struct{}

func NewWhatlangDetector() *WhatlangDetector {
	return &WhatlangDetector{}
}

func (d *WhatlangDetector) Detect(_ context.Context, text string) (string, error) {
	info := whatlanggo.Detect(text)
	if code := info.Lang.Iso6391(); code != "" {
		return code, nil
	}
	if code := info.Lang.Iso6393(); code != "" {
		return code, nil
	}
	return "", errUndetected
}

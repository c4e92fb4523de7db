package classify

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
)

// Scores assigned by HeuristicSpam to each signal. The highest one wins.
const (
	garbageScore = 1.0
	keywordScore = 0.9
	linksScore   = 0.85
	oneLinkScore = 0.3
)

var urlRe = regexp.MustCompile(`https?://`)

// DefaultSpamKeywords are always active, in addition to any loaded list.
var DefaultSpamKeywords = []string{
	"viagra", "casino", "free money", "click here", "buy now", "earn money fast",
	"work from home", "limited offer", "crypto giveaway", "100% free",
}

// HeuristicSpam is a rule based SpamModel: keyword hits, repeated links and
// text that does not look like prose.
type HeuristicSpam struct {
	keywords []string
}

func NewHeuristicSpam(extra ...string) *HeuristicSpam {
	kw := make([]string, 0, len(DefaultSpamKeywords)+len(extra))
	seen := make(map[string]struct{}, cap(kw))
	for _, k := range append(append([]string{}, DefaultSpamKeywords...), extra...) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kw = append(kw, k)
	}
	return &HeuristicSpam{keywords: kw}
}

func (h *HeuristicSpam) SpamScore(_ context.Context, text string) (float64, error) {
	if IsGarbage(text) {
		return garbageScore, nil
	}

	lower := strings.ToLower(text)
	for _, k := range h.keywords {
		if strings.Contains(lower, k) {
			return keywordScore, nil
		}
	}

	switch n := len(urlRe.FindAllStringIndex(lower, -1)); {
	case n >= 2:
		return linksScore, nil
	case n == 1:
		return oneLinkScore, nil
	}

	return 0, nil
}

// IsGarbage reports text that is too short, has no words, repeats a couple
// of characters or is mostly symbols.
func IsGarbage(text string) bool {
	text = strings.TrimSpace(text)
	runes := []rune(text)

	if len(runes) < 5 {
		return true
	}

	var letters, digits, other int
	distinct := make(map[rune]struct{})
	for _, r := range runes {
		distinct[r] = struct{}{}
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		default:
			other++
		}
	}

	if digits == len(runes) || letters+digits == 0 {
		return true
	}

	words := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(words) < 3 {
		return true
	}

	if len(distinct) < 3 {
		return true
	}

	return float64(other)/float64(len(runes)) > 0.7
}

// LoadKeywords reads one keyword per line. Blank lines and lines starting
// with '#' are skipped.
func LoadKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keywords: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read keywords: %w", err)
	}
	return out, nil
}

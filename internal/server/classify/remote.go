package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteModel calls an external inference service over JSON:
//
//	POST {base}/sentiment  {"text": "..."} -> {"label": "Positive"}
//	POST {base}/spam       {"text": "..."} -> {"score": 0.12}
//
// It implements both SentimentModel and SpamModel.
type RemoteModel struct {
	base   string
	client *http.Client
}

func NewRemoteModel(base string, timeout time.Duration, client *http.Client) *RemoteModel {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &RemoteModel{base: strings.TrimRight(base, "/"), client: client}
}

// maxResponseBytes caps how much of an inference reply is read.
const maxResponseBytes = 1 << 20

type inferenceRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Label string `json:"label"`
}

type spamResponse struct {
	Score *float64 `json:"score"`
}

func (m *RemoteModel) Sentiment(ctx context.Context, text string) (string, error) {
	var out sentimentResponse
	if err := m.post(ctx, "/sentiment", text, &out); err != nil {
		return "", err
	}
	if out.Label == "" {
		return "", fmt.Errorf("sentiment: empty label")
	}
	return out.Label, nil
}

func (m *RemoteModel) SpamScore(ctx context.Context, text string) (float64, error) {
	var out spamResponse
	if err := m.post(ctx, "/spam", text, &out); err != nil {
		return 0, err
	}
	if out.Score == nil {
		return 0, fmt.Errorf("spam: missing score")
	}
	return *out.Score, nil
}

func (m *RemoteModel) post(ctx context.Context, path, text string, out any) error {
	body, err := json.Marshal(inferenceRequest{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.CopyN(io.Discard, resp.Body, maxResponseBytes)
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	return nil
}

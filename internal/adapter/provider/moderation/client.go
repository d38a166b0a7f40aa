// Package moderation calls the external toxicity/spam classifiers. The
// ingest pipeline fails open when the classifiers are unreachable: content
// is stored unmoderated for later review, never blocked.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Verdict is the combined classifier output.
type Verdict struct {
	Toxic bool `json:"toxic"`
	Spam  bool `json:"spam"`
}

// Client is an HTTP classifier client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "moderation"),
	}
}

type classifyRequest struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// Classify submits text to the classifier service.
func (c *Client) Classify(ctx context.Context, text, context_ string) (Verdict, error) {
	body, err := json.Marshal(classifyRequest{Text: text, Context: context_})
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("moderation: unexpected status %d", resp.StatusCode)
	}

	var v Verdict
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return Verdict{}, fmt.Errorf("moderation: decode response: %w", err)
	}

	c.log.DebugContext(ctx, "classified",
		slog.Bool("toxic", v.Toxic),
		slog.Bool("spam", v.Spam),
	)

	return v, nil
}

// Stub is a permissive classifier used when no classifier service is
// configured.
type Stub struct{}

// NewStub creates a Stub.
func NewStub() *Stub { return &Stub{} }

// Classify approves everything.
func (s *Stub) Classify(ctx context.Context, text, context_ string) (Verdict, error) {
	return Verdict{}, nil
}

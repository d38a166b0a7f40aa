// Package mathengine reads clustering output from the statistics engine.
// The engine recomputes conversations out of band and exposes versioned
// snapshots; callers poll with the last version they saw.
package mathengine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openagora/agora/internal/domain"
)

// Client is an HTTP client for the statistics engine.
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
		log:        logger.With("adapter", "mathengine"),
	}
}

type snapshotResponse struct {
	Version    int64              `json:"version"`
	Priorities map[string]float64 `json:"priorities"`
	Groups     map[string]int32   `json:"groups"`
	ComputedAt time.Time          `json:"computedAt"`
}

// FetchSnapshot returns the newest snapshot for the conversation, or nil
// when the engine has nothing newer than sinceVersion.
func (c *Client) FetchSnapshot(ctx context.Context, conversationID uuid.UUID, sinceVersion int64) (*domain.OpinionSnapshot, error) {
	u := fmt.Sprintf("%s/conversations/%s/snapshot?since=%d", c.baseURL, conversationID, sinceVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("mathengine: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mathengine: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("mathengine: unexpected status %d", resp.StatusCode)
	}

	var out snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("mathengine: decode response: %w", err)
	}

	snap := &domain.OpinionSnapshot{
		Version:    out.Version,
		Priorities: make(map[int64]float64, len(out.Priorities)),
		Groups:     make(map[int32]int32, len(out.Groups)),
		ComputedAt: out.ComputedAt,
	}
	for k, v := range out.Priorities {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("mathengine: bad comment id %q: %w", k, err)
		}
		snap.Priorities[id] = v
	}
	for k, v := range out.Groups {
		pid, err := strconv.ParseInt(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("mathengine: bad pid %q: %w", k, err)
		}
		snap.Groups[int32(pid)] = v
	}

	c.log.DebugContext(ctx, "snapshot fetched",
		slog.String("conversation_id", conversationID.String()),
		slog.Int64("version", snap.Version),
	)

	return snap, nil
}

type topicItemsResponse struct {
	ItemIDs []int64 `json:"itemIds"`
}

// ItemsForTopics returns the comment ids the engine has clustered under any
// of the given topic keys.
func (c *Client) ItemsForTopics(ctx context.Context, conversationID uuid.UUID, topicKeys []string) ([]int64, error) {
	if len(topicKeys) == 0 {
		return nil, nil
	}

	u := fmt.Sprintf("%s/conversations/%s/topics/items?keys=%s",
		c.baseURL, conversationID, url.QueryEscape(strings.Join(topicKeys, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("mathengine: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mathengine: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("mathengine: unexpected status %d", resp.StatusCode)
	}

	var out topicItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("mathengine: decode response: %w", err)
	}
	return out.ItemIDs, nil
}

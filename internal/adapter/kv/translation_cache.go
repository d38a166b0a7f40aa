package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TranslationCache stores translated comment texts keyed by (comment, lang).
// Translations are immutable, so a long TTL is safe.
type TranslationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTranslationCache creates a TranslationCache.
func NewTranslationCache(client *redis.Client, ttl time.Duration) *TranslationCache {
	return &TranslationCache{client: client, ttl: ttl}
}

func translationKey(commentID int64, lang string) string {
	return "translation:" + strconv.FormatInt(commentID, 10) + ":" + lang
}

// Get returns the cached translation and whether it was present.
func (c *TranslationCache) Get(ctx context.Context, commentID int64, lang string) (string, bool, error) {
	text, err := c.client.Get(ctx, translationKey(commentID, lang)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get translation: %w", err)
	}
	return text, true, nil
}

// Put stores a translation.
func (c *TranslationCache) Put(ctx context.Context, commentID int64, lang, text string) error {
	if err := c.client.Set(ctx, translationKey(commentID, lang), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("put translation: %w", err)
	}
	return nil
}

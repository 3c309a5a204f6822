package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "recert/pkg/domain"
)

// Cached decorates a Directory with a Redis lookaside cache. Cache failures
// degrade to direct lookups; a broken cache must never block a notification.
type Cached struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with a Redis cache using the given entry TTL.
func NewCached(next Directory, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *Cached) Lookup(ctx context.Context, reviewerID id.ReviewerID) (*Reviewer, error) {
	key := cacheKey(reviewerID)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var r Reviewer
		if err := json.Unmarshal(raw, &r); err == nil {
			return &r, nil
		}
		// Corrupt entry: fall through to the source and overwrite.
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "reviewer cache read failed",
			"reviewer_id", reviewerID.String(),
			"error", err.Error(),
		)
	}

	r, err := c.next.Lookup(ctx, reviewerID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(r); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "reviewer cache write failed",
				"reviewer_id", reviewerID.String(),
				"error", err.Error(),
			)
		}
	}
	return r, nil
}

func cacheKey(reviewerID id.ReviewerID) string {
	return fmt.Sprintf("recert:reviewer:%s", reviewerID.String())
}

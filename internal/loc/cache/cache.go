// Package cache puts a Redis read-through cache in front of the two hot
// verification queries. Both answers can flip when a case closes or
// voids, so entries carry a short TTL instead of invalidation hooks.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	locservice "locregistry/internal/loc/service"
	platformredis "locregistry/internal/platform/redis"
	id "locregistry/pkg/domain"
)

// DefaultTTL bounds the staleness of cached verification answers.
const DefaultTTL = 30 * time.Second

// VerificationCache wraps the loc service; every operation passes
// through untouched except the two verification queries.
type VerificationCache struct {
	*locservice.Service

	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps the service. A nil client returns the service itself so
// callers need no branching when Redis is not configured.
func New(service *locservice.Service, client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *VerificationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &VerificationCache{
		Service: service,
		client:  client,
		ttl:     ttl,
		logger:  logger,
	}
}

// LocValidWithOwner answers the validity query through the cache.
func (c *VerificationCache) LocValidWithOwner(ctx context.Context, locID id.LocID, legalOfficer id.AccountID) (bool, error) {
	key := fmt.Sprintf("locregistry:valid:%s:%s", locID, legalOfficer)
	return c.lookup(ctx, key, func() (bool, error) {
		return c.Service.LocValidWithOwner(ctx, locID, legalOfficer)
	})
}

// HasClosedIdentityLocs answers the identification query through the
// cache. Officer order does not change the answer, so the key sorts
// them.
func (c *VerificationCache) HasClosedIdentityLocs(ctx context.Context, account id.AccountID, legalOfficers []id.AccountID) (bool, error) {
	officers := make([]string, len(legalOfficers))
	for i, officer := range legalOfficers {
		officers[i] = officer.String()
	}
	sort.Strings(officers)
	key := fmt.Sprintf("locregistry:identified:%s:%s", account, strings.Join(officers, ","))
	return c.lookup(ctx, key, func() (bool, error) {
		return c.Service.HasClosedIdentityLocs(ctx, account, legalOfficers)
	})
}

// lookup reads the key, falling through to the query on miss or on any
// Redis failure. Cache errors never fail the request.
func (c *VerificationCache) lookup(ctx context.Context, key string, query func() (bool, error)) (bool, error) {
	if c.client != nil {
		cached, err := c.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			return cached == "1", nil
		case err != redis.Nil:
			c.logger.WarnContext(ctx, "verification cache read failed", "key", key, "error", err)
		}
	}

	answer, err := query()
	if err != nil {
		return false, err
	}

	if c.client != nil {
		value := "0"
		if answer {
			value = "1"
		}
		if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "verification cache write failed", "key", key, "error", err)
		}
	}
	return answer, nil
}

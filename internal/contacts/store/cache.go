package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"contacts/internal/contacts/models"
	"contacts/internal/platform/metrics"
	platformredis "contacts/internal/platform/redis"
)

const (
	contactsKeyPrefix   = "contacts:"
	generationKeyPrefix = "contacts:gen:"
	cacheTTL            = 5 * time.Minute
)

// CachedStore is a read-through cache in front of another Store. Contact
// lists change only on append, so the cached list is dropped after a
// successful write and repopulated on the next read. Every append also bumps
// a per-user generation key, and the miss-path write-back runs under a WATCH
// of that key: a snapshot taken before a concurrent append commits can never
// be written back over that append's invalidation. Cache failures degrade to
// the underlying store, never to a request error.
type CachedStore struct {
	next    Store
	redis   *platformredis.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewCached wraps next with a Redis contact-list cache.
func NewCached(next Store, redis *platformredis.Client, logger *slog.Logger, m *metrics.Metrics) *CachedStore {
	return &CachedStore{next: next, redis: redis, logger: logger, metrics: m}
}

// GetContacts serves the list from cache when possible.
func (s *CachedStore) GetContacts(ctx context.Context, username string) ([]models.Contact, error) {
	key := contactsKeyPrefix + username

	if payload, err := s.redis.Get(ctx, key).Bytes(); err == nil {
		var contacts []models.Contact
		if err := json.Unmarshal(payload, &contacts); err == nil {
			if s.metrics != nil {
				s.metrics.ContactCacheHits.Inc()
			}
			return contacts, nil
		}
		// Unreadable entry; fall through and rebuild it.
	}
	if s.metrics != nil {
		s.metrics.ContactCacheMisses.Inc()
	}

	// The generation key must be watched before the snapshot is taken, so
	// an append that commits after the snapshot aborts the write-back.
	var (
		contacts []models.Contact
		storeErr error
	)
	err := s.redis.Watch(ctx, func(tx *goredis.Tx) error {
		contacts, storeErr = s.next.GetContacts(ctx, username)
		if storeErr != nil {
			return storeErr
		}
		payload, err := json.Marshal(contacts)
		if err != nil {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, payload, cacheTTL)
			return nil
		})
		return err
	}, generationKeyPrefix+username)
	if storeErr != nil {
		return nil, storeErr
	}
	switch {
	case err == nil:
	case errors.Is(err, goredis.TxFailedErr):
		// A concurrent append bumped the generation while we held the
		// snapshot; the snapshot may predate it and must not be cached.
	case contacts == nil:
		// Redis failed before the store was consulted.
		return s.next.GetContacts(ctx, username)
	default:
		s.logger.WarnContext(ctx, "failed to cache contact list",
			"error", err,
			"username", username,
		)
	}
	return contacts, nil
}

// AddContact writes through, bumps the owner's cache generation, and drops
// the cached list.
func (s *CachedStore) AddContact(ctx context.Context, contact models.Contact) error {
	if err := s.next.AddContact(ctx, contact); err != nil {
		return err
	}
	pipe := s.redis.TxPipeline()
	pipe.Incr(ctx, generationKeyPrefix+contact.Username)
	pipe.Del(ctx, contactsKeyPrefix+contact.Username)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate contact list cache",
			"error", err,
			"username", contact.Username,
		)
	}
	return nil
}

package decision

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "sentinelle/internal/platform/redis"
)

// CachedStore decorates a Store with a Redis read cache for lookups. The
// explain endpoint reads far more often than decisions are written, and a
// record only changes through AppendReview, so the cache is refreshed on every
// write path and treated as strictly best-effort: any Redis failure falls
// through to the inner store.
//
// Fills are conditional on the review count, which only grows: a reader that
// loaded a record before a review committed can never overwrite the fresher
// snapshot the review's own fill left behind.
type CachedStore struct {
	inner  Store
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps inner with a Redis read cache. A nil client returns
// inner unchanged so callers don't branch on configuration.
func NewCachedStore(inner Store, client *platformredis.Client, ttl time.Duration, logger *slog.Logger) Store {
	if client == nil {
		return inner
	}
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(decisionID string) string { return "decision:" + decisionID }

func (s *CachedStore) Create(ctx context.Context, record *Record) error {
	if err := s.inner.Create(ctx, record); err != nil {
		return err
	}
	s.fill(ctx, record)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, decisionID string) (*Record, error) {
	raw, err := s.client.Get(ctx, cacheKey(decisionID)).Bytes()
	if err == nil {
		var record Record
		if unmarshalErr := json.Unmarshal(raw, &record); unmarshalErr == nil {
			return &record, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		s.client.Del(ctx, cacheKey(decisionID))
	} else if !errors.Is(err, goredis.Nil) {
		s.warn(ctx, "decision cache read failed", decisionID, err)
	}

	record, err := s.inner.Get(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, record)
	return record, nil
}

func (s *CachedStore) AppendReview(ctx context.Context, decisionID string, fn ReviewFunc) (*Record, ReviewEntry, error) {
	record, entry, err := s.inner.AppendReview(ctx, decisionID, fn)
	if err != nil {
		return nil, ReviewEntry{}, err
	}
	s.fill(ctx, record)
	return record, entry, nil
}

// fill caches record unless the key already holds a snapshot with more
// reviews. The check and the write run under an optimistic WATCH transaction:
// if another fill lands in between, this one is simply abandoned — the record
// that just won is at least as new.
func (s *CachedStore) fill(ctx context.Context, record *Record) {
	raw, err := json.Marshal(record)
	if err != nil {
		return
	}
	key := cacheKey(record.DecisionID)

	err = s.client.Watch(ctx, func(tx *goredis.Tx) error {
		cached, err := tx.Get(ctx, key).Bytes()
		if err == nil {
			var existing Record
			if json.Unmarshal(cached, &existing) == nil && len(existing.Reviews) > len(record.Reviews) {
				return nil
			}
		} else if !errors.Is(err, goredis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		return err
	}, key)
	if err != nil && !errors.Is(err, goredis.TxFailedErr) {
		s.warn(ctx, "decision cache write failed", record.DecisionID, err)
	}
}

func (s *CachedStore) warn(ctx context.Context, msg, decisionID string, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, "decision_id", decisionID, "error", err)
	}
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/booking-service/internal/domain"
)

// DraftSessionStore persists the per-session staging buffer between
// requests. Sessions expire after the configured TTL.
type DraftSessionStore interface {
	Load(ctx context.Context, sessionID string) (*domain.DraftSet, error)
	Save(ctx context.Context, set *domain.DraftSet) error
	Delete(ctx context.Context, sessionID string) error
}

type draftSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftSessionStore returns a Redis-backed implementation.
func NewDraftSessionStore(client *redis.Client, ttl time.Duration) DraftSessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &draftSessionStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return "draft_session:" + sessionID
}

// Load returns a fresh empty set when no buffer exists for the session.
func (s *draftSessionStore) Load(ctx context.Context, sessionID string) (*domain.DraftSet, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewDraftSet(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft session: %w", err)
	}

	var set domain.DraftSet
	if err := json.Unmarshal(payload, &set); err != nil {
		return nil, fmt.Errorf("decode draft session: %w", err)
	}
	return &set, nil
}

func (s *draftSessionStore) Save(ctx context.Context, set *domain.DraftSet) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode draft session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(set.SessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft session: %w", err)
	}
	return nil
}

func (s *draftSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete draft session: %w", err)
	}
	return nil
}

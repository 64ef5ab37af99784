package identity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quickdesk/quickdesk/internal/domain"
)

// PrincipalCache keeps short-lived account snapshots keyed by identity
// subject so hot request paths skip the directory lookup. A nil client
// turns every operation into a no-op, which is the dev-mode default.
type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPrincipalCache builds a cache over the given Redis client.
func NewPrincipalCache(client *redis.Client, ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: ttl}
}

func principalKey(subjectID string) string {
	return "principal:" + subjectID
}

// Get returns the cached account for a subject, or nil on miss. Cache
// failures degrade to a miss rather than failing the request.
func (c *PrincipalCache) Get(ctx context.Context, subjectID string) *domain.Account {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, principalKey(subjectID)).Bytes()
	if err != nil {
		return nil
	}
	var account domain.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil
	}
	return &account
}

// Set stores an account snapshot for its subject.
func (c *PrincipalCache) Set(ctx context.Context, account *domain.Account) {
	if c == nil || c.client == nil || account == nil {
		return
	}
	raw, err := json.Marshal(account)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, principalKey(account.SubjectID), raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot for a subject. Called after any
// account mutation so role or activation changes take effect within one
// request rather than one TTL.
func (c *PrincipalCache) Invalidate(ctx context.Context, subjectID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, principalKey(subjectID)).Err()
}

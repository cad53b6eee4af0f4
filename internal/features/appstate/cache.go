package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/cache"
	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/common/models"

	"github.com/redis/go-redis/v9"
)

// StateCache is the non-authoritative accelerator in front of the
// durable store. A miss (or any cache failure) is never an error the
// caller sees; workflow decisions must not be made from it.
type StateCache interface {
	GetSession(ctx context.Context, sessionID string) (*models.ApplicationState, error)
	GetResume(ctx context.Context, identifier, channel string) (*models.ApplicationState, error)
	Set(ctx context.Context, st *models.ApplicationState) error
	Invalidate(ctx context.Context, st *models.ApplicationState) error
}

type RedisStateCache struct {
	rc *cache.RedisCache
}

func NewStateCache(rc *cache.RedisCache) StateCache {
	return &RedisStateCache{rc: rc}
}

func sessionKey(sessionID string) string {
	return "appstate:session:" + sessionID
}

func resumeKey(identifier, channel string) string {
	return fmt.Sprintf("appstate:resume:%s:%s", identifier, channel)
}

func (c *RedisStateCache) GetSession(ctx context.Context, sessionID string) (*models.ApplicationState, error) {
	return c.get(ctx, sessionKey(sessionID))
}

func (c *RedisStateCache) GetResume(ctx context.Context, identifier, channel string) (*models.ApplicationState, error) {
	return c.get(ctx, resumeKey(identifier, channel))
}

func (c *RedisStateCache) get(ctx context.Context, key string) (*models.ApplicationState, error) {
	data, err := c.rc.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var st models.ApplicationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Set writes both lookup keys. The TTL is deliberately far shorter than
// the persisted session horizon.
func (c *RedisStateCache) Set(ctx context.Context, st *models.ApplicationState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := c.rc.Client.Set(ctx, sessionKey(st.SessionID), data, c.rc.TTL).Err(); err != nil {
		return err
	}
	return c.rc.Client.Set(ctx, resumeKey(st.UserIdentifier, st.Channel), data, c.rc.TTL).Err()
}

func (c *RedisStateCache) Invalidate(ctx context.Context, st *models.ApplicationState) error {
	return c.rc.Client.Del(ctx, sessionKey(st.SessionID), resumeKey(st.UserIdentifier, st.Channel)).Err()
}

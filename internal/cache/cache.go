package cache

import (
	"context"
	"log"
	"time"

	"github.com/BANCOZIM-HOLDINGS-PVT-LTD/zb-bancosystem-sub002/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewCache creates the Redis client used as the non-authoritative
// write-through cache in front of MongoDB.
func NewCache(lc fx.Lifecycle, cfg *config.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Connected to Redis!")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return &RedisCache{
		Client: client,
		TTL:    time.Duration(cfg.CacheTTLMinutes) * time.Minute,
	}, nil
}

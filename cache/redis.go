package cache

import (
	"context"
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
	"text2phenotype.com/sdoh/redis"
	"text2phenotype.com/sdoh/types"
)

const CacheDB redis.DB = 1

type Config struct {
	TTL time.Duration `envconfig:"SDOH_CACHE_TTL" default:"0"`
}

type documents interface {
	GetRaw(ctx context.Context, redisKey string) ([]byte, error)
	SaveRaw(ctx context.Context, redisKey string, b []byte, ttl time.Duration) error
	Delete(ctx context.Context, redisKey string) error
	Close() error
}

// Redis caches snapshots for kiosk deployments where several devices share
// one Redis instance.
type Redis struct {
	client documents
	ttl    time.Duration
}

// OpenRedis connects to the cache database using the MDL_COMN_REDIS_*
// environment. Entries live for SDOH_CACHE_TTL, forever when zero.
func OpenRedis() (*Redis, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	client, err := redis.NewClient(CacheDB)
	if err != nil {
		return nil, err
	}
	return newRedis(&client, cfg), nil
}

func newRedis(client documents, cfg Config) *Redis {
	return &Redis{client: client, ttl: cfg.TTL}
}

func (c *Redis) Save(ctx context.Context, token string, snapshot types.Snapshot) error {
	b, err := encode(snapshot)
	if err != nil {
		return err
	}
	return c.client.SaveRaw(ctx, Key(token), b, c.ttl)
}

func (c *Redis) Load(ctx context.Context, token string) (*types.Snapshot, error) {
	b, err := c.client.GetRaw(ctx, Key(token))
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(token, b, cacheLogger), nil
}

func (c *Redis) Clear(ctx context.Context, token string) error {
	return c.client.Delete(ctx, Key(token))
}

func (c *Redis) Close() error {
	return c.client.Close()
}

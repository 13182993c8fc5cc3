package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	catalogGenKey   = "catalog:gen"
	catalogTreeKey  = "catalog:tree:%d"
	catalogCacheTTL = time.Hour
)

var errCacheMiss = errors.New("catalog cache miss")

// treeCache stores serialized catalog trees per generation. Every catalog
// write bumps the generation, so a load that read the tables before the write
// can only fill a key that readers no longer ask for.
type treeCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64) ([]byte, error)
	Set(ctx context.Context, gen int64, data []byte) error
	Bump(ctx context.Context) error
}

type redisTreeCache struct{ rdb *redis.Client }

func (c redisTreeCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, catalogGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c redisTreeCache) Get(ctx context.Context, gen int64) ([]byte, error) {
	b, err := c.rdb.Get(ctx, fmt.Sprintf(catalogTreeKey, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errCacheMiss
	}
	return b, err
}

func (c redisTreeCache) Set(ctx context.Context, gen int64, data []byte) error {
	return c.rdb.Set(ctx, fmt.Sprintf(catalogTreeKey, gen), data, catalogCacheTTL).Err()
}

func (c redisTreeCache) Bump(ctx context.Context) error {
	return c.rdb.Incr(ctx, catalogGenKey).Err()
}

// localGeneration is used without Redis. Nothing is stored; the counter only
// keeps loads started before a write apart from the ones started after it.
type localGeneration struct{ gen atomic.Int64 }

func (l *localGeneration) Generation(context.Context) (int64, error) { return l.gen.Load(), nil }

func (l *localGeneration) Get(context.Context, int64) ([]byte, error) { return nil, errCacheMiss }

func (l *localGeneration) Set(context.Context, int64, []byte) error { return nil }

func (l *localGeneration) Bump(context.Context) error {
	l.gen.Add(1)
	return nil
}

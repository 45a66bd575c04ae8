package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"gurukulx/internal/domain"
)

// ProfileLoader fetches profile documents from the backing store.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, name string) (domain.Profile, error)
	SaveProfile(ctx context.Context, p domain.Profile) error
}

// ProfileCache caches profile documents in Redis with a TTL and falls back to
// the loader on a miss. Saves write through to both.
type ProfileCache struct {
	client *redis.Client
	loader ProfileLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewProfileCache(client *redis.Client, loader ProfileLoader, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ProfileCache) LoadProfile(ctx context.Context, name string) (domain.Profile, error) {
	key := c.key(name)

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var p domain.Profile
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return p, nil
		}
		// malformed cache entry reads as a miss
	}

	result, err, _ := c.sf.Do(name, func() (interface{}, error) {
		// re-check in case another goroutine filled it
		if raw, err := c.client.Get(ctx, key).Result(); err == nil {
			var p domain.Profile
			if err := json.Unmarshal([]byte(raw), &p); err == nil {
				return p, nil
			}
		}

		p, err := c.loader.LoadProfile(ctx, name)
		if err != nil {
			return domain.Profile{}, err
		}
		c.fill(ctx, p)
		return p, nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return result.(domain.Profile), nil
}

// SaveProfile writes through: backing store first, then cache refresh.
func (c *ProfileCache) SaveProfile(ctx context.Context, p domain.Profile) error {
	if err := c.loader.SaveProfile(ctx, p); err != nil {
		return err
	}
	c.fill(ctx, p)
	return nil
}

func (c *ProfileCache) fill(ctx context.Context, p domain.Profile) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(p.Name), raw, c.ttlWithJitter()).Err()
}

func (c *ProfileCache) key(name string) string {
	return "gurukulx:profile:" + name
}

func (c *ProfileCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

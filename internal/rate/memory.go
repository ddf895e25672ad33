package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryLimiter es el mismo fixed window que RedisLimiter, guardado en el
// proceso. Sirve para una sola réplica y para tests.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	hits *cache.Cache
	now  func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		Max:    int64(max),
		Window: window,
		hits:   cache.New(window, 2*window),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.Window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())
	ttl := winStart.Add(l.Window).Sub(now)

	// Add falla si la clave ya existe: en ese caso se incrementa.
	var hits int64 = 1
	if err := l.hits.Add(k, int64(1), ttl); err != nil {
		n, err := l.hits.IncrementInt64(k, 1)
		if err != nil {
			// La entrada expiró entre Add e Increment.
			l.hits.Set(k, int64(1), ttl)
			n = 1
		}
		hits = n
	}
	return decide(hits, l.Max, ttl, l.Window), nil
}

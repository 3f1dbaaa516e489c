package prefs

import (
	"context"
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
)

// MemoryBackend keeps preferences for the life of the process.
type MemoryBackend struct {
	cache *cache.Cache
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{cache: cache.New(cache.NoExpiration, 0)}
}

func (b *MemoryBackend) Load(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, found := b.cache.Get(k)
		if !found {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("preference %s has unexpected type %T", k, v)
		}
		out[k] = s
	}
	return out, nil
}

func (b *MemoryBackend) Save(ctx context.Context, values map[string]string) error {
	for k, v := range values {
		b.cache.Set(k, v, cache.NoExpiration)
	}
	return nil
}

// Snapshot returns every stored entry whose key starts with prefix.
func (b *MemoryBackend) Snapshot(prefix string) map[string]string {
	out := map[string]string{}
	for k, item := range b.cache.Items() {
		if s, ok := item.Object.(string); ok && strings.HasPrefix(k, prefix) {
			out[k] = s
		}
	}
	return out
}

func (b *MemoryBackend) Close() error {
	b.cache.Flush()
	return nil
}

package cache

import (
	"sync"

	"github.com/patrickmn/go-cache"
)

// DecimalsCache holds the decimals of the one mint a runner works on.
// Setting a different mint drops every previously cached entry.
type DecimalsCache struct {
	mu    sync.Mutex
	mint  string
	local *cache.Cache
}

// NewDecimalsCache 进程内缓存，不过期
func NewDecimalsCache() *DecimalsCache {
	return &DecimalsCache{local: cache.New(cache.NoExpiration, 0)}
}

func (c *DecimalsCache) Get(mint string) (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mint != c.mint {
		return 0, false
	}
	v, found := c.local.Get(mint)
	if !found {
		return 0, false
	}
	d, ok := v.(uint8)
	return d, ok
}

func (c *DecimalsCache) Set(mint string, decimals uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mint != c.mint {
		c.local.Flush()
		c.mint = mint
	}
	c.local.Set(mint, decimals, cache.NoExpiration)
}

// Invalidate 清空缓存
func (c *DecimalsCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local.Flush()
	c.mint = ""
}

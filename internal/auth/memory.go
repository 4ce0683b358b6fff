package auth

import (
	"context"
	"sync"
)

// MemoryCache keeps the token for the life of the process.
type MemoryCache struct {
	mu  sync.RWMutex
	tok Token
	ok  bool
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{} }

func (c *MemoryCache) Load(_ context.Context) (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tok, c.ok
}

func (c *MemoryCache) Save(_ context.Context, tok Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tok, c.ok = tok, true
	return nil
}

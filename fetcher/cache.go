package fetcher

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"

	"lextutor-backend/models"
)

// DefaultCacheSize is the number of articles kept per process.
const DefaultCacheSize = 100

// ArticleCache keeps successfully fetched articles for the lifetime of the
// process (bounded, least recently used evicted first) and collapses
// concurrent fetches of the same key into one.
type ArticleCache struct {
	mu       sync.Mutex
	entries  *lru.Cache
	flights  map[string]*flight
	inflight singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports cache usage counters.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewArticleCache creates a cache holding up to capacity articles.
func NewArticleCache(capacity int) *ArticleCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &ArticleCache{entries: lru.New(capacity), flights: make(map[string]*flight)}
}

// Get returns the cached article for key.
func (c *ArticleCache) Get(key models.ArticleKey) (models.ArticleContent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Get(key)
	if !ok {
		return models.ArticleContent{}, false
	}
	return v.(models.ArticleContent), true
}

// Add stores an article under key.
func (c *ArticleCache) Add(key models.ArticleKey, content models.ArticleContent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, content)
}

// Do returns the cached article for key, or runs fetch once for all concurrent
// callers of the same key. Only successful results are cached.
//
// The shared fetch is detached from any single caller: it runs until it
// completes or every waiting caller has given up. A caller whose ctx ends
// returns a failed article without affecting the others.
func (c *ArticleCache) Do(ctx context.Context, key models.ArticleKey, fetch func(context.Context) models.ArticleContent) models.ArticleContent {
	if content, ok := c.Get(key); ok {
		c.hits.Add(1)
		return content
	}
	c.misses.Add(1)

	name := key.String()
	f := c.join(ctx, name)
	defer c.leave(name, f)

	ch := c.inflight.DoChan(name, func() (interface{}, error) {
		if content, ok := c.Get(key); ok {
			return content, nil
		}
		content := fetch(f.ctx)
		if content.Success {
			c.Add(key, content)
		}
		return content, nil
	})

	select {
	case res := <-ch:
		return res.Val.(models.ArticleContent)
	case <-ctx.Done():
		return models.FailedArticle(key.LawCode, key.ArticleNumber, ctx.Err().Error())
	}
}

// flight is the context shared by every caller waiting on one key.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (c *ArticleCache) join(ctx context.Context, name string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.flights[name]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[name] = f
	}
	f.waiters++
	return f
}

// leave cancels the shared fetch once its last caller is gone. Forget makes
// the next caller start a fresh fetch instead of inheriting a cancelled one.
func (c *ArticleCache) leave(name string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[name] == f {
		delete(c.flights, name)
		c.inflight.Forget(name)
	}
}

// Stats returns a snapshot of the usage counters.
func (c *ArticleCache) Stats() CacheStats {
	c.mu.Lock()
	n := c.entries.Len()
	c.mu.Unlock()
	return CacheStats{
		Entries: n,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

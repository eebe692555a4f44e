package search

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PageLoader fetches and parses the page at index.
type PageLoader func(ctx context.Context, index int) (Page, error)

// PageCache memoizes pages by index for the lifetime of a query. Pages are
// never evicted. Concurrent Get calls for the same uncached index share one
// load; failed loads are not stored and will be retried by the next Get.
type PageCache struct {
	load  PageLoader
	group singleflight.Group

	mu    sync.Mutex
	pages map[int]Page
}

func NewPageCache(load PageLoader) *PageCache {
	return &PageCache{
		load:  load,
		pages: make(map[int]Page),
	}
}

func (c *PageCache) lookup(index int) (Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[index]
	return p, ok
}

// Get returns the page at index, loading it on first access. A joined
// caller shares the context of the caller that started the load.
func (c *PageCache) Get(ctx context.Context, index int) (Page, error) {
	if index < 1 {
		return nil, ErrInvalidPageIndex
	}
	if p, ok := c.lookup(index); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(index), func() (any, error) {
		if p, ok := c.lookup(index); ok {
			return p, nil
		}
		p, err := c.load(ctx, index)
		if err != nil {
			return nil, err
		}
		if p == nil {
			p = Page{}
		}
		c.mu.Lock()
		c.pages[index] = p
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Page), nil
}

// Cached reports whether index has been loaded.
func (c *PageCache) Cached(index int) bool {
	_, ok := c.lookup(index)
	return ok
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

package inspector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	lru "github.com/hashicorp/golang-lru/v2"

	"settingscout/internal/device"
)

// Cached memoizes classifications by the digest of the screenshot and the
// UI tree dump taken together. The inner inspector is handed that same
// screenshot, so a cached page always belongs to the image it was keyed
// by. Pages returned from the cache are shared and must be treated as
// read-only.
type Cached struct {
	next   Inspector
	cache  *lru.Cache[string, *Page]
	logger *log.Logger

	Hits   int
	Misses int
}

func NewCached(next Inspector, size int, logger *log.Logger) (*Cached, error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, *Page](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{next: next, cache: c, logger: logger}, nil
}

// pinnedShot serves one captured screenshot for every Screenshot call.
type pinnedShot struct {
	device.Driver
	shot []byte
}

func (p pinnedShot) Screenshot(context.Context) ([]byte, error) {
	return p.shot, nil
}

func (c *Cached) Inspect(ctx context.Context, d device.Driver) (*Page, error) {
	shot, err := d.Screenshot(ctx)
	if err != nil {
		c.logger.Printf("inspect cache: screenshot failed, bypassing: %v", err)
		return c.next.Inspect(ctx, d)
	}
	tree, err := d.DumpTree(ctx)
	if err != nil {
		c.logger.Printf("inspect cache: dump failed, bypassing: %v", err)
		return c.next.Inspect(ctx, pinnedShot{Driver: d, shot: shot})
	}
	key := digest(shot, tree)
	if p, ok := c.cache.Get(key); ok {
		c.Hits++
		return p, nil
	}
	c.Misses++
	p, err := c.next.Inspect(ctx, pinnedShot{Driver: d, shot: shot})
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, p)
	return p, nil
}

func digest(shot []byte, tree string) string {
	h := sha256.New()
	ss := sha256.Sum256(shot)
	h.Write(ss[:])
	h.Write([]byte(tree))
	return hex.EncodeToString(h.Sum(nil))
}

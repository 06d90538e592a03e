package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"

	"vantetider/internal"
	"vantetider/internal/config"
	"vantetider/internal/metrics"
	"vantetider/internal/storage"
)

// Cache is a Fetcher that answers from memory, then from bodies stored
// under dir and indexed in sqlite, and only then from the network.
// Only 2xx pages are stored.
type Cache struct {
	next   Fetcher
	db     *storage.DB
	dir    string
	ttl    time.Duration
	memory *expirable.LRU[string, Page]
	now    func() time.Time
}

func NewCache(next Fetcher, db *storage.DB, cfg config.Config) *Cache {
	return &Cache{
		next:   next,
		db:     db,
		dir:    cfg.CacheDir,
		ttl:    cfg.CacheTTL,
		memory: expirable.NewLRU[string, Page](cfg.CacheMemoryEntries, nil, cfg.CacheTTL),
		now:    time.Now,
	}
}

func (c *Cache) Get(ctx context.Context, target string) (Page, error) {
	return c.fetch(ctx, http.MethodGet, target, nil)
}

func (c *Cache) Post(ctx context.Context, target string, form url.Values) (Page, error) {
	return c.fetch(ctx, http.MethodPost, target, form)
}

func (c *Cache) fetch(ctx context.Context, method, target string, form url.Values) (Page, error) {
	key := CacheKey(method, target, form)

	if page, ok := c.memory.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("memory").Inc()
		page.FromCache = true
		return page, nil
	}

	page, ok, err := c.load(key)
	if err != nil {
		return Page{}, err
	}
	if ok {
		metrics.CacheLookups.WithLabelValues("disk").Inc()
		c.memory.Add(key, page)
		page.FromCache = true
		return page, nil
	}

	metrics.CacheLookups.WithLabelValues("miss").Inc()
	if method == http.MethodGet {
		page, err = c.next.Get(ctx, target)
	} else {
		page, err = c.next.Post(ctx, target, form)
	}
	if err != nil {
		return Page{}, err
	}

	if err := c.store(key, method, target, form, page); err != nil {
		return Page{}, err
	}
	c.memory.Add(key, page)
	return page, nil
}

func (c *Cache) load(key string) (Page, bool, error) {
	entry, err := c.db.GetPage(key)
	if err != nil {
		return Page{}, false, errors.Wrap(err, "page index lookup")
	}
	if entry == nil {
		return Page{}, false, nil
	}
	if c.ttl > 0 && c.now().Sub(entry.FetchedAt) > c.ttl {
		slog.Debug("cached page expired", "url", entry.URL, "fetched_at", entry.FetchedAt)
		return Page{}, false, nil
	}
	body, err := os.ReadFile(entry.BodyPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("cached page body missing", "url", entry.URL, "path", entry.BodyPath)
		return Page{}, false, nil
	}
	if err != nil {
		return Page{}, false, err
	}
	return Page{URL: entry.URL, Status: entry.Status, Body: body}, true, nil
}

func (c *Cache) store(key, method, target string, form url.Values, page Page) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	bodyPath := filepath.Join(c.dir, key+".html")
	tmp := bodyPath + ".tmp"
	if err := os.WriteFile(tmp, page.Body, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, bodyPath); err != nil {
		return err
	}

	return c.db.PutPage(internal.PageEntry{
		Key:       key,
		Method:    method,
		URL:       target,
		Payload:   form.Encode(),
		BodyPath:  bodyPath,
		Status:    page.Status,
		FetchedAt: c.now(),
	})
}

// Clear drops every cached page from all three layers.
func (c *Cache) Clear() (int64, error) {
	n, err := c.db.DeletePages()
	if err != nil {
		return 0, err
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return n, err
	}
	c.memory.Purge()
	return n, nil
}

// CacheKey identifies a request by method, normalized URL and sorted form.
func CacheKey(method, target string, form url.Values) string {
	normalized, err := purell.NormalizeURLString(target, purell.FlagsSafe|purell.FlagSortQuery|purell.FlagRemoveFragment)
	if err != nil {
		normalized = target
	}
	sum := sha256.Sum256([]byte(method + "\n" + normalized + "\n" + form.Encode()))
	return hex.EncodeToString(sum[:])
}

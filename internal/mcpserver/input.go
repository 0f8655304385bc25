package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/fetcher"
)

// specInput represents the three ways an OAS spec can be provided to a tool.
// Exactly one of File, URL, or Content must be set.
type specInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to an OAS file on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch an OAS document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline OAS document content (JSON or YAML)"`
}

// cacheEntry holds a loaded document with LRU ordering and TTL expiry.
type cacheEntry struct {
	doc       *document.Document
	insertAt  time.Time
	expiresAt time.Time
}

// specCacheStore caches loaded documents for the session. Cached documents
// are shared, so callers must clone before editing.
// File inputs are keyed by (absolutePath, modTime), content inputs by a
// SHA-256 hash, and URL inputs by URL string.
type specCacheStore struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	maxSize int
}

var specCache = &specCacheStore{
	entries: make(map[string]*cacheEntry),
	maxSize: cfg.CacheMaxSize,
}

// get returns a cached document or nil. Expired entries are lazily removed.
func (c *specCacheStore) get(key string) *document.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		if time.Now().After(e.expiresAt) {
			delete(c.entries, key)
			return nil
		}
		e.insertAt = time.Now()
		return e.doc
	}
	return nil
}

// put stores a document, evicting the least recently used entry if at capacity.
func (c *specCacheStore) put(key string, doc *document.Document, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry := &cacheEntry{doc: doc, insertAt: now, expiresAt: now.Add(ttl)}
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestTime time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.insertAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = e.insertAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = entry
}

// reset clears all cached entries. Used in tests.
func (c *specCacheStore) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// size returns the number of cached entries.
func (c *specCacheStore) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey identifies the spec input. It is empty when the input cannot be
// cached.
func (s specInput) cacheKey() string {
	switch {
	case s.File != "":
		absPath, err := filepath.Abs(s.File)
		if err != nil {
			return ""
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("file:%s:%d", absPath, info.ModTime().UnixNano())
	case s.Content != "":
		h := sha256.Sum256([]byte(s.Content))
		return "content:" + hex.EncodeToString(h[:])
	case s.URL != "":
		return "url:" + s.URL
	default:
		return ""
	}
}

// newFetcher returns the fetcher used for URL and file inputs.
func newFetcher() *fetcher.Fetcher {
	f := fetcher.New()
	f.Timeout = cfg.FetchTimeout
	if !cfg.AllowPrivateIPs {
		f.HTTPClient = newSafeHTTPClient(cfg.FetchTimeout)
	}
	return f
}

// resolve loads the spec from whichever input was provided. The returned
// document may be shared through the cache and must not be edited.
func (s specInput) resolve(ctx context.Context) (*document.Document, error) {
	count := 0
	for _, v := range []string{s.File, s.URL, s.Content} {
		if v != "" {
			count++
		}
	}
	if count != 1 {
		return nil, fmt.Errorf("exactly one of file, url, or content must be provided (got %d)", count)
	}
	if s.Content != "" && int64(len(s.Content)) > cfg.MaxInlineSize {
		return nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set OASPREP_MAX_INLINE_SIZE to increase",
			len(s.Content), cfg.MaxInlineSize)
	}

	var key string
	if cfg.CacheEnabled {
		key = s.cacheKey()
	}
	if key != "" {
		if cached := specCache.get(key); cached != nil {
			return cached, nil
		}
	}

	var (
		doc *document.Document
		err error
	)
	switch {
	case s.Content != "":
		doc, err = document.Parse([]byte(s.Content), "<content>")
	case s.URL != "":
		if !fetcher.IsURL(s.URL) {
			return nil, fmt.Errorf("url must use http or https: %q", s.URL)
		}
		doc, err = newFetcher().Fetch(ctx, s.URL)
	default:
		if s.File == fetcher.StdinSource {
			return nil, fmt.Errorf("stdin is reserved for the MCP transport; pass a file path")
		}
		doc, err = newFetcher().Load(ctx, s.File)
	}
	if err != nil {
		return nil, err
	}

	if key != "" {
		specCache.put(key, doc, cfg.CacheTTL)
	}
	return doc, nil
}

package pubgen

import (
	"sort"
	"sync"
	"time"
)

// RecordLoader loads the current index records.
type RecordLoader interface {
	Load() ([]Record, error)
}

// RecordCache is an in-memory cache of index records and tags with TTL.
type RecordCache struct {
	mu      sync.RWMutex
	records []Record
	tags    []string
	fetched time.Time
	ttl     time.Duration
	source  RecordLoader
	now     func() time.Time
}

// NewRecordCache creates a RecordCache backed by source.
func NewRecordCache(source RecordLoader, ttl time.Duration) *RecordCache {
	return &RecordCache{source: source, ttl: ttl, now: time.Now}
}

func (c *RecordCache) valid() bool {
	return c.records != nil && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *RecordCache) Invalidate() {
	c.mu.Lock()
	c.records = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *RecordCache) load() error {
	if c.valid() {
		return nil
	}
	records, err := c.source.Load()
	if err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}
	c.records = records
	c.tags = collectTags(records)
	c.fetched = c.now()
	return nil
}

// ensureLoaded returns cached records and tags after ensuring the cache is
// fresh. It tries a read lock first and only takes the write lock to reload.
func (c *RecordCache) ensureLoaded() ([]Record, []string, error) {
	c.mu.RLock()
	if c.valid() {
		records, tags := c.records, c.tags
		c.mu.RUnlock()
		return records, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, err
	}
	return c.records, c.tags, nil
}

// ListRecords returns records in index order, optionally filtered by tag.
func (c *RecordCache) ListRecords(tag string) ([]Record, error) {
	records, _, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return records, nil
	}
	filtered := []Record{}
	for _, r := range records {
		if hasTag(r, tag) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// ListTags returns all unique tags, lower-cased and sorted.
func (c *RecordCache) ListTags() ([]string, error) {
	_, tags, err := c.ensureLoaded()
	return tags, err
}

// GetRecord returns the first record in index order with slug.
func (c *RecordCache) GetRecord(slug string) (Record, error) {
	records, _, err := c.ensureLoaded()
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.Slug == slug {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// Stats summarises the index the way the index page's getStats does.
type Stats struct {
	Total int      `json:"total"`
	Tags  []string `json:"tags"`
}

// Stats returns the record count and the distinct tags.
func (c *RecordCache) Stats() (Stats, error) {
	records, tags, err := c.ensureLoaded()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: len(records), Tags: tags}, nil
}

func collectTags(records []Record) []string {
	set := make(map[string]struct{})
	for _, r := range records {
		for _, t := range r.Tags {
			if t = normalizeTag(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

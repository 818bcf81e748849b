package netflow

import (
	"container/list"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// TemplateCache stores templates for one protocol within one exporter scope.
// The parser holds two caches per protocol, one for data templates and one
// for options templates.
//
// Implementations must tolerate concurrent readers; the parser itself is
// owned by a single caller at a time, but stats and introspection may be
// read from other goroutines.
type TemplateCache interface {
	json.Marshaler

	// Get looks up a template and touches its recency. Entries past their
	// TTL are removed during the lookup and reported as a miss.
	Get(ctx context.Context, id uint16) (*Template, bool)

	// Peek looks up a template without touching recency and without
	// removing expired entries. Used by introspection APIs and collision
	// checks.
	Peek(id uint16) (*Template, bool)

	// Add inserts an already validated template. An identical
	// re-announcement only refreshes the entry; id reuse with a different
	// field list replaces the entry and counts a collision.
	Add(ctx context.Context, template *Template)

	// Ids returns the cached, unexpired template ids sorted ascending.
	Ids() []uint16

	Len() int
	Clear()
	Stats() CacheStats
	Name() string
}

type lruEntry struct {
	template  *Template
	learnedAt time.Time
}

type lruElement struct {
	id    uint16
	entry lruEntry
}

// lruTemplateCache is the built-in TemplateCache: a recency-ordered list
// over a hash lookup, with lazy time-based TTL expiry. There is no
// background sweeper; an entry past its TTL is dropped when it is next
// looked up.
type lruTemplateCache struct {
	capacity int
	ttl      time.Duration
	protocol TemplateProtocol
	name     string

	entries map[uint16]*list.Element
	// order holds *lruElement values, most recently used in front
	order *list.List

	metrics *CacheMetrics
	hooks   *templateHooks

	mu sync.RWMutex

	// now is swappable in tests exercising TTL expiry
	now func() time.Time
}

var _ TemplateCache = &lruTemplateCache{}

func newLruTemplateCache(name string, protocol TemplateProtocol, capacity int, ttl time.Duration, hooks *templateHooks) *lruTemplateCache {
	if capacity <= 0 {
		capacity = DefaultTemplateCacheSize
	}
	return &lruTemplateCache{
		capacity: capacity,
		ttl:      ttl,
		protocol: protocol,
		name:     name,
		entries:  make(map[uint16]*list.Element),
		order:    list.New(),
		metrics:  &CacheMetrics{},
		hooks:    hooks,
		now:      time.Now,
	}
}

func (c *lruTemplateCache) Get(ctx context.Context, id uint16) (*Template, bool) {
	c.mu.Lock()
	el, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		c.metrics.recordMiss()
		return nil, false
	}
	item := el.Value.(*lruElement)
	if c.isExpired(item.entry.learnedAt) {
		c.order.Remove(el)
		delete(c.entries, id)
		c.mu.Unlock()
		c.metrics.recordExpired()
		c.metrics.recordMiss()
		logger.V(1).Info("template expired", "protocol", c.protocol.String(), "template_id", id)
		c.hooks.trigger(TemplateEvent{Kind: TemplateExpired, TemplateId: id, Protocol: c.protocol})
		return nil, false
	}
	c.order.MoveToFront(el)
	c.mu.Unlock()
	c.metrics.recordHit()
	return item.entry.template, true
}

func (c *lruTemplateCache) Peek(id uint16) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	el, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	item := el.Value.(*lruElement)
	if c.isExpired(item.entry.learnedAt) {
		return nil, false
	}
	return item.entry.template, true
}

func (c *lruTemplateCache) Add(ctx context.Context, template *Template) {
	id := template.TemplateId

	c.mu.Lock()
	now := c.now()

	if el, ok := c.entries[id]; ok {
		item := el.Value.(*lruElement)
		identical := item.entry.template.equal(template) && !c.isExpired(item.entry.learnedAt)
		item.entry = lruEntry{template: template, learnedAt: now}
		c.order.MoveToFront(el)
		c.mu.Unlock()

		if identical {
			c.metrics.recordRefresh()
			return
		}
		c.metrics.recordCollision()
		c.metrics.recordInsertion()
		c.hooks.trigger(TemplateEvent{Kind: TemplateCollision, TemplateId: id, Protocol: c.protocol})
		return
	}

	el := c.order.PushFront(&lruElement{id: id, entry: lruEntry{template: template, learnedAt: now}})
	c.entries[id] = el

	var evictedId uint16
	evicted := false
	if c.order.Len() > c.capacity {
		back := c.order.Back()
		victim := back.Value.(*lruElement)
		c.order.Remove(back)
		delete(c.entries, victim.id)
		evictedId = victim.id
		evicted = true
	}
	c.mu.Unlock()

	c.metrics.recordInsertion()
	c.hooks.trigger(TemplateEvent{Kind: TemplateLearned, TemplateId: id, Protocol: c.protocol})
	if evicted {
		c.metrics.recordEviction()
		logger.V(1).Info("template evicted", "protocol", c.protocol.String(), "template_id", evictedId)
		c.hooks.trigger(TemplateEvent{Kind: TemplateEvicted, TemplateId: evictedId, Protocol: c.protocol})
	}
}

func (c *lruTemplateCache) Ids() []uint16 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]uint16, 0, len(c.entries))
	for id, el := range c.entries {
		if c.isExpired(el.Value.(*lruElement).entry.learnedAt) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *lruTemplateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *lruTemplateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint16]*list.Element)
	c.order.Init()
}

func (c *lruTemplateCache) Stats() CacheStats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	return CacheStats{
		CurrentSize: size,
		MaxSize:     c.capacity,
		Ttl:         c.ttl,
		Metrics:     c.metrics.Snapshot(),
	}
}

func (c *lruTemplateCache) Name() string {
	return c.name
}

func (c *lruTemplateCache) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := make(map[uint16]*Template, len(c.entries))
	for id, el := range c.entries {
		item := el.Value.(*lruElement)
		if c.isExpired(item.entry.learnedAt) {
			continue
		}
		s[id] = item.entry.template
	}
	return json.Marshal(s)
}

func (c *lruTemplateCache) isExpired(learnedAt time.Time) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(learnedAt) > c.ttl
}

package netflow

import (
	"context"
	"testing"
	"time"
)

func testTemplate(id uint16, fieldTypes ...uint16) *Template {
	fields := make([]FieldDescriptor, 0, len(fieldTypes))
	for _, ft := range fieldTypes {
		spec, _ := resolveV9Field(ft, true)
		fields = append(fields, FieldDescriptor{
			FieldType:   ft,
			FieldLength: 4,
			Name:        spec.Name,
			DataType:    spec.Type,
		})
	}
	return &Template{TemplateId: id, Kind: TemplateKindData, Fields: fields}
}

func TestLruEviction(t *testing.T) {
	ctx := context.TODO()
	cache := newLruTemplateCache("test", TemplateProtocolV9, 2, 0, &templateHooks{})

	cache.Add(ctx, testTemplate(256, 8))
	cache.Add(ctx, testTemplate(257, 8))

	// touch 256 so that 257 is the LRU victim
	if _, ok := cache.Get(ctx, 256); !ok {
		t.Fatal("256 should be cached")
	}
	cache.Add(ctx, testTemplate(258, 8))

	if _, ok := cache.Peek(257); ok {
		t.Error("257 should have been evicted")
	}
	if _, ok := cache.Peek(256); !ok {
		t.Error("256 was recently used and should survive")
	}
	if cache.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", cache.Len())
	}
	if got := cache.Stats().Metrics.Evictions; got != 1 {
		t.Errorf("expected 1 eviction, got %d", got)
	}
}

func TestTtlExpiry(t *testing.T) {
	ctx := context.TODO()
	cache := newLruTemplateCache("test", TemplateProtocolV9, 10, time.Minute, &templateHooks{})

	now := time.Unix(1700000000, 0)
	cache.now = func() time.Time { return now }

	cache.Add(ctx, testTemplate(256, 8))
	if _, ok := cache.Get(ctx, 256); !ok {
		t.Fatal("fresh template should be found")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get(ctx, 256); ok {
		t.Error("expired template should be dropped on lookup")
	}
	m := cache.Stats().Metrics
	if m.Expired != 1 {
		t.Errorf("expected 1 expiry, got %d", m.Expired)
	}
	if m.Misses != 1 {
		t.Errorf("expiry counts as a miss, got %d misses", m.Misses)
	}

	// re-announcing an expired id is not a collision
	cache.Add(ctx, testTemplate(256, 8))
	if got := cache.Stats().Metrics.Collisions; got != 0 {
		t.Errorf("expected 0 collisions, got %d", got)
	}
}

func TestTtlRefreshOnReAnnounce(t *testing.T) {
	ctx := context.TODO()
	cache := newLruTemplateCache("test", TemplateProtocolV9, 10, time.Minute, &templateHooks{})

	now := time.Unix(1700000000, 0)
	cache.now = func() time.Time { return now }

	cache.Add(ctx, testTemplate(256, 8))

	// the re-announcement 45s in resets the clock
	now = now.Add(45 * time.Second)
	cache.Add(ctx, testTemplate(256, 8))

	now = now.Add(45 * time.Second)
	if _, ok := cache.Get(ctx, 256); !ok {
		t.Error("refreshed template should still be alive 45s after re-announcement")
	}
}

func TestCacheHitRate(t *testing.T) {
	ctx := context.TODO()
	cache := newLruTemplateCache("test", TemplateProtocolV9, 10, 0, &templateHooks{})
	cache.Add(ctx, testTemplate(256, 8))

	cache.Get(ctx, 256)
	cache.Get(ctx, 256)
	cache.Get(ctx, 999)

	m := cache.Stats().Metrics
	if m.TotalLookups() != 3 {
		t.Errorf("expected 3 lookups, got %d", m.TotalLookups())
	}
	rate, ok := m.HitRate()
	if !ok || rate < 0.66 || rate > 0.67 {
		t.Errorf("expected hit rate 2/3, got %f", rate)
	}

	empty := CacheMetricsSnapshot{}
	if _, ok := empty.HitRate(); ok {
		t.Error("hit rate of zero lookups is undefined")
	}
}

func TestCacheIds(t *testing.T) {
	ctx := context.TODO()
	cache := newLruTemplateCache("test", TemplateProtocolV9, 10, 0, &templateHooks{})
	for _, id := range []uint16{400, 256, 300} {
		cache.Add(ctx, testTemplate(id, 8))
	}

	ids := cache.Ids()
	want := []uint16{256, 300, 400}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d]: want %d, got %d", i, want[i], ids[i])
		}
	}

	cache.Clear()
	if cache.Len() != 0 || len(cache.Ids()) != 0 {
		t.Error("clear should empty the cache")
	}
}

func TestTemplateEvents(t *testing.T) {
	ctx := context.TODO()
	hooks := &templateHooks{}
	events := []TemplateEvent{}
	hooks.register(func(e TemplateEvent) { events = append(events, e) })

	cache := newLruTemplateCache("test", TemplateProtocolV9, 1, 0, hooks)
	cache.Add(ctx, testTemplate(256, 8))     // learned
	cache.Add(ctx, testTemplate(256, 8, 12)) // collision
	cache.Add(ctx, testTemplate(257, 8))     // learned + evicted 256

	want := []TemplateEvent{
		{Kind: TemplateLearned, TemplateId: 256, Protocol: TemplateProtocolV9},
		{Kind: TemplateCollision, TemplateId: 256, Protocol: TemplateProtocolV9},
		{Kind: TemplateLearned, TemplateId: 257, Protocol: TemplateProtocolV9},
		{Kind: TemplateEvicted, TemplateId: 256, Protocol: TemplateProtocolV9},
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(events), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: want %+v, got %+v", i, want[i], events[i])
		}
	}
}

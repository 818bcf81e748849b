/*
Copyright 2024 The go-netflow Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package netflow

import (
	"context"
	"encoding/binary"
	"net/netip"
	"sort"
	"sync"
)

// ScopeKey identifies one template namespace: the exporter's transport
// address plus the protocol-level domain carried in the packet header (the
// v9 source id or the IPFIX observation domain id). Template ids are only
// unique within such a scope; two exporters may both announce template 256
// with entirely different field lists.
//
// ScopeKey is a comparable struct on purpose. Earlier designs that flatten
// the scope into a formatted string invite collisions between, say, domain
// "12" of one exporter and an exporter whose address happens to render with
// a trailing ":12".
type ScopeKey struct {
	Exporter netip.AddrPort
	Version  uint16
	Domain   uint32
}

// scopingInfo is what can be read from a packet header before full decoding.
type scopingInfo struct {
	Version uint16
	Domain  uint32
}

// extractScopingInfo reads the version word and, for v9 and IPFIX, the
// domain identifier from a packet header without decoding the packet. v5 and
// v7 have no domain concept; their domain is 0.
func extractScopingInfo(data []byte) (scopingInfo, error) {
	if len(data) < 2 {
		return scopingInfo{}, &IncompleteError{Needed: 2, Available: len(data), Context: "packet version"}
	}
	version := binary.BigEndian.Uint16(data[0:2])
	switch version {
	case VersionV5, VersionV7:
		return scopingInfo{Version: version}, nil
	case VersionV9:
		if len(data) < v9HeaderLength {
			return scopingInfo{}, &IncompleteError{Needed: v9HeaderLength, Available: len(data), Context: "v9 header"}
		}
		return scopingInfo{Version: version, Domain: binary.BigEndian.Uint32(data[16:20])}, nil
	case VersionIPFIX:
		if len(data) < ipfixHeaderLength {
			return scopingInfo{}, &IncompleteError{Needed: ipfixHeaderLength, Available: len(data), Context: "ipfix header"}
		}
		return scopingInfo{Version: version, Domain: binary.BigEndian.Uint32(data[12:16])}, nil
	}
	return scopingInfo{Version: version}, nil
}

// AutoScopedParser routes datagrams from many exporters to per-scope Parsers,
// keyed by exporter address, protocol version and domain id. Use it when one
// socket receives several routers, or one router exports multiple observation
// domains; template state never bleeds between scopes.
type AutoScopedParser struct {
	opts  []ParserOptions
	hooks []TemplateHook

	mu      sync.Mutex
	parsers map[ScopeKey]*Parser
}

func NewAutoScopedParser(opts ...ParserOptions) *AutoScopedParser {
	return &AutoScopedParser{
		opts:    opts,
		parsers: make(map[ScopeKey]*Parser),
	}
}

// OnTemplateEvent registers a hook on all current and future per-scope
// parsers.
func (s *AutoScopedParser) OnTemplateEvent(hook TemplateHook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, hook)
	for _, p := range s.parsers {
		p.OnTemplateEvent(hook)
	}
}

// Parse decodes a datagram received from the given exporter address through
// the parser owning that exporter's scope. The scope is derived from the
// first packet header in the buffer; exporters do not mix domains within one
// datagram.
func (s *AutoScopedParser) Parse(ctx context.Context, source netip.AddrPort, data []byte) ParseResult {
	info, err := extractScopingInfo(data)
	if err != nil {
		return ParseResult{Error: err}
	}
	key := ScopeKey{Exporter: source, Version: info.Version, Domain: info.Domain}
	return s.parserFor(key).ParseBytes(ctx, data)
}

// Parser returns the parser owning the scope, creating it on first use.
// Useful for introspecting a single scope's template state.
func (s *AutoScopedParser) Parser(key ScopeKey) *Parser {
	return s.parserFor(key)
}

func (s *AutoScopedParser) parserFor(key ScopeKey) *Parser {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.parsers[key]; ok {
		return p
	}
	logger.V(1).Info("creating scope", "exporter", key.Exporter.String(), "version", key.Version, "domain", key.Domain)
	p := NewParser(s.opts...)
	for _, hook := range s.hooks {
		p.OnTemplateEvent(hook)
	}
	s.parsers[key] = p
	return p
}

// Scopes returns all scope keys seen so far, sorted by exporter address, then
// version, then domain.
func (s *AutoScopedParser) Scopes() []ScopeKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]ScopeKey, 0, len(s.parsers))
	for key := range s.parsers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if c := a.Exporter.Addr().Compare(b.Exporter.Addr()); c != 0 {
			return c < 0
		}
		if a.Exporter.Port() != b.Exporter.Port() {
			return a.Exporter.Port() < b.Exporter.Port()
		}
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		return a.Domain < b.Domain
	})
	return keys
}

// ScopeCount returns the number of scopes seen so far.
func (s *AutoScopedParser) ScopeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.parsers)
}

// ClearScope drops one scope and its template state.
func (s *AutoScopedParser) ClearScope(key ScopeKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.parsers, key)
}

// Clear drops all scopes.
func (s *AutoScopedParser) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.parsers = make(map[ScopeKey]*Parser)
}

// CacheStats returns the template cache stats of every scope.
func (s *AutoScopedParser) CacheStats() map[ScopeKey]map[string]CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[ScopeKey]map[string]CacheStats, len(s.parsers))
	for key, p := range s.parsers {
		stats[key] = p.CacheStats()
	}
	return stats
}

// RouterScopedParser is a coarser AutoScopedParser keyed by exporter IP
// address only, ignoring source port, protocol version and domain. It fits
// deployments where each router exports a single domain and re-announces
// templates after reboots from a new source port.
type RouterScopedParser struct {
	opts  []ParserOptions
	hooks []TemplateHook

	mu      sync.Mutex
	parsers map[netip.Addr]*Parser
}

func NewRouterScopedParser(opts ...ParserOptions) *RouterScopedParser {
	return &RouterScopedParser{
		opts:    opts,
		parsers: make(map[netip.Addr]*Parser),
	}
}

// OnTemplateEvent registers a hook on all current and future per-router
// parsers.
func (s *RouterScopedParser) OnTemplateEvent(hook TemplateHook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, hook)
	for _, p := range s.parsers {
		p.OnTemplateEvent(hook)
	}
}

// Parse decodes a datagram through the parser owning the source address.
func (s *RouterScopedParser) Parse(ctx context.Context, source netip.Addr, data []byte) ParseResult {
	return s.parserFor(source).ParseBytes(ctx, data)
}

// Parser returns the parser owning the source address, creating it on first
// use.
func (s *RouterScopedParser) Parser(source netip.Addr) *Parser {
	return s.parserFor(source)
}

func (s *RouterScopedParser) parserFor(source netip.Addr) *Parser {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.parsers[source]; ok {
		return p
	}
	p := NewParser(s.opts...)
	for _, hook := range s.hooks {
		p.OnTemplateEvent(hook)
	}
	s.parsers[source] = p
	return p
}

// Sources returns all router addresses seen so far, sorted.
func (s *RouterScopedParser) Sources() []netip.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	addrs := make([]netip.Addr, 0, len(s.parsers))
	for addr := range s.parsers {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Compare(addrs[j]) < 0 })
	return addrs
}

// SourceCount returns the number of routers seen so far.
func (s *RouterScopedParser) SourceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.parsers)
}

// ClearSource drops one router's template state.
func (s *RouterScopedParser) ClearSource(source netip.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.parsers, source)
}

// Clear drops all routers.
func (s *RouterScopedParser) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.parsers = make(map[netip.Addr]*Parser)
}

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
	"io"
	"time"
)

// Packet is one decoded NetFlow or IPFIX datagram. The concrete type is one
// of V5Packet, V7Packet, V9Packet and IPFIXPacket, selected by the version
// word in the first two bytes.
type Packet interface {
	Version() uint16

	// Encode writes the packet back into its wire form. Decoded packets
	// re-encode byte-exactly, including flowset padding.
	Encode(w io.Writer) (int, error)
}

// ParseResult is what ParseBytes returns: every packet that could be decoded
// from the buffer and the first error encountered, if any. The two are not
// exclusive; a buffer can yield packets and still end in an error, and a v9
// or IPFIX packet with a missing template is returned as a packet while the
// MissingTemplateError lands in Error.
type ParseResult struct {
	Packets []Packet
	Error   error
}

// ParserOptions configures a Parser. The zero value selects the defaults;
// options structs merge with OR semantics for flags and last-one-wins for
// bounds, so callers only set what they want to change.
type ParserOptions struct {
	// TemplateCacheSize bounds each of the four template caches (v9 and IPFIX,
	// data and options templates) individually.
	TemplateCacheSize int

	// TemplateTtl expires templates that have not been re-announced within the
	// duration. Zero disables expiry.
	TemplateTtl time.Duration

	// MaxFieldCount rejects templates declaring more fields, a guard against
	// crafted field counts allocating unbounded memory.
	MaxFieldCount int

	// MaxTemplateTotalSize rejects templates whose fixed-width fields sum to
	// more bytes per record.
	MaxTemplateTotalSize int

	// MaxErrorSampleSize bounds the raw byte samples attached to errors.
	MaxErrorSampleSize int

	// AllowedVersions restricts parsing to the listed header versions. Empty
	// means all supported versions. Parsing stops with ErrFilteredVersion
	// before the first packet of a filtered version, leaving it unconsumed.
	AllowedVersions []uint16

	// RejectUnknownFields makes templates referencing field types outside the
	// registries fail validation instead of decoding them as octet arrays
	// under a synthetic name.
	RejectUnknownFields bool

	// EnterpriseFields seeds the parser's registry of vendor-specific IPFIX
	// information elements.
	EnterpriseFields []EnterpriseFieldDef
}

var DefaultParserOptions = ParserOptions{
	TemplateCacheSize:    DefaultTemplateCacheSize,
	MaxFieldCount:        DefaultMaxFieldCount,
	MaxTemplateTotalSize: DefaultMaxTemplateTotalSize,
	MaxErrorSampleSize:   DefaultMaxErrorSampleSize,
}

func (o *ParserOptions) Merge(opts ...ParserOptions) {
	for _, opt := range opts {
		if opt.TemplateCacheSize > 0 {
			o.TemplateCacheSize = opt.TemplateCacheSize
		}
		if opt.TemplateTtl > 0 {
			o.TemplateTtl = opt.TemplateTtl
		}
		if opt.MaxFieldCount > 0 {
			o.MaxFieldCount = opt.MaxFieldCount
		}
		if opt.MaxTemplateTotalSize > 0 {
			o.MaxTemplateTotalSize = opt.MaxTemplateTotalSize
		}
		if opt.MaxErrorSampleSize > 0 {
			o.MaxErrorSampleSize = opt.MaxErrorSampleSize
		}
		if len(opt.AllowedVersions) > 0 {
			o.AllowedVersions = opt.AllowedVersions
		}
		o.RejectUnknownFields = o.RejectUnknownFields || opt.RejectUnknownFields
		o.EnterpriseFields = append(o.EnterpriseFields, opt.EnterpriseFields...)
	}
}

// Parser decodes NetFlow v5/v7/v9 and IPFIX datagrams. It owns the template
// state learned from v9 and IPFIX template flowsets, so all packets of one
// exporter stream must pass through the same Parser; use AutoScopedParser
// when one socket receives multiple exporters.
//
// A Parser is owned by a single caller at a time. The introspection methods
// (template ids, cache stats) may be called from other goroutines.
type Parser struct {
	opts         ParserOptions
	parseUnknown bool

	// allowed is nil when all supported versions are accepted
	allowed map[uint16]struct{}

	registry *EnterpriseFieldRegistry
	hooks    *templateHooks

	v9Templates           TemplateCache
	v9OptionsTemplates    TemplateCache
	ipfixTemplates        TemplateCache
	ipfixOptionsTemplates TemplateCache
}

func NewParser(opts ...ParserOptions) *Parser {
	options := DefaultParserOptions
	options.Merge(opts...)

	registry := NewEnterpriseFieldRegistry()
	registry.RegisterAll(options.EnterpriseFields)

	hooks := &templateHooks{}
	p := &Parser{
		opts:         options,
		parseUnknown: !options.RejectUnknownFields,
		registry:     registry,
		hooks:        hooks,

		v9Templates:           newLruTemplateCache("v9_templates", TemplateProtocolV9, options.TemplateCacheSize, options.TemplateTtl, hooks),
		v9OptionsTemplates:    newLruTemplateCache("v9_options_templates", TemplateProtocolV9, options.TemplateCacheSize, options.TemplateTtl, hooks),
		ipfixTemplates:        newLruTemplateCache("ipfix_templates", TemplateProtocolIPFIX, options.TemplateCacheSize, options.TemplateTtl, hooks),
		ipfixOptionsTemplates: newLruTemplateCache("ipfix_options_templates", TemplateProtocolIPFIX, options.TemplateCacheSize, options.TemplateTtl, hooks),
	}
	if len(options.AllowedVersions) > 0 {
		p.allowed = make(map[uint16]struct{}, len(options.AllowedVersions))
		for _, v := range options.AllowedVersions {
			p.allowed[v] = struct{}{}
		}
	}

	p.initMetrics()
	return p
}

// OnTemplateEvent registers a hook observing template lifecycle events
// (learned, collision, evicted, expired, missing). Hooks run inline on the
// parsing goroutine and must not block.
func (p *Parser) OnTemplateEvent(hook TemplateHook) {
	p.hooks.register(hook)
}

// EnterpriseFields returns the parser's registry of vendor-specific field
// definitions. Definitions added here take effect for templates parsed
// afterwards; already cached templates keep their resolution.
func (p *Parser) EnterpriseFields() *EnterpriseFieldRegistry {
	return p.registry
}

func (p *Parser) versionAllowed(v uint16) bool {
	if p.allowed == nil {
		return true
	}
	_, ok := p.allowed[v]
	return ok
}

// ParseBytes decodes every packet in the buffer. Buffers may chain multiple
// packets, of mixed versions; each is decoded in order against the parser's
// template state.
//
// The result carries the first error alongside all packets decoded before
// (and, for non-fatal errors such as a missing template, after) it.
func (p *Parser) ParseBytes(ctx context.Context, data []byte) ParseResult {
	start := time.Now()
	defer func() {
		DurationMicroseconds.Observe(float64(time.Since(start).Microseconds()))
	}()

	result := ParseResult{}
	record := func(err error) {
		if result.Error == nil {
			result.Error = err
		}
	}

	c := newCursor(data, p.opts.MaxErrorSampleSize)
	for c.remaining() > 0 {
		pkt, err := p.parsePacket(ctx, c, data)
		if pkt != nil {
			result.Packets = append(result.Packets, pkt)
			PacketsTotal.WithLabelValues(versionLabel(pkt.Version())).Inc()
		}
		if err != nil {
			record(err)
			if pkt == nil {
				// fatal for the rest of the buffer
				break
			}
		}
	}
	return result
}

// parsePacket decodes the single packet at the cursor. A nil packet with a
// non-nil error means the buffer cannot be advanced past the failure.
func (p *Parser) parsePacket(ctx context.Context, c *cursor, data []byte) (Packet, error) {
	version, ok := c.peekUint16()
	if !ok {
		return nil, c.incomplete(2, "packet version")
	}
	if !p.versionAllowed(version) && isKnownVersion(version) {
		logger.V(1).Info("skipping filtered version", "version", version, "offset", c.offset())
		return nil, ErrFilteredVersion
	}

	switch version {
	case VersionV5:
		pkt, err := decodeV5(c)
		if err != nil {
			ErrorsTotal.Inc()
			return nil, err
		}
		return pkt, nil
	case VersionV7:
		pkt, err := decodeV7(c)
		if err != nil {
			ErrorsTotal.Inc()
			return nil, err
		}
		return pkt, nil
	case VersionV9:
		pkt, err := p.decodeV9(ctx, c, data)
		if pkt == nil {
			ErrorsTotal.Inc()
			return nil, err
		}
		return pkt, err
	case VersionIPFIX:
		pkt, err := p.decodeIPFIX(ctx, c, data)
		if pkt == nil {
			ErrorsTotal.Inc()
			return nil, err
		}
		return pkt, err
	default:
		ErrorsTotal.Inc()
		return nil, &UnsupportedVersionError{
			Version: version,
			Offset:  c.offset(),
			Sample:  c.sample(p.opts.MaxErrorSampleSize),
		}
	}
}

// Iterate returns a pull-based iterator over the packets of a buffer, for
// callers that want to stop early or inspect errors per packet instead of
// collecting everything like ParseBytes.
func (p *Parser) Iterate(ctx context.Context, data []byte) *PacketIterator {
	return &PacketIterator{parser: p, ctx: ctx, data: data, cursor: newCursor(data, p.opts.MaxErrorSampleSize)}
}

// PacketIterator yields one packet per Next call.
//
//	it := parser.Iterate(ctx, buf)
//	for it.Next() {
//		handle(it.Packet())
//	}
//	if err := it.Err(); err != nil { ... }
type PacketIterator struct {
	parser *Parser
	ctx    context.Context
	data   []byte
	cursor *cursor

	current Packet
	err     error
	done    bool
}

// Next advances to the next packet. It returns false when the buffer is
// exhausted or a fatal error stops iteration; Err distinguishes the two.
// Non-fatal errors (missing template) are reported through Err while Next
// still returns true for the affected packet.
func (it *PacketIterator) Next() bool {
	if it.done {
		return false
	}
	if it.cursor.remaining() == 0 {
		it.done = true
		it.current = nil
		return false
	}
	pkt, err := it.parser.parsePacket(it.ctx, it.cursor, it.data)
	if err != nil && it.err == nil {
		it.err = err
	}
	if pkt == nil {
		it.done = true
		it.current = nil
		return false
	}
	PacketsTotal.WithLabelValues(versionLabel(pkt.Version())).Inc()
	it.current = pkt
	return true
}

// Packet returns the packet of the last successful Next call.
func (it *PacketIterator) Packet() Packet { return it.current }

// Err returns the first error encountered, fatal or not.
func (it *PacketIterator) Err() error { return it.err }

// Remaining returns the number of unconsumed bytes. After a filtered-version
// stop these are the bytes from the filtered packet onward.
func (it *PacketIterator) Remaining() int { return it.cursor.remaining() }

// IsComplete reports whether the whole buffer was consumed.
func (it *PacketIterator) IsComplete() bool { return it.cursor.remaining() == 0 }

// V9TemplateIds returns the cached v9 data template ids, sorted ascending.
func (p *Parser) V9TemplateIds() []uint16 { return p.v9Templates.Ids() }

// V9OptionsTemplateIds returns the cached v9 options template ids, sorted
// ascending.
func (p *Parser) V9OptionsTemplateIds() []uint16 { return p.v9OptionsTemplates.Ids() }

// IPFIXTemplateIds returns the cached IPFIX data template ids, sorted
// ascending.
func (p *Parser) IPFIXTemplateIds() []uint16 { return p.ipfixTemplates.Ids() }

// IPFIXOptionsTemplateIds returns the cached IPFIX options template ids,
// sorted ascending.
func (p *Parser) IPFIXOptionsTemplateIds() []uint16 { return p.ipfixOptionsTemplates.Ids() }

// HasV9Template reports whether a v9 data or options template with the id is
// cached. The check does not touch LRU recency.
func (p *Parser) HasV9Template(id uint16) bool {
	if _, ok := p.v9Templates.Peek(id); ok {
		return true
	}
	_, ok := p.v9OptionsTemplates.Peek(id)
	return ok
}

// HasIPFIXTemplate reports whether an IPFIX data or options template with the
// id is cached. The check does not touch LRU recency.
func (p *Parser) HasIPFIXTemplate(id uint16) bool {
	if _, ok := p.ipfixTemplates.Peek(id); ok {
		return true
	}
	_, ok := p.ipfixOptionsTemplates.Peek(id)
	return ok
}

// ClearV9Templates drops all cached v9 templates, data and options.
func (p *Parser) ClearV9Templates() {
	p.v9Templates.Clear()
	p.v9OptionsTemplates.Clear()
}

// ClearIPFIXTemplates drops all cached IPFIX templates, data and options.
func (p *Parser) ClearIPFIXTemplates() {
	p.ipfixTemplates.Clear()
	p.ipfixOptionsTemplates.Clear()
}

// ClearAllTemplates drops the template state of all protocols.
func (p *Parser) ClearAllTemplates() {
	p.ClearV9Templates()
	p.ClearIPFIXTemplates()
}

// CacheStats returns the stats of all four template caches, keyed by cache
// name.
func (p *Parser) CacheStats() map[string]CacheStats {
	return map[string]CacheStats{
		p.v9Templates.Name():           p.v9Templates.Stats(),
		p.v9OptionsTemplates.Name():    p.v9OptionsTemplates.Stats(),
		p.ipfixTemplates.Name():        p.ipfixTemplates.Stats(),
		p.ipfixOptionsTemplates.Name(): p.ipfixOptionsTemplates.Stats(),
	}
}

// initMetrics touches the collectors so that scrapes see series immediately
// instead of after the first packet.
func (p *Parser) initMetrics() {
	for _, v := range []uint16{VersionV5, VersionV7, VersionV9, VersionIPFIX} {
		PacketsTotal.WithLabelValues(versionLabel(v)).Add(0)
	}
	ErrorsTotal.Add(0)
	DurationMicroseconds.Observe(0)
}

func versionLabel(v uint16) string {
	switch v {
	case VersionV5:
		return "5"
	case VersionV7:
		return "7"
	case VersionV9:
		return "9"
	case VersionIPFIX:
		return "10"
	}
	return "unknown"
}

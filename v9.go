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
	"io"
)

// V9Header is the fixed 20-byte NetFlow v9 packet header. Count announces the
// number of records (template and data) in the packet but is advisory only;
// the decoder walks the flowsets until the buffer is exhausted or the next
// packet begins, and uses Count merely to detect the boundary between chained
// packets.
type V9Header struct {
	Version        uint16 `json:"version"`
	Count          uint16 `json:"count"`
	SysUpTime      uint32 `json:"sys_up_time"`
	UnixSecs       uint32 `json:"unix_secs"`
	SequenceNumber uint32 `json:"sequence_number"`
	SourceId       uint32 `json:"source_id"`
}

// V9Packet is a decoded NetFlow v9 datagram: the header followed by template,
// options template and data flowsets in their wire order.
type V9Packet struct {
	Header   V9Header  `json:"header"`
	FlowSets []FlowSet `json:"flowsets"`
}

func (p *V9Packet) Version() uint16 { return VersionV9 }

// decodeV9 decodes one v9 packet starting at the cursor. raw is the full
// parse buffer; it provides the packet-start slice attached to
// MissingTemplateError for later retry.
//
// The returned error is the first non-fatal decode error of the packet
// (missing template, rejected template, malformed flowset); the packet itself
// is still returned and contains everything that could be decoded. A nil
// packet means the header itself was short.
func (p *Parser) decodeV9(ctx context.Context, c *cursor, raw []byte) (*V9Packet, error) {
	packetStart := c.offset()
	h, err := c.bytes(v9HeaderLength, "v9 header")
	if err != nil {
		return nil, err
	}
	pkt := &V9Packet{
		Header: V9Header{
			Version:        binary.BigEndian.Uint16(h[0:2]),
			Count:          binary.BigEndian.Uint16(h[2:4]),
			SysUpTime:      binary.BigEndian.Uint32(h[4:8]),
			UnixSecs:       binary.BigEndian.Uint32(h[8:12]),
			SequenceNumber: binary.BigEndian.Uint32(h[12:16]),
			SourceId:       binary.BigEndian.Uint32(h[16:20]),
		},
	}

	var firstErr error
	record := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
		ErrorsTotal.Inc()
	}

	records := 0
	for c.remaining() >= flowSetHeaderLength {
		if records >= int(pkt.Header.Count) {
			// the advisory count is satisfied; if the next word reads like a
			// packet header this is a chained packet, not another flowset
			if v, ok := c.peekUint16(); ok && isKnownVersion(v) {
				break
			}
		}

		id, _ := c.uint16("flowset id")
		length, _ := c.uint16("flowset length")
		if int(length) < flowSetHeaderLength {
			record(&ParseError{
				Offset:  c.offset() - 2,
				Context: "flowset header",
				Kind:    ParseErrorInvalidLength,
				Sample:  c.sample(p.opts.MaxErrorSampleSize),
			})
			return pkt, firstErr
		}
		body, err := c.sub(int(length)-flowSetHeaderLength, "flowset body")
		if err != nil {
			record(err)
			return pkt, firstErr
		}

		fs := FlowSet{Header: FlowSetHeader{Id: id, Length: length}}
		switch {
		case id == V9TemplateFlowSetId:
			fs.Kind = KindTemplateFlowSet
			p.decodeV9Templates(ctx, body, &fs, record)
		case id == V9OptionsTemplateFlowSetId:
			fs.Kind = KindOptionsTemplateFlowSet
			p.decodeV9OptionsTemplates(ctx, body, &fs, record)
		case id >= MinimumDataFlowSetId:
			p.decodeV9Data(ctx, body, &fs, raw[packetStart:], record)
		default:
			// ids 2..255 are reserved and unassigned; preserve the body so the
			// packet still re-encodes byte-exactly
			fs.Kind = KindMissingTemplateFlowSet
			fs.Raw = captureBytes(body.rest())
			fs.Padding = []byte{}
			record(&ParseError{
				Offset:  body.offset(),
				Context: "flowset id",
				Kind:    ParseErrorMalformedFlowSet,
				Sample:  body.sample(p.opts.MaxErrorSampleSize),
			})
		}
		DecodedFlowSets.WithLabelValues(fs.Kind).Inc()
		DecodedRecords.WithLabelValues(fs.Kind).Add(float64(len(fs.Records)))
		records += len(fs.Records) + len(fs.Templates)
		pkt.FlowSets = append(pkt.FlowSets, fs)
	}
	return pkt, firstErr
}

// decodeV9Templates walks the template records of flowset 0. A zero template
// id word ends the walk; whatever follows is padding.
func (p *Parser) decodeV9Templates(ctx context.Context, c *cursor, fs *FlowSet, record func(error)) {
	for c.remaining() >= flowSetHeaderLength {
		if id, ok := c.peekUint16(); ok && id == 0 {
			break
		}
		templateId, _ := c.uint16("template id")
		fieldCount, err := c.uint16("template field count")
		if err != nil {
			record(err)
			break
		}
		t := &Template{TemplateId: templateId, Kind: TemplateKindData}
		t.Fields = make([]FieldDescriptor, 0, fieldAllocHint(int(fieldCount), c))
		short := false
		resolved := true
		for i := 0; i < int(fieldCount); i++ {
			fieldType, err := c.uint16("template field type")
			if err != nil {
				record(err)
				short = true
				break
			}
			fieldLength, err := c.uint16("template field length")
			if err != nil {
				record(err)
				short = true
				break
			}
			spec, ok := resolveV9Field(fieldType, p.parseUnknown)
			if !ok {
				// field type outside the registry and unknown fields are
				// rejected; finish parsing the record so the flowset keeps
				// its shape, but do not cache the template
				resolved = false
				record(&ParseError{
					Offset:  c.offset() - 4,
					Context: "v9 template field",
					Kind:    ParseErrorUnknownField,
					Sample:  c.sample(p.opts.MaxErrorSampleSize),
				})
				spec, _ = resolveV9Field(fieldType, true)
			}
			t.Fields = append(t.Fields, FieldDescriptor{
				FieldType:   fieldType,
				FieldLength: fieldLength,
				Name:        spec.Name,
				DataType:    spec.Type,
			})
		}
		if short {
			break
		}
		fs.Templates = append(fs.Templates, t)
		if resolved {
			p.learnTemplate(ctx, t, p.v9Templates, TemplateProtocolV9, c, record)
		}
	}
	fs.Padding = captureBytes(c.rest())
}

// decodeV9OptionsTemplates walks the records of flowset 1. The scope and
// option lengths are declared in bytes; each entry is 4 bytes.
func (p *Parser) decodeV9OptionsTemplates(ctx context.Context, c *cursor, fs *FlowSet, record func(error)) {
	for c.remaining() >= 6 {
		if id, ok := c.peekUint16(); ok && id == 0 {
			break
		}
		templateId, _ := c.uint16("options template id")
		scopeLength, _ := c.uint16("option scope length")
		optionLength, err := c.uint16("option length")
		if err != nil {
			record(err)
			break
		}
		if scopeLength%4 != 0 || optionLength%4 != 0 {
			record(&ParseError{
				Offset:  c.offset(),
				Context: "options template lengths",
				Kind:    ParseErrorInvalidLength,
				Sample:  c.sample(p.opts.MaxErrorSampleSize),
			})
			break
		}
		scopeCount := int(scopeLength) / 4
		optionCount := int(optionLength) / 4

		t := &Template{
			TemplateId:      templateId,
			Kind:            TemplateKindOptions,
			ScopeFieldCount: uint16(scopeCount),
		}
		t.Fields = make([]FieldDescriptor, 0, fieldAllocHint(scopeCount+optionCount, c))
		short := false
		for i := 0; i < scopeCount+optionCount; i++ {
			fieldType, err := c.uint16("options template field type")
			if err != nil {
				record(err)
				short = true
				break
			}
			fieldLength, err := c.uint16("options template field length")
			if err != nil {
				record(err)
				short = true
				break
			}
			scope := i < scopeCount
			var spec fieldSpec
			if scope {
				spec = resolveV9ScopeField(fieldType)
			} else {
				spec, _ = resolveV9Field(fieldType, true)
			}
			t.Fields = append(t.Fields, FieldDescriptor{
				FieldType:   fieldType,
				FieldLength: fieldLength,
				Name:        spec.Name,
				DataType:    spec.Type,
				Scope:       scope,
			})
		}
		if short {
			break
		}
		fs.Templates = append(fs.Templates, t)
		p.learnTemplate(ctx, t, p.v9OptionsTemplates, TemplateProtocolV9, c, record)
	}
	fs.Padding = captureBytes(c.rest())
}

// decodeV9Data decodes a data flowset against the cached template. Data
// flowsets may reference options templates, in which case the records carry
// the scope fields first. packetRaw is the packet from its header onward; it
// becomes MissingTemplateError.RawData when no template matches.
func (p *Parser) decodeV9Data(ctx context.Context, c *cursor, fs *FlowSet, packetRaw []byte, record func(error)) {
	template, ok := p.v9Templates.Get(ctx, fs.Header.Id)
	if !ok {
		template, ok = p.v9OptionsTemplates.Get(ctx, fs.Header.Id)
	}
	if !ok {
		fs.Kind = KindMissingTemplateFlowSet
		fs.Raw = captureBytes(c.rest())
		fs.Padding = []byte{}
		p.hooks.trigger(TemplateEvent{Kind: TemplateMissing, TemplateId: fs.Header.Id, Protocol: TemplateProtocolV9})
		record(&MissingTemplateError{
			TemplateId:         fs.Header.Id,
			Protocol:           TemplateProtocolV9,
			AvailableTemplates: p.v9Templates.Ids(),
			RawData:            captureBytes(packetRaw),
		})
		return
	}
	fs.Kind = KindDataFlowSet
	records, padding, err := decodeDataRecords(c, template)
	fs.Records = records
	fs.Padding = padding
	if err != nil {
		record(err)
	}
	for i := range records {
		if records[i].Partial {
			record(&PartialError{Context: "v9 data record", DecodedFields: len(records[i].Fields)})
		}
	}
}

// learnTemplate validates a freshly parsed template and inserts it into the
// cache. Invalid templates stay attached to their flowset for inspection and
// round-tripping but are never cached.
func (p *Parser) learnTemplate(ctx context.Context, t *Template, cache TemplateCache, protocol TemplateProtocol, c *cursor, record func(error)) {
	if kind, ok := t.validate(p.opts.MaxFieldCount, p.opts.MaxTemplateTotalSize); !ok {
		record(&ParseError{
			Offset:  c.offset(),
			Context: protocol.String() + " template " + t.Kind.String(),
			Kind:    kind,
			Sample:  c.sample(p.opts.MaxErrorSampleSize),
		})
		return
	}
	cache.Add(ctx, t)
}

// Encode writes the packet in its wire form: flowset lengths are computed
// from the encoded content, and flowsets without captured padding are padded
// to 4-byte alignment.
func (p *V9Packet) Encode(w io.Writer) (int, error) {
	b := make([]byte, 0, 512)
	b = binary.BigEndian.AppendUint16(b, p.Header.Version)
	b = binary.BigEndian.AppendUint16(b, p.Header.Count)
	b = binary.BigEndian.AppendUint32(b, p.Header.SysUpTime)
	b = binary.BigEndian.AppendUint32(b, p.Header.UnixSecs)
	b = binary.BigEndian.AppendUint32(b, p.Header.SequenceNumber)
	b = binary.BigEndian.AppendUint32(b, p.Header.SourceId)

	var err error
	for i := range p.FlowSets {
		b, err = encodeFlowSet(b, &p.FlowSets[i], appendV9Template)
		if err != nil {
			return 0, err
		}
	}
	return w.Write(b)
}

// appendV9Template renders one template record of a v9 template or options
// template flowset.
func appendV9Template(dst []byte, t *Template) ([]byte, error) {
	dst = binary.BigEndian.AppendUint16(dst, t.TemplateId)
	if t.Kind == TemplateKindOptions {
		scope := int(t.ScopeFieldCount)
		dst = binary.BigEndian.AppendUint16(dst, uint16(scope*4))
		dst = binary.BigEndian.AppendUint16(dst, uint16((len(t.Fields)-scope)*4))
	} else {
		dst = binary.BigEndian.AppendUint16(dst, t.FieldCount())
	}
	for _, f := range t.Fields {
		dst = binary.BigEndian.AppendUint16(dst, f.FieldType)
		dst = binary.BigEndian.AppendUint16(dst, f.FieldLength)
	}
	return dst, nil
}

// fieldAllocHint bounds pre-allocation for a declared field count by the
// bytes actually present, so a crafted count cannot allocate unbounded
// memory before the short read surfaces.
func fieldAllocHint(declared int, c *cursor) int {
	if max := c.remaining() / 4; declared > max {
		return max
	}
	return declared
}

func isKnownVersion(v uint16) bool {
	switch v {
	case VersionV5, VersionV7, VersionV9, VersionIPFIX:
		return true
	}
	return false
}

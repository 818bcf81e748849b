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

// IPFIXHeader is the fixed 16-byte IPFIX message header. Unlike v9's advisory
// Count, Length is authoritative: it spans the entire message including the
// header, and the decoder never reads past it.
type IPFIXHeader struct {
	Version             uint16 `json:"version"`
	Length              uint16 `json:"length"`
	ExportTime          uint32 `json:"export_time"`
	SequenceNumber      uint32 `json:"sequence_number"`
	ObservationDomainId uint32 `json:"observation_domain_id"`
}

// IPFIXPacket is a decoded IPFIX message: the header followed by template,
// options template and data sets in their wire order. Sets reuse the FlowSet
// structure shared with v9.
type IPFIXPacket struct {
	Header   IPFIXHeader `json:"header"`
	FlowSets []FlowSet   `json:"flowsets"`
}

func (p *IPFIXPacket) Version() uint16 { return VersionIPFIX }

// decodeIPFIX decodes one IPFIX message starting at the cursor. raw is the
// full parse buffer, used for MissingTemplateError.RawData.
//
// Like decodeV9, the returned error is the first non-fatal decode error; the
// packet is returned alongside it. A nil packet means the header was short or
// its length field did not cover the header itself.
func (p *Parser) decodeIPFIX(ctx context.Context, c *cursor, raw []byte) (*IPFIXPacket, error) {
	packetStart := c.offset()
	h, err := c.bytes(ipfixHeaderLength, "ipfix header")
	if err != nil {
		return nil, err
	}
	pkt := &IPFIXPacket{
		Header: IPFIXHeader{
			Version:             binary.BigEndian.Uint16(h[0:2]),
			Length:              binary.BigEndian.Uint16(h[2:4]),
			ExportTime:          binary.BigEndian.Uint32(h[4:8]),
			SequenceNumber:      binary.BigEndian.Uint32(h[8:12]),
			ObservationDomainId: binary.BigEndian.Uint32(h[12:16]),
		},
	}
	if int(pkt.Header.Length) < ipfixHeaderLength {
		return nil, &ParseError{
			Offset:  packetStart + 2,
			Context: "ipfix header length",
			Kind:    ParseErrorInvalidLength,
			Sample:  c.sample(p.opts.MaxErrorSampleSize),
		}
	}
	body, err := c.sub(int(pkt.Header.Length)-ipfixHeaderLength, "ipfix message body")
	if err != nil {
		return nil, err
	}

	var firstErr error
	record := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
		ErrorsTotal.Inc()
	}

	for body.remaining() >= flowSetHeaderLength {
		id, _ := body.uint16("set id")
		length, _ := body.uint16("set length")
		if int(length) < flowSetHeaderLength {
			record(&ParseError{
				Offset:  body.offset() - 2,
				Context: "set header",
				Kind:    ParseErrorInvalidLength,
				Sample:  body.sample(p.opts.MaxErrorSampleSize),
			})
			return pkt, firstErr
		}
		set, err := body.sub(int(length)-flowSetHeaderLength, "set body")
		if err != nil {
			record(err)
			return pkt, firstErr
		}

		fs := FlowSet{Header: FlowSetHeader{Id: id, Length: length}}
		switch {
		case id == IPFIXTemplateSetId:
			fs.Kind = KindTemplateFlowSet
			p.decodeIPFIXTemplates(ctx, set, &fs, record)
		case id == IPFIXOptionsTemplateSetId:
			fs.Kind = KindOptionsTemplateFlowSet
			p.decodeIPFIXOptionsTemplates(ctx, set, &fs, record)
		case id >= MinimumDataFlowSetId:
			p.decodeIPFIXData(ctx, set, &fs, raw[packetStart:], record)
		default:
			fs.Kind = KindMissingTemplateFlowSet
			fs.Raw = captureBytes(set.rest())
			fs.Padding = []byte{}
			record(&ParseError{
				Offset:  set.offset(),
				Context: "set id",
				Kind:    ParseErrorMalformedFlowSet,
				Sample:  set.sample(p.opts.MaxErrorSampleSize),
			})
		}
		DecodedFlowSets.WithLabelValues(fs.Kind).Inc()
		DecodedRecords.WithLabelValues(fs.Kind).Add(float64(len(fs.Records)))
		pkt.FlowSets = append(pkt.FlowSets, fs)
	}
	return pkt, firstErr
}

// decodeIPFIXFieldSpecifier reads one field specifier: type and length, plus
// the private enterprise number when the type word carries the enterprise
// bit. resolved reports whether the field is known to one of the registries;
// an unresolved field still yields a usable descriptor with a synthetic name.
func (p *Parser) decodeIPFIXFieldSpecifier(c *cursor, scope bool, record func(error)) (desc FieldDescriptor, resolved bool, err error) {
	fieldType, err := c.uint16("field specifier type")
	if err != nil {
		return FieldDescriptor{}, false, err
	}
	fieldLength, err := c.uint16("field specifier length")
	if err != nil {
		return FieldDescriptor{}, false, err
	}
	var enterprise uint32
	if fieldType&enterpriseBit != 0 {
		fieldType &^= enterpriseBit
		enterprise, err = c.uint32("enterprise number")
		if err != nil {
			return FieldDescriptor{}, false, err
		}
	}
	spec, ok := resolveIPFIXField(enterprise, fieldType, p.registry, p.parseUnknown)
	if !ok {
		record(&ParseError{
			Offset:  c.offset(),
			Context: "ipfix field specifier",
			Kind:    ParseErrorUnknownField,
			Sample:  c.sample(p.opts.MaxErrorSampleSize),
		})
		spec, _ = resolveIPFIXField(enterprise, fieldType, p.registry, true)
	}
	return FieldDescriptor{
		FieldType:        fieldType,
		FieldLength:      fieldLength,
		EnterpriseNumber: enterprise,
		Name:             spec.Name,
		DataType:         spec.Type,
		Scope:            scope,
	}, ok, nil
}

// decodeIPFIXTemplates walks the template records of a template set. A zero
// template id word ends the walk; the remainder is padding.
func (p *Parser) decodeIPFIXTemplates(ctx context.Context, c *cursor, fs *FlowSet, record func(error)) {
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
			desc, ok, err := p.decodeIPFIXFieldSpecifier(c, false, record)
			if err != nil {
				record(err)
				short = true
				break
			}
			if !ok {
				resolved = false
			}
			t.Fields = append(t.Fields, desc)
		}
		if short {
			break
		}
		fs.Templates = append(fs.Templates, t)
		if resolved {
			p.learnTemplate(ctx, t, p.ipfixTemplates, TemplateProtocolIPFIX, c, record)
		}
	}
	fs.Padding = captureBytes(c.rest())
}

// decodeIPFIXOptionsTemplates walks the records of an options template set.
// Unlike v9, IPFIX declares field counts directly: a total field count
// followed by the scope field count.
func (p *Parser) decodeIPFIXOptionsTemplates(ctx context.Context, c *cursor, fs *FlowSet, record func(error)) {
	for c.remaining() >= 6 {
		if id, ok := c.peekUint16(); ok && id == 0 {
			break
		}
		templateId, _ := c.uint16("options template id")
		fieldCount, _ := c.uint16("options template field count")
		scopeCount, err := c.uint16("options template scope field count")
		if err != nil {
			record(err)
			break
		}
		t := &Template{
			TemplateId:      templateId,
			Kind:            TemplateKindOptions,
			ScopeFieldCount: scopeCount,
		}
		t.Fields = make([]FieldDescriptor, 0, fieldAllocHint(int(fieldCount), c))
		short := false
		resolved := true
		for i := 0; i < int(fieldCount); i++ {
			desc, ok, err := p.decodeIPFIXFieldSpecifier(c, i < int(scopeCount), record)
			if err != nil {
				record(err)
				short = true
				break
			}
			if !ok {
				resolved = false
			}
			t.Fields = append(t.Fields, desc)
		}
		if short {
			break
		}
		fs.Templates = append(fs.Templates, t)
		if resolved {
			p.learnTemplate(ctx, t, p.ipfixOptionsTemplates, TemplateProtocolIPFIX, c, record)
		}
	}
	fs.Padding = captureBytes(c.rest())
}

// decodeIPFIXData decodes a data set against the cached template, falling
// back to the options template cache.
func (p *Parser) decodeIPFIXData(ctx context.Context, c *cursor, fs *FlowSet, packetRaw []byte, record func(error)) {
	template, ok := p.ipfixTemplates.Get(ctx, fs.Header.Id)
	if !ok {
		template, ok = p.ipfixOptionsTemplates.Get(ctx, fs.Header.Id)
	}
	if !ok {
		fs.Kind = KindMissingTemplateFlowSet
		fs.Raw = captureBytes(c.rest())
		fs.Padding = []byte{}
		p.hooks.trigger(TemplateEvent{Kind: TemplateMissing, TemplateId: fs.Header.Id, Protocol: TemplateProtocolIPFIX})
		record(&MissingTemplateError{
			TemplateId:         fs.Header.Id,
			Protocol:           TemplateProtocolIPFIX,
			AvailableTemplates: p.ipfixTemplates.Ids(),
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
			record(&PartialError{Context: "ipfix data record", DecodedFields: len(records[i].Fields)})
		}
	}
}

// Encode writes the message in its wire form. The header's Length field is
// recomputed from the encoded sets and back-patched, so synthesized packets
// need not precompute it.
func (p *IPFIXPacket) Encode(w io.Writer) (int, error) {
	b := make([]byte, 0, 512)
	b = binary.BigEndian.AppendUint16(b, p.Header.Version)
	b = binary.BigEndian.AppendUint16(b, 0) // total length, patched below
	b = binary.BigEndian.AppendUint32(b, p.Header.ExportTime)
	b = binary.BigEndian.AppendUint32(b, p.Header.SequenceNumber)
	b = binary.BigEndian.AppendUint32(b, p.Header.ObservationDomainId)

	var err error
	for i := range p.FlowSets {
		b, err = encodeFlowSet(b, &p.FlowSets[i], appendIPFIXTemplate)
		if err != nil {
			return 0, err
		}
	}
	binary.BigEndian.PutUint16(b[2:4], uint16(len(b)))
	return w.Write(b)
}

// appendIPFIXTemplate renders one template record of a template or options
// template set, emitting the enterprise bit and PEN for enterprise fields.
func appendIPFIXTemplate(dst []byte, t *Template) ([]byte, error) {
	dst = binary.BigEndian.AppendUint16(dst, t.TemplateId)
	dst = binary.BigEndian.AppendUint16(dst, t.FieldCount())
	if t.Kind == TemplateKindOptions {
		dst = binary.BigEndian.AppendUint16(dst, t.ScopeFieldCount)
	}
	for _, f := range t.Fields {
		fieldType := f.FieldType
		if f.EnterpriseNumber != 0 {
			fieldType |= enterpriseBit
		}
		dst = binary.BigEndian.AppendUint16(dst, fieldType)
		dst = binary.BigEndian.AppendUint16(dst, f.FieldLength)
		if f.EnterpriseNumber != 0 {
			dst = binary.BigEndian.AppendUint32(dst, f.EnterpriseNumber)
		}
	}
	return dst, nil
}

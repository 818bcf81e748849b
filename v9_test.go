package netflow

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"
)

// v9Header renders a 20-byte v9 packet header.
func v9Header(count uint16, sequence, sourceId uint32) []byte {
	return []byte{
		0x00, 0x09,
		byte(count >> 8), byte(count),
		0x00, 0x00, 0x00, 0x00, // sys_up_time
		0x65, 0x00, 0x00, 0x00, // unix_secs
		byte(sequence >> 24), byte(sequence >> 16), byte(sequence >> 8), byte(sequence),
		byte(sourceId >> 24), byte(sourceId >> 16), byte(sourceId >> 8), byte(sourceId),
	}
}

// v9TemplateFlowSet announces template 256 with sourceIPv4, destinationIPv4
// and protocol fields.
func v9TemplateFlowSet() []byte {
	return []byte{
		0x00, 0x00, // flowset id 0
		0x00, 0x14, // length 20
		0x01, 0x00, // template id 256
		0x00, 0x03, // field count
		0x00, 0x08, 0x00, 0x04, // ipv4 src addr
		0x00, 0x0c, 0x00, 0x04, // ipv4 dst addr
		0x00, 0x04, 0x00, 0x01, // protocol
	}
}

// v9DataFlowSet carries two records for template 256: 9 bytes each plus two
// bytes of alignment padding.
func v9DataFlowSet() []byte {
	return []byte{
		0x01, 0x00, // flowset id 256
		0x00, 0x18, // length 24
		0x0a, 0x00, 0x00, 0x01, 0x0a, 0x00, 0x00, 0x02, 0x06, // 10.0.0.1 -> 10.0.0.2 TCP
		0xc0, 0xa8, 0x01, 0x01, 0xc0, 0xa8, 0x01, 0x02, 0x11, // 192.168.1.1 -> 192.168.1.2 UDP
		0x00, 0x00, // padding
	}
}

func TestV9TemplateAndData(t *testing.T) {
	input := append(v9Header(3, 1, 5), v9TemplateFlowSet()...)
	input = append(input, v9DataFlowSet()...)

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if len(result.Packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(result.Packets))
	}
	pkt := result.Packets[0].(*V9Packet)
	if pkt.Header.SourceId != 5 {
		t.Errorf("source_id: want 5, got %d", pkt.Header.SourceId)
	}
	if len(pkt.FlowSets) != 2 {
		t.Fatalf("expected 2 flowsets, got %d", len(pkt.FlowSets))
	}

	tfs := pkt.FlowSets[0]
	if tfs.Kind != KindTemplateFlowSet || len(tfs.Templates) != 1 {
		t.Fatalf("unexpected template flowset: kind=%s templates=%d", tfs.Kind, len(tfs.Templates))
	}
	if tfs.Templates[0].TemplateId != 256 || tfs.Templates[0].FieldCount() != 3 {
		t.Errorf("unexpected template: %+v", tfs.Templates[0])
	}

	dfs := pkt.FlowSets[1]
	if dfs.Kind != KindDataFlowSet {
		t.Fatalf("expected data flowset, got %s", dfs.Kind)
	}
	if len(dfs.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(dfs.Records))
	}

	src, ok := dfs.Records[0].Lookup(PenIANA, V9FieldIPv4SrcAddr)
	if !ok {
		t.Fatal("record 0 has no source address")
	}
	if v := src.(*IPv4AddressValue).Value; v != netip.MustParseAddr("10.0.0.1") {
		t.Errorf("record 0 src: want 10.0.0.1, got %s", v)
	}
	proto, ok := dfs.Records[1].Lookup(PenIANA, V9FieldProtocol)
	if !ok {
		t.Fatal("record 1 has no protocol")
	}
	if v := proto.(*ProtocolValue); v.Number != 17 || v.Name() != "UDP" {
		t.Errorf("record 1 protocol: want 17/UDP, got %d/%s", v.Number, v.Name())
	}

	if !parser.HasV9Template(256) {
		t.Error("template 256 should be cached")
	}
	if ids := parser.V9TemplateIds(); len(ids) != 1 || ids[0] != 256 {
		t.Errorf("unexpected template ids: %v", ids)
	}
}

func TestV9RoundTrip(t *testing.T) {
	input := append(v9Header(3, 1, 5), v9TemplateFlowSet()...)
	input = append(input, v9DataFlowSet()...)

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}

	var buf bytes.Buffer
	if _, err := result.Packets[0].Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), input) {
		t.Errorf("encoded bytes differ from input\nwant %x\ngot  %x", input, buf.Bytes())
	}
}

func TestV9MissingTemplateRetry(t *testing.T) {
	dataPacket := append(v9Header(2, 2, 5), v9DataFlowSet()...)
	templatePacket := append(v9Header(1, 1, 5), v9TemplateFlowSet()...)

	parser := NewParser()

	// data arrives before its template
	result := parser.ParseBytes(context.TODO(), dataPacket)
	if !errors.Is(result.Error, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", result.Error)
	}
	if len(result.Packets) != 1 {
		t.Fatalf("packet should still be returned, got %d packets", len(result.Packets))
	}
	fs := result.Packets[0].(*V9Packet).FlowSets[0]
	if fs.Kind != KindMissingTemplateFlowSet {
		t.Errorf("expected missing template flowset, got %s", fs.Kind)
	}

	var missing *MissingTemplateError
	if !errors.As(result.Error, &missing) {
		t.Fatalf("expected *MissingTemplateError, got %T", result.Error)
	}
	if missing.TemplateId != 256 {
		t.Errorf("template id: want 256, got %d", missing.TemplateId)
	}
	if !bytes.Equal(missing.RawData, dataPacket) {
		t.Errorf("RawData should hold the packet from its header onward")
	}

	// template arrives, retry the buffered raw data
	if result := parser.ParseBytes(context.TODO(), templatePacket); result.Error != nil {
		t.Fatalf("template packet: %v", result.Error)
	}
	retry := parser.ParseBytes(context.TODO(), missing.RawData)
	if retry.Error != nil {
		t.Fatalf("retry: %v", retry.Error)
	}
	fs = retry.Packets[0].(*V9Packet).FlowSets[0]
	if fs.Kind != KindDataFlowSet || len(fs.Records) != 2 {
		t.Errorf("retry should decode 2 records, got kind=%s records=%d", fs.Kind, len(fs.Records))
	}
}

func TestV9MissingTemplateRoundTrip(t *testing.T) {
	input := append(v9Header(2, 2, 5), v9DataFlowSet()...)

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if len(result.Packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(result.Packets))
	}

	// even undecodable flowsets re-encode byte-exactly
	var buf bytes.Buffer
	if _, err := result.Packets[0].Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), input) {
		t.Errorf("encoded bytes differ from input\nwant %x\ngot  %x", input, buf.Bytes())
	}
}

func TestV9OptionsTemplate(t *testing.T) {
	input := append(v9Header(2, 1, 5),
		// options template flowset
		0x00, 0x01, // flowset id 1
		0x00, 0x18, // length 24
		0x01, 0x01, // template id 257
		0x00, 0x04, // option scope length (bytes)
		0x00, 0x08, // option length (bytes)
		0x00, 0x01, 0x00, 0x04, // scope: system
		0x00, 0x22, 0x00, 0x04, // sampling interval
		0x00, 0x24, 0x00, 0x02, // flow active timeout
		0x00, 0x00, // padding
	)
	input = append(input,
		// data flowset for the options template
		0x01, 0x01, // flowset id 257
		0x00, 0x10, // length 16
		0x00, 0x00, 0x00, 0x01, // scope value
		0x00, 0x00, 0x03, 0xe8, // sampling interval 1000
		0x00, 0x3c, // timeout 60
		0x00, 0x00, // padding
	)

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	pkt := result.Packets[0].(*V9Packet)
	if len(pkt.FlowSets) != 2 {
		t.Fatalf("expected 2 flowsets, got %d", len(pkt.FlowSets))
	}

	ots := pkt.FlowSets[0]
	if ots.Kind != KindOptionsTemplateFlowSet || len(ots.Templates) != 1 {
		t.Fatalf("unexpected options template flowset: kind=%s templates=%d", ots.Kind, len(ots.Templates))
	}
	tmpl := ots.Templates[0]
	if tmpl.Kind != TemplateKindOptions || tmpl.ScopeFieldCount != 1 || tmpl.FieldCount() != 3 {
		t.Errorf("unexpected options template: %+v", tmpl)
	}

	dfs := pkt.FlowSets[1]
	if dfs.Kind != KindDataFlowSet || len(dfs.Records) != 1 {
		t.Fatalf("unexpected data flowset: kind=%s records=%d", dfs.Kind, len(dfs.Records))
	}
	fields := dfs.Records[0].Fields
	if !fields[0].Descriptor.Scope || fields[0].Descriptor.Name != "scope_system" {
		t.Errorf("first field should be the system scope, got %+v", fields[0].Descriptor)
	}
	if v := fields[1].Value.(*UnsignedValue); v.Value != 1000 {
		t.Errorf("sampling interval: want 1000, got %d", v.Value)
	}
	if v := fields[2].Value.(*DurationValue); v.Duration() != 60*time.Second {
		t.Errorf("flow active timeout: want 60s, got %s", v.Duration())
	}

	var buf bytes.Buffer
	if _, err := result.Packets[0].Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), input) {
		t.Errorf("encoded bytes differ from input\nwant %x\ngot  %x", input, buf.Bytes())
	}
}

func TestV9TemplateRefreshAndCollision(t *testing.T) {
	templatePacket := append(v9Header(1, 1, 5), v9TemplateFlowSet()...)

	parser := NewParser()
	parser.ParseBytes(context.TODO(), templatePacket)
	parser.ParseBytes(context.TODO(), templatePacket)

	stats := parser.CacheStats()["v9_templates"]
	if stats.Metrics.Insertions != 1 || stats.Metrics.Refreshes != 1 || stats.Metrics.Collisions != 0 {
		t.Errorf("after refresh: %+v", stats.Metrics)
	}

	// same id, different field list
	conflicting := append(v9Header(1, 2, 5),
		0x00, 0x00, // flowset id 0
		0x00, 0x10, // length 16
		0x01, 0x00, // template id 256
		0x00, 0x02, // field count
		0x00, 0x07, 0x00, 0x02, // l4 src port
		0x00, 0x0b, 0x00, 0x02, // l4 dst port
	)
	parser.ParseBytes(context.TODO(), conflicting)

	stats = parser.CacheStats()["v9_templates"]
	if stats.Metrics.Collisions != 1 {
		t.Errorf("expected 1 collision, got %+v", stats.Metrics)
	}

	// the replacement template governs subsequent data
	tmpl, ok := parser.v9Templates.Peek(256)
	if !ok {
		t.Fatal("template 256 should still be cached")
	}
	if tmpl.FieldCount() != 2 {
		t.Errorf("expected the conflicting template to win, got %d fields", tmpl.FieldCount())
	}
}

func TestV9InvalidTemplateId(t *testing.T) {
	input := append(v9Header(1, 1, 5),
		0x00, 0x00, // flowset id 0
		0x00, 0x0c, // length 12
		0x00, 0x64, // template id 100, below the data flowset range
		0x00, 0x01, // field count
		0x00, 0x08, 0x00, 0x04,
	)

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if !errors.Is(result.Error, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", result.Error)
	}
	var parseErr *ParseError
	if !errors.As(result.Error, &parseErr) || parseErr.Kind != ParseErrorTemplateId {
		t.Errorf("expected template_id parse error, got %v", result.Error)
	}
	if parser.HasV9Template(100) {
		t.Error("invalid template must not be cached")
	}
}

func TestV9ZeroLengthTemplateField(t *testing.T) {
	// a zero-width fixed field would decode records without consuming input
	input := append(v9Header(1, 1, 5),
		0x00, 0x00, // flowset id 0
		0x00, 0x10, // length 16
		0x01, 0x00, // template id 256
		0x00, 0x02, // field count
		0x00, 0x08, 0x00, 0x04,
		0x00, 0x04, 0x00, 0x00, // protocol with declared length 0
	)

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if !errors.Is(result.Error, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", result.Error)
	}
	var parseErr *ParseError
	if !errors.As(result.Error, &parseErr) || parseErr.Kind != ParseErrorIllegalFieldLength {
		t.Errorf("expected illegal_field_length parse error, got %v", result.Error)
	}
	if parser.HasV9Template(256) {
		t.Error("invalid template must not be cached")
	}
}

func TestV9RejectUnknownFields(t *testing.T) {
	input := append(v9Header(1, 1, 5),
		0x00, 0x00, // flowset id 0
		0x00, 0x0c, // length 12
		0x01, 0x00, // template id 256
		0x00, 0x01, // field count
		0x03, 0xe7, 0x00, 0x04, // field type 999, outside the registry
	)

	parser := NewParser(ParserOptions{RejectUnknownFields: true})
	result := parser.ParseBytes(context.TODO(), input)
	var parseErr *ParseError
	if !errors.As(result.Error, &parseErr) || parseErr.Kind != ParseErrorUnknownField {
		t.Fatalf("expected unknown_field parse error, got %v", result.Error)
	}
	if parser.HasV9Template(256) {
		t.Error("unresolved template must not be cached")
	}

	// the default decodes unknown fields as octet arrays under a synthetic name
	parser = NewParser()
	if result := parser.ParseBytes(context.TODO(), input); result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	tmpl, ok := parser.v9Templates.Peek(256)
	if !ok {
		t.Fatal("template should be cached")
	}
	if tmpl.Fields[0].Name != "field_999" || tmpl.Fields[0].DataType != TypeOctetArray {
		t.Errorf("unexpected fallback descriptor: %+v", tmpl.Fields[0])
	}
}

func TestV9ChainedPackets(t *testing.T) {
	buf := append(v9Header(1, 1, 5), v9TemplateFlowSet()...)
	buf = append(buf, v9Header(2, 2, 5)...)
	buf = append(buf, v9DataFlowSet()...)

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), buf)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if len(result.Packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(result.Packets))
	}
	dfs := result.Packets[1].(*V9Packet).FlowSets[0]
	if dfs.Kind != KindDataFlowSet || len(dfs.Records) != 2 {
		t.Errorf("second packet should decode against the first packet's template, got kind=%s records=%d", dfs.Kind, len(dfs.Records))
	}
}

func TestV9SynthesizedFlowSetPadding(t *testing.T) {
	// a hand-built packet has no captured padding; Encode must align the
	// flowset to 4 bytes on its own
	pkt := &V9Packet{
		Header: V9Header{Version: 9, Count: 1},
		FlowSets: []FlowSet{{
			Header: FlowSetHeader{Id: 256},
			Kind:   KindDataFlowSet,
			Records: []DataRecord{{Fields: []DataField{
				{
					Descriptor: FieldDescriptor{FieldType: V9FieldIPv4SrcAddr, FieldLength: 4, DataType: TypeIPv4Address},
					Value:      &IPv4AddressValue{Value: netip.MustParseAddr("10.0.0.1")},
				},
				{
					Descriptor: FieldDescriptor{FieldType: V9FieldIPv4DstAddr, FieldLength: 4, DataType: TypeIPv4Address},
					Value:      &IPv4AddressValue{Value: netip.MustParseAddr("10.0.0.2")},
				},
				{
					Descriptor: FieldDescriptor{FieldType: V9FieldProtocol, FieldLength: 1, DataType: TypeProtocol},
					Value:      &ProtocolValue{Number: 6},
				},
			}}},
		}},
	}

	var buf bytes.Buffer
	if _, err := pkt.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := buf.Bytes()

	// 20-byte header, 4-byte flowset header, 9 record bytes, 3 pad bytes
	if len(out) != 36 {
		t.Fatalf("expected 36 bytes, got %d", len(out))
	}
	declared := uint16(out[22])<<8 | uint16(out[23])
	if declared != 16 {
		t.Errorf("declared flowset length should include padding: want 16, got %d", declared)
	}
	if declared%4 != 0 {
		t.Errorf("flowset length %d is not 4-byte aligned", declared)
	}
	if !bytes.Equal(out[33:36], []byte{0, 0, 0}) {
		t.Errorf("padding bytes should be zero, got %x", out[33:36])
	}
}

func TestV9Common(t *testing.T) {
	input := append(v9Header(3, 1, 5), v9TemplateFlowSet()...)
	input = append(input, v9DataFlowSet()...)

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}

	common := Common(result.Packets[0])
	if common.Version != 9 {
		t.Errorf("unexpected version %d", common.Version)
	}
	if len(common.Flows) != 2 {
		t.Fatalf("expected 2 common records, got %d", len(common.Flows))
	}
	if common.Flows[0].SrcAddr != netip.MustParseAddr("10.0.0.1") || common.Flows[0].Protocol != 6 {
		t.Errorf("unexpected first record: %+v", common.Flows[0])
	}
	if common.Flows[1].DstAddr != netip.MustParseAddr("192.168.1.2") || common.Flows[1].ProtocolName != "UDP" {
		t.Errorf("unexpected second record: %+v", common.Flows[1])
	}
}

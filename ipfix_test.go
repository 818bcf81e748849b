package netflow

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

// ipfixMessage assembles a message from sets and patches the total length.
func ipfixMessage(domain uint32, sets ...[]byte) []byte {
	b := []byte{
		0x00, 0x0a,
		0x00, 0x00, // total length, patched below
		0x65, 0x00, 0x00, 0x00, // export time
		0x00, 0x00, 0x00, 0x01, // sequence
		0x00, 0x00, 0x00, 0x00, // observation domain id
	}
	binary.BigEndian.PutUint32(b[12:16], domain)
	for _, set := range sets {
		b = append(b, set...)
	}
	binary.BigEndian.PutUint16(b[2:4], uint16(len(b)))
	return b
}

func TestIPFIXVariableLengthField(t *testing.T) {
	value := strings.Repeat("a", 300)

	templateSet := []byte{
		0x00, 0x02, // set id 2
		0x00, 0x0c, // length 12
		0x01, 0x00, // template id 256
		0x00, 0x01, // field count
		0x00, 0x53, // interfaceDescription
		0xff, 0xff, // variable length
	}
	dataSet := []byte{
		0x01, 0x00, // set id 256
		0x01, 0x33, // length 307
		0xff,       // long form indicator
		0x01, 0x2c, // 300 bytes
	}
	dataSet = append(dataSet, []byte(value)...)

	input := ipfixMessage(7, templateSet, dataSet)
	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if len(result.Packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(result.Packets))
	}
	pkt := result.Packets[0].(*IPFIXPacket)
	if pkt.Header.ObservationDomainId != 7 {
		t.Errorf("observation domain: want 7, got %d", pkt.Header.ObservationDomainId)
	}

	dfs := pkt.FlowSets[1]
	if dfs.Kind != KindDataFlowSet || len(dfs.Records) != 1 {
		t.Fatalf("unexpected data set: kind=%s records=%d", dfs.Kind, len(dfs.Records))
	}
	v, ok := dfs.Records[0].Fields[0].Value.(*StringValue)
	if !ok {
		t.Fatalf("expected *StringValue, got %T", dfs.Records[0].Fields[0].Value)
	}
	if v.Value != value {
		t.Errorf("string value: want %d bytes of 'a', got %d bytes", len(value), len(v.Value))
	}

	var buf bytes.Buffer
	if _, err := result.Packets[0].Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), input) {
		t.Errorf("encoded bytes differ from input")
	}
}

func TestIPFIXShortVariableLengthField(t *testing.T) {
	templateSet := []byte{
		0x00, 0x02, 0x00, 0x0c,
		0x01, 0x00, 0x00, 0x01,
		0x00, 0x52, // interfaceName
		0xff, 0xff,
	}
	dataSet := append([]byte{
		0x01, 0x00, 0x00, 0x09, // length 4+1+4
		0x04, // short form length
	}, []byte("eth0")...)

	input := ipfixMessage(1, templateSet, dataSet)
	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	dfs := result.Packets[0].(*IPFIXPacket).FlowSets[1]
	if v := dfs.Records[0].Fields[0].Value.(*StringValue); v.Value != "eth0" {
		t.Errorf("want eth0, got %q", v.Value)
	}
}

func TestIPFIXEnterpriseField(t *testing.T) {
	templateSet := []byte{
		0x00, 0x02, // set id 2
		0x00, 0x10, // length 16
		0x01, 0x01, // template id 257
		0x00, 0x01, // field count
		0xaf, 0xcb, // enterprise bit | 12235 (applicationHttpHost)
		0x00, 0x14, // length 20
		0x00, 0x00, 0x00, 0x09, // PEN 9 (Cisco)
	}
	host := make([]byte, 20)
	copy(host, "example.com")
	dataSet := append([]byte{0x01, 0x01, 0x00, 0x18}, host...)

	input := ipfixMessage(1, templateSet, dataSet)
	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	pkt := result.Packets[0].(*IPFIXPacket)

	tmpl := pkt.FlowSets[0].Templates[0]
	desc := tmpl.Fields[0]
	if desc.EnterpriseNumber != PenCisco || desc.FieldType != 12235 {
		t.Errorf("unexpected descriptor: %+v", desc)
	}
	if desc.Name != "applicationHttpHost" || desc.DataType != TypeString {
		t.Errorf("descriptor should resolve against the built-in Cisco registry, got %+v", desc)
	}

	v, ok := pkt.FlowSets[1].Records[0].Lookup(PenCisco, 12235)
	if !ok {
		t.Fatal("enterprise field missing from record")
	}
	if v.(*StringValue).Value != "example.com" {
		t.Errorf("want example.com, got %q", v.(*StringValue).Value)
	}

	var buf bytes.Buffer
	if _, err := result.Packets[0].Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), input) {
		t.Errorf("encoded bytes differ from input")
	}
}

func TestIPFIXCallerRegisteredEnterpriseField(t *testing.T) {
	templateSet := []byte{
		0x00, 0x02, 0x00, 0x10,
		0x01, 0x00, 0x00, 0x01,
		0x80, 0x2a, // enterprise bit | 42
		0x00, 0x02,
		0x00, 0x00, 0xff, 0x00, // PEN 65280
	}
	dataSet := []byte{0x01, 0x00, 0x00, 0x06, 0x12, 0x34}

	parser := NewParser(ParserOptions{
		EnterpriseFields: []EnterpriseFieldDef{
			{EnterpriseNumber: 65280, FieldNumber: 42, Name: "customCounter", DataType: TypeUnsigned},
		},
	})
	result := parser.ParseBytes(context.TODO(), ipfixMessage(1, templateSet, dataSet))
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	pkt := result.Packets[0].(*IPFIXPacket)
	desc := pkt.FlowSets[0].Templates[0].Fields[0]
	if desc.Name != "customCounter" || desc.DataType != TypeUnsigned {
		t.Errorf("caller registry should resolve the field, got %+v", desc)
	}
	if v := pkt.FlowSets[1].Records[0].Fields[0].Value.(*UnsignedValue); v.Value != 0x1234 {
		t.Errorf("want 0x1234, got %#x", v.Value)
	}
}

func TestIPFIXDuplicateFieldRejected(t *testing.T) {
	templateSet := []byte{
		0x00, 0x02, 0x00, 0x10,
		0x01, 0x00, 0x00, 0x02,
		0x00, 0x08, 0x00, 0x04, // sourceIPv4Address
		0x00, 0x08, 0x00, 0x04, // duplicate
	}

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), ipfixMessage(1, templateSet))
	if !errors.Is(result.Error, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", result.Error)
	}
	var parseErr *ParseError
	if !errors.As(result.Error, &parseErr) || parseErr.Kind != ParseErrorDuplicateField {
		t.Errorf("expected duplicate_field, got %v", result.Error)
	}
	if parser.HasIPFIXTemplate(256) {
		t.Error("duplicate-field template must not be cached")
	}
}

func TestIPFIXFieldCountBound(t *testing.T) {
	templateSet := []byte{
		0x00, 0x02, 0x00, 0x14,
		0x01, 0x00, 0x00, 0x03,
		0x00, 0x08, 0x00, 0x04,
		0x00, 0x0c, 0x00, 0x04,
		0x00, 0x04, 0x00, 0x01,
	}

	parser := NewParser(ParserOptions{MaxFieldCount: 2})
	result := parser.ParseBytes(context.TODO(), ipfixMessage(1, templateSet))
	var parseErr *ParseError
	if !errors.As(result.Error, &parseErr) || parseErr.Kind != ParseErrorFieldCount {
		t.Fatalf("expected field_count parse error, got %v", result.Error)
	}
	if parser.HasIPFIXTemplate(256) {
		t.Error("oversized template must not be cached")
	}
}

func TestIPFIXHugeFieldCountTruncated(t *testing.T) {
	// a template declaring 65535 fields backed by 8 bytes must fail cleanly
	// instead of allocating for the declared count
	templateSet := []byte{
		0x00, 0x02, 0x00, 0x10,
		0x01, 0x00, 0xff, 0xff,
		0x00, 0x08, 0x00, 0x04,
		0x00, 0x0c, 0x00, 0x04,
	}

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), ipfixMessage(1, templateSet))
	if !errors.Is(result.Error, ErrIncompleteData) {
		t.Fatalf("expected ErrIncompleteData, got %v", result.Error)
	}
	if parser.HasIPFIXTemplate(256) {
		t.Error("truncated template must not be cached")
	}
}

func TestIPFIXOptionsTemplate(t *testing.T) {
	optionsSet := []byte{
		0x00, 0x03, // set id 3
		0x00, 0x14, // length 20
		0x01, 0x02, // template id 258
		0x00, 0x02, // field count
		0x00, 0x01, // scope field count
		0x00, 0x95, 0x00, 0x04, // scope: observationDomainId
		0x00, 0x29, 0x00, 0x08, // exportedMessageTotalCount
		0x00, 0x00, // padding
	}
	dataSet := []byte{
		0x01, 0x02, 0x00, 0x10,
		0x00, 0x00, 0x00, 0x07,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
	}

	input := ipfixMessage(7, optionsSet, dataSet)
	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	pkt := result.Packets[0].(*IPFIXPacket)

	tmpl := pkt.FlowSets[0].Templates[0]
	if tmpl.Kind != TemplateKindOptions || tmpl.ScopeFieldCount != 1 {
		t.Fatalf("unexpected options template: %+v", tmpl)
	}
	fields := pkt.FlowSets[1].Records[0].Fields
	if !fields[0].Descriptor.Scope || fields[1].Descriptor.Scope {
		t.Errorf("scope flags wrong: %+v", fields)
	}
	if v := fields[1].Value.(*UnsignedValue); v.Value != 256 {
		t.Errorf("want 256 exported messages, got %d", v.Value)
	}

	var buf bytes.Buffer
	if _, err := result.Packets[0].Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), input) {
		t.Errorf("encoded bytes differ from input")
	}
}

func TestIPFIXLengthBoundsTrailingData(t *testing.T) {
	// bytes after the declared message length belong to the next packet; an
	// unsupported version word there must not corrupt the first message
	templateSet := []byte{
		0x00, 0x02, 0x00, 0x0c,
		0x01, 0x00, 0x00, 0x01,
		0x00, 0x08, 0x00, 0x04,
	}
	input := append(ipfixMessage(1, templateSet), 0x00, 0x63, 0x00, 0x00)

	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if len(result.Packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(result.Packets))
	}
	if !errors.Is(result.Error, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion for the trailing bytes, got %v", result.Error)
	}
}

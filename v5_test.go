package netflow

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"testing"
)

// v5Packet returns a well-formed v5 datagram with a single record.
func v5Packet() []byte {
	return []byte{
		// header
		0x00, 0x05, // version
		0x00, 0x01, // count
		0x00, 0x00, 0x00, 0x01, // sys_up_time
		0x00, 0x00, 0x00, 0x02, // unix_secs
		0x00, 0x00, 0x00, 0x03, // unix_nsecs
		0x00, 0x00, 0x00, 0x04, // flow_sequence
		0x01,       // engine_type
		0x02,       // engine_id
		0x00, 0x09, // sampling_interval
		// record
		0x00, 0x01, 0x02, 0x03, // src_addr
		0x04, 0x05, 0x06, 0x07, // dst_addr
		0x08, 0x09, 0x00, 0x01, // next_hop
		0x00, 0x0a, // input
		0x00, 0x14, // output
		0x00, 0x00, 0x00, 0x64, // d_pkts
		0x00, 0x00, 0x01, 0x2c, // d_octets
		0x00, 0x00, 0x00, 0x01, // first
		0x00, 0x00, 0x00, 0x02, // last
		0x02, 0x03, // src_port
		0x04, 0x05, // dst_port
		0x00,       // pad1
		0x06,       // tcp_flags
		0x08,       // protocol
		0x00,       // tos
		0x00, 0x01, // src_as
		0x00, 0x02, // dst_as
		0x18,       // src_mask
		0x18,       // dst_mask
		0x00, 0x00, // pad2
	}
}

func TestV5Decode(t *testing.T) {
	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), v5Packet())
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if len(result.Packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(result.Packets))
	}
	pkt, ok := result.Packets[0].(*V5Packet)
	if !ok {
		t.Fatalf("expected *V5Packet, got %T", result.Packets[0])
	}
	if pkt.Header.Version != 5 || pkt.Header.Count != 1 {
		t.Errorf("unexpected header: %+v", pkt.Header)
	}
	if pkt.Header.SamplingInterval != 9 {
		t.Errorf("expected sampling interval 9, got %d", pkt.Header.SamplingInterval)
	}
	if len(pkt.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(pkt.Records))
	}

	r := pkt.Records[0]
	if want := netip.MustParseAddr("0.1.2.3"); r.SrcAddr != want {
		t.Errorf("src_addr: want %s, got %s", want, r.SrcAddr)
	}
	if want := netip.MustParseAddr("4.5.6.7"); r.DstAddr != want {
		t.Errorf("dst_addr: want %s, got %s", want, r.DstAddr)
	}
	if want := netip.MustParseAddr("8.9.0.1"); r.NextHop != want {
		t.Errorf("next_hop: want %s, got %s", want, r.NextHop)
	}
	if r.SrcPort != 515 || r.DstPort != 1029 {
		t.Errorf("ports: want 515/1029, got %d/%d", r.SrcPort, r.DstPort)
	}
	if r.Protocol != 8 {
		t.Errorf("protocol: want 8, got %d", r.Protocol)
	}
	if r.ProtocolName() != "EGP" {
		t.Errorf("protocol name: want EGP, got %s", r.ProtocolName())
	}
}

func TestV5RoundTrip(t *testing.T) {
	input := v5Packet()
	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), input)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}

	var buf bytes.Buffer
	n, err := result.Packets[0].Encode(&buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n != len(input) {
		t.Errorf("encoded %d bytes, want %d", n, len(input))
	}
	if !bytes.Equal(buf.Bytes(), input) {
		t.Errorf("encoded bytes differ from input\nwant %x\ngot  %x", input, buf.Bytes())
	}
}

func TestV5Truncated(t *testing.T) {
	input := v5Packet()

	for _, tc := range []struct {
		name string
		cut  int
	}{
		{"mid header", 10},
		{"mid record", len(input) - 5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			parser := NewParser()
			result := parser.ParseBytes(context.TODO(), input[:tc.cut])
			if !errors.Is(result.Error, ErrIncompleteData) {
				t.Errorf("expected ErrIncompleteData, got %v", result.Error)
			}
		})
	}
}

func TestV5Common(t *testing.T) {
	parser := NewParser()
	result := parser.ParseBytes(context.TODO(), v5Packet())
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}

	common := Common(result.Packets[0])
	if common.Version != 5 {
		t.Errorf("unexpected version %d", common.Version)
	}
	if common.Timestamp.Unix() != 2 {
		t.Errorf("timestamp should come from the header's unix_secs, got %s", common.Timestamp)
	}
	if len(common.Flows) != 1 {
		t.Fatalf("expected 1 common record, got %d", len(common.Flows))
	}
	c := common.Flows[0]
	if c.SrcAddr != netip.MustParseAddr("0.1.2.3") || c.DstAddr != netip.MustParseAddr("4.5.6.7") {
		t.Errorf("unexpected addresses: %s -> %s", c.SrcAddr, c.DstAddr)
	}
	if c.SrcPort != 515 || c.DstPort != 1029 || c.Protocol != 8 {
		t.Errorf("unexpected tuple: %d -> %d proto %d", c.SrcPort, c.DstPort, c.Protocol)
	}
	if c.ProtocolName != "EGP" {
		t.Errorf("unexpected protocol name %q", c.ProtocolName)
	}
	if c.FirstSeen != 1 || c.LastSeen != 2 {
		t.Errorf("unexpected timestamps: %d/%d", c.FirstSeen, c.LastSeen)
	}
}

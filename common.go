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
	"net/netip"
	"time"
)

// NetflowCommonView is the version-independent projection of a whole packet:
// the header version, the export timestamp and one NetflowCommon per flow
// record. Template and options template flowsets contribute no flows.
type NetflowCommonView struct {
	Version uint16 `json:"version"`
	// Timestamp is the export time from the packet header. v5 and v7 carry
	// nanosecond residuals, v9 and IPFIX whole seconds.
	Timestamp time.Time       `json:"timestamp"`
	Flows     []NetflowCommon `json:"flows"`
}

// NetflowCommon is the version-independent projection of one flow record:
// the handful of fields virtually every consumer wants, regardless of
// whether they arrived as v5 fixed records or as template-driven v9/IPFIX
// fields. Absent fields stay at their zero value; for the addresses that is
// the invalid netip.Addr.
type NetflowCommon struct {
	SrcAddr      netip.Addr `json:"src_addr,omitempty"`
	DstAddr      netip.Addr `json:"dst_addr,omitempty"`
	SrcPort      uint16     `json:"src_port,omitempty"`
	DstPort      uint16     `json:"dst_port,omitempty"`
	Protocol     uint8      `json:"protocol,omitempty"`
	ProtocolName string     `json:"protocol_name,omitempty"`
	// FirstSeen and LastSeen are in the packet's native time base:
	// milliseconds of router uptime for v5/v7/v9 and for the IPFIX
	// sysUpTime elements
	FirstSeen uint32 `json:"first_seen,omitempty"`
	LastSeen  uint32 `json:"last_seen,omitempty"`
	SrcMac    string `json:"src_mac,omitempty"`
	DstMac    string `json:"dst_mac,omitempty"`
}

// Common projects any packet into the version-independent view.
func Common(pkt Packet) NetflowCommonView {
	switch p := pkt.(type) {
	case *V5Packet:
		return p.Common()
	case *V7Packet:
		return p.Common()
	case *V9Packet:
		return p.Common()
	case *IPFIXPacket:
		return p.Common()
	}
	return NetflowCommonView{Version: pkt.Version()}
}

// Common projects the packet's records into the version-independent view.
func (p *V5Packet) Common() NetflowCommonView {
	out := make([]NetflowCommon, 0, len(p.Records))
	for i := range p.Records {
		r := &p.Records[i]
		out = append(out, NetflowCommon{
			SrcAddr:      r.SrcAddr,
			DstAddr:      r.DstAddr,
			SrcPort:      r.SrcPort,
			DstPort:      r.DstPort,
			Protocol:     r.Protocol,
			ProtocolName: r.ProtocolName(),
			FirstSeen:    r.First,
			LastSeen:     r.Last,
		})
	}
	return NetflowCommonView{
		Version:   p.Header.Version,
		Timestamp: time.Unix(int64(p.Header.UnixSecs), int64(p.Header.UnixNsecs)).UTC(),
		Flows:     out,
	}
}

// Common projects the packet's records into the version-independent view.
func (p *V7Packet) Common() NetflowCommonView {
	out := make([]NetflowCommon, 0, len(p.Records))
	for i := range p.Records {
		r := &p.Records[i]
		out = append(out, NetflowCommon{
			SrcAddr:      r.SrcAddr,
			DstAddr:      r.DstAddr,
			SrcPort:      r.SrcPort,
			DstPort:      r.DstPort,
			Protocol:     r.Protocol,
			ProtocolName: r.ProtocolName(),
			FirstSeen:    r.First,
			LastSeen:     r.Last,
		})
	}
	return NetflowCommonView{
		Version:   p.Header.Version,
		Timestamp: time.Unix(int64(p.Header.UnixSecs), int64(p.Header.UnixNsecs)).UTC(),
		Flows:     out,
	}
}

// Common projects the packet's data records into the version-independent
// view. IPv4 addresses win over IPv6 when a record carries both.
func (p *V9Packet) Common() NetflowCommonView {
	return NetflowCommonView{
		Version:   p.Header.Version,
		Timestamp: time.Unix(int64(p.Header.UnixSecs), 0).UTC(),
		Flows:     commonFromFlowSets(p.FlowSets),
	}
}

// Common projects the message's data records into the version-independent
// view. IPv4 addresses win over IPv6 when a record carries both.
func (p *IPFIXPacket) Common() NetflowCommonView {
	return NetflowCommonView{
		Version:   p.Header.Version,
		Timestamp: time.Unix(int64(p.Header.ExportTime), 0).UTC(),
		Flows:     commonFromFlowSets(p.FlowSets),
	}
}

func commonFromFlowSets(flowSets []FlowSet) []NetflowCommon {
	out := []NetflowCommon{}
	for i := range flowSets {
		if flowSets[i].Kind != KindDataFlowSet {
			continue
		}
		for j := range flowSets[i].Records {
			out = append(out, commonFromRecord(&flowSets[i].Records[j]))
		}
	}
	return out
}

// commonFromRecord scans the record's fields once. The v9 field type numbers
// and the IANA IPFIX element ids coincide for everything projected here
// (sourceIPv4Address is 8 in both worlds, and so on), so one selector serves
// both protocols.
func commonFromRecord(r *DataRecord) NetflowCommon {
	var c NetflowCommon
	var srcV6, dstV6 netip.Addr
	for i := range r.Fields {
		f := &r.Fields[i]
		if f.Descriptor.EnterpriseNumber != PenIANA {
			continue
		}
		switch f.Descriptor.FieldType {
		case V9FieldIPv4SrcAddr:
			if v, ok := f.Value.(*IPv4AddressValue); ok {
				c.SrcAddr = v.Value
			}
		case V9FieldIPv6SrcAddr:
			if v, ok := f.Value.(*IPv6AddressValue); ok {
				srcV6 = v.Value
			}
		case V9FieldIPv4DstAddr:
			if v, ok := f.Value.(*IPv4AddressValue); ok {
				c.DstAddr = v.Value
			}
		case V9FieldIPv6DstAddr:
			if v, ok := f.Value.(*IPv6AddressValue); ok {
				dstV6 = v.Value
			}
		case V9FieldL4SrcPort:
			if v, ok := f.Value.(*UnsignedValue); ok {
				c.SrcPort = uint16(v.Value)
			}
		case V9FieldL4DstPort:
			if v, ok := f.Value.(*UnsignedValue); ok {
				c.DstPort = uint16(v.Value)
			}
		case V9FieldProtocol:
			if v, ok := f.Value.(*ProtocolValue); ok {
				c.Protocol = v.Number
				c.ProtocolName = v.Name()
			}
		case V9FieldFirstSwitched:
			if v, ok := f.Value.(*DurationValue); ok {
				c.FirstSeen = uint32(v.Value)
			}
		case V9FieldLastSwitched:
			if v, ok := f.Value.(*DurationValue); ok {
				c.LastSeen = uint32(v.Value)
			}
		case V9FieldInSrcMac:
			if v, ok := f.Value.(*MacAddressValue); ok {
				c.SrcMac = v.String()
			}
		case V9FieldInDstMac:
			if v, ok := f.Value.(*MacAddressValue); ok {
				c.DstMac = v.String()
			}
		}
	}
	if !c.SrcAddr.IsValid() && srcV6.IsValid() {
		c.SrcAddr = srcV6
	}
	if !c.DstAddr.IsValid() && dstV6.IsValid() {
		c.DstAddr = dstV6
	}
	return c
}

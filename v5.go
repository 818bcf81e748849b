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
	"encoding/binary"
	"io"
	"net/netip"
)

// V5Header is the fixed 24-byte NetFlow v5 packet header.
type V5Header struct {
	Version          uint16 `json:"version"`
	Count            uint16 `json:"count"`
	SysUpTime        uint32 `json:"sys_up_time"`
	UnixSecs         uint32 `json:"unix_secs"`
	UnixNsecs        uint32 `json:"unix_nsecs"`
	FlowSequence     uint32 `json:"flow_sequence"`
	EngineType       uint8  `json:"engine_type"`
	EngineId         uint8  `json:"engine_id"`
	SamplingInterval uint16 `json:"sampling_interval"`
}

// V5Record is one fixed 48-byte NetFlow v5 flow record.
type V5Record struct {
	SrcAddr  netip.Addr `json:"src_addr"`
	DstAddr  netip.Addr `json:"dst_addr"`
	NextHop  netip.Addr `json:"next_hop"`
	Input    uint16     `json:"input"`
	Output   uint16     `json:"output"`
	DPkts    uint32     `json:"d_pkts"`
	DOctets  uint32     `json:"d_octets"`
	First    uint32     `json:"first"`
	Last     uint32     `json:"last"`
	SrcPort  uint16     `json:"src_port"`
	DstPort  uint16     `json:"dst_port"`
	Pad1     uint8      `json:"pad1,omitempty"`
	TcpFlags uint8      `json:"tcp_flags"`
	Protocol uint8      `json:"protocol"`
	Tos      uint8      `json:"tos"`
	SrcAs    uint16     `json:"src_as"`
	DstAs    uint16     `json:"dst_as"`
	SrcMask  uint8      `json:"src_mask"`
	DstMask  uint8      `json:"dst_mask"`
	Pad2     uint16     `json:"pad2,omitempty"`
}

// ProtocolName returns the IANA keyword for the record's protocol number.
func (r *V5Record) ProtocolName() string {
	return (&ProtocolValue{Number: r.Protocol}).Name()
}

// V5Packet is a decoded NetFlow v5 datagram.
type V5Packet struct {
	Header  V5Header   `json:"header"`
	Records []V5Record `json:"records"`
}

func (p *V5Packet) Version() uint16 { return VersionV5 }

func decodeV5(c *cursor) (*V5Packet, error) {
	h, err := c.bytes(v5HeaderLength, "v5 header")
	if err != nil {
		return nil, err
	}
	p := &V5Packet{
		Header: V5Header{
			Version:          binary.BigEndian.Uint16(h[0:2]),
			Count:            binary.BigEndian.Uint16(h[2:4]),
			SysUpTime:        binary.BigEndian.Uint32(h[4:8]),
			UnixSecs:         binary.BigEndian.Uint32(h[8:12]),
			UnixNsecs:        binary.BigEndian.Uint32(h[12:16]),
			FlowSequence:     binary.BigEndian.Uint32(h[16:20]),
			EngineType:       h[20],
			EngineId:         h[21],
			SamplingInterval: binary.BigEndian.Uint16(h[22:24]),
		},
	}
	p.Records = make([]V5Record, 0, p.Header.Count)
	for i := 0; i < int(p.Header.Count); i++ {
		b, err := c.bytes(v5RecordLength, "v5 record")
		if err != nil {
			return p, err
		}
		p.Records = append(p.Records, decodeV5Record(b))
	}
	return p, nil
}

func decodeV5Record(b []byte) V5Record {
	src, _ := netip.AddrFromSlice(b[0:4])
	dst, _ := netip.AddrFromSlice(b[4:8])
	hop, _ := netip.AddrFromSlice(b[8:12])
	return V5Record{
		SrcAddr:  src,
		DstAddr:  dst,
		NextHop:  hop,
		Input:    binary.BigEndian.Uint16(b[12:14]),
		Output:   binary.BigEndian.Uint16(b[14:16]),
		DPkts:    binary.BigEndian.Uint32(b[16:20]),
		DOctets:  binary.BigEndian.Uint32(b[20:24]),
		First:    binary.BigEndian.Uint32(b[24:28]),
		Last:     binary.BigEndian.Uint32(b[28:32]),
		SrcPort:  binary.BigEndian.Uint16(b[32:34]),
		DstPort:  binary.BigEndian.Uint16(b[34:36]),
		Pad1:     b[36],
		TcpFlags: b[37],
		Protocol: b[38],
		Tos:      b[39],
		SrcAs:    binary.BigEndian.Uint16(b[40:42]),
		DstAs:    binary.BigEndian.Uint16(b[42:44]),
		SrcMask:  b[44],
		DstMask:  b[45],
		Pad2:     binary.BigEndian.Uint16(b[46:48]),
	}
}

// Encode writes the packet in its wire form. The header's Count field is
// emitted as-is; callers synthesizing packets are responsible for keeping it
// consistent with len(Records).
func (p *V5Packet) Encode(w io.Writer) (int, error) {
	b := make([]byte, 0, v5HeaderLength+len(p.Records)*v5RecordLength)
	b = binary.BigEndian.AppendUint16(b, p.Header.Version)
	b = binary.BigEndian.AppendUint16(b, p.Header.Count)
	b = binary.BigEndian.AppendUint32(b, p.Header.SysUpTime)
	b = binary.BigEndian.AppendUint32(b, p.Header.UnixSecs)
	b = binary.BigEndian.AppendUint32(b, p.Header.UnixNsecs)
	b = binary.BigEndian.AppendUint32(b, p.Header.FlowSequence)
	b = append(b, p.Header.EngineType, p.Header.EngineId)
	b = binary.BigEndian.AppendUint16(b, p.Header.SamplingInterval)
	for i := range p.Records {
		b = appendV5Record(b, &p.Records[i])
	}
	return w.Write(b)
}

func appendV5Record(b []byte, r *V5Record) []byte {
	src := r.SrcAddr.As4()
	dst := r.DstAddr.As4()
	hop := r.NextHop.As4()
	b = append(b, src[:]...)
	b = append(b, dst[:]...)
	b = append(b, hop[:]...)
	b = binary.BigEndian.AppendUint16(b, r.Input)
	b = binary.BigEndian.AppendUint16(b, r.Output)
	b = binary.BigEndian.AppendUint32(b, r.DPkts)
	b = binary.BigEndian.AppendUint32(b, r.DOctets)
	b = binary.BigEndian.AppendUint32(b, r.First)
	b = binary.BigEndian.AppendUint32(b, r.Last)
	b = binary.BigEndian.AppendUint16(b, r.SrcPort)
	b = binary.BigEndian.AppendUint16(b, r.DstPort)
	b = append(b, r.Pad1, r.TcpFlags, r.Protocol, r.Tos)
	b = binary.BigEndian.AppendUint16(b, r.SrcAs)
	b = binary.BigEndian.AppendUint16(b, r.DstAs)
	b = append(b, r.SrcMask, r.DstMask)
	b = binary.BigEndian.AppendUint16(b, r.Pad2)
	return b
}

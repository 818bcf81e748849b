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

// Well-known NetFlow v9 field type numbers (RFC 3954 section 8 plus the
// Cisco extensions in the 85..104 range). Exported so that callers can build
// templates and common-view mappings without magic numbers.
const (
	V9FieldInBytes                   uint16 = 1
	V9FieldInPkts                    uint16 = 2
	V9FieldFlows                     uint16 = 3
	V9FieldProtocol                  uint16 = 4
	V9FieldSrcTos                    uint16 = 5
	V9FieldTcpFlags                  uint16 = 6
	V9FieldL4SrcPort                 uint16 = 7
	V9FieldIPv4SrcAddr               uint16 = 8
	V9FieldSrcMask                   uint16 = 9
	V9FieldInputSnmp                 uint16 = 10
	V9FieldL4DstPort                 uint16 = 11
	V9FieldIPv4DstAddr               uint16 = 12
	V9FieldDstMask                   uint16 = 13
	V9FieldOutputSnmp                uint16 = 14
	V9FieldIPv4NextHop               uint16 = 15
	V9FieldSrcAs                     uint16 = 16
	V9FieldDstAs                     uint16 = 17
	V9FieldBgpIPv4NextHop            uint16 = 18
	V9FieldMulDstPkts                uint16 = 19
	V9FieldMulDstBytes               uint16 = 20
	V9FieldLastSwitched              uint16 = 21
	V9FieldFirstSwitched             uint16 = 22
	V9FieldOutBytes                  uint16 = 23
	V9FieldOutPkts                   uint16 = 24
	V9FieldMinPktLength              uint16 = 25
	V9FieldMaxPktLength              uint16 = 26
	V9FieldIPv6SrcAddr               uint16 = 27
	V9FieldIPv6DstAddr               uint16 = 28
	V9FieldIPv6SrcMask               uint16 = 29
	V9FieldIPv6DstMask               uint16 = 30
	V9FieldIPv6FlowLabel             uint16 = 31
	V9FieldIcmpType                  uint16 = 32
	V9FieldMulIgmpType               uint16 = 33
	V9FieldSamplingInterval          uint16 = 34
	V9FieldSamplingAlgorithm         uint16 = 35
	V9FieldFlowActiveTimeout         uint16 = 36
	V9FieldFlowInactiveTimeout       uint16 = 37
	V9FieldEngineType                uint16 = 38
	V9FieldEngineId                  uint16 = 39
	V9FieldTotalBytesExp             uint16 = 40
	V9FieldTotalPktsExp              uint16 = 41
	V9FieldTotalFlowsExp             uint16 = 42
	V9FieldIPv4SrcPrefix             uint16 = 44
	V9FieldIPv4DstPrefix             uint16 = 45
	V9FieldMplsTopLabelType          uint16 = 46
	V9FieldMplsTopLabelIPAddr        uint16 = 47
	V9FieldFlowSamplerId             uint16 = 48
	V9FieldFlowSamplerMode           uint16 = 49
	V9FieldFlowSamplerRandomInterval uint16 = 50
	V9FieldMinTtl                    uint16 = 52
	V9FieldMaxTtl                    uint16 = 53
	V9FieldIPv4Ident                 uint16 = 54
	V9FieldDstTos                    uint16 = 55
	V9FieldInSrcMac                  uint16 = 56
	V9FieldOutDstMac                 uint16 = 57
	V9FieldSrcVlan                   uint16 = 58
	V9FieldDstVlan                   uint16 = 59
	V9FieldIPProtocolVersion         uint16 = 60
	V9FieldDirection                 uint16 = 61
	V9FieldIPv6NextHop               uint16 = 62
	V9FieldBgpIPv6NextHop            uint16 = 63
	V9FieldIPv6OptionHeaders         uint16 = 64
	V9FieldMplsLabel1                uint16 = 70
	V9FieldMplsLabel10               uint16 = 79
	V9FieldInDstMac                  uint16 = 80
	V9FieldOutSrcMac                 uint16 = 81
	V9FieldIfName                    uint16 = 82
	V9FieldIfDesc                    uint16 = 83
	V9FieldSamplerName               uint16 = 84
	V9FieldInPermanentBytes          uint16 = 85
	V9FieldInPermanentPkts           uint16 = 86
	V9FieldFragmentOffset            uint16 = 87
	V9FieldForwardingStatus          uint16 = 88
	V9FieldMplsPalRd                 uint16 = 90
	V9FieldMplsPrefixLen             uint16 = 91
	V9FieldSrcTrafficIndex           uint16 = 92
	V9FieldDstTrafficIndex           uint16 = 93
	V9FieldApplicationDescription    uint16 = 94
	V9FieldApplicationTag            uint16 = 95
	V9FieldApplicationName           uint16 = 96
	V9FieldPostIPDiffServCodePoint   uint16 = 98
	V9FieldReplicationFactor         uint16 = 99
	V9FieldLayer2PacketSectionOffset uint16 = 102
	V9FieldLayer2PacketSectionSize   uint16 = 103
	V9FieldLayer2PacketSectionData   uint16 = 104
)

// fieldSpec is one row of a static field registry: the field's name and the
// data type driving its decoding.
type fieldSpec struct {
	Name string
	Type FieldDataType
}

var v9Fields = map[uint16]fieldSpec{
	1:   {"in_bytes", TypeUnsigned},
	2:   {"in_pkts", TypeUnsigned},
	3:   {"flows", TypeUnsigned},
	4:   {"protocol", TypeProtocol},
	5:   {"src_tos", TypeUnsigned},
	6:   {"tcp_flags", TypeUnsigned},
	7:   {"l4_src_port", TypeUnsigned},
	8:   {"ipv4_src_addr", TypeIPv4Address},
	9:   {"src_mask", TypeUnsigned},
	10:  {"input_snmp", TypeUnsigned},
	11:  {"l4_dst_port", TypeUnsigned},
	12:  {"ipv4_dst_addr", TypeIPv4Address},
	13:  {"dst_mask", TypeUnsigned},
	14:  {"output_snmp", TypeUnsigned},
	15:  {"ipv4_next_hop", TypeIPv4Address},
	16:  {"src_as", TypeUnsigned},
	17:  {"dst_as", TypeUnsigned},
	18:  {"bgp_ipv4_next_hop", TypeIPv4Address},
	19:  {"mul_dst_pkts", TypeUnsigned},
	20:  {"mul_dst_bytes", TypeUnsigned},
	21:  {"last_switched", TypeDurationMilliseconds},
	22:  {"first_switched", TypeDurationMilliseconds},
	23:  {"out_bytes", TypeUnsigned},
	24:  {"out_pkts", TypeUnsigned},
	25:  {"min_pkt_lngth", TypeUnsigned},
	26:  {"max_pkt_lngth", TypeUnsigned},
	27:  {"ipv6_src_addr", TypeIPv6Address},
	28:  {"ipv6_dst_addr", TypeIPv6Address},
	29:  {"ipv6_src_mask", TypeUnsigned},
	30:  {"ipv6_dst_mask", TypeUnsigned},
	31:  {"ipv6_flow_label", TypeUnsigned},
	32:  {"icmp_type", TypeUnsigned},
	33:  {"mul_igmp_type", TypeUnsigned},
	34:  {"sampling_interval", TypeUnsigned},
	35:  {"sampling_algorithm", TypeUnsigned},
	36:  {"flow_active_timeout", TypeDurationSeconds},
	37:  {"flow_inactive_timeout", TypeDurationSeconds},
	38:  {"engine_type", TypeUnsigned},
	39:  {"engine_id", TypeUnsigned},
	40:  {"total_bytes_exp", TypeUnsigned},
	41:  {"total_pkts_exp", TypeUnsigned},
	42:  {"total_flows_exp", TypeUnsigned},
	44:  {"ipv4_src_prefix", TypeIPv4Address},
	45:  {"ipv4_dst_prefix", TypeIPv4Address},
	46:  {"mpls_top_label_type", TypeUnsigned},
	47:  {"mpls_top_label_ip_addr", TypeIPv4Address},
	48:  {"flow_sampler_id", TypeUnsigned},
	49:  {"flow_sampler_mode", TypeUnsigned},
	50:  {"flow_sampler_random_interval", TypeUnsigned},
	52:  {"min_ttl", TypeUnsigned},
	53:  {"max_ttl", TypeUnsigned},
	54:  {"ipv4_ident", TypeUnsigned},
	55:  {"dst_tos", TypeUnsigned},
	56:  {"in_src_mac", TypeMacAddress},
	57:  {"out_dst_mac", TypeMacAddress},
	58:  {"src_vlan", TypeUnsigned},
	59:  {"dst_vlan", TypeUnsigned},
	60:  {"ip_protocol_version", TypeUnsigned},
	61:  {"direction", TypeUnsigned},
	62:  {"ipv6_next_hop", TypeIPv6Address},
	63:  {"bgp_ipv6_next_hop", TypeIPv6Address},
	64:  {"ipv6_option_headers", TypeUnsigned},
	70:  {"mpls_label_1", TypeUnsigned},
	71:  {"mpls_label_2", TypeUnsigned},
	72:  {"mpls_label_3", TypeUnsigned},
	73:  {"mpls_label_4", TypeUnsigned},
	74:  {"mpls_label_5", TypeUnsigned},
	75:  {"mpls_label_6", TypeUnsigned},
	76:  {"mpls_label_7", TypeUnsigned},
	77:  {"mpls_label_8", TypeUnsigned},
	78:  {"mpls_label_9", TypeUnsigned},
	79:  {"mpls_label_10", TypeUnsigned},
	80:  {"in_dst_mac", TypeMacAddress},
	81:  {"out_src_mac", TypeMacAddress},
	82:  {"if_name", TypeString},
	83:  {"if_desc", TypeString},
	84:  {"sampler_name", TypeString},
	85:  {"in_permanent_bytes", TypeUnsigned},
	86:  {"in_permanent_pkts", TypeUnsigned},
	87:  {"fragment_offset", TypeUnsigned},
	88:  {"forwarding_status", TypeUnsigned},
	90:  {"mpls_pal_rd", TypeOctetArray},
	91:  {"mpls_prefix_len", TypeUnsigned},
	92:  {"src_traffic_index", TypeUnsigned},
	93:  {"dst_traffic_index", TypeUnsigned},
	94:  {"application_description", TypeString},
	95:  {"application_tag", TypeApplicationId},
	96:  {"application_name", TypeString},
	98:  {"post_ip_diff_serv_code_point", TypeUnsigned},
	99:  {"replication_factor", TypeUnsigned},
	102: {"layer2_packet_section_offset", TypeUnsigned},
	103: {"layer2_packet_section_size", TypeUnsigned},
	104: {"layer2_packet_section_data", TypeOctetArray},
}

// v9ScopeFieldNames names the scope field types of v9 options templates
// (RFC 3954 section 6.1). Scope field values decode as unsigned integers.
var v9ScopeFieldNames = map[uint16]string{
	1: "scope_system",
	2: "scope_interface",
	3: "scope_line_card",
	4: "scope_netflow_cache",
	5: "scope_template",
}

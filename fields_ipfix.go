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

// Commonly referenced IANA information element identifiers. The full
// registry lives in ipfixFields; these constants exist for template
// construction and common-view mappings.
const (
	IPFIXFieldProtocolIdentifier        uint16 = 4
	IPFIXFieldSourceTransportPort       uint16 = 7
	IPFIXFieldSourceIPv4Address         uint16 = 8
	IPFIXFieldDestinationTransportPort  uint16 = 11
	IPFIXFieldDestinationIPv4Address    uint16 = 12
	IPFIXFieldFlowEndSysUpTime          uint16 = 21
	IPFIXFieldFlowStartSysUpTime        uint16 = 22
	IPFIXFieldSourceIPv6Address         uint16 = 27
	IPFIXFieldDestinationIPv6Address    uint16 = 28
	IPFIXFieldSourceMacAddress          uint16 = 56
	IPFIXFieldDestinationMacAddress     uint16 = 80
	IPFIXFieldInterfaceName             uint16 = 82
	IPFIXFieldApplicationId             uint16 = 95
	IPFIXFieldFlowStartSeconds          uint16 = 150
	IPFIXFieldFlowEndSeconds            uint16 = 151
	IPFIXFieldFlowStartMilliseconds     uint16 = 152
	IPFIXFieldFlowEndMilliseconds       uint16 = 153
	IPFIXFieldFlowStartMicroseconds     uint16 = 154
	IPFIXFieldFlowEndMicroseconds       uint16 = 155
	IPFIXFieldFlowStartNanoseconds      uint16 = 156
	IPFIXFieldFlowEndNanoseconds        uint16 = 157
)

// ipfixFields is the built-in registry of IANA information elements
// (enterprise number 0), keyed by element id. It covers the assignments that
// occur in practice in flow records; elements outside the table decode as
// octet arrays carrying their field number in the generated name.
var ipfixFields = map[uint16]fieldSpec{
	1:   {"octetDeltaCount", TypeUnsigned},
	2:   {"packetDeltaCount", TypeUnsigned},
	3:   {"deltaFlowCount", TypeUnsigned},
	4:   {"protocolIdentifier", TypeProtocol},
	5:   {"ipClassOfService", TypeUnsigned},
	6:   {"tcpControlBits", TypeUnsigned},
	7:   {"sourceTransportPort", TypeUnsigned},
	8:   {"sourceIPv4Address", TypeIPv4Address},
	9:   {"sourceIPv4PrefixLength", TypeUnsigned},
	10:  {"ingressInterface", TypeUnsigned},
	11:  {"destinationTransportPort", TypeUnsigned},
	12:  {"destinationIPv4Address", TypeIPv4Address},
	13:  {"destinationIPv4PrefixLength", TypeUnsigned},
	14:  {"egressInterface", TypeUnsigned},
	15:  {"ipNextHopIPv4Address", TypeIPv4Address},
	16:  {"bgpSourceAsNumber", TypeUnsigned},
	17:  {"bgpDestinationAsNumber", TypeUnsigned},
	18:  {"bgpNextHopIPv4Address", TypeIPv4Address},
	19:  {"postMCastPacketDeltaCount", TypeUnsigned},
	20:  {"postMCastOctetDeltaCount", TypeUnsigned},
	21:  {"flowEndSysUpTime", TypeDurationMilliseconds},
	22:  {"flowStartSysUpTime", TypeDurationMilliseconds},
	23:  {"postOctetDeltaCount", TypeUnsigned},
	24:  {"postPacketDeltaCount", TypeUnsigned},
	25:  {"minimumIpTotalLength", TypeUnsigned},
	26:  {"maximumIpTotalLength", TypeUnsigned},
	27:  {"sourceIPv6Address", TypeIPv6Address},
	28:  {"destinationIPv6Address", TypeIPv6Address},
	29:  {"sourceIPv6PrefixLength", TypeUnsigned},
	30:  {"destinationIPv6PrefixLength", TypeUnsigned},
	31:  {"flowLabelIPv6", TypeUnsigned},
	32:  {"icmpTypeCodeIPv4", TypeUnsigned},
	33:  {"igmpType", TypeUnsigned},
	34:  {"samplingInterval", TypeUnsigned},
	35:  {"samplingAlgorithm", TypeUnsigned},
	36:  {"flowActiveTimeout", TypeDurationSeconds},
	37:  {"flowIdleTimeout", TypeDurationSeconds},
	38:  {"engineType", TypeUnsigned},
	39:  {"engineId", TypeUnsigned},
	40:  {"exportedOctetTotalCount", TypeUnsigned},
	41:  {"exportedMessageTotalCount", TypeUnsigned},
	42:  {"exportedFlowRecordTotalCount", TypeUnsigned},
	43:  {"ipv4RouterSc", TypeIPv4Address},
	44:  {"sourceIPv4Prefix", TypeIPv4Address},
	45:  {"destinationIPv4Prefix", TypeIPv4Address},
	46:  {"mplsTopLabelType", TypeUnsigned},
	47:  {"mplsTopLabelIPv4Address", TypeIPv4Address},
	48:  {"samplerId", TypeUnsigned},
	49:  {"samplerMode", TypeUnsigned},
	50:  {"samplerRandomInterval", TypeUnsigned},
	51:  {"classId", TypeUnsigned},
	52:  {"minimumTTL", TypeUnsigned},
	53:  {"maximumTTL", TypeUnsigned},
	54:  {"fragmentIdentification", TypeUnsigned},
	55:  {"postIpClassOfService", TypeUnsigned},
	56:  {"sourceMacAddress", TypeMacAddress},
	57:  {"postDestinationMacAddress", TypeMacAddress},
	58:  {"vlanId", TypeUnsigned},
	59:  {"postVlanId", TypeUnsigned},
	60:  {"ipVersion", TypeUnsigned},
	61:  {"flowDirection", TypeUnsigned},
	62:  {"ipNextHopIPv6Address", TypeIPv6Address},
	63:  {"bgpNextHopIPv6Address", TypeIPv6Address},
	64:  {"ipv6ExtensionHeaders", TypeUnsigned},
	70:  {"mplsTopLabelStackSection", TypeOctetArray},
	71:  {"mplsLabelStackSection2", TypeOctetArray},
	72:  {"mplsLabelStackSection3", TypeOctetArray},
	73:  {"mplsLabelStackSection4", TypeOctetArray},
	74:  {"mplsLabelStackSection5", TypeOctetArray},
	75:  {"mplsLabelStackSection6", TypeOctetArray},
	76:  {"mplsLabelStackSection7", TypeOctetArray},
	77:  {"mplsLabelStackSection8", TypeOctetArray},
	78:  {"mplsLabelStackSection9", TypeOctetArray},
	79:  {"mplsLabelStackSection10", TypeOctetArray},
	80:  {"destinationMacAddress", TypeMacAddress},
	81:  {"postSourceMacAddress", TypeMacAddress},
	82:  {"interfaceName", TypeString},
	83:  {"interfaceDescription", TypeString},
	84:  {"samplerName", TypeString},
	85:  {"octetTotalCount", TypeUnsigned},
	86:  {"packetTotalCount", TypeUnsigned},
	87:  {"flagsAndSamplerId", TypeUnsigned},
	88:  {"fragmentOffset", TypeUnsigned},
	89:  {"forwardingStatus", TypeUnsigned},
	90:  {"mplsVpnRouteDistinguisher", TypeOctetArray},
	91:  {"mplsTopLabelPrefixLength", TypeUnsigned},
	92:  {"srcTrafficIndex", TypeUnsigned},
	93:  {"dstTrafficIndex", TypeUnsigned},
	94:  {"applicationDescription", TypeString},
	95:  {"applicationId", TypeApplicationId},
	96:  {"applicationName", TypeString},
	98:  {"postIpDiffServCodePoint", TypeUnsigned},
	99:  {"multicastReplicationFactor", TypeUnsigned},
	100: {"className", TypeString},
	101: {"classificationEngineId", TypeUnsigned},
	102: {"layer2packetSectionOffset", TypeUnsigned},
	103: {"layer2packetSectionSize", TypeUnsigned},
	104: {"layer2packetSectionData", TypeOctetArray},
	128: {"bgpNextAdjacentAsNumber", TypeUnsigned},
	129: {"bgpPrevAdjacentAsNumber", TypeUnsigned},
	130: {"exporterIPv4Address", TypeIPv4Address},
	131: {"exporterIPv6Address", TypeIPv6Address},
	132: {"droppedOctetDeltaCount", TypeUnsigned},
	133: {"droppedPacketDeltaCount", TypeUnsigned},
	134: {"droppedOctetTotalCount", TypeUnsigned},
	135: {"droppedPacketTotalCount", TypeUnsigned},
	136: {"flowEndReason", TypeUnsigned},
	137: {"commonPropertiesId", TypeUnsigned},
	138: {"observationPointId", TypeUnsigned},
	139: {"icmpTypeCodeIPv6", TypeUnsigned},
	140: {"mplsTopLabelIPv6Address", TypeIPv6Address},
	141: {"lineCardId", TypeUnsigned},
	142: {"portId", TypeUnsigned},
	143: {"meteringProcessId", TypeUnsigned},
	144: {"exportingProcessId", TypeUnsigned},
	145: {"templateId", TypeUnsigned},
	146: {"wlanChannelId", TypeUnsigned},
	147: {"wlanSSID", TypeString},
	148: {"flowId", TypeUnsigned},
	149: {"observationDomainId", TypeUnsigned},
	150: {"flowStartSeconds", TypeDurationSeconds},
	151: {"flowEndSeconds", TypeDurationSeconds},
	152: {"flowStartMilliseconds", TypeDurationMilliseconds},
	153: {"flowEndMilliseconds", TypeDurationMilliseconds},
	154: {"flowStartMicroseconds", TypeDurationMicrosecondsNTP},
	155: {"flowEndMicroseconds", TypeDurationMicrosecondsNTP},
	156: {"flowStartNanoseconds", TypeDurationNanosecondsNTP},
	157: {"flowEndNanoseconds", TypeDurationNanosecondsNTP},
	158: {"flowStartDeltaMicroseconds", TypeUnsigned},
	159: {"flowEndDeltaMicroseconds", TypeUnsigned},
	160: {"systemInitTimeMilliseconds", TypeDurationMilliseconds},
	161: {"flowDurationMilliseconds", TypeDurationMilliseconds},
	162: {"flowDurationMicroseconds", TypeUnsigned},
	163: {"observedFlowTotalCount", TypeUnsigned},
	164: {"ignoredPacketTotalCount", TypeUnsigned},
	165: {"ignoredOctetTotalCount", TypeUnsigned},
	166: {"notSentFlowTotalCount", TypeUnsigned},
	167: {"notSentPacketTotalCount", TypeUnsigned},
	168: {"notSentOctetTotalCount", TypeUnsigned},
	169: {"destinationIPv6Prefix", TypeIPv6Address},
	170: {"sourceIPv6Prefix", TypeIPv6Address},
	171: {"postOctetTotalCount", TypeUnsigned},
	172: {"postPacketTotalCount", TypeUnsigned},
	173: {"flowKeyIndicator", TypeUnsigned},
	174: {"postMCastPacketTotalCount", TypeUnsigned},
	175: {"postMCastOctetTotalCount", TypeUnsigned},
	176: {"icmpTypeIPv4", TypeUnsigned},
	177: {"icmpCodeIPv4", TypeUnsigned},
	178: {"icmpTypeIPv6", TypeUnsigned},
	179: {"icmpCodeIPv6", TypeUnsigned},
	180: {"udpSourcePort", TypeUnsigned},
	181: {"udpDestinationPort", TypeUnsigned},
	182: {"tcpSourcePort", TypeUnsigned},
	183: {"tcpDestinationPort", TypeUnsigned},
	184: {"tcpSequenceNumber", TypeUnsigned},
	185: {"tcpAcknowledgementNumber", TypeUnsigned},
	186: {"tcpWindowSize", TypeUnsigned},
	187: {"tcpUrgentPointer", TypeUnsigned},
	188: {"tcpHeaderLength", TypeUnsigned},
	189: {"ipHeaderLength", TypeUnsigned},
	190: {"totalLengthIPv4", TypeUnsigned},
	191: {"payloadLengthIPv6", TypeUnsigned},
	192: {"ipTTL", TypeUnsigned},
	193: {"nextHeaderIPv6", TypeUnsigned},
	194: {"mplsPayloadLength", TypeUnsigned},
	195: {"ipDiffServCodePoint", TypeUnsigned},
	196: {"ipPrecedence", TypeUnsigned},
	197: {"fragmentFlags", TypeUnsigned},
	198: {"octetDeltaSumOfSquares", TypeUnsigned},
	199: {"octetTotalSumOfSquares", TypeUnsigned},
	200: {"mplsTopLabelTTL", TypeUnsigned},
	201: {"mplsLabelStackLength", TypeUnsigned},
	202: {"mplsLabelStackDepth", TypeUnsigned},
	203: {"mplsTopLabelExp", TypeUnsigned},
	204: {"ipPayloadLength", TypeUnsigned},
	205: {"udpMessageLength", TypeUnsigned},
	206: {"isMulticast", TypeUnsigned},
	207: {"ipv4IHL", TypeUnsigned},
	208: {"ipv4Options", TypeUnsigned},
	209: {"tcpOptions", TypeUnsigned},
	210: {"paddingOctets", TypeOctetArray},
	211: {"collectorIPv4Address", TypeIPv4Address},
	212: {"collectorIPv6Address", TypeIPv6Address},
	213: {"exportInterface", TypeUnsigned},
	214: {"exportProtocolVersion", TypeUnsigned},
	215: {"exportTransportProtocol", TypeUnsigned},
	216: {"collectorTransportPort", TypeUnsigned},
	217: {"exporterTransportPort", TypeUnsigned},
	218: {"tcpSynTotalCount", TypeUnsigned},
	219: {"tcpFinTotalCount", TypeUnsigned},
	220: {"tcpRstTotalCount", TypeUnsigned},
	221: {"tcpPshTotalCount", TypeUnsigned},
	222: {"tcpAckTotalCount", TypeUnsigned},
	223: {"tcpUrgTotalCount", TypeUnsigned},
	224: {"ipTotalLength", TypeUnsigned},
	225: {"natSourceIPv4Address", TypeIPv4Address},
	226: {"natDestinationIPv4Address", TypeIPv4Address},
	227: {"natSourceTransportPort", TypeUnsigned},
	228: {"natDestinationTransportPort", TypeUnsigned},
	229: {"natOriginatingAddressRealm", TypeUnsigned},
	230: {"natEvent", TypeUnsigned},
	231: {"initiatorOctets", TypeUnsigned},
	232: {"responderOctets", TypeUnsigned},
	233: {"firewallEvent", TypeUnsigned},
	234: {"ingressVRFID", TypeUnsigned},
	235: {"egressVRFID", TypeUnsigned},
	236: {"VRFname", TypeString},
	237: {"postMplsTopLabelExp", TypeUnsigned},
	238: {"tcpWindowScale", TypeUnsigned},
	239: {"biflowDirection", TypeUnsigned},
	240: {"ethernetHeaderLength", TypeUnsigned},
	241: {"ethernetPayloadLength", TypeUnsigned},
	242: {"ethernetTotalLength", TypeUnsigned},
	243: {"dot1qVlanId", TypeUnsigned},
	244: {"dot1qPriority", TypeUnsigned},
	245: {"dot1qCustomerVlanId", TypeUnsigned},
	246: {"dot1qCustomerPriority", TypeUnsigned},
	247: {"metroEvcId", TypeString},
	248: {"metroEvcType", TypeUnsigned},
	249: {"pseudoWireId", TypeUnsigned},
	250: {"pseudoWireType", TypeUnsigned},
	251: {"pseudoWireControlWord", TypeUnsigned},
	252: {"ingressPhysicalInterface", TypeUnsigned},
	253: {"egressPhysicalInterface", TypeUnsigned},
	254: {"postDot1qVlanId", TypeUnsigned},
	255: {"postDot1qCustomerVlanId", TypeUnsigned},
	256: {"ethernetType", TypeUnsigned},
	257: {"postIpPrecedence", TypeUnsigned},
	258: {"collectionTimeMilliseconds", TypeDurationMilliseconds},
	259: {"exportSctpStreamId", TypeUnsigned},
	323: {"observationTimeMilliseconds", TypeDurationMilliseconds},
	324: {"observationTimeMicroseconds", TypeDurationMicrosecondsNTP},
	325: {"observationTimeNanoseconds", TypeDurationNanosecondsNTP},
	326: {"observationTimeSeconds", TypeDurationSeconds},
	346: {"privateEnterpriseNumber", TypeUnsigned},
}

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

// Header version numbers as they appear in the first two bytes of every
// NetFlow/IPFIX datagram.
const (
	VersionV5    uint16 = 5
	VersionV7    uint16 = 7
	VersionV9    uint16 = 9
	VersionIPFIX uint16 = 10
)

// Flowset and set identifiers. v9 reserves 0 and 1 for template and options
// template flowsets, IPFIX reserves 2 and 3 for template and options template
// sets. Identifiers in [4, 255] are unassigned in both protocols; data
// flowsets reference a template id, which is required to be at least 256.
const (
	V9TemplateFlowSetId           uint16 = 0
	V9OptionsTemplateFlowSetId    uint16 = 1
	IPFIXTemplateSetId            uint16 = 2
	IPFIXOptionsTemplateSetId     uint16 = 3
	MinimumDataFlowSetId          uint16 = 256
	MinimumTemplateId             uint16 = 256
	VariableLengthFieldIndicator  uint16 = 0xffff
	longVariableLengthIndicator   uint8  = 0xff
	flowSetHeaderLength                  = 4
	enterpriseBit                 uint16 = 0x8000
	v5HeaderLength                       = 24
	v5RecordLength                       = 48
	v7HeaderLength                       = 24
	v7RecordLength                       = 52
	v9HeaderLength                       = 20
	ipfixHeaderLength                    = 16
	ntpEpochOffsetSeconds         uint64 = 2208988800
	flowSetPaddingAlignment              = 4
)

// Defaults for parser construction. All of them can be overridden through
// ParserOptions.
const (
	DefaultTemplateCacheSize    = 1000
	DefaultMaxFieldCount        = 10000
	DefaultMaxTemplateTotalSize = 65535
	DefaultMaxErrorSampleSize   = 256
)

// Kind discriminators used in JSON marshalling of flowsets and in the
// per-kind Prometheus metrics.
const (
	KindTemplateFlowSet        string = "TemplateFlowSet"
	KindOptionsTemplateFlowSet string = "OptionsTemplateFlowSet"
	KindDataFlowSet            string = "DataFlowSet"
	KindMissingTemplateFlowSet string = "MissingTemplateFlowSet"
)

// PEN constants for the vendors carried in the built-in field registries.
const (
	PenIANA      uint32 = 0
	PenCisco     uint32 = 9
	PenNetScaler uint32 = 5951
	PenYaf       uint32 = 6871
	PenVMware    uint32 = 6876
	// PenReverse is the private enterprise number reserved by RFC 5103 for
	// reverse-direction variants of IANA information elements.
	PenReverse uint32 = 29305
)

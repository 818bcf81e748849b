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
	"fmt"
)

// EnterpriseFieldDef describes a vendor-specific IPFIX information element.
// Callers register these through ParserOptions (or the YAML/CSV loaders) to
// have enterprise fields decode into typed values instead of octet arrays.
type EnterpriseFieldDef struct {
	EnterpriseNumber uint32        `json:"enterprise_number" yaml:"enterprise_number"`
	FieldNumber      uint16        `json:"field_number" yaml:"field_number"`
	Name             string        `json:"name" yaml:"name"`
	DataType         FieldDataType `json:"-" yaml:"-"`

	// TypeName is the registry string form of DataType, used by the YAML and
	// CSV loaders
	TypeName string `json:"data_type" yaml:"data_type"`
}

type enterpriseFieldKey struct {
	enterprise uint32
	field      uint16
}

// EnterpriseFieldRegistry holds caller-registered vendor field definitions.
// The registry is consulted during template parsing only; it is not accessed
// on the per-record path. It is not safe for concurrent mutation while a
// parse is in flight, matching the single-caller ownership of the parser.
type EnterpriseFieldRegistry struct {
	fields map[enterpriseFieldKey]fieldSpec
}

func NewEnterpriseFieldRegistry() *EnterpriseFieldRegistry {
	return &EnterpriseFieldRegistry{fields: map[enterpriseFieldKey]fieldSpec{}}
}

// Register adds or replaces a vendor field definition.
func (r *EnterpriseFieldRegistry) Register(def EnterpriseFieldDef) {
	r.fields[enterpriseFieldKey{def.EnterpriseNumber, def.FieldNumber}] = fieldSpec{
		Name: def.Name,
		Type: def.DataType,
	}
}

// RegisterAll adds a batch of definitions.
func (r *EnterpriseFieldRegistry) RegisterAll(defs []EnterpriseFieldDef) {
	for _, def := range defs {
		r.Register(def)
	}
}

// Lookup resolves a registered definition.
func (r *EnterpriseFieldRegistry) Lookup(enterprise uint32, field uint16) (fieldSpec, bool) {
	s, ok := r.fields[enterpriseFieldKey{enterprise, field}]
	return s, ok
}

// Contains reports whether a definition is registered for the given
// (enterprise, field) pair.
func (r *EnterpriseFieldRegistry) Contains(enterprise uint32, field uint16) bool {
	_, ok := r.fields[enterpriseFieldKey{enterprise, field}]
	return ok
}

func (r *EnterpriseFieldRegistry) Len() int { return len(r.fields) }

func (r *EnterpriseFieldRegistry) Clear() {
	r.fields = map[enterpriseFieldKey]fieldSpec{}
}

// Built-in vendor registries. These carry the enterprise information
// elements commonly seen from the respective exporters; anything outside
// them goes through the caller registry or falls back to octet arrays.
var builtinEnterpriseFields = map[uint32]map[uint16]fieldSpec{
	PenCisco: {
		12232: {"applicationCategoryName", TypeString},
		12233: {"applicationSubCategoryName", TypeString},
		12234: {"applicationGroupName", TypeString},
		12235: {"applicationHttpHost", TypeString},
		12236: {"clientIPv4Address", TypeIPv4Address},
		12237: {"serverIPv4Address", TypeIPv4Address},
		12240: {"clientTransportPort", TypeUnsigned},
		12241: {"serverTransportPort", TypeUnsigned},
	},
	PenNetScaler: {
		128: {"netscalerRoundTripTime", TypeUnsigned},
		129: {"netscalerTransactionId", TypeUnsigned},
		130: {"netscalerHttpReqUrl", TypeString},
		131: {"netscalerHttpReqCookie", TypeString},
		132: {"netscalerFlowFlags", TypeUnsigned},
		133: {"netscalerConnectionId", TypeUnsigned},
		134: {"netscalerSyslogPriority", TypeUnsigned},
		135: {"netscalerSyslogMessage", TypeString},
		136: {"netscalerSyslogTimestamp", TypeUnsigned},
		140: {"netscalerHttpReqUserAgent", TypeString},
		141: {"netscalerHttpReqHost", TypeString},
	},
	PenYaf: {
		14: {"initialTCPFlags", TypeUnsigned},
		15: {"unionTCPFlags", TypeUnsigned},
		17: {"payload", TypeOctetArray},
		21: {"reverseFlowDeltaMilliseconds", TypeDurationMilliseconds},
		33: {"silkAppLabel", TypeUnsigned},
		36: {"osName", TypeString},
		37: {"osVersion", TypeString},
		40: {"flowAttributes", TypeUnsigned},
	},
	PenVMware: {
		880: {"tenantProtocol", TypeProtocol},
		881: {"tenantSourceIPv4", TypeIPv4Address},
		882: {"tenantDestIPv4", TypeIPv4Address},
		883: {"tenantSourceIPv6", TypeIPv6Address},
		884: {"tenantDestIPv6", TypeIPv6Address},
		886: {"tenantSourcePort", TypeUnsigned},
		887: {"tenantDestPort", TypeUnsigned},
		888: {"egressInterfaceAttr", TypeUnsigned},
		889: {"vxlanExportRole", TypeUnsigned},
		890: {"ingressInterfaceAttr", TypeUnsigned},
	},
}

// resolveV9Field resolves a v9 field type number against the static
// registry.
func resolveV9Field(fieldType uint16, parseUnknown bool) (fieldSpec, bool) {
	if s, ok := v9Fields[fieldType]; ok {
		return s, true
	}
	if parseUnknown {
		return fieldSpec{
			Name: fmt.Sprintf("field_%d", fieldType),
			Type: TypeOctetArray,
		}, true
	}
	return fieldSpec{}, false
}

// resolveV9ScopeField resolves the scope field types of v9 options
// templates.
func resolveV9ScopeField(fieldType uint16) fieldSpec {
	if name, ok := v9ScopeFieldNames[fieldType]; ok {
		return fieldSpec{Name: name, Type: TypeUnsigned}
	}
	return fieldSpec{Name: fmt.Sprintf("scope_field_%d", fieldType), Type: TypeUnsigned}
}

// resolveIPFIXField resolves an (enterprise, element id) pair against the
// IANA registry, the built-in vendor registries, the reverse-PEN rule of
// RFC 5103 and finally the caller registry. The resolution result is stored
// on the cached template, so this runs once per template field, never per
// record.
func resolveIPFIXField(enterprise uint32, fieldType uint16, registry *EnterpriseFieldRegistry, parseUnknown bool) (fieldSpec, bool) {
	switch enterprise {
	case PenIANA:
		if s, ok := ipfixFields[fieldType]; ok {
			return s, true
		}
	case PenReverse:
		if s, ok := ipfixFields[fieldType]; ok {
			return fieldSpec{Name: "reverse" + capitalize(s.Name), Type: s.Type}, true
		}
	default:
		if vendor, ok := builtinEnterpriseFields[enterprise]; ok {
			if s, ok := vendor[fieldType]; ok {
				return s, true
			}
		}
	}
	if registry != nil {
		if s, ok := registry.Lookup(enterprise, fieldType); ok {
			return s, true
		}
	}
	if parseUnknown {
		name := fmt.Sprintf("field_%d", fieldType)
		if enterprise != PenIANA {
			name = fmt.Sprintf("enterprise_%d_field_%d", enterprise, fieldType)
		}
		return fieldSpec{Name: name, Type: TypeOctetArray}, true
	}
	return fieldSpec{}, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

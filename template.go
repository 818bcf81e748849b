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
	"encoding/json"
)

// FieldDescriptor is one entry of a template's ordered field list. The
// wire form carries the field type, the declared length and, for IPFIX
// fields with the enterprise bit set, the private enterprise number. Name
// and DataType are resolved from the registries when the template is parsed
// and ride along in the cache so that record decoding never performs a
// registry lookup.
type FieldDescriptor struct {
	FieldType        uint16 `json:"field_type"`
	FieldLength      uint16 `json:"field_length"`
	EnterpriseNumber uint32 `json:"enterprise_number,omitempty"`

	Name     string        `json:"name,omitempty"`
	DataType FieldDataType `json:"-"`

	// Scope marks the leading scope fields of an options template
	Scope bool `json:"scope,omitempty"`
}

// Variable reports whether the field uses RFC 7011 variable-length encoding.
func (d FieldDescriptor) Variable() bool {
	return d.FieldLength == VariableLengthFieldIndicator
}

func (d FieldDescriptor) identity() enterpriseFieldKey {
	return enterpriseFieldKey{d.EnterpriseNumber, d.FieldType}
}

// TemplateKind distinguishes data templates from options templates.
type TemplateKind uint8

const (
	TemplateKindData TemplateKind = iota
	TemplateKindOptions
)

func (k TemplateKind) String() string {
	if k == TemplateKindOptions {
		return "options"
	}
	return "data"
}

// Template is an ordered field list identified by a 16-bit id unique within
// one exporter scope. For options templates the first ScopeFieldCount
// entries are scope fields.
type Template struct {
	TemplateId      uint16
	Kind            TemplateKind
	ScopeFieldCount uint16
	Fields          []FieldDescriptor
}

func (t *Template) FieldCount() uint16 {
	return uint16(len(t.Fields))
}

// fixedLength sums the declared lengths of all fixed-width fields.
// Variable-length fields contribute 0. The second return reports whether any
// field is variable-length, in which case records cannot be sliced by a
// fixed record size.
func (t *Template) fixedLength() (int, bool) {
	total := 0
	variable := false
	for _, f := range t.Fields {
		if f.Variable() {
			variable = true
			continue
		}
		total += int(f.FieldLength)
	}
	return total, variable
}

// validate checks the insertion invariants. A failing template is rejected
// without caching.
func (t *Template) validate(maxFieldCount, maxTotalSize int) (ParseErrorKind, bool) {
	if t.TemplateId < MinimumTemplateId {
		return ParseErrorTemplateId, false
	}
	if len(t.Fields) < 1 || len(t.Fields) > maxFieldCount {
		return ParseErrorFieldCount, false
	}
	if int(t.ScopeFieldCount) > len(t.Fields) {
		return ParseErrorScopeFieldCount, false
	}
	if size, _ := t.fixedLength(); size > maxTotalSize {
		return ParseErrorTemplateTotalSize, false
	}
	seen := make(map[enterpriseFieldKey]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		// a fixed-width field of zero bytes would let records decode without
		// consuming input
		if !f.Variable() && f.FieldLength == 0 {
			return ParseErrorIllegalFieldLength, false
		}
		key := f.identity()
		if _, dup := seen[key]; dup {
			return ParseErrorDuplicateField, false
		}
		seen[key] = struct{}{}
	}
	return "", true
}

// equal reports whether two templates declare the identical field list.
// Used for distinguishing a refresh (identical re-announcement) from a
// collision (id reuse with a different schema).
func (t *Template) equal(other *Template) bool {
	if t.TemplateId != other.TemplateId ||
		t.Kind != other.Kind ||
		t.ScopeFieldCount != other.ScopeFieldCount ||
		len(t.Fields) != len(other.Fields) {
		return false
	}
	for i := range t.Fields {
		a, b := t.Fields[i], other.Fields[i]
		if a.FieldType != b.FieldType ||
			a.FieldLength != b.FieldLength ||
			a.EnterpriseNumber != b.EnterpriseNumber {
			return false
		}
	}
	return true
}

func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TemplateId      uint16            `json:"template_id"`
		Kind            string            `json:"kind"`
		ScopeFieldCount uint16            `json:"scope_field_count,omitempty"`
		Fields          []FieldDescriptor `json:"fields"`
	}{
		TemplateId:      t.TemplateId,
		Kind:            t.Kind.String(),
		ScopeFieldCount: t.ScopeFieldCount,
		Fields:          t.Fields,
	})
}

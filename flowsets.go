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
	"encoding/json"
)

// FlowSetHeader precedes every flowset: a 16-bit id selecting the variant
// and a 16-bit length that includes the 4 header bytes.
type FlowSetHeader struct {
	Id     uint16 `json:"id"`
	Length uint16 `json:"length"`
}

// FlowSet is one length-delimited block of a v9 or IPFIX packet. Exactly one
// of Templates, Records and Raw is populated, selected by Kind:
//
//   - KindTemplateFlowSet and KindOptionsTemplateFlowSet carry Templates
//   - KindDataFlowSet carries Records decoded against the cached template
//   - KindMissingTemplateFlowSet carries the undecodable body verbatim in
//     Raw, so the flowset still re-encodes byte-exactly and callers can
//     retry after the template arrives
type FlowSet struct {
	Header FlowSetHeader `json:"header"`
	Kind   string        `json:"kind"`

	Templates []*Template  `json:"templates,omitempty"`
	Records   []DataRecord `json:"records,omitempty"`
	Raw       []byte       `json:"raw,omitempty"`

	// Padding holds the captured trailing bytes of a parsed flowset
	// verbatim. For synthesized flowsets it is nil and Encode computes
	// padding to 4-byte alignment.
	Padding []byte `json:"-"`
}

// DataField pairs one field descriptor with its decoded value.
type DataField struct {
	Descriptor FieldDescriptor
	Value      FieldValue
}

func (f DataField) MarshalJSON() ([]byte, error) {
	v, err := f.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Name  string          `json:"name"`
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
		Scope bool            `json:"scope,omitempty"`
	}{
		Name:  f.Descriptor.Name,
		Type:  f.Value.Kind(),
		Value: v,
		Scope: f.Descriptor.Scope,
	})
}

// DataRecord is one record of a data flowset: the template's fields in
// order, each with its decoded value. Partial marks a record cut short by
// the end of input; the fields decoded before the cut are retained.
type DataRecord struct {
	Fields  []DataField `json:"fields"`
	Partial bool        `json:"partial,omitempty"`
}

// Lookup returns the value of the first field with the given type and
// enterprise number.
func (r *DataRecord) Lookup(enterprise uint32, fieldType uint16) (FieldValue, bool) {
	for _, f := range r.Fields {
		if f.Descriptor.FieldType == fieldType && f.Descriptor.EnterpriseNumber == enterprise {
			return f.Value, true
		}
	}
	return nil, false
}

// decodeDataRecords decodes the body of a data flowset against its template.
// Records are decoded until fewer bytes remain than one record requires; the
// trailing bytes are returned as padding, captured verbatim.
//
// For templates containing variable-length fields the record size is not
// known up front. In that case a record that fails on its very first field
// ends the loop and the remainder counts as padding; a record that fails
// later is kept as a partial record.
func decodeDataRecords(c *cursor, template *Template) ([]DataRecord, []byte, error) {
	fixedSize, hasVariable := template.fixedLength()

	records := []DataRecord{}
	for c.remaining() > 0 {
		if !hasVariable && c.remaining() < fixedSize {
			break
		}
		record := DataRecord{Fields: make([]DataField, 0, len(template.Fields))}
		for i, desc := range template.Fields {
			var raw []byte
			var err error
			if desc.Variable() {
				raw, err = c.variableLength(desc.Name)
			} else {
				raw, err = c.bytes(int(desc.FieldLength), desc.Name)
			}
			if err != nil {
				if i == 0 {
					// nothing of this record was consumed; the rest of the
					// flowset is padding
					padding := captureBytes(c.rest())
					return records, padding, nil
				}
				record.Partial = true
				records = append(records, record)
				return records, []byte{}, nil
			}
			record.Fields = append(record.Fields, DataField{
				Descriptor: desc,
				Value:      decodeFieldValue(desc.DataType, raw),
			})
		}
		records = append(records, record)
	}
	return records, captureBytes(c.rest()), nil
}

// encodeDataRecords renders records back into their wire form, each value in
// its descriptor's declared width.
func encodeDataRecords(dst []byte, records []DataRecord) ([]byte, error) {
	for _, record := range records {
		for _, f := range record.Fields {
			if f.Descriptor.Variable() {
				v, err := f.Value.Bytes(VariableLengthFieldIndicator)
				if err != nil {
					return nil, err
				}
				dst = appendVariableLength(dst, len(v))
				dst = append(dst, v...)
				continue
			}
			v, err := f.Value.Bytes(f.Descriptor.FieldLength)
			if err != nil {
				return nil, err
			}
			dst = append(dst, v...)
		}
	}
	return dst, nil
}

// appendPadding appends the flowset's captured padding, or computes 4-byte
// alignment padding for synthesized flowsets. bodyLength is the number of
// bytes written after the flowset header.
func appendPadding(dst []byte, captured []byte, bodyLength int) []byte {
	if captured != nil {
		return append(dst, captured...)
	}
	total := flowSetHeaderLength + bodyLength
	if pad := total % flowSetPaddingAlignment; pad != 0 {
		dst = append(dst, make([]byte, flowSetPaddingAlignment-pad)...)
	}
	return dst
}

// encodeFlowSet renders one flowset with a back-patched length field.
func encodeFlowSet(dst []byte, fs *FlowSet, encodeTemplate func([]byte, *Template) ([]byte, error)) ([]byte, error) {
	start := len(dst)
	dst = binary.BigEndian.AppendUint16(dst, fs.Header.Id)
	dst = binary.BigEndian.AppendUint16(dst, 0) // length, patched below

	var err error
	switch fs.Kind {
	case KindTemplateFlowSet, KindOptionsTemplateFlowSet:
		for _, t := range fs.Templates {
			dst, err = encodeTemplate(dst, t)
			if err != nil {
				return nil, err
			}
		}
	case KindDataFlowSet:
		dst, err = encodeDataRecords(dst, fs.Records)
		if err != nil {
			return nil, err
		}
	case KindMissingTemplateFlowSet:
		dst = append(dst, fs.Raw...)
	}

	dst = appendPadding(dst, fs.Padding, len(dst)-start-flowSetHeaderLength)
	binary.BigEndian.PutUint16(dst[start+2:], uint16(len(dst)-start))
	return dst, nil
}

// captureBytes copies a slice out of the parse buffer. The returned slice is
// non-nil even when empty, distinguishing captured (possibly empty) padding
// from synthesized flowsets.
func captureBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

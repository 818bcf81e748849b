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
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// EnterpriseFieldExport is the YAML document shape for enterprise field
// definitions, so that exports are self-describing:
//
//	name: vendor fields
//	fields:
//	  - enterprise_number: 9
//	    field_number: 12235
//	    name: applicationHttpHost
//	    data_type: string
type EnterpriseFieldExport struct {
	Name            string    `yaml:"name,omitempty"`
	ExportTimestamp time.Time `yaml:"export_timestamp,omitempty"`

	Fields []EnterpriseFieldDef `yaml:"fields"`
}

func MustReadEnterpriseFieldsYAML(r io.Reader) []EnterpriseFieldDef {
	defs, err := ReadEnterpriseFieldsYAML(r)
	if err != nil {
		panic(err)
	}
	return defs
}

// ReadEnterpriseFieldsYAML reads enterprise field definitions for
// ParserOptions.EnterpriseFields or EnterpriseFieldRegistry.RegisterAll. The
// data_type strings are resolved against the type registry; an unknown type
// name fails the whole read.
func ReadEnterpriseFieldsYAML(r io.Reader) ([]EnterpriseFieldDef, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	read := EnterpriseFieldExport{}
	if err := dec.Decode(&read); err != nil {
		return nil, err
	}

	for i := range read.Fields {
		t, err := FieldDataTypeFromName(read.Fields[i].TypeName)
		if err != nil {
			return nil, err
		}
		read.Fields[i].DataType = t
	}
	return read.Fields, nil
}

func MustWriteEnterpriseFieldsYAML(w io.Writer, defs []EnterpriseFieldDef) {
	if err := WriteEnterpriseFieldsYAML(w, defs); err != nil {
		panic(err)
	}
}

// WriteEnterpriseFieldsYAML writes definitions in the format
// ReadEnterpriseFieldsYAML reads.
func WriteEnterpriseFieldsYAML(w io.Writer, defs []EnterpriseFieldDef) error {
	out := make([]EnterpriseFieldDef, len(defs))
	copy(out, defs)
	for i := range out {
		out[i].TypeName = out[i].DataType.String()
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	return enc.Encode(EnterpriseFieldExport{
		Name:            "enterprise information elements",
		ExportTimestamp: time.Now(),
		Fields:          out,
	})
}

package netflow

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadEnterpriseFieldsCSV(t *testing.T) {
	in := `enterprise_number,field_number,name,data_type
9,12235,applicationHttpHost,string
29305,1,reverseOctetDeltaCount,unsigned
`
	defs, err := ReadEnterpriseFieldsCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].EnterpriseNumber != PenCisco || defs[0].Name != "applicationHttpHost" || defs[0].DataType != TypeString {
		t.Errorf("unexpected first definition: %+v", defs[0])
	}
	if defs[1].EnterpriseNumber != PenReverse || defs[1].DataType != TypeUnsigned {
		t.Errorf("unexpected second definition: %+v", defs[1])
	}
}

func TestReadEnterpriseFieldsCSVMalformed(t *testing.T) {
	for name, in := range map[string]string{
		"bad enterprise": "enterprise_number,field_number,name,data_type\nnope,1,x,string\n",
		"bad field":      "enterprise_number,field_number,name,data_type\n9,70000,x,string\n",
		"bad type":       "enterprise_number,field_number,name,data_type\n9,1,x,notAType\n",
		"short row":      "enterprise_number,field_number,name,data_type\n9,1,x\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadEnterpriseFieldsCSV(strings.NewReader(in)); err == nil {
				t.Error("malformed input should fail the read")
			}
		})
	}
}

func TestWriteEnterpriseFieldsCSVRoundTrip(t *testing.T) {
	defs := []EnterpriseFieldDef{
		{EnterpriseNumber: PenVMware, FieldNumber: 881, Name: "tenantSourceIPv4", DataType: TypeIPv4Address, TypeName: "ipv4Address"},
		{EnterpriseNumber: PenYaf, FieldNumber: 36, Name: "osName", DataType: TypeString, TypeName: "string"},
	}

	var buf bytes.Buffer
	if err := WriteEnterpriseFieldsCSV(&buf, defs); err != nil {
		t.Fatalf("write: %v", err)
	}

	back, err := ReadEnterpriseFieldsCSV(&buf)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(back) != len(defs) {
		t.Fatalf("expected %d definitions, got %d", len(defs), len(back))
	}
	for i := range defs {
		if back[i] != defs[i] {
			t.Errorf("definition %d: want %+v, got %+v", i, defs[i], back[i])
		}
	}
}

package netflow

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

func MustReadEnterpriseFieldsCSV(r io.Reader) []EnterpriseFieldDef {
	defs, err := ReadEnterpriseFieldsCSV(r)
	if err != nil {
		panic(err)
	}
	return defs
}

// ReadEnterpriseFieldsCSV reads enterprise field definitions from CSV with a
// header row and the columns
//
//	enterprise_number,field_number,name,data_type
//
// which is the shape vendor registries tend to be distributed in.
func ReadEnterpriseFieldsCSV(r io.Reader) ([]EnterpriseFieldDef, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = 4

	// header row
	if _, err := csvReader.Read(); err != nil {
		return nil, err
	}

	defs := []EnterpriseFieldDef{}
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		enterprise, err := strconv.ParseUint(record[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid enterprise number %q: %w", record[0], err)
		}
		field, err := strconv.ParseUint(record[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid field number %q: %w", record[1], err)
		}
		dataType, err := FieldDataTypeFromName(record[3])
		if err != nil {
			return nil, err
		}

		defs = append(defs, EnterpriseFieldDef{
			EnterpriseNumber: uint32(enterprise),
			FieldNumber:      uint16(field),
			Name:             record[2],
			DataType:         dataType,
			TypeName:         record[3],
		})
	}
	return defs, nil
}

// WriteEnterpriseFieldsCSV writes definitions in the format
// ReadEnterpriseFieldsCSV reads.
func WriteEnterpriseFieldsCSV(w io.Writer, defs []EnterpriseFieldDef) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write([]string{"enterprise_number", "field_number", "name", "data_type"}); err != nil {
		return err
	}
	for _, def := range defs {
		err := csvWriter.Write([]string{
			strconv.FormatUint(uint64(def.EnterpriseNumber), 10),
			strconv.FormatUint(uint64(def.FieldNumber), 10),
			def.Name,
			def.DataType.String(),
		})
		if err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

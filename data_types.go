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
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// FieldDataType selects the decoding strategy for a field's bytes. It is
// resolved from the field registries once per field at template parse time
// and stored on the cached template, so record decoding never consults a
// registry.
type FieldDataType uint8

const (
	TypeUnknown FieldDataType = iota
	TypeOctetArray
	TypeUnsigned
	TypeSigned
	TypeFloat64
	TypeString
	TypeIPv4Address
	TypeIPv6Address
	TypeMacAddress
	TypeProtocol
	TypeApplicationId
	TypeDurationSeconds
	TypeDurationMilliseconds
	TypeDurationMicrosecondsNTP
	TypeDurationNanosecondsNTP
)

var fieldDataTypeNames = map[FieldDataType]string{
	TypeUnknown:                 "unknown",
	TypeOctetArray:              "octetArray",
	TypeUnsigned:                "unsigned",
	TypeSigned:                  "signed",
	TypeFloat64:                 "float64",
	TypeString:                  "string",
	TypeIPv4Address:             "ipv4Address",
	TypeIPv6Address:             "ipv6Address",
	TypeMacAddress:              "macAddress",
	TypeProtocol:                "protocol",
	TypeApplicationId:           "applicationId",
	TypeDurationSeconds:         "durationSeconds",
	TypeDurationMilliseconds:    "durationMilliseconds",
	TypeDurationMicrosecondsNTP: "durationMicrosecondsNTP",
	TypeDurationNanosecondsNTP:  "durationNanosecondsNTP",
}

func (t FieldDataType) String() string {
	if n, ok := fieldDataTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// FieldDataTypeFromName resolves the registry string representation back to
// the FieldDataType. Used by the YAML and CSV enterprise field loaders.
func FieldDataTypeFromName(name string) (FieldDataType, error) {
	for t, n := range fieldDataTypeNames {
		if n == name {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown field data type %q", name)
}

// FieldValue is the decoded form of a single field in a data record. The
// concrete type is determined by the FieldDataType the template resolved for
// the field.
//
// Bytes renders the value back into its wire form in the declared width,
// which together with the captured flowset padding gives byte-exact
// re-serialization of parsed packets.
type FieldValue interface {
	json.Marshaler
	fmt.Stringer

	// Kind returns the name of the value variant, matching the
	// FieldDataType registry names
	Kind() string

	// Bytes encodes the value big-endian in the given width. Variable-length
	// fields pass the actual value length.
	Bytes(length uint16) ([]byte, error)
}

// decodeFieldValue interprets b, the exact bytes of one field, through the
// resolved data type. Integer interpretations accept widths 1, 2, 3, 4 and 8;
// every other width falls back to an octet array, as do malformed fixed-width
// values for addresses and timestamps.
func decodeFieldValue(dataType FieldDataType, b []byte) FieldValue {
	switch dataType {
	case TypeUnsigned:
		if v, ok := decodeUnsigned(b); ok {
			return &UnsignedValue{Value: v, Width: uint8(len(b))}
		}
	case TypeSigned:
		if v, ok := decodeSigned(b); ok {
			return &SignedValue{Value: v, Width: uint8(len(b))}
		}
	case TypeFloat64:
		switch len(b) {
		case 4:
			bits := binary.BigEndian.Uint32(b)
			return &Float64Value{Value: float64(math.Float32frombits(bits)), Width: 4}
		case 8:
			return &Float64Value{Value: math.Float64frombits(binary.BigEndian.Uint64(b)), Width: 8}
		}
	case TypeString:
		return &StringValue{Value: sanitizeString(b)}
	case TypeIPv4Address:
		if len(b) == 4 {
			addr, _ := netip.AddrFromSlice(b)
			return &IPv4AddressValue{Value: addr}
		}
	case TypeIPv6Address:
		if len(b) == 16 {
			addr, _ := netip.AddrFromSlice(b)
			return &IPv6AddressValue{Value: addr}
		}
	case TypeMacAddress:
		if len(b) == 6 {
			v := &MacAddressValue{}
			copy(v.Value[:], b)
			return v
		}
	case TypeProtocol:
		if len(b) == 1 {
			return &ProtocolValue{Number: b[0]}
		}
	case TypeApplicationId:
		if len(b) >= 2 && len(b) <= 9 {
			selector, _ := decodeUnsignedAny(b[1:])
			return &ApplicationIdValue{EngineId: b[0], SelectorId: selector, Width: uint8(len(b))}
		}
	case TypeDurationSeconds:
		if v, ok := decodeUnsigned(b); ok {
			return &DurationValue{Value: v, Unit: DurationUnitSeconds, Width: uint8(len(b))}
		}
	case TypeDurationMilliseconds:
		if v, ok := decodeUnsigned(b); ok {
			return &DurationValue{Value: v, Unit: DurationUnitMilliseconds, Width: uint8(len(b))}
		}
	case TypeDurationMicrosecondsNTP:
		if len(b) == 8 {
			return &NtpTimeValue{
				Seconds:   binary.BigEndian.Uint32(b[0:4]),
				Fraction:  binary.BigEndian.Uint32(b[4:8]),
				Precision: NtpPrecisionMicroseconds,
			}
		}
	case TypeDurationNanosecondsNTP:
		if len(b) == 8 {
			return &NtpTimeValue{
				Seconds:   binary.BigEndian.Uint32(b[0:4]),
				Fraction:  binary.BigEndian.Uint32(b[4:8]),
				Precision: NtpPrecisionNanoseconds,
			}
		}
	}
	v := make([]byte, len(b))
	copy(v, b)
	return &OctetArrayValue{Value: v}
}

func decodeUnsigned(b []byte) (uint64, bool) {
	switch len(b) {
	case 1, 2, 3, 4, 8:
		v, _ := decodeUnsignedAny(b)
		return v, true
	}
	return 0, false
}

func decodeUnsignedAny(b []byte) (uint64, bool) {
	if len(b) > 8 {
		return 0, false
	}
	var v uint64
	for _, octet := range b {
		v = v<<8 | uint64(octet)
	}
	return v, true
}

func decodeSigned(b []byte) (int64, bool) {
	u, ok := decodeUnsigned(b)
	if !ok {
		return 0, false
	}
	bits := uint(len(b)) * 8
	if bits < 64 && u&(1<<(bits-1)) != 0 {
		// sign-extend
		u |= ^uint64(0) << bits
	}
	return int64(u), true
}

func appendUintWidth(dst []byte, v uint64, width uint16) ([]byte, error) {
	switch width {
	case 1:
		return append(dst, uint8(v)), nil
	case 2:
		return binary.BigEndian.AppendUint16(dst, uint16(v)), nil
	case 3:
		return append(dst, uint8(v>>16), uint8(v>>8), uint8(v)), nil
	case 4:
		return binary.BigEndian.AppendUint32(dst, uint32(v)), nil
	case 8:
		return binary.BigEndian.AppendUint64(dst, v), nil
	}
	return dst, fmt.Errorf("cannot encode integer in %d bytes", width)
}

// sanitizeString interprets field bytes as UTF-8 text in a single pass,
// dropping control characters and invalid sequences. Some exporters prefix
// string fields with the bytes "P4"; the prefix is stripped.
func sanitizeString(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	s := string(b)
	s = strings.TrimPrefix(s, "P4")
	for _, r := range s {
		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// UnsignedValue holds an unsigned integer of wire width 1, 2, 3, 4 or 8
// bytes.
type UnsignedValue struct {
	Value uint64
	// Width is the wire width the value was decoded from
	Width uint8
}

func (v *UnsignedValue) Kind() string { return "unsigned" }

func (v *UnsignedValue) String() string { return strconv.FormatUint(v.Value, 10) }

func (v *UnsignedValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Value) }

func (v *UnsignedValue) Bytes(length uint16) ([]byte, error) {
	return appendUintWidth(nil, v.Value, length)
}

// SignedValue holds a signed integer of wire width 1, 2, 3, 4 or 8 bytes,
// sign-extended from its wire width.
type SignedValue struct {
	Value int64
	Width uint8
}

func (v *SignedValue) Kind() string { return "signed" }

func (v *SignedValue) String() string { return strconv.FormatInt(v.Value, 10) }

func (v *SignedValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Value) }

func (v *SignedValue) Bytes(length uint16) ([]byte, error) {
	return appendUintWidth(nil, uint64(v.Value), length)
}

// Float64Value holds an IEEE 754 value decoded from 4 or 8 wire bytes.
type Float64Value struct {
	Value float64
	Width uint8
}

func (v *Float64Value) Kind() string { return "float64" }

func (v *Float64Value) String() string { return strconv.FormatFloat(v.Value, 'g', -1, 64) }

func (v *Float64Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.Value) }

func (v *Float64Value) Bytes(length uint16) ([]byte, error) {
	switch length {
	case 4:
		return binary.BigEndian.AppendUint32(nil, math.Float32bits(float32(v.Value))), nil
	case 8:
		return binary.BigEndian.AppendUint64(nil, math.Float64bits(v.Value)), nil
	}
	return nil, fmt.Errorf("cannot encode float in %d bytes", length)
}

// StringValue holds sanitized UTF-8 text.
type StringValue struct {
	Value string
}

func (v *StringValue) Kind() string { return "string" }

func (v *StringValue) String() string { return v.Value }

func (v *StringValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Value) }

func (v *StringValue) Bytes(length uint16) ([]byte, error) {
	if length == VariableLengthFieldIndicator {
		return []byte(v.Value), nil
	}
	// fixed-width strings are padded with NULs to the declared width
	b := make([]byte, length)
	copy(b, v.Value)
	return b, nil
}

// IPv4AddressValue holds a 4-byte address.
type IPv4AddressValue struct {
	Value netip.Addr
}

func (v *IPv4AddressValue) Kind() string { return "ipv4Address" }

func (v *IPv4AddressValue) String() string { return v.Value.String() }

func (v *IPv4AddressValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Value.String()) }

func (v *IPv4AddressValue) Bytes(length uint16) ([]byte, error) {
	if length != 4 {
		return nil, fmt.Errorf("cannot encode IPv4 address in %d bytes", length)
	}
	a := v.Value.As4()
	return a[:], nil
}

// IPv6AddressValue holds a 16-byte address.
type IPv6AddressValue struct {
	Value netip.Addr
}

func (v *IPv6AddressValue) Kind() string { return "ipv6Address" }

func (v *IPv6AddressValue) String() string { return v.Value.String() }

func (v *IPv6AddressValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Value.String()) }

func (v *IPv6AddressValue) Bytes(length uint16) ([]byte, error) {
	if length != 16 {
		return nil, fmt.Errorf("cannot encode IPv6 address in %d bytes", length)
	}
	a := v.Value.As16()
	return a[:], nil
}

// MacAddressValue holds a 6-byte link-layer address, rendered in the usual
// colon-separated lowercase hexadecimal form.
type MacAddressValue struct {
	Value [6]byte
}

func (v *MacAddressValue) Kind() string { return "macAddress" }

func (v *MacAddressValue) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		v.Value[0], v.Value[1], v.Value[2], v.Value[3], v.Value[4], v.Value[5])
}

func (v *MacAddressValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.String()) }

func (v *MacAddressValue) Bytes(length uint16) ([]byte, error) {
	if length != 6 {
		return nil, fmt.Errorf("cannot encode MAC address in %d bytes", length)
	}
	b := make([]byte, 6)
	copy(b, v.Value[:])
	return b, nil
}

// ProtocolValue holds an IANA transport protocol number.
type ProtocolValue struct {
	Number uint8
}

func (v *ProtocolValue) Kind() string { return "protocol" }

// Name returns the IANA keyword for the protocol number, or its decimal
// representation if the number is unassigned.
func (v *ProtocolValue) Name() string {
	if n, ok := protocolNames[v.Number]; ok {
		return n
	}
	return strconv.Itoa(int(v.Number))
}

func (v *ProtocolValue) String() string { return v.Name() }

func (v *ProtocolValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"number": v.Number, "name": v.Name()})
}

func (v *ProtocolValue) Bytes(length uint16) ([]byte, error) {
	if length != 1 {
		return nil, fmt.Errorf("cannot encode protocol number in %d bytes", length)
	}
	return []byte{v.Number}, nil
}

// ApplicationIdValue holds a Cisco NBAR application identifier: one byte of
// classification engine id followed by a selector.
type ApplicationIdValue struct {
	EngineId   uint8
	SelectorId uint64
	Width      uint8
}

func (v *ApplicationIdValue) Kind() string { return "applicationId" }

func (v *ApplicationIdValue) String() string {
	return fmt.Sprintf("%d:%d", v.EngineId, v.SelectorId)
}

func (v *ApplicationIdValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"engine_id": v.EngineId, "selector_id": v.SelectorId})
}

func (v *ApplicationIdValue) Bytes(length uint16) ([]byte, error) {
	if length < 2 || length > 9 {
		return nil, fmt.Errorf("cannot encode application id in %d bytes", length)
	}
	b := make([]byte, length)
	b[0] = v.EngineId
	selector := v.SelectorId
	for i := int(length) - 1; i >= 1; i-- {
		b[i] = uint8(selector)
		selector >>= 8
	}
	return b, nil
}

// DurationUnit distinguishes the two integer duration encodings.
type DurationUnit uint8

const (
	DurationUnitSeconds DurationUnit = iota
	DurationUnitMilliseconds
)

// DurationValue holds a duration encoded as an unsigned integer of seconds
// or milliseconds, e.g. flowStartSysUpTime.
type DurationValue struct {
	Value uint64
	Unit  DurationUnit
	Width uint8
}

func (v *DurationValue) Kind() string {
	if v.Unit == DurationUnitMilliseconds {
		return "durationMilliseconds"
	}
	return "durationSeconds"
}

// Duration converts the value into a time.Duration.
func (v *DurationValue) Duration() time.Duration {
	if v.Unit == DurationUnitMilliseconds {
		return time.Duration(v.Value) * time.Millisecond
	}
	return time.Duration(v.Value) * time.Second
}

func (v *DurationValue) String() string { return v.Duration().String() }

func (v *DurationValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Value) }

func (v *DurationValue) Bytes(length uint16) ([]byte, error) {
	return appendUintWidth(nil, v.Value, length)
}

// NtpPrecision selects how the fractional part of an NTP timestamp is
// presented.
type NtpPrecision uint8

const (
	NtpPrecisionMicroseconds NtpPrecision = iota
	NtpPrecisionNanoseconds
)

// NtpTimeValue holds an NTP 64-bit timestamp: 32 bits of seconds since 1900
// and 32 bits of fractional seconds scaled by 2^32.
type NtpTimeValue struct {
	Seconds   uint32
	Fraction  uint32
	Precision NtpPrecision
}

func (v *NtpTimeValue) Kind() string {
	if v.Precision == NtpPrecisionNanoseconds {
		return "durationNanosecondsNTP"
	}
	return "durationMicrosecondsNTP"
}

// Time converts the timestamp to the UNIX epoch. The fraction is scaled to
// nanoseconds regardless of precision; Precision only affects rendering.
func (v *NtpTimeValue) Time() time.Time {
	unixSeconds := int64(uint64(v.Seconds)) - int64(ntpEpochOffsetSeconds)
	nanos := (uint64(v.Fraction) * uint64(time.Second)) >> 32
	return time.Unix(unixSeconds, int64(nanos)).UTC()
}

func (v *NtpTimeValue) String() string {
	t := v.Time()
	if v.Precision == NtpPrecisionNanoseconds {
		return t.Format("2006-01-02T15:04:05.000000000Z07:00")
	}
	return t.Format("2006-01-02T15:04:05.000000Z07:00")
}

func (v *NtpTimeValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.String()) }

func (v *NtpTimeValue) Bytes(length uint16) ([]byte, error) {
	if length != 8 {
		return nil, fmt.Errorf("cannot encode NTP timestamp in %d bytes", length)
	}
	b := binary.BigEndian.AppendUint32(nil, v.Seconds)
	return binary.BigEndian.AppendUint32(b, v.Fraction), nil
}

// OctetArrayValue is the fallback for fields whose data type is unknown or
// whose width does not match any typed interpretation.
type OctetArrayValue struct {
	Value []byte
}

func (v *OctetArrayValue) Kind() string { return "octetArray" }

func (v *OctetArrayValue) String() string { return fmt.Sprintf("%x", v.Value) }

func (v *OctetArrayValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.Value) }

func (v *OctetArrayValue) Bytes(length uint16) ([]byte, error) {
	if length == VariableLengthFieldIndicator {
		return v.Value, nil
	}
	if int(length) != len(v.Value) {
		return nil, fmt.Errorf("octet array holds %d bytes, declared width is %d", len(v.Value), length)
	}
	return v.Value, nil
}

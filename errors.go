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
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound is the base error for data flowsets referencing a
	// template id that is not cached. Use errors.Is() for checking the error
	// class; the full MissingTemplateError carries the id, the currently
	// cached ids and the raw bytes for retry.
	ErrTemplateNotFound error = errors.New("template not found")
	// ErrUnsupportedVersion indicates a header version that is neither 5, 7,
	// 9 nor 10.
	ErrUnsupportedVersion error = errors.New("unsupported version")
	// ErrFilteredVersion indicates a header version excluded through the
	// AllowedVersions option. It is a signal, not a failure: parsing stops
	// before the filtered packet without consuming it.
	ErrFilteredVersion error = errors.New("filtered version")
	// ErrIncompleteData indicates that fewer bytes remained than a fixed-width
	// read required.
	ErrIncompleteData error = errors.New("incomplete data")
	// ErrInvalidTemplate is the base error for templates failing a validation
	// invariant on insertion. Such templates are rejected without caching.
	ErrInvalidTemplate error = errors.New("invalid template")
	// ErrPartialRecord indicates that a record could only be decoded up to a
	// field boundary before the buffer ran out.
	ErrPartialRecord error = errors.New("partial record")
)

// IncompleteError reports a fixed-width read against a buffer that holds
// fewer bytes than required.
type IncompleteError struct {
	// Needed is the number of bytes the read required
	Needed int
	// Available is the number of bytes that actually remained
	Available int
	// Context names the structure being decoded when the buffer ran out
	Context string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete data decoding %s: need %d bytes, have %d", e.Context, e.Needed, e.Available)
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncompleteData
}

// UnsupportedVersionError reports a header version this library does not
// decode. Sample holds up to MaxErrorSampleSize bytes of the offending input.
type UnsupportedVersionError struct {
	Version uint16
	// Offset of the version word relative to the start of the parse buffer
	Offset int
	Sample []byte
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported version %d at offset %d (%d sample bytes)", e.Version, e.Offset, len(e.Sample))
}

func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// MissingTemplateError reports a data flowset whose template id is not in the
// cache. RawData holds the bytes of the packet from its header onward, so
// callers can buffer it and re-parse through the same scope once the template
// has been learned.
type MissingTemplateError struct {
	TemplateId uint16
	Protocol   TemplateProtocol
	// AvailableTemplates lists the ids currently cached for the protocol,
	// sorted ascending. Intended for debugging, not for program logic.
	AvailableTemplates []uint16
	RawData            []byte
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("template %d not found in %s cache (%d templates cached)", e.TemplateId, e.Protocol, len(e.AvailableTemplates))
}

func (e *MissingTemplateError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// ParseErrorKind classifies validation failures surfaced through ParseError.
type ParseErrorKind string

const (
	ParseErrorInvalidLength      ParseErrorKind = "invalid_length"
	ParseErrorFieldCount         ParseErrorKind = "field_count"
	ParseErrorScopeFieldCount    ParseErrorKind = "scope_field_count"
	ParseErrorDuplicateField     ParseErrorKind = "duplicate_field"
	ParseErrorTemplateId         ParseErrorKind = "template_id"
	ParseErrorTemplateTotalSize  ParseErrorKind = "template_total_size"
	ParseErrorVariableLength     ParseErrorKind = "variable_length"
	ParseErrorMalformedFlowSet   ParseErrorKind = "malformed_flowset"
	ParseErrorIllegalFieldLength ParseErrorKind = "illegal_field_length"
	ParseErrorUnknownField       ParseErrorKind = "unknown_field"
)

// ParseError reports a violated validation invariant, e.g. a template
// declaring a duplicate field or a flowset length that exceeds the packet.
type ParseError struct {
	// Offset relative to the start of the parse buffer
	Offset  int
	Context string
	Kind    ParseErrorKind
	// Sample holds up to MaxErrorSampleSize of the remaining bytes
	Sample []byte
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (%s) in %s at offset %d", e.Kind, e.Context, e.Offset)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidTemplate &&
		(e.Kind == ParseErrorFieldCount ||
			e.Kind == ParseErrorScopeFieldCount ||
			e.Kind == ParseErrorDuplicateField ||
			e.Kind == ParseErrorTemplateId ||
			e.Kind == ParseErrorTemplateTotalSize ||
			e.Kind == ParseErrorIllegalFieldLength)
}

// PartialError wraps the state of a record that could not be fully decoded.
// The fields decoded before the buffer ran out remain attached to the record.
type PartialError struct {
	Context string
	// DecodedFields is the number of fields decoded before the cut
	DecodedFields int
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partial %s: %d fields decoded before input was exhausted", e.Context, e.DecodedFields)
}

func (e *PartialError) Is(target error) bool {
	return target == ErrPartialRecord
}

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
)

// cursor is the byte reader all decoding goes through. It tracks the absolute
// offset into the buffer handed to the parser so that errors can report where
// in the original datagram decoding failed, and it hands out sub-cursors for
// length-delimited regions (flowsets) that preserve that offset.
//
// All multi-byte reads are big-endian, as prescribed for every NetFlow and
// IPFIX wire structure.
type cursor struct {
	buf  []byte
	pos  int
	base int

	// sampleLimit bounds error samples taken by the cursor itself;
	// sub-cursors inherit it
	sampleLimit int
}

func newCursor(buf []byte, sampleLimit int) *cursor {
	if sampleLimit <= 0 {
		sampleLimit = DefaultMaxErrorSampleSize
	}
	return &cursor{buf: buf, sampleLimit: sampleLimit}
}

// remaining returns the number of unread bytes.
func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

// offset returns the absolute offset of the next unread byte.
func (c *cursor) offset() int {
	return c.base + c.pos
}

// rest returns the unread bytes without consuming them.
func (c *cursor) rest() []byte {
	return c.buf[c.pos:]
}

// sample copies up to max unread bytes for attachment to errors.
func (c *cursor) sample(max int) []byte {
	n := c.remaining()
	if n > max {
		n = max
	}
	s := make([]byte, n)
	copy(s, c.buf[c.pos:c.pos+n])
	return s
}

func (c *cursor) incomplete(needed int, context string) error {
	return &IncompleteError{Needed: needed, Available: c.remaining(), Context: context}
}

// bytes consumes exactly n bytes. The returned slice aliases the underlying
// buffer; callers that retain it beyond the parse call must copy.
func (c *cursor) bytes(n int, context string) ([]byte, error) {
	if c.remaining() < n {
		return nil, c.incomplete(n, context)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// sub carves out a length-delimited sub-cursor of n bytes, preserving
// absolute offsets for error reporting.
func (c *cursor) sub(n int, context string) (*cursor, error) {
	off := c.offset()
	b, err := c.bytes(n, context)
	if err != nil {
		return nil, err
	}
	return &cursor{buf: b, base: off, sampleLimit: c.sampleLimit}, nil
}

func (c *cursor) uint8(context string) (uint8, error) {
	b, err := c.bytes(1, context)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) uint16(context string) (uint16, error) {
	b, err := c.bytes(2, context)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) uint32(context string) (uint32, error) {
	b, err := c.bytes(4, context)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) uint64(context string) (uint64, error) {
	b, err := c.bytes(8, context)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// peekUint16 reads the next 16-bit word without consuming it. Used for
// version sniffing at packet boundaries.
func (c *cursor) peekUint16() (uint16, bool) {
	if c.remaining() < 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(c.buf[c.pos:]), true
}

// variableLength consumes an RFC 7011 variable-length field: a one-byte
// length, or 0xff followed by a 16-bit length for values of 255 bytes and
// more. The declared length must not exceed the remaining flowset bytes.
func (c *cursor) variableLength(context string) ([]byte, error) {
	short, err := c.uint8(context)
	if err != nil {
		return nil, err
	}
	length := int(short)
	if short == longVariableLengthIndicator {
		long, err := c.uint16(context)
		if err != nil {
			return nil, err
		}
		length = int(long)
	}
	if c.remaining() < length {
		return nil, &ParseError{
			Offset:  c.offset(),
			Context: context,
			Kind:    ParseErrorVariableLength,
			Sample:  c.sample(c.sampleLimit),
		}
	}
	return c.bytes(length, context)
}

// appendVariableLength writes the variable-length prefix for a value of the
// given size, mirroring cursor.variableLength.
func appendVariableLength(dst []byte, size int) []byte {
	if size < int(longVariableLengthIndicator) {
		return append(dst, uint8(size))
	}
	dst = append(dst, longVariableLengthIndicator)
	return binary.BigEndian.AppendUint16(dst, uint16(size))
}

// Package buffer implements Buffer, the move-only wire envelope of
// §4.7: a tagged variant over (a) an inline encoding of a typed value,
// (b) a string payload, or (c) an aliased window over caller-owned
// bytes, plus the two-byte NullBuffer sentinel for an empty payload so
// the wire never carries a zero-length frame.
//
// Go has no compiler-enforced move semantics, so "move-only" is
// modeled explicitly: Take transfers the payload out and leaves the
// source Buffer in the Null model, mirroring the teacher's ownership
// discipline around its byte-offset buffers (internal/p9util.DirBuffer
// tracks ownership of a byte slice across Read/Write rather than
// copying on every call).
package buffer

import (
	"bytes"
	"encoding/gob"

	"github.com/dqm4hep/dqm4hep-go/internal/status"
)

// Model tags which shape a Buffer currently holds.
type Model int

const (
	// Null is the empty-payload sentinel (§4.7: "the empty payload is
	// the two-byte NullBuffer sentinel so the wire never carries a
	// zero-length frame").
	Null Model = iota
	// Value holds an inline gob encoding of a typed value.
	Value
	// String holds a string payload.
	String
	// Aliased holds a window over caller-owned bytes: Buffer does not
	// own this memory and must not retain it past the caller's use.
	Aliased
)

// nullFrame is the two-byte wire representation of an empty buffer.
var nullFrame = []byte{0, 0}

// Buffer is the move-only envelope of §4.7.
type Buffer struct {
	model    Model
	bytes    []byte
	subEvent string
}

// NullBuffer is the canonical empty buffer.
func NullBuffer() Buffer {
	return Buffer{model: Null}
}

// FromValue gob-encodes v into an owned, inline copy.
func FromValue(v interface{}) (Buffer, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return Buffer{}, status.Wrap(status.Failure, err)
	}
	return Buffer{model: Value, bytes: buf.Bytes()}, nil
}

// FromString copies s into an owned payload.
func FromString(s string) Buffer {
	if s == "" {
		return NullBuffer()
	}
	return Buffer{model: String, bytes: []byte(s)}
}

// Adopt switches to the aliasing shape: b is not copied, and the
// caller must not mutate it while the Buffer is in use.
func Adopt(b []byte) Buffer {
	if len(b) == 0 {
		return NullBuffer()
	}
	return Buffer{model: Aliased, bytes: b}
}

// Model reports which shape this Buffer currently holds.
func (b Buffer) Model() Model { return b.model }

// IsNull reports whether this Buffer carries no payload.
func (b Buffer) IsNull() bool { return b.model == Null }

// Len returns the payload length in bytes (0 for Null).
func (b Buffer) Len() int { return len(b.bytes) }

// Bytes returns the raw payload bytes. For the Aliased model this is
// the caller's own backing array, not a copy.
func (b Buffer) Bytes() []byte { return b.bytes }

// DecodeValue gob-decodes the payload into out, which must be a
// pointer. Only meaningful for a Buffer built with FromValue.
func (b Buffer) DecodeValue(out interface{}) error {
	if b.model != Value {
		return status.Wrapf(status.InvalidParameter, "buffer model %v is not a value buffer", b.model)
	}
	return gob.NewDecoder(bytes.NewReader(b.bytes)).Decode(out)
}

// String returns the payload interpreted as a string. Valid for the
// String and Aliased models; Null decodes to "".
func (b Buffer) String() string {
	if b.model == Null {
		return ""
	}
	return string(b.bytes)
}

// Take transfers the payload out of b and resets b to Null, modeling
// the move-only discipline of §4.7.
func (b *Buffer) Take() Buffer {
	moved := *b
	*b = Buffer{model: Null}
	return moved
}

// SubEventIdentifier reports the sub-stream label this buffer was
// tagged with, if any (§C.4: multiple detector sub-systems sharing one
// publication channel).
func (b Buffer) SubEventIdentifier() string { return b.subEvent }

// WithSubEventIdentifier returns a copy of b tagged with id.
func (b Buffer) WithSubEventIdentifier(id string) Buffer {
	b.subEvent = id
	return b
}

// Frame renders the buffer as the (length, bytes) wire frame of §6,
// using nullFrame for the empty payload.
func (b Buffer) Frame() []byte {
	if b.model == Null {
		return nullFrame
	}
	return b.bytes
}

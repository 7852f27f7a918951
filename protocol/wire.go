// Package protocol implements the wire message schema (component P) and the
// length-prefixed framed codec (component C) layered on top of it.
//
// Message bodies use explicit field numbers encoded with the protobuf wire
// format (github.com/golang/protobuf's successor, google.golang.org/protobuf,
// via its low-level protowire helpers) rather than a generated .pb.go: the
// field-number discipline spec section 6 asks for is exactly protobuf's wire
// model, and protowire gives us that model without requiring a protoc
// invocation this repository's build never performs.
package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// fieldWriter accumulates a message body by appending protobuf-wire-format
// fields in ascending field-number order. Field order on the wire is not
// significant to the decoder, but writing in order keeps diffs readable.
type fieldWriter struct {
	b []byte
}

func (w *fieldWriter) varint(num protowire.Number, v uint64) {
	if v == 0 {
		return // proto3-style: omit zero-valued scalar fields
	}
	w.b = protowire.AppendTag(w.b, num, protowire.VarintType)
	w.b = protowire.AppendVarint(w.b, v)
}

func (w *fieldWriter) boolean(num protowire.Number, v bool) {
	if !v {
		return
	}
	w.varint(num, 1)
}

func (w *fieldWriter) bytes(num protowire.Number, v []byte) {
	if len(v) == 0 {
		return
	}
	w.b = protowire.AppendTag(w.b, num, protowire.BytesType)
	w.b = protowire.AppendBytes(w.b, v)
}

func (w *fieldWriter) str(num protowire.Number, v string) {
	if v == "" {
		return
	}
	w.bytes(num, []byte(v))
}

// message writes a nested, length-delimited sub-message (same wire type as
// bytes: both are length-prefixed blobs).
func (w *fieldWriter) message(num protowire.Number, body []byte) {
	if len(body) == 0 {
		return
	}
	w.bytes(num, body)
}

func (w *fieldWriter) bytesOrEmpty(num protowire.Number, v []byte) {
	// Like bytes, but always writes the field even when v is empty/nil.
	// Used for the envelope payload and for segment data; the decoders do
	// not distinguish an empty value from an absent one.
	w.b = protowire.AppendTag(w.b, num, protowire.BytesType)
	w.b = protowire.AppendBytes(w.b, v)
}

// forEachField walks a protobuf-wire-format body, dispatching each field to
// the caller-supplied visitor. Unknown field numbers are skipped, matching
// protobuf's forward-compatibility behavior; spec treats unknown *message
// kinds* (not unknown fields) as ErrorKind::Protocol, which callers enforce
// at the envelope-kind switch, not here.
func forEachField(body []byte, visit func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error)) error {
	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return fmt.Errorf("protocol: bad tag: %w", protowire.ParseError(n))
		}
		body = body[n:]
		consumed, err := visit(num, typ, body)
		if err != nil {
			return err
		}
		if consumed < 0 {
			// Visitor didn't want this field (wrong type or uninterested);
			// skip it generically.
			m := protowire.ConsumeFieldValue(num, typ, body)
			if m < 0 {
				return fmt.Errorf("protocol: bad field value: %w", protowire.ParseError(m))
			}
			consumed = m
		}
		body = body[consumed:]
	}
	return nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, bool) {
	if typ != protowire.VarintType {
		return 0, -1, false
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, -1, false
	}
	return v, n, true
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, bool) {
	if typ != protowire.BytesType {
		return nil, -1, false
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, -1, false
	}
	return v, n, true
}

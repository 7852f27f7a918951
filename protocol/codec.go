package protocol

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"

	"gshsdk/gsherr"
)

// MaxFrameLength is the largest accepted body length; a larger declared
// length is a fatal ErrorKind::FrameTooLarge per spec section 4.2.
const MaxFrameLength = 64 << 20 // 64 MiB

const (
	fEnvelopeKind    = protowire.Number(1)
	fEnvelopePayload = protowire.Number(2)
)

// Marshal encodes msg into its envelope body: a kind tag plus the message's
// own field-numbered payload, nested as a length-delimited sub-message.
func Marshal(msg Message) []byte {
	w := &fieldWriter{}
	w.varint(fEnvelopeKind, uint64(msg.Kind()))
	w.bytesOrEmpty(fEnvelopePayload, msg.marshalAppend(nil))
	return w.b
}

// Unmarshal decodes an envelope body produced by Marshal back into its
// concrete, tagged Message. An unrecognized kind is ErrorKind::Protocol.
func Unmarshal(body []byte) (Message, error) {
	var kind Kind
	var payload []byte
	err := forEachField(body, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fEnvelopeKind:
			if v, n, ok := consumeVarint(typ, b); ok {
				kind = Kind(v)
				return n, nil
			}
		case fEnvelopePayload:
			if v, n, ok := consumeBytes(typ, b); ok {
				payload = v
				return n, nil
			}
		}
		return -1, nil
	})
	if err != nil {
		return nil, gsherr.Wrap(gsherr.KindProtocol, "malformed envelope", err)
	}
	msg, err := unmarshalByKind(kind, payload)
	if err != nil {
		return nil, gsherr.Wrap(gsherr.KindProtocol, "malformed message body", err)
	}
	return msg, nil
}

// ByteStream is the minimal capability the codec needs from a transport
// (component T): exact reads, atomic whole-buffer writes, both
// cancellation-aware via ctx per spec section 4.1/5. TLS and QUIC stream
// adapters both implement it; see the transport package.
type ByteStream interface {
	ReadExact(ctx context.Context, buf []byte) error
	WriteAll(ctx context.Context, buf []byte) error
}

// Codec reads and writes length-prefixed messages on a single ByteStream.
// Writes are serialized behind writeMu so concurrent callers never interleave
// partial frames — the "exclusive lock on the write half" spec section 4.2
// calls for. Reads are not synchronized: spec mandates a single reader task
// per stream, and Codec does not try to enforce that itself.
type Codec struct {
	stream  ByteStream
	writeMu sync.Mutex
}

// NewCodec wraps a transport byte-stream with the framed message codec.
func NewCodec(stream ByteStream) *Codec {
	return &Codec{stream: stream}
}

// Write encodes and sends msg as one atomic length-prefixed frame. writeMu
// gives the codec exclusive access to the write half, per spec section 5:
// "the outbound byte stream is the only shared mutable boundary and is
// serialized by C holding its write half under exclusive access."
func (c *Codec) Write(ctx context.Context, msg Message) error {
	body := Marshal(msg)
	if len(body) > MaxFrameLength {
		return gsherr.New(gsherr.KindFrameTooLarge, fmt.Sprintf("outbound body %d bytes exceeds max %d", len(body), MaxFrameLength))
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(body)))
	copy(buf[4:], body)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.stream.WriteAll(ctx, buf)
}

// Read blocks for the next frame and decodes it into a tagged Message.
func (c *Codec) Read(ctx context.Context) (Message, error) {
	var lenBuf [4]byte
	if err := c.stream.ReadExact(ctx, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxFrameLength {
		return nil, gsherr.New(gsherr.KindFrameTooLarge, fmt.Sprintf("inbound length %d exceeds max %d", length, MaxFrameLength))
	}
	body := make([]byte, length)
	if length > 0 {
		if err := c.stream.ReadExact(ctx, body); err != nil {
			return nil, err
		}
	}
	return Unmarshal(body)
}

package encoder

import (
	"bytes"
	"math/rand"
	"testing"

	"gshsdk/protocol"
)

func TestEncode_FullFrameOnFirstBuffer(t *testing.T) {
	e, err := New(protocol.FrameFormatRGBA, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 2*2*4)
	for i := range buf {
		buf[i] = 0xAA
	}
	frame, ok, err := e.Encode(1, 2, 2, buf)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a frame on first buffer")
	}
	if len(frame.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(frame.Segments))
	}
	seg := frame.Segments[0]
	if seg.X != 0 || seg.Y != 0 || seg.W != 2 || seg.H != 2 {
		t.Fatalf("expected full-frame segment, got %+v", seg)
	}
}

func TestEncode_EmptyDiffYieldsNoFrame(t *testing.T) {
	e, err := New(protocol.FrameFormatRGB, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf := bytes.Repeat([]byte{1, 2, 3}, 4*4)
	if _, ok, err := e.Encode(1, 4, 4, buf); err != nil || !ok {
		t.Fatalf("first encode: ok=%v err=%v", ok, err)
	}
	same := append([]byte(nil), buf...)
	frame, ok, err := e.Encode(1, 4, 4, same)
	if err != nil {
		t.Fatal(err)
	}
	if ok || frame != nil {
		t.Fatalf("expected no frame for an identical buffer, got ok=%v frame=%+v", ok, frame)
	}
}

func TestEncode_S1Scenario(t *testing.T) {
	// S1 from spec section 8: 2x2 RGBA window, full frame then a single
	// green-pixel diff at (1,0).
	e, err := New(protocol.FrameFormatRGBA, nil)
	if err != nil {
		t.Fatal(err)
	}
	red := []byte{255, 0, 0, 255}
	green := []byte{0, 255, 0, 255}
	first := concatPixels(red, red, red, red)
	_, ok, err := e.Encode(1, 2, 2, first)
	if err != nil || !ok {
		t.Fatalf("first frame: ok=%v err=%v", ok, err)
	}

	second := concatPixels(red, green, red, red)
	frame, ok, err := e.Encode(1, 2, 2, second)
	if err != nil || !ok {
		t.Fatalf("second frame: ok=%v err=%v", ok, err)
	}
	if len(frame.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(frame.Segments))
	}
	seg := frame.Segments[0]
	if seg.X != 1 || seg.Y != 0 || seg.W != 1 || seg.H != 1 {
		t.Fatalf("expected segment (1,0,1,1), got %+v", seg)
	}
	if !bytes.Equal(seg.Data, green) {
		t.Fatalf("expected green pixel data, got %v", seg.Data)
	}
}

func concatPixels(px ...[]byte) []byte {
	var out []byte
	for _, p := range px {
		out = append(out, p...)
	}
	return out
}

// TestSegmentationCorrectness is property 1 from spec section 8: applying
// the emitted segments onto A reproduces B exactly, for randomized buffers.
func TestSegmentationCorrectness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const w, h, stride = 16, 12, 4
	e, err := New(protocol.FrameFormatRGBA, nil)
	if err != nil {
		t.Fatal(err)
	}

	a := randomBuffer(rng, w*h*stride)
	if _, _, err := mustEncode(e, 1, w, h, a); err != nil {
		t.Fatal(err)
	}

	for trial := 0; trial < 50; trial++ {
		b := append([]byte(nil), a...)
		mutatePixels(rng, b, w, h, stride)

		frame, ok, err := e.Encode(1, w, h, b)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			// b happened to equal a; nothing to verify.
			a = b
			continue
		}
		reconstructed := append([]byte(nil), a...)
		for _, seg := range frame.Segments {
			ApplySegment(reconstructed, w, stride, seg)
		}
		if !bytes.Equal(reconstructed, b) {
			t.Fatalf("trial %d: reconstructed buffer != new buffer", trial)
		}
		a = b
	}
}

func mustEncode(e *Encoder, windowID, w, h uint32, buf []byte) (*protocol.Frame, bool, error) {
	return e.Encode(windowID, w, h, buf)
}

func randomBuffer(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	rng.Read(b)
	return b
}

func mutatePixels(rng *rand.Rand, buf []byte, w, h, stride int) {
	n := 1 + rng.Intn(5)
	for i := 0; i < n; i++ {
		x := rng.Intn(w)
		y := rng.Intn(h)
		off := (y*w + x) * stride
		rng.Read(buf[off : off+stride])
	}
}

func TestEncode_ResizeInvalidatesPreviousBuffer(t *testing.T) {
	e, err := New(protocol.FrameFormatRGB, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf := bytes.Repeat([]byte{9, 9, 9}, 4)
	if _, ok, err := e.Encode(1, 2, 2, buf); err != nil || !ok {
		t.Fatalf("first encode: ok=%v err=%v", ok, err)
	}
	e.InvalidateWindow(1)
	bigger := bytes.Repeat([]byte{9, 9, 9}, 9)
	frame, ok, err := e.Encode(1, 3, 3, bigger)
	if err != nil || !ok {
		t.Fatalf("post-invalidate encode: ok=%v err=%v", ok, err)
	}
	if len(frame.Segments) != 1 || frame.Segments[0].W != 3 || frame.Segments[0].H != 3 {
		t.Fatalf("expected full 3x3 frame after invalidation, got %+v", frame.Segments)
	}
}

func TestEncode_ZstdCompressesSegmentData(t *testing.T) {
	e, err := New(protocol.FrameFormatRGBA, &protocol.Compression{Codec: protocol.CompressionZstd, Level: 3})
	if err != nil {
		t.Fatal(err)
	}
	buf := bytes.Repeat([]byte{7, 7, 7, 7}, 64*64) // highly compressible
	frame, ok, err := e.Encode(1, 64, 64, buf)
	if err != nil || !ok {
		t.Fatalf("encode: ok=%v err=%v", ok, err)
	}
	if len(frame.Segments[0].Data) >= len(buf) {
		t.Fatalf("expected compressed data to be smaller than %d bytes, got %d", len(buf), len(frame.Segments[0].Data))
	}
}

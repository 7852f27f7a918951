package protocol

import "google.golang.org/protobuf/encoding/protowire"

// zigzag32/unzigzag32 implement protobuf's sint32 encoding so signed mouse
// and window coordinates (which are routinely negative — a window dragged
// partly off-screen, a scroll delta) don't blow up to 10-byte varints the
// way naive int32->uint64 sign extension would.
func zigzag32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

func unzigzag32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

func (w *fieldWriter) sint32(num protowire.Number, v int32) {
	if v == 0 {
		return
	}
	w.varint(num, uint64(zigzag32(v)))
}

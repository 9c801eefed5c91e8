package emitter

import (
	"encoding/binary"
	"math"
)

// bcWriter is a growable byte buffer with the primitive encoders for the
// Ember instruction stream. Branch immediates are fixed-width so they can
// be patched in place once a forward target's offset is known.
type bcWriter struct {
	buf []byte
}

// pos returns the current byte offset.
func (w *bcWriter) pos() int {
	return len(w.buf)
}

func (w *bcWriter) writeByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *bcWriter) writeInt32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *bcWriter) writeInt64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *bcWriter) writeDouble(f float64) {
	w.writeInt64(int64(math.Float64bits(f)))
}

// writeIVA writes a variable-length signed integer. The top two bits of
// the first byte select the width:
//
//	[-64, 63]         1 byte  (bit 7 clear)
//	[-8192, 8191]     2 bytes (bits 7-6 = 10)
//	[-2^29, 2^29-1]   4 bytes (bits 7-6 = 11)
func (w *bcWriter) writeIVA(v int32) {
	if v >= -64 && v <= 63 {
		w.writeByte(byte(v) &^ 0x80)
		return
	}
	if v >= -8192 && v <= 8191 {
		w.writeByte(byte(v>>8)&^0xC0 | 0x80)
		w.writeByte(byte(v))
		return
	}
	w.writeByte(byte(v>>24) | 0xC0)
	w.writeByte(byte(v >> 16))
	w.writeByte(byte(v >> 8))
	w.writeByte(byte(v))
}

// patchInt32 overwrites a previously written int32 at the given offset.
func (w *bcWriter) patchInt32(off int, v int32) {
	binary.LittleEndian.PutUint32(w.buf[off:off+4], uint32(v))
}

// bytes returns the accumulated stream. The slice aliases the writer's
// buffer; callers copy before retaining.
func (w *bcWriter) bytes() []byte {
	return w.buf
}

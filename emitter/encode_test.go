package emitter

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteIVAWidths(t *testing.T) {
	tests := []struct {
		value int32
		width int
	}{
		{0, 1},
		{1, 1},
		{63, 1},
		{-64, 1},
		{64, 2},
		{-65, 2},
		{8191, 2},
		{-8192, 2},
		{8192, 4},
		{-8193, 4},
		{1 << 20, 4},
		{-(1 << 20), 4},
	}
	for _, tt := range tests {
		w := &bcWriter{}
		w.writeIVA(tt.value)
		require.Len(t, w.bytes(), tt.width, "value %d", tt.value)
	}
}

func TestWriteIVARoundTrip(t *testing.T) {
	decode := func(buf []byte) int32 {
		b0 := buf[0]
		if b0&0x80 == 0 {
			return int32(int8(b0<<1)) >> 1
		}
		if b0&0x40 == 0 {
			v := int32(b0&0x3F)<<8 | int32(buf[1])
			return (v << 18) >> 18
		}
		v := int32(b0 & 0x3F)
		for _, b := range buf[1:4] {
			v = v<<8 | int32(b)
		}
		return (v << 2) >> 2
	}
	values := []int32{0, 1, -1, 42, -42, 63, -64, 64, -65, 300, -300,
		8191, -8192, 8192, -8193, 1 << 28, -(1 << 28)}
	for _, v := range values {
		w := &bcWriter{}
		w.writeIVA(v)
		require.Equal(t, v, decode(w.bytes()), "value %d", v)
	}
}

func TestWriteFixedWidth(t *testing.T) {
	w := &bcWriter{}
	w.writeByte(0xAB)
	w.writeInt32(-2)
	w.writeInt64(1 << 40)
	w.writeDouble(2.5)
	require.Equal(t, 21, w.pos())

	buf := w.bytes()
	require.Equal(t, byte(0xAB), buf[0])
	require.Equal(t, int32(-2), int32(binary.LittleEndian.Uint32(buf[1:5])))
	require.Equal(t, int64(1<<40), int64(binary.LittleEndian.Uint64(buf[5:13])))
	require.Equal(t, 2.5, math.Float64frombits(binary.LittleEndian.Uint64(buf[13:21])))
}

func TestPatchInt32(t *testing.T) {
	w := &bcWriter{}
	w.writeByte(1)
	off := w.pos()
	w.writeInt32(0)
	w.writeByte(2)
	w.patchInt32(off, 12345)
	require.Equal(t, int32(12345), int32(binary.LittleEndian.Uint32(w.bytes()[off:off+4])))
	require.Equal(t, byte(2), w.bytes()[5])
}

package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalRegister(t *testing.T) {
	cases := []struct {
		name   string
		parent string
		width  Width
	}{
		{"rax", "rax", Width64},
		{"eax", "rax", Width32},
		{"ax", "rax", Width16},
		{"al", "rax", Width8},
		{"edi", "rdi", Width32},
		{"sil", "rsi", Width8},
		{"r8", "r8", Width64},
		{"r8d", "r8", Width32},
		{"r15w", "r15", Width16},
		{"r10b", "r10", Width8},
		{"rip", "rip", Width64},
		{"RAX", "rax", Width64},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			parent, width, ok := CanonicalRegister(c.name)
			require.True(t, ok)
			assert.Equal(t, c.parent, parent)
			assert.Equal(t, c.width, width)
		})
	}
}

func TestCanonicalRegister_Unknown(t *testing.T) {
	for _, name := range []string{"", "xmm0", "foo", "r16", "rax1"} {
		_, _, ok := CanonicalRegister(name)
		assert.False(t, ok, name)
	}
}

func TestFloatRegisterIndex(t *testing.T) {
	index, ok := FloatRegisterIndex("xmm0")
	require.True(t, ok)
	assert.Equal(t, 0, index)

	index, ok = FloatRegisterIndex("xmm15")
	require.True(t, ok)
	assert.Equal(t, 15, index)

	for _, name := range []string{"xmm16", "xmm", "rax", "ymm0"} {
		_, ok := FloatRegisterIndex(name)
		assert.False(t, ok, name)
	}
}

func TestMaskTo(t *testing.T) {
	assert.Equal(t, int64(0x34), MaskTo(int64(0x1234), Width8))
	assert.Equal(t, int64(0x1234), MaskTo(int64(0x1234), Width16))
	assert.Equal(t, int64(0xdeadbeef), MaskTo(int64(0x1111deadbeef), Width32))
	assert.Equal(t, int64(-1), MaskTo(int64(-1), Width64))

	// Negative 32-bit writes zero extend instead of sign extending
	assert.Equal(t, int64(0xffffffff), MaskTo(int64(-1), Width32))
}

func TestWidthMask(t *testing.T) {
	assert.Equal(t, uint64(0xff), Width8.Mask())
	assert.Equal(t, uint64(0xffff), Width16.Mask())
	assert.Equal(t, uint64(0xffffffff), Width32.Mask())
	assert.Equal(t, ^uint64(0), Width64.Mask())
}

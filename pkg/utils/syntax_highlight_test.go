package utils

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestHighlightAssembly_PreservesText(t *testing.T) {
	// With colors disabled the highlighted line must be byte-identical
	previous := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = previous }()

	lines := []string{
		"",
		"mov rax, 5",
		"movq %rax, -8(%rbp)",
		"movsd .LC0(%rip), %xmm0",
		"main:",
		".globl main",
		"add rax, rbx # trailing comment",
		"??? not assembly at all ???",
	}

	for _, line := range lines {
		assert.Equal(t, line, HighlightAssembly(line))
	}
}

func TestFormatUintHex(t *testing.T) {
	assert.Equal(t, "0x00ff", FormatUintHex(0xff, 4))
	assert.Equal(t, "0x0000000000000000", FormatUintHex(0, 16))
}

func TestFormatSlice(t *testing.T) {
	assert.Equal(t, "main > helper", FormatSlice([]string{"main", "helper"}, " > "))
	assert.Equal(t, "main", FormatSlice([]string{"main"}, " > "))
	assert.Equal(t, "", FormatSlice([]string(nil), " > "))
	assert.Equal(t, "1, 2, 3", FormatSlice([]int{1, 2, 3}, ", "))
}

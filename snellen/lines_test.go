package snellen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLinesClassic(t *testing.T) {
	lines := BuildLines(StyleClassic, Denominators, "A")
	assert.Equal(t, []string{
		"E", "FP", "TOZ", "LPED", "PECFD", "EDFCZP", "FELOPZD", "DEFPOTEC",
	}, lines)

	// Letter O, never the digit zero.
	for _, line := range lines {
		assert.NotContains(t, line, "0")
	}
}

func TestBuildLinesClassicTruncatesAndRepeats(t *testing.T) {
	short := BuildLines(StyleClassic, []int{60, 48, 36}, "A")
	assert.Equal(t, []string{"E", "FP", "TOZ"}, short)

	long := BuildLines(StyleClassic, []int{60, 48, 36, 24, 18, 12, 9, 6, 5, 4}, "A")
	require.Len(t, long, 10)
	assert.Equal(t, "DEFPOTEC", long[8])
	assert.Equal(t, "DEFPOTEC", long[9])
}

func TestBuildLinesSingleLetter(t *testing.T) {
	lines := BuildLines(StyleSingle, []int{60, 48}, "B")
	assert.Equal(t, []string{"BB", "BBB"}, lines)

	// Empty letter falls back to A; line length caps at 10.
	lines = BuildLines(StyleSingle, make([]int, 12), "")
	assert.Equal(t, "AA", lines[0])
	assert.Equal(t, strings.Repeat("A", 10), lines[8])
	assert.Equal(t, strings.Repeat("A", 10), lines[11])
}

func TestBuildLinesMixed(t *testing.T) {
	lines := BuildLines(StyleMixed, Denominators, "A")
	require.Len(t, lines, len(Denominators))

	// Line i has length clamp(2+i, 2, 10) and rotates through the
	// Sloan set starting at offset i.
	assert.Equal(t, "CD", lines[0])
	assert.Equal(t, "DHK", lines[1])
	assert.Equal(t, "SVZCDHKNO", lines[7])
	for i, line := range lines {
		assert.Len(t, line, 2+i)
		for j := range line {
			assert.Equal(t, sloanLetters[(j+i)%len(sloanLetters)], line[j])
		}
	}
}

func TestParseStyle(t *testing.T) {
	assert.Equal(t, StyleClassic, ParseStyle("Classic Snellen"))
	assert.Equal(t, StyleClassic, ParseStyle("classic"))
	assert.Equal(t, StyleSingle, ParseStyle("single letter"))
	assert.Equal(t, StyleSingle, ParseStyle(" SINGLE "))
	assert.Equal(t, StyleMixed, ParseStyle("Sloan mix"))
	assert.Equal(t, StyleMixed, ParseStyle(""))
	assert.Equal(t, StyleMixed, ParseStyle("anything else"))
}

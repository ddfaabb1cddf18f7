package snellen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetterHeightMM(t *testing.T) {
	// 5-arcminute rule at the default 3 m viewing distance.
	assert.InDelta(t, 4.362, LetterHeightMM(3000, 6), 0.001)

	// Linear in distance.
	assert.InDelta(t, 2*LetterHeightMM(3000, 12), LetterHeightMM(6000, 12), 1e-9)

	// Linear in denominator.
	assert.InDelta(t, 10*LetterHeightMM(3000, 6), LetterHeightMM(3000, 60), 1e-9)
}

func TestLetterHeightMonotonicInDenominator(t *testing.T) {
	prev := LetterHeightMM(3000, Denominators[0])
	for _, den := range Denominators[1:] {
		h := LetterHeightMM(3000, den)
		assert.Less(t, h, prev, "denominator %d should be smaller than the line above", den)
		prev = h
	}
}

func TestLetterSizePX(t *testing.T) {
	assert.InDelta(t, LetterHeightMM(3000, 6)*2.57, LetterSizePX(3000, 6, 2.57), 1e-9)
	assert.Equal(t, 0.0, LetterSizePX(3000, 6, 0), "uncalibrated screen yields zero-size letters")
}

func TestBuildRows(t *testing.T) {
	rows := BuildRows(3000, 2.0, StyleClassic, "")
	require.Len(t, rows, len(Denominators))

	assert.Equal(t, "6/60", rows[0].Label)
	assert.Equal(t, "6/6", rows[7].Label)
	assert.Equal(t, "E", rows[0].Text)
	assert.Equal(t, "DEFPOTEC", rows[7].Text)

	for i := 1; i < len(rows); i++ {
		assert.Less(t, rows[i].SizePX, rows[i-1].SizePX)
	}
	assert.InDelta(t, 3000*0.001454*10*2.0, rows[0].SizePX, 1e-9)
}

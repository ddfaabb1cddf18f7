// Package snellen sizes optotypes for a given viewing distance and
// generates the letter lines of an acuity chart.
package snellen

import "fmt"

// Denominators is the canonical Snellen progression, largest (least
// acute) line first. All chart styles share it.
var Denominators = []int{60, 48, 36, 24, 18, 12, 9, 6}

// arcmin5PerMM is the 5-arcminute visual-angle rule expressed per
// millimetre of viewing distance: a 6/6 optotype is
// distance * 0.001454 millimetres tall.
const arcmin5PerMM = 0.001454

// LetterHeightMM returns the physical optotype height for a Snellen
// denominator at the given viewing distance.
func LetterHeightMM(distanceMM float64, denominator int) float64 {
	return distanceMM * arcmin5PerMM * (float64(denominator) / 6.0)
}

// LetterSizePX converts the physical optotype height into screen pixels
// using the calibrated display density.
func LetterSizePX(distanceMM float64, denominator int, pixelsPerMM float64) float64 {
	return LetterHeightMM(distanceMM, denominator) * pixelsPerMM
}

// ChartRow is one renderable chart line: an acuity label, the letter
// height in screen pixels and the optotype text.
type ChartRow struct {
	Label  string  `json:"label"`
	SizePX float64 `json:"size_px"`
	Text   string  `json:"text"`
}

// BuildRows produces the full chart for the canonical denominators,
// combining line text with per-line pixel sizing. Rows are rebuilt fresh
// on every call.
func BuildRows(distanceMM, pixelsPerMM float64, style Style, singleLetter string) []ChartRow {
	lines := BuildLines(style, Denominators, singleLetter)
	rows := make([]ChartRow, 0, len(Denominators))
	for i, den := range Denominators {
		rows = append(rows, ChartRow{
			Label:  fmt.Sprintf("6/%d", den),
			SizePX: LetterSizePX(distanceMM, den, pixelsPerMM),
			Text:   lines[i],
		})
	}
	return rows
}

package calibration

// ISO/IEC 7810 ID-1 card dimensions, the physical reference the screen
// calibration step is built on: the user resizes an on-screen rectangle
// until it matches a real payment card.
const (
	CardWidthMM  = 85.60
	CardHeightMM = 53.98
)

// CardPixelsPerMM converts a matched on-screen card width into the
// display's pixel density.
func CardPixelsPerMM(cardWidthPX float64) float64 {
	return cardWidthPX / CardWidthMM
}

// CardHeightPX returns the on-screen height that keeps the card preview
// at the true aspect ratio for a given width.
func CardHeightPX(cardWidthPX float64) float64 {
	return cardWidthPX * (CardHeightMM / CardWidthMM)
}

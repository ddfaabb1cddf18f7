package snellen

import "strings"

// Style selects the optotype sequence used for chart lines.
type Style string

const (
	StyleClassic Style = "classic"
	StyleSingle  Style = "single"
	StyleMixed   Style = "mixed"
)

// classicLines is the canonical 8-line Snellen progression, top to
// bottom. Letter O throughout, never the digit zero.
var classicLines = []string{
	"E",
	"FP",
	"TOZ",
	"LPED",
	"PECFD",
	"EDFCZP",
	"FELOPZD",
	"DEFPOTEC",
}

// sloanLetters is the 10-letter Sloan optotype set the mixed style
// rotates through.
const sloanLetters = "CDHKNORSVZ"

// ParseStyle maps a user-supplied style name to a Style. Unknown names
// fall back to the mixed Sloan style, the chart's default.
func ParseStyle(name string) Style {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "classic", "classic snellen":
		return StyleClassic
	case "single", "single letter":
		return StyleSingle
	default:
		return StyleMixed
	}
}

// BuildLines returns one line of optotype text per denominator, same
// length as the input. Pure and total: every input yields a chart.
func BuildLines(style Style, denominators []int, singleLetter string) []string {
	if singleLetter == "" {
		singleLetter = "A"
	}
	lines := make([]string, len(denominators))

	switch style {
	case StyleClassic:
		for i := range denominators {
			if i < len(classicLines) {
				lines[i] = classicLines[i]
			} else {
				// More levels than the canon: repeat the bottom line.
				lines[i] = classicLines[len(classicLines)-1]
			}
		}
	case StyleSingle:
		for i := range denominators {
			lines[i] = strings.Repeat(singleLetter, lineLength(i))
		}
	default:
		for i := range denominators {
			n := lineLength(i)
			var b strings.Builder
			for j := 0; j < n; j++ {
				b.WriteByte(sloanLetters[(j+i)%len(sloanLetters)])
			}
			lines[i] = b.String()
		}
	}
	return lines
}

// lineLength grows by one letter per line, clamped between 2 and 10.
func lineLength(i int) int {
	n := 2 + i
	if n < 2 {
		n = 2
	}
	if n > 10 {
		n = 10
	}
	return n
}

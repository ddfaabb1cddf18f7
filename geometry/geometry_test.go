package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFocalLengthRoundTrip(t *testing.T) {
	tests := []struct {
		name            string
		pixelIPD        float64
		knownDistanceMM float64
		assumedIPDMM    float64
	}{
		{"typical laptop webcam", 100, 500, 63},
		{"close sitter", 240, 300, 60},
		{"far sitter", 40, 1500, 70},
		{"narrow ipd", 85, 600, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			focal := FocalLengthPX(tt.pixelIPD, tt.knownDistanceMM, tt.assumedIPDMM)
			require.InDelta(t, tt.pixelIPD*tt.knownDistanceMM/tt.assumedIPDMM, focal, 1e-9)

			// Feeding the calibration measurement back in with zero offset
			// must reproduce the known distance.
			cam, eye := Distances(tt.pixelIPD, tt.assumedIPDMM, focal, 0)
			assert.InDelta(t, tt.knownDistanceMM, cam, 1e-9)
			assert.InDelta(t, tt.knownDistanceMM, eye, 1e-9)
		})
	}
}

func TestDistancesOffsetAndClamp(t *testing.T) {
	focal := FocalLengthPX(100, 500, 63)

	cam, eye := Distances(100, 63, focal, 40)
	assert.InDelta(t, 500, cam, 1e-9)
	assert.InDelta(t, 460, eye, 1e-9)

	// Offset larger than the camera distance clamps at zero.
	_, eye = Distances(100, 63, focal, 1200)
	assert.Equal(t, 0.0, eye)

	// Negative offsets are ignored rather than adding distance.
	_, eye = Distances(100, 63, focal, -50)
	assert.InDelta(t, 500, eye, 1e-9)
}

func TestDistancesEpsilonFloor(t *testing.T) {
	// A zero pixel IPD must yield a large but finite distance.
	cam, eye := Distances(0, 63, 800, 40)
	require.False(t, math.IsInf(cam, 1))
	require.False(t, math.IsNaN(cam))
	assert.Greater(t, cam, 1e6)
	assert.GreaterOrEqual(t, eye, 0.0)
}

func TestFieldOfView(t *testing.T) {
	// Focal length of half the width gives a 90 degree horizontal FOV.
	h, v, d := FieldOfView(500, 1000, 1000)
	assert.InDelta(t, 90, h, 1e-9)
	assert.InDelta(t, 90, v, 1e-9)
	assert.InDelta(t, 2*math.Atan(math.Sqrt2)*180/math.Pi, d, 1e-9)

	// Wider frames see more.
	hWide, _, _ := FieldOfView(500, 2000, 1000)
	assert.Greater(t, hWide, h)
}

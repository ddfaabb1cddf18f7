// Package geometry holds the pinhole-camera formulas that relate a pixel
// interpupillary distance to physical viewing distances.
package geometry

import "math"

// minPixelIPD floors the divisor so a degenerate measurement produces a
// large finite distance instead of a division by zero.
const minPixelIPD = 1e-6

// FocalLengthPX derives the camera focal length in pixels from a single
// measurement taken at a known camera-to-eye distance. The caller is
// responsible for validating that pixelIPD and assumedIPDMM are positive.
func FocalLengthPX(pixelIPD, knownDistanceMM, assumedIPDMM float64) float64 {
	return pixelIPD * knownDistanceMM / assumedIPDMM
}

// Distances returns the camera-to-eye and eye-to-screen distances in
// millimetres. offsetMM is the camera-to-screen offset (screen bezel
// depth); the eye-to-screen distance is clamped at zero.
func Distances(pixelIPD, assumedIPDMM, focalLengthPX, offsetMM float64) (camToEyeMM, eyeToScreenMM float64) {
	camToEyeMM = assumedIPDMM * focalLengthPX / math.Max(minPixelIPD, pixelIPD)
	eyeToScreenMM = math.Max(0, camToEyeMM-math.Max(0, offsetMM))
	return camToEyeMM, eyeToScreenMM
}

// FieldOfView converts a focal length and frame dimensions into the
// horizontal, vertical and diagonal fields of view in degrees.
func FieldOfView(focalLengthPX float64, widthPX, heightPX int) (hDeg, vDeg, dDeg float64) {
	hDeg = fovDeg(float64(widthPX), focalLengthPX)
	vDeg = fovDeg(float64(heightPX), focalLengthPX)
	dDeg = fovDeg(math.Hypot(float64(widthPX), float64(heightPX)), focalLengthPX)
	return hDeg, vDeg, dDeg
}

func fovDeg(extentPX, focalLengthPX float64) float64 {
	return 2 * math.Atan((extentPX/2)/focalLengthPX) * 180 / math.Pi
}

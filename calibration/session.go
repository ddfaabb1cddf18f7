// Package calibration sequences screen-scale capture, snapshot-driven
// landmark detection, one-shot focal-length calibration and continuous
// distance re-estimation for a single viewer session.
package calibration

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"

	"github.com/billie8383/AcuityCheck/detection"
	"github.com/billie8383/AcuityCheck/geometry"
	"github.com/billie8383/AcuityCheck/snellen"
)

// State is the calibration progress of a session.
type State string

const (
	StateUncalibrated     State = "uncalibrated"
	StateScreenScaleKnown State = "screen_scale_known"
	StateFocalLengthKnown State = "focal_length_known"
	StateDistanceKnown    State = "distance_known"
)

// DefaultDistanceMM sizes the chart before any measurement exists. A
// deliberate safe default, not an error condition.
const DefaultDistanceMM = 3000.0

// ErrNoMeasurement reports a focal-length calibration requested before
// any snapshot produced a pixel IPD. A precondition warning for the
// user, not a fault; session state is left unchanged.
var ErrNoMeasurement = errors.New("no pixel IPD measured yet: take a snapshot first")

// Detector is the slice of the detection API a session drives.
type Detector interface {
	Detect(frame gocv.Mat, scoreThreshold float64) detection.Outcome
}

// Session owns one viewer's calibration state. All mutation goes through
// its methods; safe for concurrent use by the HTTP host.
type Session struct {
	detector Detector

	mu                sync.Mutex
	screenPixelsPerMM float64
	focalLengthPX     float64 // 0 until calibrated
	eyeToScreenMM     float64 // 0 until measured
	latestIPD         float64 // from the most recent snapshot, 0 when it failed
}

// Snapshot is the per-frame measurement handed back to the display layer.
type Snapshot struct {
	Outcome  detection.Outcome
	PixelIPD float64

	// Populated only when the focal length was known while processing.
	Calibrated    bool
	CamToEyeMM    float64
	EyeToScreenMM float64
	HFOVDeg       float64
	VFOVDeg       float64
	DFOVDeg       float64
}

// NewSession creates an uncalibrated session over the given detector.
func NewSession(d Detector) *Session {
	return &Session{detector: d}
}

// SetScreenScale stores the display density. Valid in any state; focal
// length and distance are untouched.
func (s *Session) SetScreenScale(pixelsPerMM float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenPixelsPerMM = pixelsPerMM
}

// SetCardWidth derives and stores the display density from an on-screen
// card width the user matched against a real ID-1 card. Returns the
// resulting pixels-per-millimetre.
func (s *Session) SetCardWidth(cardWidthPX float64) float64 {
	ppm := CardPixelsPerMM(cardWidthPX)
	s.SetScreenScale(ppm)
	return ppm
}

// OnSnapshot runs landmark detection over the frame and updates the
// session's latest IPD. When the focal length is already known and the
// frame yielded a valid IPD, the eye-to-screen distance is re-estimated.
// A failed detection is terminal for this frame only: previously
// calibrated values survive it.
func (s *Session) OnSnapshot(frame gocv.Mat, scoreThreshold, assumedIPDMM, offsetMM float64) Snapshot {
	out := s.detector.Detect(frame, scoreThreshold)

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Outcome: out}
	if out.Found {
		s.latestIPD = out.PixelIPD()
		snap.PixelIPD = s.latestIPD
	} else {
		s.latestIPD = 0
	}

	if s.focalLengthPX > 0 {
		snap.Calibrated = true
		snap.HFOVDeg, snap.VFOVDeg, snap.DFOVDeg =
			geometry.FieldOfView(s.focalLengthPX, frame.Cols(), frame.Rows())
		if s.latestIPD > 0 {
			cam, eye := geometry.Distances(s.latestIPD, assumedIPDMM, s.focalLengthPX, offsetMM)
			s.eyeToScreenMM = eye
			snap.CamToEyeMM = cam
			snap.EyeToScreenMM = eye
		}
	}
	return snap
}

// CalibrateFocalLength performs the one-shot focal calibration against
// the latest measured IPD, taken at a known camera-to-eye distance. The
// new focal length overwrites any earlier one, and the eye-to-screen
// distance is re-estimated from the same measurement.
func (s *Session) CalibrateFocalLength(knownDistanceMM, assumedIPDMM, offsetMM float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latestIPD <= 0 {
		return 0, ErrNoMeasurement
	}
	s.focalLengthPX = geometry.FocalLengthPX(s.latestIPD, knownDistanceMM, assumedIPDMM)
	_, eye := geometry.Distances(s.latestIPD, assumedIPDMM, s.focalLengthPX, offsetMM)
	s.eyeToScreenMM = eye
	return s.focalLengthPX, nil
}

// State reports the furthest calibration stage the session has reached.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.eyeToScreenMM > 0:
		return StateDistanceKnown
	case s.focalLengthPX > 0:
		return StateFocalLengthKnown
	case s.screenPixelsPerMM > 0:
		return StateScreenScaleKnown
	default:
		return StateUncalibrated
	}
}

// ScreenPixelsPerMM returns the stored display density, 0 when unset.
func (s *Session) ScreenPixelsPerMM() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screenPixelsPerMM
}

// FocalLengthPX returns the calibrated focal length and whether one is set.
func (s *Session) FocalLengthPX() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focalLengthPX, s.focalLengthPX > 0
}

// EyeToScreenMM returns the measured viewing distance and whether one is set.
func (s *Session) EyeToScreenMM() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eyeToScreenMM, s.eyeToScreenMM > 0
}

// ChartDistanceMM is the distance the chart should be sized for: the
// measured eye-to-screen distance, or the safe default when unmeasured.
func (s *Session) ChartDistanceMM() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eyeToScreenMM > 0 {
		return s.eyeToScreenMM
	}
	return DefaultDistanceMM
}

// ChartRows builds the renderable chart for the session's current
// distance and screen scale. With no screen calibration the pixel sizes
// come out zero; the display layer surfaces that as "calibrate first".
func (s *Session) ChartRows(style snellen.Style, singleLetter string) []snellen.ChartRow {
	distance := s.ChartDistanceMM()
	s.mu.Lock()
	ppm := s.screenPixelsPerMM
	s.mu.Unlock()
	return snellen.BuildRows(distance, ppm, style, singleLetter)
}

// Reset clears the whole calibration state. Only an explicit user action
// gets here; nothing in the pipeline resets implicitly.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenPixelsPerMM = 0
	s.focalLengthPX = 0
	s.eyeToScreenMM = 0
	s.latestIPD = 0
}

package server

import (
	"github.com/billie8383/AcuityCheck/detection"
	"github.com/billie8383/AcuityCheck/snellen"
)

// Defaults mirror the capture UI's measurement controls.
const (
	DefaultScoreThreshold  = 0.30
	DefaultAssumedIPDMM    = 63.0
	DefaultOffsetMM        = 40.0
	DefaultKnownDistanceMM = 500.0
)

type screenScaleRequest struct {
	PixelsPerMM *float64 `json:"pixels_per_mm" validate:"omitempty,gt=0"`
	CardWidthPX *float64 `json:"card_width_px" validate:"omitempty,gte=80,lte=600"`
}

type calibrateRequest struct {
	KnownDistanceMM float64 `json:"known_distance_mm" validate:"required,gte=200,lte=2000"`
	AssumedIPDMM    float64 `json:"assumed_ipd_mm" validate:"required,gte=40,lte=80"`
	OffsetMM        float64 `json:"offset_mm" validate:"gte=0,lte=150"`
}

// snapshotControls are the numeric knobs accepted as query parameters on
// a snapshot upload.
type snapshotControls struct {
	ScoreThreshold float64 `validate:"gte=0.05,lte=0.95"`
	AssumedIPDMM   float64 `validate:"gte=40,lte=80"`
	OffsetMM       float64 `validate:"gte=0,lte=150"`
}

// imageRequest carries a base64-encoded snapshot in a JSON body.
type imageRequest struct {
	Image string `json:"image"`
}

type sessionResponse struct {
	ID                string   `json:"id"`
	State             string   `json:"state"`
	ScreenPixelsPerMM float64  `json:"screen_pixels_per_mm,omitempty"`
	FocalLengthPX     *float64 `json:"focal_length_px,omitempty"`
	EyeToScreenMM     *float64 `json:"eye_to_screen_mm,omitempty"`
}

type screenScaleResponse struct {
	PixelsPerMM  float64 `json:"pixels_per_mm"`
	CardHeightPX float64 `json:"card_height_px,omitempty"`
	State        string  `json:"state"`
}

type fovResponse struct {
	HorizontalDeg float64 `json:"horizontal_deg"`
	VerticalDeg   float64 `json:"vertical_deg"`
	DiagonalDeg   float64 `json:"diagonal_deg"`
}

type snapshotResponse struct {
	Found         bool              `json:"found"`
	Warning       string            `json:"warning,omitempty"`
	Strategy      string            `json:"strategy,omitempty"`
	Box           *detection.Box    `json:"box,omitempty"`
	Landmarks     []detection.Point `json:"landmarks,omitempty"`
	PixelIPD      float64           `json:"pixel_ipd,omitempty"`
	CamToEyeMM    float64           `json:"cam_to_eye_mm,omitempty"`
	EyeToScreenMM float64           `json:"eye_to_screen_mm,omitempty"`
	FOV           *fovResponse      `json:"fov,omitempty"`
	State         string            `json:"state"`
}

type calibrateResponse struct {
	FocalLengthPX float64 `json:"focal_length_px"`
	EyeToScreenMM float64 `json:"eye_to_screen_mm"`
	State         string  `json:"state"`
}

type chartResponse struct {
	DistanceMM      float64            `json:"distance_mm"`
	DefaultDistance bool               `json:"default_distance"`
	Rows            []snellen.ChartRow `json:"rows"`
}

type modelsResponse struct {
	FaceModel  bool `json:"face_model"`
	EyeCascade bool `json:"eye_cascade"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

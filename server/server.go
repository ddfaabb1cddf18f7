// Package server is the HTTP boundary between the measurement core and
// the display layer. It owns session lifecycle and transport concerns
// only; all measurement logic lives in the core packages.
package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/billie8383/AcuityCheck/calibration"
	"github.com/billie8383/AcuityCheck/detection"
	"github.com/billie8383/AcuityCheck/overlay"
	"github.com/billie8383/AcuityCheck/snellen"
)

const maxUploadBytes = 10 << 20

// Detector is the detection surface the HTTP layer drives.
type Detector interface {
	Detect(frame gocv.Mat, scoreThreshold float64) detection.Outcome
	FaceAvailable() bool
	EyesAvailable() bool
}

// Server holds the shared state behind the HTTP handlers: the detector,
// the per-viewer sessions and the request validator.
type Server struct {
	detector Detector
	log      *logrus.Logger
	validate *validator.Validate

	// Largest snapshot edge accepted before downscaling; 0 disables.
	maxImageDim int

	mu       sync.RWMutex
	sessions map[string]*calibration.Session
}

// New creates a server over the given detector.
func New(detector Detector, log *logrus.Logger, maxImageDim int) *Server {
	return &Server{
		detector:    detector,
		log:         log,
		validate:    validator.New(),
		maxImageDim: maxImageDim,
		sessions:    make(map[string]*calibration.Session),
	}
}

// Router builds the API route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/models", s.handleModels).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions", s.handleCreateSession).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/screen-scale", s.handleScreenScale).Methods(http.MethodPut)
	r.HandleFunc("/api/sessions/{id}/snapshot", s.handleSnapshot).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/calibrate", s.handleCalibrate).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/chart", s.handleChart).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, modelsResponse{
		FaceModel:  s.detector.FaceAvailable(),
		EyeCascade: s.detector.EyesAvailable(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id := uuid.NewString()
	sess := calibration.NewSession(s.detector)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.WithField("session", id).Info("session created")
	writeJSON(w, http.StatusCreated, s.sessionResponse(id, sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionResponse(id, sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, "session_not_found", "unknown session id", http.StatusNotFound)
		return
	}
	s.log.WithField("session", id).Info("session reset")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScreenScale(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req screenScaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid_request", "malformed JSON body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}

	resp := screenScaleResponse{}
	switch {
	case req.PixelsPerMM != nil:
		sess.SetScreenScale(*req.PixelsPerMM)
		resp.PixelsPerMM = *req.PixelsPerMM
	case req.CardWidthPX != nil:
		resp.PixelsPerMM = sess.SetCardWidth(*req.CardWidthPX)
		resp.CardHeightPX = calibration.CardHeightPX(*req.CardWidthPX)
	default:
		writeError(w, "invalid_request", "provide pixels_per_mm or card_width_px", http.StatusBadRequest)
		return
	}
	resp.State = string(sess.State())

	s.log.WithFields(logrus.Fields{
		"session":       id,
		"pixels_per_mm": resp.PixelsPerMM,
	}).Info("screen scale set")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}

	controls, err := parseSnapshotControls(r)
	if err != nil {
		writeError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(controls); err != nil {
		writeError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}

	imgBytes, err := readImageBody(r)
	if err != nil {
		writeError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	frame, err := s.decodeFrame(imgBytes)
	if err != nil {
		writeError(w, "invalid_image", "failed to decode image", http.StatusBadRequest)
		return
	}
	defer frame.Close()

	snap := sess.OnSnapshot(frame, controls.ScoreThreshold, controls.AssumedIPDMM, controls.OffsetMM)

	s.log.WithFields(logrus.Fields{
		"session":   id,
		"found":     snap.Outcome.Found,
		"strategy":  snap.Outcome.Strategy,
		"pixel_ipd": snap.PixelIPD,
	}).Debug("snapshot processed")

	if r.URL.Query().Get("annotated") == "true" {
		annotated := overlay.Annotate(frame, snap.Outcome)
		defer annotated.Close()
		jpeg, err := overlay.EncodeJPEG(annotated)
		if err != nil {
			writeError(w, "encoding_error", err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpeg)
		return
	}

	resp := snapshotResponse{
		Found:     snap.Outcome.Found,
		Strategy:  snap.Outcome.Strategy,
		Box:       snap.Outcome.Box,
		Landmarks: snap.Outcome.Landmarks,
		PixelIPD:  snap.PixelIPD,
		State:     string(sess.State()),
	}
	if !snap.Outcome.Found {
		resp.Warning = "could not estimate eyes; try brighter lighting and face the camera"
	}
	if snap.Calibrated {
		resp.CamToEyeMM = snap.CamToEyeMM
		resp.EyeToScreenMM = snap.EyeToScreenMM
		resp.FOV = &fovResponse{
			HorizontalDeg: snap.HFOVDeg,
			VerticalDeg:   snap.VFOVDeg,
			DiagonalDeg:   snap.DFOVDeg,
		}
	} else if resp.Warning == "" {
		resp.Warning = "not calibrated yet: set a known distance and calibrate the focal length"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req calibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid_request", "malformed JSON body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}

	focal, err := sess.CalibrateFocalLength(req.KnownDistanceMM, req.AssumedIPDMM, req.OffsetMM)
	if errors.Is(err, calibration.ErrNoMeasurement) {
		writeError(w, "no_measurement", err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		writeError(w, "calibration_error", err.Error(), http.StatusInternalServerError)
		return
	}

	eye, _ := sess.EyeToScreenMM()
	s.log.WithFields(logrus.Fields{
		"session":          id,
		"focal_length_px":  focal,
		"eye_to_screen_mm": eye,
	}).Info("focal length calibrated")

	writeJSON(w, http.StatusOK, calibrateResponse{
		FocalLengthPX: focal,
		EyeToScreenMM: eye,
		State:         string(sess.State()),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	style := snellen.ParseStyle(q.Get("style"))
	letter := parseLetter(q.Get("letter"))
	showLabels := q.Get("show_labels") != "false"

	rows := sess.ChartRows(style, letter)
	if !showLabels {
		for i := range rows {
			rows[i].Label = ""
		}
	}

	_, measured := sess.EyeToScreenMM()
	writeJSON(w, http.StatusOK, chartResponse{
		DistanceMM:      sess.ChartDistanceMM(),
		DefaultDistance: !measured,
		Rows:            rows,
	})
}

// session resolves the {id} route variable to a stored session, writing
// a 404 when there is none.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *calibration.Session, bool) {
	id := mux.Vars(r)["id"]
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, "session_not_found", "unknown session id", http.StatusNotFound)
		return id, nil, false
	}
	return id, sess, true
}

func (s *Server) sessionResponse(id string, sess *calibration.Session) sessionResponse {
	resp := sessionResponse{
		ID:                id,
		State:             string(sess.State()),
		ScreenPixelsPerMM: sess.ScreenPixelsPerMM(),
	}
	if focal, ok := sess.FocalLengthPX(); ok {
		resp.FocalLengthPX = &focal
	}
	if eye, ok := sess.EyeToScreenMM(); ok {
		resp.EyeToScreenMM = &eye
	}
	return resp
}

// readImageBody extracts snapshot bytes from a raw body, a multipart
// "file" field or a JSON base64 payload, keyed on Content-Type.
func readImageBody(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var req imageRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
			return nil, fmt.Errorf("malformed JSON body: %v", err)
		}
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return nil, fmt.Errorf("image field is not valid base64: %v", err)
		}
		return data, nil
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	default:
		return io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	}
}

// decodeFrame turns uploaded image bytes into a BGR Mat, honouring EXIF
// orientation and downscaling oversized snapshots before detection.
func (s *Server) decodeFrame(data []byte) (gocv.Mat, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), err
	}
	if s.maxImageDim > 0 {
		b := img.Bounds()
		if b.Dx() > s.maxImageDim || b.Dy() > s.maxImageDim {
			img = imaging.Fit(img, s.maxImageDim, s.maxImageDim, imaging.Lanczos)
		}
	}

	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer rgb.Close()
	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}

// parseSnapshotControls reads the numeric snapshot knobs from the query
// string, keeping defaults for absent parameters and rejecting
// malformed ones.
func parseSnapshotControls(r *http.Request) (snapshotControls, error) {
	var c snapshotControls
	var err error
	if c.ScoreThreshold, err = floatQuery(r, "score_threshold", DefaultScoreThreshold); err != nil {
		return c, err
	}
	if c.AssumedIPDMM, err = floatQuery(r, "assumed_ipd_mm", DefaultAssumedIPDMM); err != nil {
		return c, err
	}
	if c.OffsetMM, err = floatQuery(r, "offset_mm", DefaultOffsetMM); err != nil {
		return c, err
	}
	return c, nil
}

func floatQuery(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s is not a number: %q", name, raw)
	}
	return v, nil
}

// parseLetter maps the single-letter chart control to one optotype
// letter A to Z, falling back to A for anything else.
func parseLetter(raw string) string {
	runes := []rune(strings.ToUpper(strings.TrimSpace(raw)))
	if len(runes) == 0 || runes[0] < 'A' || runes[0] > 'Z' {
		return "A"
	}
	return string(runes[0])
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

package detection

import (
	"gocv.io/x/gocv"
)

// FaceStrategy locates a face box and landmark keypoints in a full frame.
type FaceStrategy interface {
	Name() string
	// Available reports whether the strategy's model artifact is resolvable.
	Available() bool
	// Detect returns the best face candidate. A nil box with nil keypoints
	// means nothing was found; an error is treated the same way by the
	// caller since model trouble is an expected condition here.
	Detect(frame gocv.Mat, scoreThreshold float64) (*Box, []Point, error)
	Close() error
}

// EyeStrategy locates eye centres inside an already-detected face region.
type EyeStrategy interface {
	Name() string
	Available() bool
	// DetectEyes returns eye centre points sorted ascending by x, or nil
	// when fewer than two eye regions were found.
	DetectEyes(frame gocv.Mat, box Box) ([]Point, error)
	Close() error
}

// Detector runs the strategies in priority order: the face model first,
// then the eye classifier scoped to the model's box. The next strategy
// runs only on an empty result; errors are demoted to absence because
// missing artifacts are a normal state for this pipeline.
type Detector struct {
	face FaceStrategy
	eyes EyeStrategy
}

// NewDetector creates a detector over the given strategies. Either may
// be nil, in which case its tier is skipped.
func NewDetector(face FaceStrategy, eyes EyeStrategy) *Detector {
	return &Detector{face: face, eyes: eyes}
}

// Detect performs one detection pass over the frame. The frame is read
// only; the caller keeps ownership.
func (d *Detector) Detect(frame gocv.Mat, scoreThreshold float64) Outcome {
	var out Outcome

	if d.face != nil && d.face.Available() {
		box, kps, err := d.face.Detect(frame, scoreThreshold)
		if err == nil {
			out.Box = box
			out.Landmarks = kps
			if pair, ok := eyePair(kps); ok {
				out.Eyes = pair
				out.Found = true
				out.Strategy = d.face.Name()
				return out
			}
		}
	}

	// Box without usable keypoints: scan the region with the eye classifier.
	if out.Box != nil && d.eyes != nil && d.eyes.Available() {
		pts, err := d.eyes.DetectEyes(frame, *out.Box)
		if err == nil && len(pts) >= 2 {
			out.Landmarks = pts
			out.Eyes = [2]Point{pts[0], pts[1]}
			out.Found = true
			out.Strategy = d.eyes.Name()
		}
	}

	return out
}

// FaceAvailable reports whether the primary face model is resolvable.
func (d *Detector) FaceAvailable() bool {
	return d.face != nil && d.face.Available()
}

// EyesAvailable reports whether the fallback eye classifier is resolvable.
func (d *Detector) EyesAvailable() bool {
	return d.eyes != nil && d.eyes.Available()
}

// Close releases both strategies.
func (d *Detector) Close() error {
	var firstErr error
	if d.face != nil {
		if err := d.face.Close(); err != nil {
			firstErr = err
		}
	}
	if d.eyes != nil {
		if err := d.eyes.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

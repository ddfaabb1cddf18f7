package detection

import (
	"image"
	"os"

	"gocv.io/x/gocv"
)

const (
	yunetNMSThreshold = 0.3
	yunetTopK         = 5000

	// Each YuNet result row is 15 floats: box x, y, w, h, then five
	// keypoint pairs (right eye, left eye, nose, right mouth corner,
	// left mouth corner), then the confidence score.
	yunetRowWidth  = 15
	yunetScoreCol  = 14
	yunetKeypoints = 5
)

// YuNet wraps OpenCV's FaceDetectorYN over a YuNet ONNX model. The
// detector is rebuilt per call because the input size and score
// threshold are per-frame controls, not construction-time constants.
type YuNet struct {
	modelPath string
}

// NewYuNet creates the primary face strategy for the given ONNX model
// path. The path is probed at detection time, so the model may appear
// on disk after construction.
func NewYuNet(modelPath string) *YuNet {
	return &YuNet{modelPath: modelPath}
}

func (y *YuNet) Name() string { return "yunet" }

// Available reports whether the model artifact exists.
func (y *YuNet) Available() bool {
	if y.modelPath == "" {
		return false
	}
	info, err := os.Stat(y.modelPath)
	return err == nil && !info.IsDir()
}

// Detect runs the model over the frame and returns the candidate with
// the highest confidence, decomposed into a box and 5 keypoints.
func (y *YuNet) Detect(frame gocv.Mat, scoreThreshold float64) (*Box, []Point, error) {
	if !y.Available() || frame.Empty() {
		return nil, nil, nil
	}

	size := image.Pt(frame.Cols(), frame.Rows())
	fd := gocv.NewFaceDetectorYN(y.modelPath, "", size)
	defer fd.Close()
	fd.SetScoreThreshold(float32(scoreThreshold))
	fd.SetNMSThreshold(yunetNMSThreshold)
	fd.SetTopK(yunetTopK)

	faces := gocv.NewMat()
	defer faces.Close()
	fd.Detect(frame, &faces)
	if faces.Empty() || faces.Rows() == 0 || faces.Cols() < yunetRowWidth {
		return nil, nil, nil
	}

	best := 0
	bestScore := faces.GetFloatAt(0, yunetScoreCol)
	for r := 1; r < faces.Rows(); r++ {
		if s := faces.GetFloatAt(r, yunetScoreCol); s > bestScore {
			best, bestScore = r, s
		}
	}

	box := &Box{
		X:      float64(faces.GetFloatAt(best, 0)),
		Y:      float64(faces.GetFloatAt(best, 1)),
		Width:  float64(faces.GetFloatAt(best, 2)),
		Height: float64(faces.GetFloatAt(best, 3)),
	}
	kps := make([]Point, 0, yunetKeypoints)
	for k := 0; k < yunetKeypoints; k++ {
		kps = append(kps, Point{
			X: float64(faces.GetFloatAt(best, 4+2*k)),
			Y: float64(faces.GetFloatAt(best, 5+2*k)),
		})
	}
	return box, kps, nil
}

// Close is a no-op; the underlying detector is per-call.
func (y *YuNet) Close() error { return nil }

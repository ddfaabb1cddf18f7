package detection

import (
	"fmt"
	"image"
	"os"
	"sort"

	"gocv.io/x/gocv"
)

const (
	cascadeScaleFactor  = 1.1
	cascadeMinNeighbors = 4
	cascadeMinSizePX    = 20
)

// EyeCascade scans a face region with a Haar eye classifier
// (haarcascade_eye_tree_eyeglasses). It only runs when the primary
// detector produced a box without usable keypoints.
type EyeCascade struct {
	cascadePath string
}

// NewEyeCascade creates the fallback eye strategy for the given cascade
// XML path.
func NewEyeCascade(cascadePath string) *EyeCascade {
	return &EyeCascade{cascadePath: cascadePath}
}

func (e *EyeCascade) Name() string { return "eye-cascade" }

// Available reports whether the cascade XML exists.
func (e *EyeCascade) Available() bool {
	if e.cascadePath == "" {
		return false
	}
	info, err := os.Stat(e.cascadePath)
	return err == nil && !info.IsDir()
}

// DetectEyes classifies eye regions inside the face box over a grayscale
// ROI. When at least two regions are found it keeps the two largest by
// area and returns their centres sorted ascending by x.
func (e *EyeCascade) DetectEyes(frame gocv.Mat, box Box) ([]Point, error) {
	if !e.Available() || frame.Empty() {
		return nil, nil
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	roi := image.Rect(int(box.X), int(box.Y), int(box.X+box.Width), int(box.Y+box.Height))
	roi = roi.Intersect(image.Rect(0, 0, gray.Cols(), gray.Rows()))
	if roi.Empty() {
		return nil, nil
	}
	region := gray.Region(roi)
	defer region.Close()

	classifier := gocv.NewCascadeClassifier()
	defer classifier.Close()
	if !classifier.Load(e.cascadePath) {
		return nil, fmt.Errorf("could not load eye cascade from %s", e.cascadePath)
	}

	rects := classifier.DetectMultiScaleWithParams(region, cascadeScaleFactor,
		cascadeMinNeighbors, 0,
		image.Pt(cascadeMinSizePX, cascadeMinSizePX), image.Pt(0, 0))
	if len(rects) < 2 {
		return nil, nil
	}

	sort.Slice(rects, func(i, j int) bool {
		return rects[i].Dx()*rects[i].Dy() > rects[j].Dx()*rects[j].Dy()
	})
	pts := make([]Point, 0, 2)
	for _, r := range rects[:2] {
		pts = append(pts, Point{
			X: float64(roi.Min.X) + float64(r.Min.X) + float64(r.Dx())/2,
			Y: float64(roi.Min.Y) + float64(r.Min.Y) + float64(r.Dy())/2,
		})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	return pts, nil
}

// Close is a no-op; the classifier is per-call.
func (e *EyeCascade) Close() error { return nil }

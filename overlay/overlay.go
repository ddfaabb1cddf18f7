// Package overlay draws detection results onto frames so the display
// layer can show the user what the measurement pipeline saw.
package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/billie8383/AcuityCheck/detection"
)

var (
	// Drawn onto BGR frames: amber box, green landmark dots.
	boxColor      = color.RGBA{R: 255, G: 200, B: 0, A: 0}
	landmarkColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// Annotate returns a copy of the frame with the detected face box and
// landmark points drawn in. The source frame is left untouched; the
// caller owns (and must Close) the returned Mat.
func Annotate(frame gocv.Mat, out detection.Outcome) gocv.Mat {
	img := frame.Clone()
	if out.Box != nil {
		b := out.Box
		rect := image.Rect(int(b.X), int(b.Y), int(b.X+b.Width), int(b.Y+b.Height))
		gocv.Rectangle(&img, rect, boxColor, 2)
	}
	for _, p := range out.Landmarks {
		gocv.Circle(&img, image.Pt(int(p.X), int(p.Y)), 2, landmarkColor, -1)
	}
	return img
}

// EncodeJPEG serializes a frame for transport to the display layer.
func EncodeJPEG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}

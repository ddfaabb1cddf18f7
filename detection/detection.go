// Package detection locates a face and ocular landmarks in a single
// frame, trying a primary face-and-landmark model first and falling back
// to a geometric eye classifier when the model yields a box without
// usable keypoints.
package detection

import (
	"math"
	"sort"
)

// Point is a 2-D landmark position in frame pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is a face bounding box in pixel coordinates, top-left origin.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Outcome is the result of one detection pass over one frame. A missing
// model artifact or an empty detection is an absent outcome (Found is
// false), never an error.
type Outcome struct {
	Found     bool
	Box       *Box
	Landmarks []Point  // raw keypoints from the strategy that ran
	Eyes      [2]Point // eye centres, left (smaller x) first; valid only when Found
	Strategy  string   // name of the strategy that produced the eye pair
}

// PixelIPD returns the interpupillary distance in pixels, the Euclidean
// distance between the two eye centres. Zero when no eyes were found.
func (o Outcome) PixelIPD() float64 {
	if !o.Found {
		return 0
	}
	return math.Hypot(o.Eyes[0].X-o.Eyes[1].X, o.Eyes[0].Y-o.Eyes[1].Y)
}

// eyePair takes the first two keypoints and orders them left to right,
// left defined as the smaller x coordinate.
func eyePair(pts []Point) ([2]Point, bool) {
	if len(pts) < 2 {
		return [2]Point{}, false
	}
	pair := []Point{pts[0], pts[1]}
	sort.Slice(pair, func(i, j int) bool { return pair[i].X < pair[j].X })
	return [2]Point{pair[0], pair[1]}, true
}

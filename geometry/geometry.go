// Package geometry derives canvas-relative placement data from layer bounds.
package geometry

import (
	"strconv"

	"github.com/bibin-skaria/layerslice/internal/types"
)

// Snap is a coarse label for how close a layer sits to the canvas center.
type Snap string

const (
	SnapToMiddle         Snap = "snapToMiddle"
	SnapHorizontalMiddle Snap = "snapHorizontalMiddle"
	SnapVerticalMiddle   Snap = "snapVerticalMiddle"
	SnapToCorners        Snap = "snapToCorners"
)

// Placement is a layer's size and its distance from each canvas edge.
// FromRight and FromBottom measure from the canvas edge back to the layer
// edge, so all four are zero for a layer covering the canvas exactly.
type Placement struct {
	Width      int
	Height     int
	FromLeft   int
	FromTop    int
	FromRight  int
	FromBottom int
}

func Analyze(b types.Bounds, canvas types.Canvas) Placement {
	return Placement{
		Width:      b.Right - b.Left,
		Height:     b.Bottom - b.Top,
		FromLeft:   b.Left,
		FromTop:    b.Top,
		FromRight:  canvas.Width - b.Right,
		FromBottom: canvas.Height - b.Bottom,
	}
}

func (p Placement) Snap() Snap {
	return SnapLocation(p.Width, p.Height, p.FromLeft, p.FromTop, p.FromRight, p.FromBottom)
}

// SnapLocation compares the imbalance between opposite margins with half
// the layer size on each axis. Both axes balanced wins over either one,
// and the horizontal axis wins over the vertical one.
func SnapLocation(width, height, fromLeft, fromTop, fromRight, fromBottom int) Snap {
	leftRight := abs(fromRight - fromLeft)
	topBottom := abs(fromBottom - fromTop)
	rowMiddle := float64(leftRight) <= float64(width)/2
	colMiddle := float64(topBottom) <= float64(height)/2

	switch {
	case rowMiddle && colMiddle:
		return SnapToMiddle
	case rowMiddle:
		return SnapHorizontalMiddle
	case colMiddle:
		return SnapVerticalMiddle
	default:
		return SnapToCorners
	}
}

// CropFocus tells consumers where to center a crop of the composed image.
// Values are keywords (left/center/right, top/center/bottom) or a
// percentage of the canvas such as "37.5%".
type CropFocus struct {
	Horizontal string `json:"horizontal"`
	Vertical   string `json:"vertical"`
}

func DefaultCropFocus() CropFocus {
	return CropFocus{Horizontal: "center", Vertical: "center"}
}

// DetermineCrop expresses the center of b as a percentage of the canvas.
func DetermineCrop(b types.Bounds, canvas types.Canvas) CropFocus {
	p := Analyze(b, canvas)
	centerX := float64(p.Width)/2 + float64(p.FromLeft)
	centerY := float64(p.Height)/2 + float64(p.FromTop)

	return CropFocus{
		Horizontal: percent(centerX, canvas.Width),
		Vertical:   percent(centerY, canvas.Height),
	}
}

func percent(v float64, total int) string {
	return strconv.FormatFloat(v/float64(total)*100, 'f', -1, 64) + "%"
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

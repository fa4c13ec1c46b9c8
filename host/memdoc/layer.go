package memdoc

import (
	"image"

	"github.com/bibin-skaria/layerslice/host"
	"github.com/bibin-skaria/layerslice/internal/types"
)

// Kind describes what a layer holds.
type Kind string

const (
	KindPixel      Kind = "pixel"
	KindText       Kind = "text"
	KindShape      Kind = "shape"
	KindSmart      Kind = "smart"
	KindAdjustment Kind = "adjustment"
	KindBackground Kind = "background"
	KindGroup      Kind = "group"
)

func (k Kind) valid() bool {
	switch k {
	case KindPixel, KindText, KindShape, KindSmart, KindAdjustment, KindBackground, KindGroup:
		return true
	}
	return false
}

// Layer is a node of an in-memory layer tree. Leaf pixels are stored with
// their own origin so layers may extend past the canvas until cropped.
type Layer struct {
	doc      *Document
	parent   *Layer
	name     string
	kind     Kind
	visible  bool
	link     string
	origin   image.Point
	pixels   *image.NRGBA
	children []*Layer
}

func (l *Layer) Name() string {
	return l.name
}

func (l *Layer) Visible() bool {
	return l.visible
}

func (l *Layer) IsGroup() bool {
	return l.kind == KindGroup
}

func (l *Layer) Kind() Kind {
	return l.kind
}

// LinkKey is the identifier shared by all layers of one link set.
func (l *Layer) LinkKey() string {
	return l.link
}

func (l *Layer) Bounds() types.Bounds {
	return types.BoundsFromRect(l.opaqueRect())
}

func (l *Layer) opaqueRect() image.Rectangle {
	if l.IsGroup() {
		var union image.Rectangle
		for _, child := range l.children {
			if child.visible {
				union = union.Union(child.opaqueRect())
			}
		}
		return union
	}
	if l.pixels == nil {
		return image.Rectangle{}
	}
	return opaqueBounds(l.pixels).Add(l.origin)
}

// pixelRect is the full content rectangle in canvas coordinates,
// transparent margins included.
func (l *Layer) pixelRect() image.Rectangle {
	if l.pixels == nil {
		return image.Rectangle{}
	}
	return l.pixels.Bounds().Sub(l.pixels.Bounds().Min).Add(l.origin)
}

func (l *Layer) Layers() []host.Layer {
	result := make([]host.Layer, len(l.children))
	for i, child := range l.children {
		result[i] = child
	}
	return result
}

func (l *Layer) Linked() []host.Layer {
	if l.link == "" || l.doc == nil {
		return nil
	}

	var linked []host.Layer
	l.doc.walk(func(other *Layer) {
		if other != l && other.link == l.link {
			linked = append(linked, other)
		}
	})
	return linked
}

// opaqueBounds returns the smallest rectangle holding every pixel with a
// non-zero alpha, relative to the image origin.
func opaqueBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	found := false

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			found = true
			if x < minX {
				minX = x
			}
			if x+1 > maxX {
				maxX = x + 1
			}
			if y < minY {
				minY = y
			}
			if y+1 > maxY {
				maxY = y + 1
			}
		}
	}

	if !found {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX, maxY).Sub(b.Min)
}

package memdoc

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/bibin-skaria/layerslice/host"
	"github.com/bibin-skaria/layerslice/internal/types"
)

// Document is an in-memory layered image. Pixel buffers are never modified
// in place; every operation that changes pixels allocates a new buffer, so
// snapshots can share them.
type Document struct {
	app          *App
	name         string
	path         string
	width        int
	height       int
	root         []*Layer
	active       *Layer
	selection    image.Rectangle
	hasSelection bool
	closed       bool
}

func (d *Document) Name() string {
	return d.name
}

func (d *Document) Path() string {
	return d.path
}

func (d *Document) Width() int {
	return d.width
}

func (d *Document) Height() int {
	return d.height
}

func (d *Document) Layers() []host.Layer {
	result := make([]host.Layer, len(d.root))
	for i, layer := range d.root {
		result[i] = layer
	}
	return result
}

// walk visits every layer depth-first in stacking order.
func (d *Document) walk(fn func(*Layer)) {
	var visit func([]*Layer)
	visit = func(layers []*Layer) {
		for _, layer := range layers {
			fn(layer)
			if layer.IsGroup() {
				visit(layer.children)
			}
		}
	}
	visit(d.root)
}

func (d *Document) own(l host.Layer) (*Layer, error) {
	if d.closed {
		return nil, fmt.Errorf("document %s is closed", d.name)
	}
	layer, ok := l.(*Layer)
	if !ok || layer == nil {
		return nil, fmt.Errorf("layer %v does not belong to a memdoc document", l)
	}
	if layer.doc != d {
		return nil, fmt.Errorf("layer %q belongs to another document", layer.name)
	}
	if !d.attached(layer) {
		return nil, fmt.Errorf("layer %q is no longer part of document %s", layer.name, d.name)
	}
	return layer, nil
}

func (d *Document) attached(layer *Layer) bool {
	siblings := d.siblings(layer.parent)
	return indexOf(*siblings, layer) >= 0
}

func (d *Document) siblings(parent *Layer) *[]*Layer {
	if parent == nil {
		return &d.root
	}
	return &parent.children
}

func indexOf(layers []*Layer, layer *Layer) int {
	for i, l := range layers {
		if l == layer {
			return i
		}
	}
	return -1
}

func (d *Document) detach(layer *Layer) int {
	siblings := d.siblings(layer.parent)
	i := indexOf(*siblings, layer)
	if i < 0 {
		return -1
	}
	*siblings = append((*siblings)[:i:i], (*siblings)[i+1:]...)
	return i
}

func (d *Document) insert(parent *Layer, index int, layer *Layer) {
	siblings := d.siblings(parent)
	if index < 0 {
		index = 0
	}
	if index > len(*siblings) {
		index = len(*siblings)
	}
	updated := make([]*Layer, 0, len(*siblings)+1)
	updated = append(updated, (*siblings)[:index]...)
	updated = append(updated, layer)
	updated = append(updated, (*siblings)[index:]...)
	*siblings = updated
	layer.parent = parent
}

func (d *Document) SetActiveLayer(l host.Layer) error {
	layer, err := d.own(l)
	if err != nil {
		return err
	}
	d.active = layer
	return nil
}

// Rasterize turns text, shape, smart and adjustment content into plain
// pixels. Pixel layers are left untouched.
func (d *Document) Rasterize(l host.Layer) error {
	layer, err := d.own(l)
	if err != nil {
		return err
	}
	if layer.IsGroup() {
		return fmt.Errorf("cannot rasterize group %q", layer.name)
	}
	if layer.kind != KindBackground {
		layer.kind = KindPixel
	}
	return nil
}

// Crop resizes the canvas to bounds and clips every layer to it.
func (d *Document) Crop(bounds types.Bounds) error {
	if d.closed {
		return fmt.Errorf("document %s is closed", d.name)
	}
	rect := bounds.Rect()
	if rect.Empty() {
		return fmt.Errorf("cannot crop %s to empty rectangle %s", d.name, bounds)
	}

	d.walk(func(layer *Layer) {
		if layer.IsGroup() || layer.pixels == nil {
			return
		}
		inter := layer.pixelRect().Intersect(rect)
		if inter.Empty() {
			layer.pixels = image.NewNRGBA(image.Rect(0, 0, 0, 0))
			layer.origin = image.Point{}
			return
		}
		if inter == layer.pixelRect() && rect.Min == (image.Point{}) {
			return
		}
		layer.pixels = imaging.Crop(layer.pixels, inter.Sub(layer.origin))
		layer.origin = inter.Min.Sub(rect.Min)
	})

	d.width = rect.Dx()
	d.height = rect.Dy()
	d.hasSelection = false
	return nil
}

func (d *Document) AddGroup(parent host.Layer, name string, index int) (host.Layer, error) {
	if d.closed {
		return nil, fmt.Errorf("document %s is closed", d.name)
	}

	var container *Layer
	if parent != nil {
		p, err := d.own(parent)
		if err != nil {
			return nil, err
		}
		if !p.IsGroup() {
			return nil, fmt.Errorf("cannot add a group inside leaf layer %q", p.name)
		}
		container = p
	}

	group := &Layer{
		doc:     d,
		name:    name,
		kind:    KindGroup,
		visible: true,
	}
	d.insert(container, index, group)
	return group, nil
}

func (d *Document) Move(l, g host.Layer) error {
	layer, err := d.own(l)
	if err != nil {
		return err
	}
	group, err := d.own(g)
	if err != nil {
		return err
	}
	if !group.IsGroup() {
		return fmt.Errorf("cannot move %q into leaf layer %q", layer.name, group.name)
	}
	for p := group; p != nil; p = p.parent {
		if p == layer {
			return fmt.Errorf("cannot move group %q into itself", layer.name)
		}
	}

	d.detach(layer)
	d.insert(group, 0, layer)
	return nil
}

// MergeGroup composites the visible contents of group bottom to top and
// replaces the group with the result. Hidden children are discarded, and
// the merged layer does not inherit any links.
func (d *Document) MergeGroup(g host.Layer) (host.Layer, error) {
	group, err := d.own(g)
	if err != nil {
		return nil, err
	}
	if !group.IsGroup() {
		return nil, fmt.Errorf("layer %q is not a group", group.name)
	}

	pixels, origin := composite(group.children)
	merged := &Layer{
		doc:     d,
		name:    group.name,
		kind:    KindPixel,
		visible: group.visible,
		origin:  origin,
		pixels:  pixels,
	}

	parent := group.parent
	index := d.detach(group)
	d.insert(parent, index, merged)
	if d.active == group {
		d.active = merged
	}
	return merged, nil
}

func (d *Document) RemoveGroup(g host.Layer) error {
	group, err := d.own(g)
	if err != nil {
		return err
	}
	if !group.IsGroup() {
		return fmt.Errorf("layer %q is not a group", group.name)
	}
	d.detach(group)
	if d.active != nil && !d.attached(d.active) {
		d.active = nil
	}
	return nil
}

// composite flattens layers (topmost first) into a single buffer covering
// the union of their visible pixel rectangles.
func composite(layers []*Layer) (*image.NRGBA, image.Point) {
	var union image.Rectangle
	var leaves []*Layer
	var collect func([]*Layer)
	collect = func(list []*Layer) {
		for i := len(list) - 1; i >= 0; i-- {
			layer := list[i]
			if !layer.visible {
				continue
			}
			if layer.IsGroup() {
				collect(layer.children)
				continue
			}
			if layer.pixels == nil || layer.pixelRect().Empty() {
				continue
			}
			union = union.Union(layer.pixelRect())
			leaves = append(leaves, layer)
		}
	}
	collect(layers)

	if union.Empty() {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0)), image.Point{}
	}

	canvas := imaging.New(union.Dx(), union.Dy(), color.NRGBA{})
	for _, leaf := range leaves {
		canvas = imaging.Overlay(canvas, leaf.pixels, leaf.origin.Sub(union.Min), 1.0)
	}
	return canvas, union.Min
}

func (d *Document) Select(bounds types.Bounds) error {
	if d.closed {
		return fmt.Errorf("document %s is closed", d.name)
	}
	rect := bounds.Rect().Intersect(image.Rect(0, 0, d.width, d.height))
	if rect.Empty() {
		return fmt.Errorf("selection %s lies outside the canvas", bounds)
	}
	d.selection = rect
	d.hasSelection = true
	return nil
}

// CopySelection copies the active layer's pixels inside the selection to
// the application clipboard.
func (d *Document) CopySelection() error {
	if d.closed {
		return fmt.Errorf("document %s is closed", d.name)
	}
	if !d.hasSelection {
		return fmt.Errorf("nothing is selected in %s", d.name)
	}
	if d.active == nil || d.active.IsGroup() {
		return fmt.Errorf("no active pixel layer in %s", d.name)
	}

	layer := d.active
	clip := imaging.New(d.selection.Dx(), d.selection.Dy(), color.NRGBA{})
	if inter := layer.pixelRect().Intersect(d.selection); !inter.Empty() {
		part := imaging.Crop(layer.pixels, inter.Sub(layer.origin))
		clip = imaging.Paste(clip, part, inter.Min.Sub(d.selection.Min))
	}
	d.app.clipboard = clip
	return nil
}

// Paste adds the clipboard as a new top layer centered on the canvas.
func (d *Document) Paste() error {
	if d.closed {
		return fmt.Errorf("document %s is closed", d.name)
	}
	clip := d.app.clipboard
	if clip == nil {
		return fmt.Errorf("clipboard is empty")
	}

	size := clip.Bounds().Size()
	layer := &Layer{
		doc:     d,
		name:    fmt.Sprintf("Layer %d", len(d.root)),
		kind:    KindPixel,
		visible: true,
		origin:  image.Pt((d.width-size.X)/2, (d.height-size.Y)/2),
		pixels:  clip,
	}
	d.insert(nil, 0, layer)
	d.active = layer
	return nil
}

func (d *Document) RemoveBackground() error {
	if d.closed {
		return fmt.Errorf("document %s is closed", d.name)
	}
	for _, layer := range d.root {
		if layer.kind == KindBackground {
			d.detach(layer)
			if d.active == layer {
				d.active = nil
			}
			return nil
		}
	}
	return fmt.Errorf("document %s has no background layer", d.name)
}

// ExportPNG writes the document's only layer to path at canvas size.
func (d *Document) ExportPNG(path string, options host.PNGOptions) error {
	if d.closed {
		return fmt.Errorf("document %s is closed", d.name)
	}
	if len(d.root) != 1 || d.root[0].IsGroup() {
		return fmt.Errorf("export requires a single pixel layer, %s has %d layers", d.name, len(d.root))
	}

	layer := d.root[0]
	out := imaging.New(d.width, d.height, color.NRGBA{})
	if layer.visible && layer.pixels != nil {
		out = imaging.Overlay(out, layer.pixels, layer.origin, 1.0)
	}

	if err := imaging.Save(out, path, imaging.PNGCompressionLevel(options.Compression)); err != nil {
		return fmt.Errorf("failed to save %s: %v", path, err)
	}
	return nil
}

func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.app != nil {
		d.app.remove(d)
	}
	return nil
}

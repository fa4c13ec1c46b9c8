package memdoc

import "image"

type documentState struct {
	width        int
	height       int
	root         []*Layer
	activePath   []int
	selection    image.Rectangle
	hasSelection bool
}

// Snapshot captures the layer tree and canvas size. Pixel buffers are
// shared with the live document since they are never written in place.
func (d *Document) Snapshot() (func() error, error) {
	state := &documentState{
		width:        d.width,
		height:       d.height,
		root:         cloneLayers(d, d.root, nil),
		activePath:   d.pathOf(d.active),
		selection:    d.selection,
		hasSelection: d.hasSelection,
	}

	return func() error {
		d.width = state.width
		d.height = state.height
		d.root = cloneLayers(d, state.root, nil)
		d.active = d.layerAt(state.activePath)
		d.selection = state.selection
		d.hasSelection = state.hasSelection
		return nil
	}, nil
}

func cloneLayers(doc *Document, layers []*Layer, parent *Layer) []*Layer {
	clones := make([]*Layer, len(layers))
	for i, layer := range layers {
		clone := *layer
		clone.doc = doc
		clone.parent = parent
		clone.children = cloneLayers(doc, layer.children, &clone)
		clones[i] = &clone
	}
	return clones
}

// pathOf returns the child indexes leading from the root to layer.
func (d *Document) pathOf(layer *Layer) []int {
	if layer == nil {
		return nil
	}
	var path []int
	for l := layer; l != nil; l = l.parent {
		i := indexOf(*d.siblings(l.parent), l)
		if i < 0 {
			return nil
		}
		path = append([]int{i}, path...)
	}
	return path
}

func (d *Document) layerAt(path []int) *Layer {
	if len(path) == 0 {
		return nil
	}
	list := d.root
	var layer *Layer
	for _, i := range path {
		if i >= len(list) {
			return nil
		}
		layer = list[i]
		list = layer.children
	}
	return layer
}

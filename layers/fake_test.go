package layers

import (
	"fmt"

	"github.com/bibin-skaria/layerslice/host"
	"github.com/bibin-skaria/layerslice/internal/types"
)

// fakeLayer and fakeDoc implement just enough of the host to record the
// order of tree operations.
type fakeLayer struct {
	name     string
	hidden   bool
	group    bool
	bounds   types.Bounds
	parent   *fakeLayer
	children []*fakeLayer
	links    []*fakeLayer
}

func (l *fakeLayer) Name() string         { return l.name }
func (l *fakeLayer) Visible() bool        { return !l.hidden }
func (l *fakeLayer) Bounds() types.Bounds { return l.bounds }
func (l *fakeLayer) IsGroup() bool        { return l.group }
func (l *fakeLayer) Layers() []host.Layer { return toHost(l.children) }

func (l *fakeLayer) Linked() []host.Layer { return toHost(l.links) }

func toHost(layers []*fakeLayer) []host.Layer {
	out := make([]host.Layer, len(layers))
	for i, l := range layers {
		out[i] = l
	}
	return out
}

func leaf(name string) *fakeLayer {
	return &fakeLayer{name: name, bounds: types.NewBounds(0, 0, 10, 10)}
}

func group(name string, children ...*fakeLayer) *fakeLayer {
	g := &fakeLayer{name: name, group: true, children: children}
	for _, c := range children {
		c.parent = g
	}
	return g
}

func link(layers ...*fakeLayer) {
	for _, l := range layers {
		for _, other := range layers {
			if other != l {
				l.links = append(l.links, other)
			}
		}
	}
}

type fakeDoc struct {
	width, height int
	root          []*fakeLayer
	calls         []string
	onMerge       func(merged *fakeLayer)
	failOn        string
}

func newFakeDoc(layers ...*fakeLayer) *fakeDoc {
	return &fakeDoc{width: 100, height: 80, root: layers}
}

func (d *fakeDoc) record(format string, args ...interface{}) error {
	call := fmt.Sprintf(format, args...)
	d.calls = append(d.calls, call)
	if d.failOn != "" && d.failOn == call {
		return fmt.Errorf("host refused %s", call)
	}
	return nil
}

func (d *fakeDoc) list(parent *fakeLayer) *[]*fakeLayer {
	if parent == nil {
		return &d.root
	}
	return &parent.children
}

func (d *fakeDoc) detach(l *fakeLayer) {
	list := d.list(l.parent)
	for i, c := range *list {
		if c == l {
			*list = append((*list)[:i], (*list)[i+1:]...)
			break
		}
	}
	l.parent = nil
}

func (d *fakeDoc) insert(parent, l *fakeLayer, index int) {
	list := d.list(parent)
	*list = append(*list, nil)
	copy((*list)[index+1:], (*list)[index:])
	(*list)[index] = l
	l.parent = parent
}

func (d *fakeDoc) Name() string         { return "fake.psd" }
func (d *fakeDoc) Path() string         { return "" }
func (d *fakeDoc) Width() int           { return d.width }
func (d *fakeDoc) Height() int          { return d.height }
func (d *fakeDoc) Layers() []host.Layer { return toHost(d.root) }

func (d *fakeDoc) SetActiveLayer(layer host.Layer) error {
	return d.record("activate %s", layer.Name())
}

func (d *fakeDoc) Rasterize(layer host.Layer) error {
	return d.record("rasterize %s", layer.Name())
}

func (d *fakeDoc) Crop(b types.Bounds) error {
	return d.record("crop %s", b)
}

func (d *fakeDoc) AddGroup(parent host.Layer, name string, index int) (host.Layer, error) {
	if err := d.record("group %s@%d", name, index); err != nil {
		return nil, err
	}
	var p *fakeLayer
	if parent != nil {
		p = parent.(*fakeLayer)
	}
	g := &fakeLayer{name: name, group: true}
	d.insert(p, g, index)
	return g, nil
}

func (d *fakeDoc) Move(layer, grp host.Layer) error {
	if err := d.record("move %s", layer.Name()); err != nil {
		return err
	}
	l, g := layer.(*fakeLayer), grp.(*fakeLayer)
	d.detach(l)
	d.insert(g, l, 0)
	return nil
}

func (d *fakeDoc) MergeGroup(grp host.Layer) (host.Layer, error) {
	if err := d.record("merge %s", grp.Name()); err != nil {
		return nil, err
	}
	g := grp.(*fakeLayer)
	parent := g.parent
	index := 0
	for i, c := range *d.list(parent) {
		if c == g {
			index = i
		}
	}
	d.detach(g)
	merged := leaf(g.name)
	d.insert(parent, merged, index)
	if d.onMerge != nil {
		d.onMerge(merged)
	}
	return merged, nil
}

func (d *fakeDoc) RemoveGroup(grp host.Layer) error {
	if err := d.record("remove %s", grp.Name()); err != nil {
		return err
	}
	d.detach(grp.(*fakeLayer))
	return nil
}

func (d *fakeDoc) Select(b types.Bounds) error { return d.record("select %s", b) }
func (d *fakeDoc) CopySelection() error         { return d.record("copy") }
func (d *fakeDoc) Paste() error                 { return d.record("paste") }
func (d *fakeDoc) RemoveBackground() error      { return d.record("remove background") }
func (d *fakeDoc) Close() error                 { return d.record("close") }

func (d *fakeDoc) ExportPNG(path string, _ host.PNGOptions) error {
	return d.record("export %s", path)
}

func names(layers []host.Layer) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.Name()
	}
	return out
}

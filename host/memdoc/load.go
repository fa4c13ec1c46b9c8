package memdoc

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v2"
)

type documentDesc struct {
	Name   string      `yaml:"name"`
	Width  int         `yaml:"width"`
	Height int         `yaml:"height"`
	Layers []layerDesc `yaml:"layers"`
}

type layerDesc struct {
	Name    string      `yaml:"name"`
	Kind    string      `yaml:"kind"`
	Visible *bool       `yaml:"visible"`
	Bounds  []int       `yaml:"bounds"`
	Color   string      `yaml:"color"`
	Image   string      `yaml:"image"`
	Link    string      `yaml:"link"`
	Layers  []layerDesc `yaml:"layers"`
}

const defaultFill = "#808080"

// Load reads a YAML document description. Image paths inside it are
// resolved relative to the description's directory.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %v", path, err)
	}

	doc, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %v", path, err)
	}

	if doc.name == "" {
		doc.name = filepath.Base(path)
	}
	doc.path = path
	return doc, nil
}

// Parse builds a document from a YAML description.
//
//	name: poster.psd
//	width: 640
//	height: 480
//	layers:
//	  - name: Title
//	    kind: text
//	    bounds: [20, 20, 300, 80]
//	    color: "#ff3366"
//	    link: header
//	  - name: Photos
//	    layers:
//	      - name: photo
//	        image: photo.png
//	        bounds: [0, 100]
//
// Layers are listed topmost first. A leaf is filled with color over its
// bounds, or loaded from image with its top-left corner at bounds[0:2].
// Layers sharing a link key are linked to each other.
func Parse(data []byte, baseDir string) (*Document, error) {
	var desc documentDesc
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse document description: %v", err)
	}

	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", desc.Width, desc.Height)
	}

	doc := &Document{
		name:   desc.Name,
		width:  desc.Width,
		height: desc.Height,
	}

	layers, err := buildLayers(doc, nil, desc.Layers, baseDir)
	if err != nil {
		return nil, err
	}
	doc.root = layers
	return doc, nil
}

func buildLayers(doc *Document, parent *Layer, descs []layerDesc, baseDir string) ([]*Layer, error) {
	layers := make([]*Layer, 0, len(descs))
	for i, desc := range descs {
		layer, err := buildLayer(doc, parent, desc, baseDir)
		if err != nil {
			name := desc.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("layer %s: %v", name, err)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

func buildLayer(doc *Document, parent *Layer, desc layerDesc, baseDir string) (*Layer, error) {
	kind := Kind(strings.ToLower(desc.Kind))
	if kind == "" {
		kind = KindPixel
		if len(desc.Layers) > 0 {
			kind = KindGroup
		}
	}
	if !kind.valid() {
		return nil, fmt.Errorf("unknown kind %q", desc.Kind)
	}

	layer := &Layer{
		doc:     doc,
		parent:  parent,
		name:    desc.Name,
		kind:    kind,
		visible: desc.Visible == nil || *desc.Visible,
		link:    desc.Link,
	}

	if kind == KindGroup {
		children, err := buildLayers(doc, layer, desc.Layers, baseDir)
		if err != nil {
			return nil, err
		}
		layer.children = children
		return layer, nil
	}

	if len(desc.Layers) > 0 {
		return nil, fmt.Errorf("%s layer cannot have children", kind)
	}

	switch {
	case desc.Image != "":
		pixels, err := loadImage(filepath.Join(baseDir, desc.Image))
		if err != nil {
			return nil, err
		}
		layer.pixels = pixels
		if len(desc.Bounds) >= 2 {
			layer.origin = image.Pt(desc.Bounds[0], desc.Bounds[1])
		}

	case len(desc.Bounds) == 4:
		rect := image.Rect(desc.Bounds[0], desc.Bounds[1], desc.Bounds[2], desc.Bounds[3])
		fill := desc.Color
		if fill == "" {
			fill = defaultFill
		}
		c, err := ParseColor(fill)
		if err != nil {
			return nil, err
		}
		layer.pixels = imaging.New(rect.Dx(), rect.Dy(), c)
		layer.origin = rect.Min

	case len(desc.Bounds) == 0:
		layer.pixels = image.NewNRGBA(image.Rect(0, 0, 0, 0))

	default:
		return nil, fmt.Errorf("bounds must have 4 values [left, top, right, bottom], got %d", len(desc.Bounds))
	}

	return layer, nil
}

func loadImage(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %v", path, err)
	}
	return imaging.Clone(img), nil
}

// ParseColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %v", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

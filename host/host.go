// Package host defines the layered-document collaborator consumed by the
// extraction pipeline.
//
// The pipeline never touches pixels itself. Everything it needs from the
// editing application is expressed as the Application, Document and Layer
// interfaces below: reading the layer tree, rasterizing, cropping, grouping
// and merging layers, and the select/copy/new-document/paste/export sequence
// used to write one layer to a PNG file.
//
// All operations are synchronous. A returned error means the operation did
// not take effect and the caller must treat the run as failed.
//
// The memdoc subpackage provides an in-memory implementation backed by a
// YAML document description.
package host

import (
	"errors"
	"image/png"

	"github.com/bibin-skaria/layerslice/internal/types"
)

// ErrNoDocument is returned when the application has no active document.
var ErrNoDocument = errors.New("no open document")

// Layer is a node of the layer tree. Group layers have children; leaf
// layers hold pixel, text, shape or smart-object content.
type Layer interface {
	Name() string
	Visible() bool
	// Bounds is the tight bounding box of the layer's pixels in canvas
	// coordinates. A layer without pixels reports zero bounds.
	Bounds() types.Bounds
	IsGroup() bool
	// Layers returns the children of a group, topmost first.
	Layers() []Layer
	// Linked returns the other layers sharing a link with this one.
	Linked() []Layer
}

// Document is an open, editable layered image.
type Document interface {
	Name() string
	// Path is the source location of the document, empty if unsaved.
	Path() string
	Width() int
	Height() int
	// Layers returns the top-level layers, topmost first.
	Layers() []Layer

	SetActiveLayer(layer Layer) error
	Rasterize(layer Layer) error
	Crop(bounds types.Bounds) error

	// AddGroup creates an empty group inside parent (nil for the document
	// root) at the given stacking index.
	AddGroup(parent Layer, name string, index int) (Layer, error)
	// Move places layer at the top of group.
	Move(layer, group Layer) error
	// MergeGroup flattens group into a single leaf layer that takes its place.
	MergeGroup(group Layer) (Layer, error)
	// RemoveGroup deletes group together with its contents.
	RemoveGroup(group Layer) error

	Select(bounds types.Bounds) error
	CopySelection() error
	Paste() error
	RemoveBackground() error
	ExportPNG(path string, options PNGOptions) error
	// Close discards all unsaved changes.
	Close() error
}

// Application owns the open documents and the clipboard.
type Application interface {
	// ActiveDocument returns nil when no document is open.
	ActiveDocument() Document
	SetActiveDocument(doc Document) error
	NewDocument(name string, width, height int) (Document, error)
}

// Snapshotter is implemented by documents that can capture their state and
// restore it later. The returned restore function undoes every change made
// after the snapshot was taken.
type Snapshotter interface {
	Snapshot() (restore func() error, err error)
}

// PNGOptions controls raster export. Images are always written as
// full-color RGBA, never as 8-bit palette images.
type PNGOptions struct {
	Compression png.CompressionLevel
}

// ParsePNGCompression maps a configuration keyword to a compression level.
func ParsePNGCompression(s string) png.CompressionLevel {
	switch s {
	case "none":
		return png.NoCompression
	case "fast":
		return png.BestSpeed
	case "default":
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

package layers

import (
	"fmt"

	"github.com/bibin-skaria/layerslice/host"
)

// MergeReport summarizes one merge pass over a document.
type MergeReport struct {
	Merged          int      `json:"merged"`
	Discarded       int      `json:"discarded"`
	DiscardedLayers []string `json:"discardedLayers,omitempty"`
}

// LayerError represents errors that occur while normalizing the layer tree
type LayerError struct {
	Operation string
	Layer     string
	Cause     error
}

func (e *LayerError) Error() string {
	if e.Layer != "" {
		return fmt.Sprintf("layer %s operation %s failed: %v", e.Layer, e.Operation, e.Cause)
	}
	return fmt.Sprintf("layer operation %s failed: %v", e.Operation, e.Cause)
}

func (e *LayerError) Unwrap() error {
	return e.Cause
}

// NewLayerError creates a new LayerError
func NewLayerError(operation, layer string, cause error) *LayerError {
	return &LayerError{
		Operation: operation,
		Layer:     layer,
		Cause:     cause,
	}
}

func layerName(layer host.Layer) string {
	if layer == nil {
		return ""
	}
	return layer.Name()
}

// indexOf returns the stacking index of layer among its siblings.
func indexOf(siblings []host.Layer, layer host.Layer) int {
	for i, l := range siblings {
		if l == layer {
			return i
		}
	}
	return -1
}

func children(doc host.Document, parent host.Layer) []host.Layer {
	if parent == nil {
		return doc.Layers()
	}
	return parent.Layers()
}

package manifest

import (
	"fmt"

	"github.com/bibin-skaria/layerslice/geometry"
)

// FileName is the manifest file written into every output directory.
const FileName = "info.json"

// Target identifies where a classified layer ends up.
type Target string

const (
	TargetForeground Target = "foreground"
	TargetBackground Target = "background"
	// TargetNamed puts the entry in a bucket keyed by the layer name.
	TargetNamed Target = "named"
	// TargetBlurred replaces the singleton blurred entry.
	TargetBlurred Target = "blurred"
	// TargetCrop never produces an entry; the layer only moves the crop focus.
	TargetCrop Target = "crop"
)

// Entry describes one exported layer.
type Entry struct {
	Snap       geometry.Snap `json:"snap"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	FromLeft   int           `json:"fromLeft"`
	FromTop    int           `json:"fromTop"`
	FromRight  int           `json:"fromRight"`
	FromBottom int           `json:"fromBottom"`
	Ratio      *float64      `json:"ratio,omitempty"`
	File       string        `json:"file"`
}

// NewEntry builds an entry from a placement. The ratio is only set when
// requested and the height is not zero.
func NewEntry(p geometry.Placement, file string, withRatio bool) Entry {
	e := Entry{
		Snap:       p.Snap(),
		Width:      p.Width,
		Height:     p.Height,
		FromLeft:   p.FromLeft,
		FromTop:    p.FromTop,
		FromRight:  p.FromRight,
		FromBottom: p.FromBottom,
		File:       file,
	}
	if withRatio && p.Height != 0 {
		ratio := float64(p.Width) / float64(p.Height)
		e.Ratio = &ratio
	}
	return e
}

// ErrorType represents the type of manifest error
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeSerialization ErrorType = "serialization"
	ErrorTypeWrite         ErrorType = "write"
)

// ManifestError represents an error from manifest operations
type ManifestError struct {
	Type      ErrorType `json:"type"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
}

// Error implements the error interface
func (e *ManifestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("manifest error [%s] %s: %s: %v", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("manifest error [%s] %s: %s", e.Type, e.Operation, e.Message)
}

// Unwrap returns the underlying error
func (e *ManifestError) Unwrap() error {
	return e.Cause
}

// IsValidationError returns true if this is a validation error
func (e *ManifestError) IsValidationError() bool {
	return e.Type == ErrorTypeValidation
}

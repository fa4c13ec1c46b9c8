package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bibin-skaria/layerslice/geometry"
)

var (
	percentRegex = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?%$`)

	validSnaps = map[geometry.Snap]bool{
		geometry.SnapToMiddle:         true,
		geometry.SnapHorizontalMiddle: true,
		geometry.SnapVerticalMiddle:   true,
		geometry.SnapToCorners:        true,
	}

	horizontalKeywords = map[string]bool{"left": true, "center": true, "right": true}
	verticalKeywords   = map[string]bool{"top": true, "center": true, "bottom": true}
)

// Validate checks that every entry is consistent with the canvas
// dimensions and that the crop focus is well formed.
func (m *Manifest) Validate() error {
	if m.Dimensions.Width <= 0 || m.Dimensions.Height <= 0 {
		return validationError("dimensions", fmt.Sprintf("invalid canvas size %dx%d", m.Dimensions.Width, m.Dimensions.Height))
	}

	if err := validateFocus(m.Crop.Horizontal, horizontalKeywords); err != nil {
		return validationError("crop", fmt.Sprintf("horizontal: %v", err))
	}
	if err := validateFocus(m.Crop.Vertical, verticalKeywords); err != nil {
		return validationError("crop", fmt.Sprintf("vertical: %v", err))
	}

	for _, key := range m.Keys()[2:] {
		var entries []Entry
		switch key {
		case "foreground":
			entries = m.Foreground
		case "background":
			entries = m.Background
		case blurredKey:
			entries = []Entry{*m.Blurred}
		default:
			entries = m.Named[key]
		}

		for i, entry := range entries {
			context := fmt.Sprintf("%s[%d]", key, i)
			if err := m.validateEntry(entry, key == "background"); err != nil {
				return validationError(context, err.Error())
			}
		}
	}

	return nil
}

func (m *Manifest) validateEntry(e Entry, ratioAllowed bool) error {
	if !validSnaps[e.Snap] {
		return fmt.Errorf("unknown snap %q", e.Snap)
	}
	if e.Width < 0 || e.Height < 0 {
		return fmt.Errorf("negative size %dx%d", e.Width, e.Height)
	}
	if e.FromLeft+e.Width+e.FromRight != m.Dimensions.Width {
		return fmt.Errorf("horizontal offsets do not add up to canvas width %d", m.Dimensions.Width)
	}
	if e.FromTop+e.Height+e.FromBottom != m.Dimensions.Height {
		return fmt.Errorf("vertical offsets do not add up to canvas height %d", m.Dimensions.Height)
	}
	if e.File == "" || !strings.HasSuffix(e.File, ".png") {
		return fmt.Errorf("invalid file name %q", e.File)
	}
	if e.Ratio != nil && !ratioAllowed {
		return fmt.Errorf("ratio is only recorded for background layers")
	}
	return nil
}

func validateFocus(value string, keywords map[string]bool) error {
	if keywords[value] || percentRegex.MatchString(value) {
		return nil
	}
	return fmt.Errorf("invalid crop focus %q", value)
}

func validationError(operation, message string) *ManifestError {
	return &ManifestError{
		Type:      ErrorTypeValidation,
		Operation: operation,
		Message:   message,
	}
}

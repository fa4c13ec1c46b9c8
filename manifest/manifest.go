// Package manifest models the per-document layer manifest and writes it
// as info.json.
//
// A manifest records the crop focus, the canvas dimensions and one entry
// per exported layer, grouped into buckets:
//
//	{
//		"crop": {"horizontal": "center", "vertical": "center"},
//		"dimensions": {"width": 640, "height": 480},
//		"foreground": [...],
//		"background": [...],
//		"BorderTop": [...],
//		"blurred": {...}
//	}
//
// Keys are written in the order they were first filled. Named buckets and
// the blurred entry follow the fixed keys.
//
// Example usage:
//
//	m := manifest.New(canvas)
//	if err := m.Place(manifest.TargetForeground, "", entry); err != nil {
//		return err
//	}
//	path, err := m.Write(outputDir)
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bibin-skaria/layerslice/geometry"
	"github.com/bibin-skaria/layerslice/internal/types"
)

const blurredKey = "blurred"

// Manifest is the document-level output of a run.
type Manifest struct {
	Crop       geometry.CropFocus
	Dimensions types.Canvas
	Foreground []Entry
	Background []Entry
	Named      map[string][]Entry
	Blurred    *Entry

	// order holds named bucket keys and "blurred" as first seen.
	order []string
}

func New(canvas types.Canvas) *Manifest {
	return &Manifest{
		Crop:       geometry.DefaultCropFocus(),
		Dimensions: canvas,
		Foreground: []Entry{},
		Background: []Entry{},
		Named:      make(map[string][]Entry),
	}
}

// Place adds entry to the bucket selected by target. key names the bucket
// for TargetNamed and is ignored otherwise.
func (m *Manifest) Place(target Target, key string, entry Entry) error {
	switch target {
	case TargetForeground:
		m.Foreground = append(m.Foreground, entry)
	case TargetBackground:
		m.Background = append(m.Background, entry)
	case TargetNamed:
		if key == "" {
			return &ManifestError{Type: ErrorTypeValidation, Operation: "place", Message: "named bucket requires a key"}
		}
		if isReserved(key) {
			return &ManifestError{Type: ErrorTypeValidation, Operation: "place", Message: fmt.Sprintf("bucket name %q is reserved", key)}
		}
		if _, exists := m.Named[key]; !exists {
			m.order = append(m.order, key)
		}
		m.Named[key] = append(m.Named[key], entry)
	case TargetBlurred:
		if m.Blurred == nil {
			m.order = append(m.order, blurredKey)
		}
		e := entry
		m.Blurred = &e
	default:
		return &ManifestError{Type: ErrorTypeValidation, Operation: "place", Message: fmt.Sprintf("target %q does not hold entries", target)}
	}
	return nil
}

// SetCrop overrides the default crop focus.
func (m *Manifest) SetCrop(crop geometry.CropFocus) {
	m.Crop = crop
}

// Keys returns the top-level keys in output order.
func (m *Manifest) Keys() []string {
	keys := []string{"crop", "dimensions", "foreground", "background"}
	return append(keys, m.order...)
}

// Entries returns every entry in output order.
func (m *Manifest) Entries() []Entry {
	entries := append([]Entry{}, m.Foreground...)
	entries = append(entries, m.Background...)
	for _, key := range m.order {
		if key == blurredKey {
			entries = append(entries, *m.Blurred)
			continue
		}
		entries = append(entries, m.Named[key]...)
	}
	return entries
}

func isReserved(key string) bool {
	switch key {
	case "crop", "dimensions", "foreground", "background", blurredKey:
		return true
	}
	return false
}

// MarshalJSON writes the keys in insertion order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.value(key))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %v", key, err)
		}

		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Manifest) value(key string) interface{} {
	switch key {
	case "crop":
		return m.Crop
	case "dimensions":
		return m.Dimensions
	case "foreground":
		return nonNil(m.Foreground)
	case "background":
		return nonNil(m.Background)
	case blurredKey:
		return m.Blurred
	default:
		return nonNil(m.Named[key])
	}
}

func nonNil(entries []Entry) []Entry {
	if entries == nil {
		return []Entry{}
	}
	return entries
}

// Serialize renders the manifest as tab-indented JSON with a trailing newline.
func (m *Manifest) Serialize() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "\t")
	if err != nil {
		return nil, &ManifestError{
			Type:      ErrorTypeSerialization,
			Operation: "serialize",
			Message:   "failed to encode manifest",
			Cause:     err,
		}
	}
	return append(data, '\n'), nil
}

// Write serializes the manifest to dir/info.json, replacing any existing
// file, and returns the path written.
func (m *Manifest) Write(dir string) (string, error) {
	data, err := m.Serialize()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &ManifestError{
			Type:      ErrorTypeWrite,
			Operation: "write",
			Message:   fmt.Sprintf("failed to write %s", path),
			Cause:     err,
		}
	}
	return path, nil
}

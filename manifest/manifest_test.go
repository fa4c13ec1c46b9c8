package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bibin-skaria/layerslice/geometry"
	"github.com/bibin-skaria/layerslice/internal/types"
)

var testCanvas = types.Canvas{Width: 400, Height: 200}

func entryFor(b types.Bounds, file string, withRatio bool) Entry {
	return NewEntry(geometry.Analyze(b, testCanvas), file, withRatio)
}

func TestNewEntry_Ratio(t *testing.T) {
	bg := entryFor(types.NewBounds(0, 0, 200, 100), "backgroundMain.png", true)
	if bg.Ratio == nil || *bg.Ratio != 2.0 {
		t.Fatalf("expected ratio 2.0, got %v", bg.Ratio)
	}

	flat := entryFor(types.NewBounds(0, 10, 200, 10), "backgroundLine.png", true)
	if flat.Ratio != nil {
		t.Errorf("expected no ratio for zero height, got %v", *flat.Ratio)
	}

	fg := entryFor(types.NewBounds(0, 0, 200, 100), "foreground0.png", false)
	if fg.Ratio != nil {
		t.Error("foreground entries should not carry a ratio")
	}
}

func TestPlace_Buckets(t *testing.T) {
	m := New(testCanvas)

	steps := []struct {
		target Target
		key    string
		file   string
	}{
		{TargetForeground, "", "foreground0.png"},
		{TargetNamed, "BorderTop", "BorderTop.png"},
		{TargetBlurred, "", "blurred.png"},
		{TargetNamed, "BorderBottom", "BorderBottom.png"},
		{TargetBackground, "", "background.png"},
		{TargetBlurred, "", "blurred.png"},
	}
	for _, s := range steps {
		if err := m.Place(s.target, s.key, entryFor(types.NewBounds(0, 0, 10, 10), s.file, false)); err != nil {
			t.Fatalf("Place(%s) failed: %v", s.target, err)
		}
	}

	expectedKeys := []string{"crop", "dimensions", "foreground", "background", "BorderTop", "blurred", "BorderBottom"}
	keys := m.Keys()
	if strings.Join(keys, ",") != strings.Join(expectedKeys, ",") {
		t.Errorf("Keys() = %v, want %v", keys, expectedKeys)
	}

	if len(m.Named["BorderTop"]) != 1 || len(m.Named["BorderBottom"]) != 1 {
		t.Errorf("expected one entry per border bucket, got %v", m.Named)
	}
	if m.Blurred == nil || m.Blurred.File != "blurred.png" {
		t.Errorf("unexpected blurred entry %+v", m.Blurred)
	}
	if len(m.Entries()) != 5 {
		t.Errorf("expected 5 entries, got %d", len(m.Entries()))
	}
}

func TestPlace_Errors(t *testing.T) {
	m := New(testCanvas)
	entry := entryFor(types.NewBounds(0, 0, 10, 10), "x.png", false)

	tests := []struct {
		name   string
		target Target
		key    string
	}{
		{"crop target", TargetCrop, ""},
		{"named without key", TargetNamed, ""},
		{"reserved key", TargetNamed, "foreground"},
		{"unknown target", Target("sideways"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Place(tt.target, tt.key, entry); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSerialize_Layout(t *testing.T) {
	m := New(testCanvas)
	m.SetCrop(geometry.CropFocus{Horizontal: "12.5%", Vertical: "25%"})
	if err := m.Place(TargetNamed, "BorderTop", entryFor(types.NewBounds(0, 0, 400, 20), "BorderTop.png", false)); err != nil {
		t.Fatal(err)
	}
	if err := m.Place(TargetBackground, "", entryFor(types.NewBounds(0, 0, 200, 100), "backgroundMain.png", true)); err != nil {
		t.Fatal(err)
	}

	data, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	text := string(data)

	if !strings.HasSuffix(text, "}\n") {
		t.Error("expected trailing newline")
	}
	if !strings.Contains(text, "\n\t\"crop\": {\n\t\t\"horizontal\": \"12.5%\"") {
		t.Errorf("expected tab indentation, got:\n%s", text)
	}
	if !strings.Contains(text, "\"foreground\": [],") {
		t.Errorf("expected empty foreground array, got:\n%s", text)
	}
	if !strings.Contains(text, "\"ratio\": 2,") {
		t.Errorf("expected ratio 2, got:\n%s", text)
	}

	order := []string{`"crop"`, `"dimensions"`, `"foreground"`, `"background"`, `"BorderTop"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		if idx <= last {
			t.Fatalf("key %s out of order in:\n%s", key, text)
		}
		last = idx
	}

	entryOrder := []string{`"snap"`, `"width"`, `"height"`, `"fromLeft"`, `"fromTop"`, `"fromRight"`, `"fromBottom"`, `"file"`}
	border := text[strings.Index(text, `"BorderTop"`):]
	last = -1
	for _, key := range entryOrder {
		idx := strings.Index(border, key)
		if idx <= last {
			t.Fatalf("entry field %s out of order", key)
		}
		last = idx
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := decoded["blurred"]; ok {
		t.Error("blurred should be absent when no blurred layer was placed")
	}
}

func TestWrite_Overwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	m := New(testCanvas)
	written, err := m.Write(dir)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if written != path {
		t.Errorf("Write() = %s, want %s", written, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") {
		t.Error("existing manifest was not replaced")
	}

	if _, err := m.Write(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestValidate(t *testing.T) {
	valid := New(testCanvas)
	if err := valid.Place(TargetBackground, "", entryFor(types.NewBounds(0, 0, 200, 100), "background.png", true)); err != nil {
		t.Fatal(err)
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid manifest, got %v", err)
	}

	repeated := New(testCanvas)
	for _, b := range []types.Bounds{types.NewBounds(0, 0, 200, 50), types.NewBounds(0, 50, 200, 100)} {
		if err := repeated.Place(TargetBackground, "", entryFor(b, "background.png", true)); err != nil {
			t.Fatal(err)
		}
		if err := repeated.Place(TargetNamed, "BorderTop", entryFor(b, "BorderTop.png", false)); err != nil {
			t.Fatal(err)
		}
	}
	repeated.SetCrop(geometry.CropFocus{Horizontal: "12.5%", Vertical: "-3%"})
	if err := repeated.Validate(); err != nil {
		t.Errorf("repeated file names should validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(m *Manifest)
	}{
		{"bad crop", func(m *Manifest) { m.SetCrop(geometry.CropFocus{Horizontal: "middle", Vertical: "center"}) }},
		{"bad dimensions", func(m *Manifest) { m.Dimensions.Width = 0 }},
		{"inconsistent offsets", func(m *Manifest) {
			e := entryFor(types.NewBounds(0, 0, 10, 10), "foreground0.png", false)
			e.FromRight = 1
			m.Foreground = append(m.Foreground, e)
		}},
		{"ratio outside background", func(m *Manifest) {
			m.Foreground = append(m.Foreground, entryFor(types.NewBounds(0, 0, 10, 10), "foreground0.png", true))
		}},
		{"exponent crop", func(m *Manifest) { m.SetCrop(geometry.CropFocus{Horizontal: "1e+02%", Vertical: "center"}) }},
		{"unknown snap", func(m *Manifest) {
			e := entryFor(types.NewBounds(0, 0, 10, 10), "foreground0.png", false)
			e.Snap = "nowhere"
			m.Foreground = append(m.Foreground, e)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testCanvas)
			if err := m.Place(TargetBackground, "", entryFor(types.NewBounds(0, 0, 200, 100), "background.png", true)); err != nil {
				t.Fatal(err)
			}
			tt.mutate(m)

			err := m.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if me, ok := err.(*ManifestError); !ok || !me.IsValidationError() {
				t.Errorf("expected validation ManifestError, got %T: %v", err, err)
			}
		})
	}
}

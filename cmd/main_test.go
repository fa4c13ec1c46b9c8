package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bibin-skaria/layerslice/host"
)

const cardYAML = `
name: card.psd
width: 40
height: 20
layers:
  - name: Title
    kind: text
    bounds: [2, 2, 20, 8]
    link: header
  - name: Frame
    layers:
      - name: BorderLeft
        bounds: [0, 0, 2, 20]
      - name: note
        visible: false
        bounds: [30, 10, 35, 15]
  - name: background
    kind: background
    bounds: [0, 0, 40, 20]
`

func writeCard(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.yaml")
	if err := os.WriteFile(path, []byte(cardYAML), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtract_NoDocument(t *testing.T) {
	_, err := execute(t, "extract", "--output", t.TempDir(), "--log-level", "error")
	if !errors.Is(err, host.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	doc := writeCard(t)
	outRoot := t.TempDir()

	out, err := execute(t, "extract", doc, "--output", outRoot, "--log-level", "error", "--progress=false")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	for _, file := range []string{"foreground0.png", "BorderLeft.png", "background.png", "info.json"} {
		if _, err := os.Stat(filepath.Join(outRoot, "card", file)); err != nil {
			t.Errorf("expected %s: %v", file, err)
		}
	}
	if !strings.Contains(out, "Extraction completed successfully!") {
		t.Errorf("missing summary in output:\n%s", out)
	}
}

func TestExtract_InvalidProfile(t *testing.T) {
	doc := writeCard(t)
	if _, err := execute(t, "extract", doc, "--profile", "deep"); err == nil {
		t.Fatal("expected an error for an unknown profile")
	}
}

func TestInspect(t *testing.T) {
	out, err := execute(t, "inspect", writeCard(t))
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	expected := []string{
		"card.psd (40x20)",
		"  Title [text] (2,2,20,8) link=header",
		"  Frame [group] (0,0,2,20)",
		"    BorderLeft [pixel] (0,0,2,20)",
		"    note [pixel] hidden (30,10,35,15)",
		"  background [background] (0,0,40,20)",
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(expected), len(lines), out)
	}
	for i, want := range expected {
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.expected {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.expected)
		}
	}
}

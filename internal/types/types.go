package types

import (
	"fmt"
	"image"
	"path/filepath"
	"regexp"
	"strings"
)

// Bounds is a layer bounding box in canvas pixel coordinates.
// Right and Bottom are exclusive.
type Bounds struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

func NewBounds(left, top, right, bottom int) Bounds {
	return Bounds{Left: left, Top: top, Right: right, Bottom: bottom}
}

func BoundsFromRect(r image.Rectangle) Bounds {
	if r.Empty() {
		return Bounds{}
	}
	return Bounds{Left: r.Min.X, Top: r.Min.Y, Right: r.Max.X, Bottom: r.Max.Y}
}

func (b Bounds) Width() int {
	return b.Right - b.Left
}

func (b Bounds) Height() int {
	return b.Bottom - b.Top
}

// IsEmpty reports whether all four raw bounds are zero, which is how the
// host describes a layer without any pixels.
func (b Bounds) IsEmpty() bool {
	return b.Left == 0 && b.Top == 0 && b.Right == 0 && b.Bottom == 0
}

func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

func (b Bounds) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", b.Left, b.Top, b.Right, b.Bottom)
}

// Canvas holds the document dimensions captured at run start.
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (c Canvas) Bounds() Bounds {
	return Bounds{Right: c.Width, Bottom: c.Height}
}

// Profile selects the traversal depth and the classification rule set.
type Profile string

const (
	// ProfileFull descends into groups and uses the complete rule set
	// (border, important, background, blurred, foreground).
	ProfileFull Profile = "full"
	// ProfileSimple works on top-level layers only with border,
	// background and foreground outcomes.
	ProfileSimple Profile = "simple"
)

func ParseProfile(s string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProfileFull:
		return ProfileFull, nil
	case ProfileSimple:
		return ProfileSimple, nil
	default:
		return "", fmt.Errorf("unknown profile %q (expected full or simple)", s)
	}
}

// Recursive reports whether the profile descends into layer groups.
func (p Profile) Recursive() bool {
	return p != ProfileSimple
}

type RunResult struct {
	RunID        string            `json:"run_id"`
	Document     string            `json:"document"`
	Profile      Profile           `json:"profile"`
	Canvas       Canvas            `json:"canvas"`
	OutputDir    string            `json:"output_dir"`
	ManifestPath string            `json:"manifest_path"`
	Files        []string          `json:"files"`
	Skipped      []string          `json:"skipped,omitempty"`
	Merges       int               `json:"merges"`
	Discarded    int               `json:"discarded"`
	Duration     string            `json:"duration"`
	Phases       []PhaseResult     `json:"phases,omitempty"`
	Artifacts    map[string]string `json:"artifacts,omitempty"`
}

// PhaseResult records how one run phase went.
type PhaseResult struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Duration string `json:"duration"`
}

var baseNamePattern = regexp.MustCompile(`[^.]+`)

// DocumentBaseName returns the document name up to its first dot.
func DocumentBaseName(name string) string {
	base := filepath.Base(name)
	if m := baseNamePattern.FindString(base); m != "" {
		return m
	}
	return "document"
}

// OutputDir resolves <outputRoot>/<documentBaseName>. When outputRoot is
// empty the directory of the source document is used.
func OutputDir(outputRoot, documentName, documentPath string) string {
	root := outputRoot
	if root == "" {
		if documentPath != "" {
			root = filepath.Dir(documentPath)
		} else {
			root = "."
		}
	}
	return filepath.Join(root, DocumentBaseName(documentName))
}

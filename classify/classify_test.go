package classify

import (
	"reflect"
	"testing"

	"github.com/bibin-skaria/layerslice/internal/types"
	"github.com/bibin-skaria/layerslice/manifest"
)

func TestFullRules(t *testing.T) {
	rules := FullRules()

	tests := []struct {
		name     string
		index    int
		expected Decision
	}{
		{"BorderTop", 0, Decision{Rule: "border", Target: manifest.TargetNamed, Key: "BorderTop", Filename: "BorderTop"}},
		{"Border", 1, Decision{Rule: "border", Target: manifest.TargetNamed, Key: "Border", Filename: "Border"}},
		{"important", 2, Decision{Rule: "important", Target: manifest.TargetCrop}},
		{"backgroundMain", 3, Decision{Rule: "background", Target: manifest.TargetBackground, Filename: "backgroundMain", WithRatio: true}},
		{"mybackground", 4, Decision{Rule: "background", Target: manifest.TargetBackground, Filename: "mybackground", WithRatio: true}},
		{"blurred", 5, Decision{Rule: "blurred", Target: manifest.TargetBlurred, Filename: "blurred"}},
		{"Background", 6, Decision{Rule: "foreground", Target: manifest.TargetForeground, Filename: "foreground6"}},
		{"blurred copy", 7, Decision{Rule: "foreground", Target: manifest.TargetForeground, Filename: "foreground7"}},
		{"Important", 8, Decision{Rule: "foreground", Target: manifest.TargetForeground, Filename: "foreground8"}},
		{"", 9, Decision{Rule: "foreground", Target: manifest.TargetForeground, Filename: "foreground9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.Classify(tt.name, tt.index)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestFullRules_FirstMatchWins(t *testing.T) {
	rules := FullRules()

	tests := []struct {
		name     string
		expected string
	}{
		{"Border background", "border"},
		{"Borderblurred", "border"},
		{"background blurred", "background"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.Classify(tt.name, 0)
			if err != nil {
				t.Fatal(err)
			}
			if got.Rule != tt.expected {
				t.Errorf("Classify(%q) matched %s, want %s", tt.name, got.Rule, tt.expected)
			}
		})
	}
}

func TestSimpleRules(t *testing.T) {
	rules := SimpleRules()

	tests := []struct {
		name     string
		expected manifest.Target
		file     string
	}{
		{"BorderLeft", manifest.TargetNamed, "BorderLeft.png"},
		{"background", manifest.TargetBackground, "background.png"},
		{"backgroundMain", manifest.TargetForeground, "foreground3.png"},
		{"important", manifest.TargetForeground, "foreground3.png"},
		{"blurred", manifest.TargetForeground, "foreground3.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.Classify(tt.name, 3)
			if err != nil {
				t.Fatal(err)
			}
			if got.Target != tt.expected || got.File() != tt.file {
				t.Errorf("Classify(%q) = %+v, want %s/%s", tt.name, got, tt.expected, tt.file)
			}
		})
	}
}

func TestDecision_File(t *testing.T) {
	crop, err := FullRules().Classify("important", 0)
	if err != nil {
		t.Fatal(err)
	}
	if crop.Exported() || crop.File() != "" {
		t.Errorf("important layer should not be exported: %+v", crop)
	}

	fg, err := FullRules().Classify("photo", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !fg.Exported() || fg.File() != "foreground4.png" {
		t.Errorf("unexpected foreground decision %+v", fg)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	names := []string{"BorderTop", "photo", "backgroundMain", "important", "blurred", "BorderTop", "logo"}
	rules := FullRules()

	run := func() []Decision {
		var out []Decision
		for i, name := range names {
			d, err := rules.Classify(name, i)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, d)
		}
		return out
	}

	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("classification changed between runs:\n%v\n%v", first, second)
	}
}

func TestClassify_NoMatch(t *testing.T) {
	rules := Rules{{Name: "only borders", Match: func(name string) bool { return name == "Border" }}}
	if _, err := rules.Classify("photo", 0); err == nil {
		t.Error("expected error when no rule matches")
	}
}

func TestForProfile(t *testing.T) {
	if len(ForProfile(types.ProfileSimple)) != len(SimpleRules()) {
		t.Error("simple profile should use the simple rule set")
	}
	if len(ForProfile(types.ProfileFull)) != len(FullRules()) {
		t.Error("full profile should use the full rule set")
	}
}

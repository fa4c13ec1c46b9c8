// Package classify maps layer names to manifest buckets and file names.
//
// Classification is an ordered list of rules evaluated top to bottom; the
// first rule whose predicate matches the layer name decides the outcome.
package classify

import (
	"fmt"
	"strings"

	"github.com/bibin-skaria/layerslice/internal/types"
	"github.com/bibin-skaria/layerslice/manifest"
)

// Rule is one classification outcome.
type Rule struct {
	Name  string
	Match func(name string) bool
	// Target is the manifest bucket receiving the entry.
	Target manifest.Target
	// Filename returns the file name, without extension, for the layer at
	// index in the collected sequence.
	Filename func(name string, index int) string
	// WithRatio adds the width/height ratio to the entry.
	WithRatio bool
}

// Decision is the result of classifying one layer.
type Decision struct {
	Rule      string
	Target    manifest.Target
	Key       string // bucket name for manifest.TargetNamed
	Filename  string
	WithRatio bool
}

// Exported reports whether the layer is written to a file.
func (d Decision) Exported() bool {
	return d.Target != manifest.TargetCrop
}

// File is the exported file name including extension.
func (d Decision) File() string {
	if !d.Exported() {
		return ""
	}
	return d.Filename + ".png"
}

// Rules is an ordered rule set. The last rule should match every name.
type Rules []Rule

// Classify returns the decision of the first matching rule.
func (r Rules) Classify(name string, index int) (Decision, error) {
	for _, rule := range r {
		if !rule.Match(name) {
			continue
		}
		d := Decision{
			Rule:      rule.Name,
			Target:    rule.Target,
			WithRatio: rule.WithRatio,
		}
		if rule.Filename != nil {
			d.Filename = rule.Filename(name, index)
		}
		if rule.Target == manifest.TargetNamed {
			d.Key = name
		}
		return d, nil
	}
	return Decision{}, fmt.Errorf("no classification rule matches layer %q", name)
}

func layerName(name string, _ int) string {
	return name
}

func fixedName(fixed string) func(string, int) string {
	return func(string, int) string {
		return fixed
	}
}

func foregroundName(_ string, index int) string {
	return fmt.Sprintf("foreground%d", index)
}

var (
	borderRule = Rule{
		Name:     "border",
		Match:    func(name string) bool { return strings.HasPrefix(name, "Border") },
		Target:   manifest.TargetNamed,
		Filename: layerName,
	}
	importantRule = Rule{
		Name:   "important",
		Match:  func(name string) bool { return name == "important" },
		Target: manifest.TargetCrop,
	}
	blurredRule = Rule{
		Name:     "blurred",
		Match:    func(name string) bool { return name == "blurred" },
		Target:   manifest.TargetBlurred,
		Filename: fixedName("blurred"),
	}
	foregroundRule = Rule{
		Name:     "foreground",
		Match:    func(string) bool { return true },
		Target:   manifest.TargetForeground,
		Filename: foregroundName,
	}
)

// FullRules is the group-aware rule set: names starting with "Border" get
// a bucket of their own, "important" moves the crop focus, names
// containing "background" go to the background bucket with a ratio,
// "blurred" is a singleton and everything else is foreground.
func FullRules() Rules {
	return Rules{
		borderRule,
		importantRule,
		{
			Name:      "background",
			Match:     func(name string) bool { return strings.Contains(name, "background") },
			Target:    manifest.TargetBackground,
			Filename:  layerName,
			WithRatio: true,
		},
		blurredRule,
		foregroundRule,
	}
}

// SimpleRules has three outcomes: border, a layer named exactly
// "background", and foreground.
func SimpleRules() Rules {
	return Rules{
		borderRule,
		{
			Name:      "background",
			Match:     func(name string) bool { return name == "background" },
			Target:    manifest.TargetBackground,
			Filename:  layerName,
			WithRatio: true,
		},
		foregroundRule,
	}
}

func ForProfile(p types.Profile) Rules {
	if p == types.ProfileSimple {
		return SimpleRules()
	}
	return FullRules()
}

// Package exporters writes run output: each classified layer as a PNG file
// through the host, and named packaging exporters that bundle a finished
// output directory.
package exporters

import (
	"fmt"
	"sort"

	"github.com/bibin-skaria/layerslice/internal/types"
)

// Exporter packages the output of a completed run. Implementations record
// what they produced in result.Artifacts.
type Exporter interface {
	Export(result *types.RunResult, config *types.RunConfig) error
}

var exporters = make(map[string]Exporter)

func RegisterExporter(name string, exporter Exporter) {
	exporters[name] = exporter
}

func GetExporter(name string) (Exporter, error) {
	exporter, exists := exporters[name]
	if !exists {
		return nil, fmt.Errorf("exporter %s not found", name)
	}
	return exporter, nil
}

func ListExporters() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// outputFiles lists the files of a run relative to its output directory,
// manifest last.
func outputFiles(result *types.RunResult) ([]string, error) {
	if result.OutputDir == "" {
		return nil, fmt.Errorf("run result has no output directory")
	}
	files := append([]string{}, result.Files...)
	if result.ManifestPath != "" {
		files = append(files, result.ManifestPath)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("run produced no files to package")
	}
	return files, nil
}

func setArtifact(result *types.RunResult, name, path string) {
	if result.Artifacts == nil {
		result.Artifacts = make(map[string]string)
	}
	result.Artifacts[name] = path
}

package exporters

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bibin-skaria/layerslice/host"
)

const scratchDocument = "tempDoc"

// LayerExporter writes single layers to PNG files by copying them into a
// scratch document sized to the layer.
type LayerExporter struct {
	app     host.Application
	options host.PNGOptions
}

func NewLayerExporter(app host.Application, options host.PNGOptions) *LayerExporter {
	return &LayerExporter{app: app, options: options}
}

// SaveLayer exports layer of doc to dir/<fileName>.png and returns the path.
// The source document is activated first, the layer bounds are selected and
// copied, pasted into a new document with its background removed, exported
// and the scratch document is closed without saving.
func (e *LayerExporter) SaveLayer(doc host.Document, layer host.Layer, dir, fileName string) (string, error) {
	if err := validateFileName(fileName); err != nil {
		return "", err
	}
	if err := e.app.SetActiveDocument(doc); err != nil {
		return "", fmt.Errorf("failed to activate document %s: %v", doc.Name(), err)
	}
	if err := doc.SetActiveLayer(layer); err != nil {
		return "", fmt.Errorf("failed to activate layer: %v", err)
	}

	bounds := layer.Bounds()
	if err := doc.Select(bounds); err != nil {
		return "", fmt.Errorf("failed to select %s: %v", bounds, err)
	}
	if err := doc.CopySelection(); err != nil {
		return "", fmt.Errorf("failed to copy selection: %v", err)
	}

	scratch, err := e.app.NewDocument(scratchDocument, bounds.Width(), bounds.Height())
	if err != nil {
		return "", fmt.Errorf("failed to create scratch document: %v", err)
	}

	path := filepath.Join(dir, fileName+".png")
	if err := e.exportScratch(scratch, path); err != nil {
		scratch.Close()
		return "", err
	}

	if err := scratch.Close(); err != nil {
		return "", fmt.Errorf("failed to close scratch document: %v", err)
	}
	return path, nil
}

func (e *LayerExporter) exportScratch(scratch host.Document, path string) error {
	if err := scratch.Paste(); err != nil {
		return fmt.Errorf("failed to paste into scratch document: %v", err)
	}
	if err := scratch.RemoveBackground(); err != nil {
		return fmt.Errorf("failed to remove background: %v", err)
	}
	if err := scratch.ExportPNG(path, e.options); err != nil {
		return fmt.Errorf("failed to export %s: %v", path, err)
	}
	return nil
}

// validateFileName rejects names that would leave the output directory or
// that no filesystem accepts. Layer names flow into file names unchanged.
func validateFileName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("invalid file name %q", name)
	}
	if len(name)+len(".png") > 255 {
		return fmt.Errorf("file name too long: %d chars (max 251)", len(name))
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("file name %q contains a path separator or null byte", name)
	}
	return nil
}

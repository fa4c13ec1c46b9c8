package exporters

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/tarball"

	"github.com/bibin-skaria/layerslice/internal/types"
)

const (
	ociRepositoryPrefix = "layerslice/"
	ociTitleAnnotation  = "org.opencontainers.image.title"

	LabelDocument = "io.layerslice.document"
	LabelCanvas   = "io.layerslice.canvas"
	LabelProfile  = "io.layerslice.profile"
	LabelRunID    = "io.layerslice.run-id"
)

var invalidRepositoryChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// OCIExporter packages the run output as an image tarball with one image
// layer per exported file, loadable with `docker load` or any OCI tool.
type OCIExporter struct{}

func init() {
	RegisterExporter("oci", &OCIExporter{})
}

func (e *OCIExporter) Export(result *types.RunResult, config *types.RunConfig) error {
	base := filepath.Base(result.OutputDir)
	tag, err := imageTag(base)
	if err != nil {
		return err
	}

	img, err := buildImage(result)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(filepath.Dir(result.OutputDir), base+".oci.tar")
	if err := tarball.WriteToFile(outputPath, tag, img); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("failed to write image tarball: %v", err)
	}

	setArtifact(result, "oci", outputPath)
	return nil
}

// buildImage assembles the run output into an image with one layer per
// file, the manifest last. Run metadata goes into the config labels.
func buildImage(result *types.RunResult) (v1.Image, error) {
	files, err := outputFiles(result)
	if err != nil {
		return nil, err
	}

	img := empty.Image
	for _, file := range files {
		layer, err := fileLayer(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create layer for %s: %v", file, err)
		}

		img, err = mutate.Append(img, mutate.Addendum{
			Layer:       layer,
			Annotations: map[string]string{ociTitleAnnotation: filepath.Base(file)},
			History: v1.History{
				CreatedBy: "layerslice extract: " + filepath.Base(file),
				Comment:   result.RunID,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to append layer for %s: %v", file, err)
		}
	}

	img, err = mutate.Config(img, v1.Config{
		Labels: map[string]string{
			LabelDocument: result.Document,
			LabelCanvas:   fmt.Sprintf("%dx%d", result.Canvas.Width, result.Canvas.Height),
			LabelProfile:  string(result.Profile),
			LabelRunID:    result.RunID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set image config: %v", err)
	}
	return img, nil
}

func repositoryName(base string) string {
	repo := invalidRepositoryChars.ReplaceAllString(strings.ToLower(base), "-")
	repo = strings.Trim(repo, "-._")
	if repo == "" {
		repo = "document"
	}
	return repo
}

func imageTag(base string) (name.Tag, error) {
	tag, err := name.NewTag(ociRepositoryPrefix + repositoryName(base) + ":latest")
	if err != nil {
		return name.Tag{}, fmt.Errorf("invalid image reference for %s: %v", base, err)
	}
	return tag, nil
}

// fileLayer wraps a single file in an uncompressed tar stream.
func fileLayer(path string) (v1.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	header := &tar.Header{
		Name:     filepath.Base(path),
		Mode:     0644,
		Size:     int64(len(data)),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return nil, err
	}
	if _, err := tw.Write(data); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}

	content := buf.Bytes()
	return tarball.LayerFromOpener(func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(content)), nil
	})
}

package exporters

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/bibin-skaria/layerslice/internal/types"
)

// ArchiveExporter bundles the exported files and the manifest into a tar
// archive next to the output directory, compressed according to
// config.Compression.
type ArchiveExporter struct{}

func init() {
	RegisterExporter("archive", &ArchiveExporter{})
}

func (e *ArchiveExporter) Export(result *types.RunResult, config *types.RunConfig) error {
	files, err := outputFiles(result)
	if err != nil {
		return err
	}

	compression := strings.ToLower(config.Compression)
	base := filepath.Base(result.OutputDir)
	outputPath := filepath.Join(filepath.Dir(result.OutputDir), base+archiveExtension(compression))

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %v", err)
	}

	if err := writeArchive(out, compression, base, files); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("failed to write archive %s: %v", outputPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %v", err)
	}

	setArtifact(result, "archive", outputPath)
	return nil
}

func archiveExtension(compression string) string {
	switch compression {
	case "gzip":
		return ".tar.gz"
	case "zstd":
		return ".tar.zst"
	default:
		return ".tar"
	}
}

func writeArchive(w io.Writer, compression, prefix string, files []string) error {
	var compressor io.WriteCloser
	switch compression {
	case "gzip":
		gw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return err
		}
		compressor = gw
	case "zstd":
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		compressor = zw
	}

	target := w
	if compressor != nil {
		target = compressor
	}

	tarWriter := tar.NewWriter(target)
	for _, file := range files {
		if err := addFileToTar(tarWriter, file, prefix+"/"+filepath.Base(file)); err != nil {
			return fmt.Errorf("failed to add %s: %v", file, err)
		}
	}
	if err := tarWriter.Close(); err != nil {
		return err
	}

	if compressor != nil {
		return compressor.Close()
	}
	return nil
}

func addFileToTar(tarWriter *tar.Writer, filePath, tarPath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", filePath)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(tarPath)

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}

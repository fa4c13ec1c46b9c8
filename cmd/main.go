package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibin-skaria/layerslice/engine"
	"github.com/bibin-skaria/layerslice/exporters"
	"github.com/bibin-skaria/layerslice/host"
	"github.com/bibin-skaria/layerslice/host/memdoc"
	"github.com/bibin-skaria/layerslice/internal/types"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	exitFailure    = 1
	exitNoDocument = 2
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, host.ErrNoDocument) {
			fmt.Fprintln(os.Stderr, engine.NoDocumentMessage)
			os.Exit(exitNoDocument)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layerslice",
		Short: "Export the layers of a layered document as PNG files",
		Long: `layerslice merges linked layers, rasterizes and crops every layer to the
canvas, then exports each one as a PNG next to an info.json manifest that
describes where the layer sits on the canvas.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(newExtractCommand())
	cmd.AddCommand(newInspectCommand())

	return cmd
}

func newExtractCommand() *cobra.Command {
	var (
		configPath     string
		output         string
		profile        string
		exporterNames  []string
		compression    string
		registry       string
		insecure       bool
		pngCompression string
		noRollback     bool
		progress       bool
		logLevel       string
		logFormat      string
	)

	cmd := &cobra.Command{
		Use:   "extract [document]",
		Short: "Extract every layer of a document",
		Long: `Extract opens the document description and exports its layers into
<output>/<document name>. Without --output the directory of the document is
used. On failure every change made by the run is rolled back unless
--no-rollback is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := types.DefaultRunConfig()
			if configPath != "" {
				loaded, err := types.LoadRunConfig(configPath)
				if err != nil {
					return err
				}
				config = loaded
			}

			flags := cmd.Flags()
			if flags.Changed("output") {
				config.OutputRoot = output
			}
			if flags.Changed("profile") {
				config.Profile = types.Profile(profile)
			}
			if flags.Changed("exporter") {
				config.Exporters = exporterNames
			}
			if flags.Changed("compression") {
				config.Compression = compression
			}
			if flags.Changed("registry") {
				config.Registry = registry
			}
			if flags.Changed("insecure-registry") {
				config.RegistryInsecure = insecure
			}
			if flags.Changed("png-compression") {
				config.PNGCompression = pngCompression
			}
			if flags.Changed("no-rollback") {
				config.Rollback = !noRollback
			}
			if flags.Changed("log-level") {
				config.LogLevel = logLevel
			}
			if flags.Changed("log-format") {
				config.LogFormat = logFormat
			}

			extractor, err := engine.NewExtractor(config)
			if err != nil {
				return err
			}
			if progress {
				extractor.SetProgressOutput(cmd.OutOrStdout())
			}

			app := memdoc.NewApp()
			if len(args) > 0 {
				if _, err := app.Open(args[0]); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			result, err := extractor.Run(ctx, app)
			if err != nil {
				return err
			}

			printSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML run configuration")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output root directory (default: the document's directory)")
	cmd.Flags().StringVarP(&profile, "profile", "p", string(types.ProfileFull), "Extraction profile (full, simple)")
	cmd.Flags().StringSliceVar(&exporterNames, "exporter", nil,
		fmt.Sprintf("Package the output after extraction (%s)", strings.Join(exporters.ListExporters(), ", ")))
	cmd.Flags().StringVar(&compression, "compression", "zstd", "Archive compression (zstd, gzip, none)")
	cmd.Flags().StringVar(&registry, "registry", "", "Repository to push the output image to (with --exporter push)")
	cmd.Flags().BoolVar(&insecure, "insecure-registry", false, "Push over plain HTTP")
	cmd.Flags().StringVar(&pngCompression, "png-compression", "best", "PNG compression (best, default, fast, none)")
	cmd.Flags().BoolVar(&noRollback, "no-rollback", false, "Keep partial output and document changes on failure")
	cmd.Flags().BoolVar(&progress, "progress", true, "Show progress")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "json", "Log format (json, text)")

	return cmd
}

func printSummary(cmd *cobra.Command, result *types.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Extraction completed successfully!\n")
	fmt.Fprintf(out, "Output: %s\n", result.OutputDir)
	for _, path := range result.Files {
		size := int64(0)
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		fmt.Fprintf(out, "  %s (%s)\n", filepath.Base(path), formatBytes(size))
	}
	fmt.Fprintf(out, "Manifest: %s\n", result.ManifestPath)
	for name, path := range result.Artifacts {
		fmt.Fprintf(out, "%s: %s\n", name, path)
	}
	fmt.Fprintf(out, "Merged: %d (discarded %d)\n", result.Merges, result.Discarded)
	fmt.Fprintf(out, "Skipped: %d\n", len(result.Skipped))
	fmt.Fprintf(out, "Duration: %s\n", result.Duration)
}

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [document]",
		Short: "Print the layer tree of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := memdoc.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%dx%d)\n", doc.Name(), doc.Width(), doc.Height())
			printLayers(cmd, doc.Layers(), 1)
			return nil
		},
	}

	return cmd
}

func printLayers(cmd *cobra.Command, layers []host.Layer, depth int) {
	for _, layer := range layers {
		kind := "layer"
		link := ""
		if l, ok := layer.(*memdoc.Layer); ok {
			kind = string(l.Kind())
			if l.LinkKey() != "" {
				link = " link=" + l.LinkKey()
			}
		}

		visibility := ""
		if !layer.Visible() {
			visibility = " hidden"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s%s [%s]%s %s%s\n",
			strings.Repeat("  ", depth), layer.Name(), kind, visibility, layer.Bounds(), link)

		if layer.IsGroup() {
			printLayers(cmd, layer.Layers(), depth+1)
		}
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func init() {
	cobra.OnInitialize(func() {
		if os.Getenv("LAYERSLICE_DEBUG") != "" {
			fmt.Fprintf(os.Stderr, "layerslice debug mode enabled\n")
			os.Setenv("LOG_LEVEL", "debug")
		}
	})
}

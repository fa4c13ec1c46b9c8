// Package engine drives a complete extraction run: it normalizes the
// active document's layer tree, classifies and exports every layer, writes
// the manifest and runs the configured packaging exporters.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bibin-skaria/layerslice/classify"
	"github.com/bibin-skaria/layerslice/exporters"
	"github.com/bibin-skaria/layerslice/geometry"
	"github.com/bibin-skaria/layerslice/host"
	errs "github.com/bibin-skaria/layerslice/internal/errors"
	"github.com/bibin-skaria/layerslice/internal/types"
	"github.com/bibin-skaria/layerslice/layers"
	"github.com/bibin-skaria/layerslice/manifest"
)

// NoDocumentMessage is shown when there is nothing to extract.
const NoDocumentMessage = "You don't have any opened documents..."

type Extractor struct {
	config         *types.RunConfig
	logOutput      io.Writer
	progressOutput io.Writer
}

func NewExtractor(config *types.RunConfig) (*Extractor, error) {
	if config == nil {
		config = types.DefaultRunConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errs.NewConfigurationError("invalid run configuration", err)
	}
	for _, name := range config.Exporters {
		if _, err := exporters.GetExporter(name); err != nil {
			return nil, errs.NewConfigurationError(fmt.Sprintf("unknown exporter %q", name), err)
		}
	}

	return &Extractor{
		config:    config,
		logOutput: os.Stderr,
	}, nil
}

func (e *Extractor) SetLogOutput(w io.Writer) {
	e.logOutput = w
}

// SetProgressOutput enables human readable progress lines on w.
func (e *Extractor) SetProgressOutput(w io.Writer) {
	e.progressOutput = w
}

// runContext carries everything one run needs. The document is the
// journaled view of the source document; exports go through source since
// the host only accepts its own document handles.
type runContext struct {
	ctx       context.Context
	app       host.Application
	source    host.Document
	doc       host.Document
	canvas    types.Canvas
	outputDir string
	profile   types.Profile
	rules     classify.Rules
	journal   *errs.Journal
	exporter  *exporters.LayerExporter
	manifest  *manifest.Manifest
	result    *types.RunResult
	log       *RunLogger
	progress  *ProgressTracker
}

// Run extracts the active document of app. Without an active document it
// returns a precondition error wrapping host.ErrNoDocument before touching
// anything. Any later failure aborts the run; with rollback enabled every
// journaled document mutation and file write is undone first.
func (e *Extractor) Run(ctx context.Context, app host.Application) (*types.RunResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := NewRunLogger(runID, e.logOutput, e.config.LogLevel, e.config.LogFormat)

	source := app.ActiveDocument()
	if source == nil {
		err := errs.NewPreconditionError(NoDocumentMessage, host.ErrNoDocument)
		logger.LogRunFailed(err)
		return nil, err
	}
	logger.SetDocument(source.Name())

	rc := e.newRunContext(ctx, app, source, runID, logger)
	logger.LogRunStart(e.config, rc.canvas, rc.outputDir)

	if err := e.execute(rc); err != nil {
		e.abort(rc, err)
		rc.result.Phases = rc.progress.Phases()
		rc.result.Duration = time.Since(start).String()
		return rc.result, err
	}

	rc.result.Phases = rc.progress.Phases()
	rc.result.Duration = time.Since(start).String()
	logger.LogRunComplete(rc.result)
	return rc.result, nil
}

func (e *Extractor) newRunContext(ctx context.Context, app host.Application, source host.Document, runID string, logger *RunLogger) *runContext {
	journal := errs.NewJournal()
	rc := &runContext{
		ctx:       ctx,
		app:       app,
		source:    source,
		doc:       newJournaledDocument(source, journal),
		canvas:    types.Canvas{Width: source.Width(), Height: source.Height()},
		outputDir: types.OutputDir(e.config.OutputRoot, source.Name(), source.Path()),
		profile:   e.config.Profile,
		rules:     classify.ForProfile(e.config.Profile),
		journal:   journal,
		exporter:  exporters.NewLayerExporter(app, host.PNGOptions{Compression: host.ParsePNGCompression(e.config.PNGCompression)}),
		log:       logger,
		progress:  NewProgressTracker(e.progressOutput),
	}
	rc.manifest = manifest.New(rc.canvas)
	rc.result = &types.RunResult{
		RunID:     runID,
		Document:  source.Name(),
		Profile:   rc.profile,
		Canvas:    rc.canvas,
		OutputDir: rc.outputDir,
		Files:     []string{},
	}
	return rc
}

func (e *Extractor) execute(rc *runContext) error {
	if err := ensureDir(rc.journal, rc.outputDir); err != nil {
		return errs.NewFilesystemError("create_output_dir", fmt.Sprintf("failed to create %s", rc.outputDir), err)
	}

	steps := []struct {
		phase string
		run   func(rc *runContext) (logrus.Fields, error)
	}{
		{"merge", mergeLinked},
		{"flatten", flatten},
		{"classify", classifyAndExport},
		{"manifest", writeManifest},
		{"package", e.packageOutput},
	}

	for _, step := range steps {
		if err := rc.ctx.Err(); err != nil {
			return errs.WrapError(err, step.phase)
		}
		rc.progress.StartPhase(step.phase)
		fields, err := step.run(rc)
		duration := rc.progress.CompletePhase(err)
		if err != nil {
			return err
		}
		rc.log.LogPhase(step.phase, duration, fields)
	}
	return nil
}

func (e *Extractor) abort(rc *runContext, err error) {
	rc.log.LogRunFailed(err)
	if !e.config.Rollback {
		return
	}

	actions := rc.journal.Len()
	rollbackErr := rc.journal.Rollback(context.Background())
	rc.log.LogRollback(actions, rollbackErr)
	if rollbackErr == nil {
		rc.result.Files = []string{}
		rc.result.ManifestPath = ""
		rc.result.Artifacts = nil
	}
}

func mergeLinked(rc *runContext) (logrus.Fields, error) {
	report, err := layers.NewMerger(rc.doc, rc.profile.Recursive()).Merge(rc.ctx)
	if err != nil {
		return nil, hostError("merge", err)
	}
	for _, name := range report.DiscardedLayers {
		rc.log.LogMergeDiscarded(name)
	}
	rc.result.Merges = report.Merged
	rc.result.Discarded = report.Discarded
	return logrus.Fields{"merged": report.Merged, "discarded": report.Discarded}, nil
}

func flatten(rc *runContext) (logrus.Fields, error) {
	count, err := layers.Flatten(rc.ctx, rc.doc, rc.profile.Recursive())
	if err != nil {
		return nil, hostError("flatten", err)
	}
	return logrus.Fields{"rasterized": count}, nil
}

func classifyAndExport(rc *runContext) (logrus.Fields, error) {
	leaves := layers.Collect(rc.doc, rc.profile.Recursive())
	rc.log.LogPhase("collect", 0, logrus.Fields{"layers": len(leaves)})

	if err := rc.classifyLayers(leaves); err != nil {
		return nil, err
	}
	return logrus.Fields{
		"exported": len(rc.result.Files),
		"skipped":  len(rc.result.Skipped),
	}, nil
}

// classifyLayers handles the collected sequence in order. Indexes count
// every layer in the sequence, skipped ones included.
func (rc *runContext) classifyLayers(leaves []host.Layer) error {
	for index, layer := range leaves {
		if err := rc.ctx.Err(); err != nil {
			return errs.WrapError(err, "classify")
		}

		name := layer.Name()
		bounds := layer.Bounds()
		if bounds.IsEmpty() {
			rc.skip(index, len(leaves), name, "empty")
			continue
		}
		if !layer.Visible() {
			rc.skip(index, len(leaves), name, "hidden")
			continue
		}

		decision, err := rc.rules.Classify(name, index)
		if err != nil {
			return errs.NewErrorBuilder().
				Category(errs.ErrorCategoryLayer).
				Operation("classify").
				Layer(name).
				Message("no classification rule applies").
				Cause(err).
				Build()
		}

		if !decision.Exported() {
			crop := geometry.DetermineCrop(bounds, rc.canvas)
			rc.manifest.SetCrop(crop)
			rc.log.LogCropOverridden(name, crop)
			rc.progress.Layer(index, len(leaves), name, "crop focus")
			continue
		}

		entry := manifest.NewEntry(geometry.Analyze(bounds, rc.canvas), decision.File(), decision.WithRatio)

		path := filepath.Join(rc.outputDir, decision.File())
		if err := recordOverwrite(rc.journal, path); err != nil {
			return errs.NewExportError("save_layer", name, err)
		}
		if _, err := rc.exporter.SaveLayer(rc.source, layer, rc.outputDir, decision.Filename); err != nil {
			return errs.NewExportError("save_layer", name, err)
		}

		if err := rc.manifest.Place(decision.Target, decision.Key, entry); err != nil {
			return errs.NewErrorBuilder().
				Category(errs.ErrorCategoryManifest).
				Operation("place").
				Layer(name).
				Message("failed to add manifest entry").
				Cause(err).
				Build()
		}

		if !slices.Contains(rc.result.Files, path) {
			rc.result.Files = append(rc.result.Files, path)
		}
		rc.log.LogLayerExported(index, name, decision.Rule, decision.File())
		rc.progress.Layer(index, len(leaves), name, decision.File())
	}
	return nil
}

func (rc *runContext) skip(index, total int, name, reason string) {
	rc.result.Skipped = append(rc.result.Skipped, name)
	rc.log.LogLayerSkipped(index, name, reason)
	rc.progress.Layer(index, total, name, "skipped ("+reason+")")
}

func writeManifest(rc *runContext) (logrus.Fields, error) {
	if err := rc.manifest.Validate(); err != nil {
		return nil, errs.NewManifestError("manifest failed validation", err)
	}

	path := filepath.Join(rc.outputDir, manifest.FileName)
	if err := recordOverwrite(rc.journal, path); err != nil {
		return nil, errs.NewFilesystemError("write_manifest", fmt.Sprintf("failed to read existing %s", path), err)
	}

	written, err := rc.manifest.Write(rc.outputDir)
	if err != nil {
		return nil, errs.NewManifestError("failed to write manifest", err)
	}
	rc.result.ManifestPath = written
	return logrus.Fields{"path": written, "entries": len(rc.manifest.Entries())}, nil
}

func (e *Extractor) packageOutput(rc *runContext) (logrus.Fields, error) {
	for _, name := range e.config.Exporters {
		exporter, err := exporters.GetExporter(name)
		if err != nil {
			return nil, errs.NewConfigurationError(fmt.Sprintf("unknown exporter %q", name), err)
		}

		before := make(map[string]string, len(rc.result.Artifacts))
		for k, v := range rc.result.Artifacts {
			before[k] = v
		}

		if err := exporter.Export(rc.result, e.config); err != nil {
			return nil, errs.NewExportError("package_"+name, "", err)
		}

		for k, path := range rc.result.Artifacts {
			if before[k] == path {
				continue
			}
			// Only local artifacts can be undone; pushed references stay.
			if _, err := os.Stat(path); err == nil {
				recordCreatedFile(rc.journal, path)
			}
		}
	}
	return logrus.Fields{"exporters": e.config.Exporters, "artifacts": len(rc.result.Artifacts)}, nil
}

func hostError(operation string, err error) error {
	var layerErr *layers.LayerError
	if errors.As(err, &layerErr) {
		return errs.NewHostError(layerErr.Operation, layerErr.Layer, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errs.WrapError(err, operation)
	}
	return errs.NewHostError(operation, "", err)
}

func errorCategory(err error) (errs.ErrorCategory, bool) {
	var runErr *errs.RunError
	if errors.As(err, &runErr) {
		return runErr.Category, true
	}
	return "", false
}

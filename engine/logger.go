package engine

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bibin-skaria/layerslice/geometry"
	"github.com/bibin-skaria/layerslice/internal/types"
)

const component = "layerslice"

// RunLogger writes structured run events.
type RunLogger struct {
	logger   *logrus.Logger
	runID    string
	document string
}

// NewRunLogger creates a logger writing to output. LOG_LEVEL overrides
// level when set; format is "json" (default) or "text".
func NewRunLogger(runID string, output io.Writer, level, format string) *RunLogger {
	logger := logrus.New()

	if strings.EqualFold(format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	logger.SetLevel(logrus.InfoLevel)
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	if level != "" {
		if logLevel, err := logrus.ParseLevel(level); err == nil {
			logger.SetLevel(logLevel)
		}
	}

	if output != nil {
		logger.SetOutput(output)
	}

	return &RunLogger{logger: logger, runID: runID}
}

func (l *RunLogger) SetDocument(name string) {
	l.document = name
}

func (l *RunLogger) event(eventType string) *logrus.Entry {
	entry := l.logger.WithFields(logrus.Fields{
		"component": component,
		"run_id":    l.runID,
		"type":      eventType,
	})
	if l.document != "" {
		entry = entry.WithField("document", l.document)
	}
	return entry
}

func (l *RunLogger) LogRunStart(config *types.RunConfig, canvas types.Canvas, outputDir string) {
	l.event("run_start").WithFields(logrus.Fields{
		"profile":    config.Profile,
		"canvas":     canvas,
		"output_dir": outputDir,
		"exporters":  config.Exporters,
		"rollback":   config.Rollback,
	}).Info("Starting layer extraction")
}

func (l *RunLogger) LogPhase(phase string, duration time.Duration, fields logrus.Fields) {
	entry := l.event("phase_complete").WithFields(logrus.Fields{
		"phase":    phase,
		"duration": duration.String(),
	})
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Info("Phase complete")
}

func (l *RunLogger) LogMergeDiscarded(layer string) {
	l.event("merge_discarded").WithField("layer", layer).
		Debug("Linked layers already merged, merge discarded")
}

func (l *RunLogger) LogLayerExported(index int, layer, rule, file string) {
	l.event("layer_exported").WithFields(logrus.Fields{
		"index": index,
		"layer": layer,
		"rule":  rule,
		"file":  file,
	}).Info("Layer exported")
}

func (l *RunLogger) LogLayerSkipped(index int, layer, reason string) {
	l.event("layer_skipped").WithFields(logrus.Fields{
		"index":  index,
		"layer":  layer,
		"reason": reason,
	}).Debug("Layer skipped")
}

func (l *RunLogger) LogCropOverridden(layer string, crop geometry.CropFocus) {
	l.event("crop_overridden").WithFields(logrus.Fields{
		"layer":      layer,
		"horizontal": crop.Horizontal,
		"vertical":   crop.Vertical,
	}).Info("Crop focus overridden")
}

func (l *RunLogger) LogRollback(actions int, err error) {
	entry := l.event("rollback").WithField("actions", actions)
	if err != nil {
		entry.WithError(err).Error("Rollback incomplete")
		return
	}
	entry.Warn("Run rolled back")
}

func (l *RunLogger) LogRunComplete(result *types.RunResult) {
	l.event("run_complete").WithFields(logrus.Fields{
		"output_dir": result.OutputDir,
		"files":      len(result.Files),
		"skipped":    len(result.Skipped),
		"merges":     result.Merges,
		"discarded":  result.Discarded,
		"duration":   result.Duration,
	}).Info("Extraction completed successfully")
}

func (l *RunLogger) LogRunFailed(err error) {
	entry := l.event("run_failed").WithError(err)
	if category, ok := errorCategory(err); ok {
		entry = entry.WithField("error_category", category)
	}
	entry.Error("Extraction failed")
}

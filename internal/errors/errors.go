package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCategory represents different categories of errors for better handling
type ErrorCategory string

const (
	ErrorCategoryPrecondition  ErrorCategory = "precondition"
	ErrorCategoryHost          ErrorCategory = "host"
	ErrorCategoryLayer         ErrorCategory = "layer"
	ErrorCategoryExport        ErrorCategory = "export"
	ErrorCategoryManifest      ErrorCategory = "manifest"
	ErrorCategoryFilesystem    ErrorCategory = "filesystem"
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryValidation    ErrorCategory = "validation"
	ErrorCategoryUnknown       ErrorCategory = "unknown"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// RunError is a categorized error raised while extracting a document.
type RunError struct {
	Category   ErrorCategory `json:"category"`
	Severity   ErrorSeverity `json:"severity"`
	Message    string        `json:"message"`
	Cause      error         `json:"-"`
	Operation  string        `json:"operation,omitempty"`
	Layer      string        `json:"layer,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *RunError) Error() string {
	msg := e.Message
	if e.Cause != nil && !strings.Contains(msg, e.Cause.Error()) {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	if e.Layer != "" && e.Operation != "" {
		return fmt.Sprintf("[%s:%s] %s on layer %q: %s",
			e.Category, e.Severity, e.Operation, e.Layer, msg)
	} else if e.Operation != "" {
		return fmt.Sprintf("[%s:%s] %s operation: %s",
			e.Category, e.Severity, e.Operation, msg)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Severity, msg)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Cause
}

// IsCritical returns true if the error is critical and should stop the run
func (e *RunError) IsCritical() bool {
	return e.Severity == ErrorSeverityCritical
}

// GetUserFriendlyMessage returns the message with its suggestion, if any
func (e *RunError) GetUserFriendlyMessage() string {
	msg := e.Message
	if e.Suggestion != "" {
		msg += "\n\nSuggestion: " + e.Suggestion
	}
	return msg
}

// ErrorBuilder helps construct RunError instances with proper categorization
type ErrorBuilder struct {
	category   ErrorCategory
	severity   ErrorSeverity
	message    string
	cause      error
	operation  string
	layer      string
	suggestion string
}

func NewErrorBuilder() *ErrorBuilder {
	return &ErrorBuilder{}
}

func (b *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	b.category = category
	return b
}

func (b *ErrorBuilder) Severity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

func (b *ErrorBuilder) Message(message string) *ErrorBuilder {
	b.message = message
	return b
}

func (b *ErrorBuilder) Messagef(format string, args ...interface{}) *ErrorBuilder {
	b.message = fmt.Sprintf(format, args...)
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

func (b *ErrorBuilder) Operation(operation string) *ErrorBuilder {
	b.operation = operation
	return b
}

func (b *ErrorBuilder) Layer(layer string) *ErrorBuilder {
	b.layer = layer
	return b
}

func (b *ErrorBuilder) Suggestion(suggestion string) *ErrorBuilder {
	b.suggestion = suggestion
	return b
}

// Build creates the RunError instance
func (b *ErrorBuilder) Build() *RunError {
	if b.category == "" {
		b.category = categorizeError(b.message, b.operation)
	}

	if b.severity == "" {
		b.severity = determineSeverity(b.category)
	}

	return &RunError{
		Category:   b.category,
		Severity:   b.severity,
		Message:    b.message,
		Cause:      b.cause,
		Operation:  b.operation,
		Layer:      b.layer,
		Timestamp:  time.Now(),
		Suggestion: b.suggestion,
	}
}

// categorizeError automatically categorizes an error based on its content
func categorizeError(message, operation string) ErrorCategory {
	msgLower := strings.ToLower(message)
	opLower := strings.ToLower(operation)

	switch {
	case strings.Contains(opLower, "manifest"):
		return ErrorCategoryManifest
	case strings.Contains(opLower, "export") || strings.Contains(opLower, "package"):
		return ErrorCategoryExport
	case strings.Contains(opLower, "merge") || strings.Contains(opLower, "rasterize") ||
		strings.Contains(opLower, "crop") || strings.Contains(opLower, "flatten"):
		return ErrorCategoryHost
	}

	switch {
	case strings.Contains(msgLower, "no open document") || strings.Contains(msgLower, "opened documents"):
		return ErrorCategoryPrecondition
	case strings.Contains(msgLower, "config") || strings.Contains(msgLower, "invalid") || strings.Contains(msgLower, "parse"):
		return ErrorCategoryConfiguration
	case strings.Contains(msgLower, "file") || strings.Contains(msgLower, "directory") || strings.Contains(msgLower, "no such"):
		return ErrorCategoryFilesystem
	case strings.Contains(msgLower, "layer"):
		return ErrorCategoryLayer
	default:
		return ErrorCategoryUnknown
	}
}

// determineSeverity determines the severity of an error based on category.
// Anything past the precondition check aborts the run.
func determineSeverity(category ErrorCategory) ErrorSeverity {
	switch category {
	case ErrorCategoryPrecondition:
		return ErrorSeverityLow
	case ErrorCategoryConfiguration, ErrorCategoryValidation:
		return ErrorSeverityHigh
	default:
		return ErrorSeverityCritical
	}
}

// NewPreconditionError reports a condition checked before any mutation.
func NewPreconditionError(message string, cause error) *RunError {
	return NewErrorBuilder().
		Category(ErrorCategoryPrecondition).
		Severity(ErrorSeverityLow).
		Operation("precondition").
		Message(message).
		Cause(cause).
		Suggestion("Open a document and run again").
		Build()
}

// NewHostError wraps a failed host document operation.
func NewHostError(operation, layer string, cause error) *RunError {
	return NewErrorBuilder().
		Category(ErrorCategoryHost).
		Severity(ErrorSeverityCritical).
		Operation(operation).
		Layer(layer).
		Message("host operation failed").
		Cause(cause).
		Build()
}

// NewExportError wraps a failed layer export or packaging step.
func NewExportError(operation, layer string, cause error) *RunError {
	return NewErrorBuilder().
		Category(ErrorCategoryExport).
		Severity(ErrorSeverityCritical).
		Operation(operation).
		Layer(layer).
		Message("export failed").
		Cause(cause).
		Suggestion("Check that the output directory is writable").
		Build()
}

// NewManifestError wraps a failure to write info.json.
func NewManifestError(message string, cause error) *RunError {
	return NewErrorBuilder().
		Category(ErrorCategoryManifest).
		Severity(ErrorSeverityCritical).
		Operation("write_manifest").
		Message(message).
		Cause(cause).
		Suggestion("Check that the output directory is writable").
		Build()
}

func NewFilesystemError(operation, message string, cause error) *RunError {
	return NewErrorBuilder().
		Category(ErrorCategoryFilesystem).
		Severity(ErrorSeverityCritical).
		Operation(operation).
		Message(message).
		Cause(cause).
		Suggestion("Check file paths and permissions").
		Build()
}

func NewConfigurationError(message string, cause error) *RunError {
	return NewErrorBuilder().
		Category(ErrorCategoryConfiguration).
		Severity(ErrorSeverityHigh).
		Operation("configure").
		Message(message).
		Cause(cause).
		Suggestion("Check flags and the configuration file").
		Build()
}

// WrapError wraps an existing error with RunError categorization
func WrapError(err error, operation string) *RunError {
	if err == nil {
		return nil
	}

	if runErr, ok := err.(*RunError); ok {
		return runErr
	}

	return NewErrorBuilder().
		Message(err.Error()).
		Cause(err).
		Operation(operation).
		Build()
}

// ErrorCollector collects multiple errors, e.g. while undoing a run
type ErrorCollector struct {
	errors   []*RunError
	warnings []string
}

func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors:   make([]*RunError, 0),
		warnings: make([]string, 0),
	}
}

func (c *ErrorCollector) AddError(err *RunError) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

func (c *ErrorCollector) AddWarning(message string) {
	c.warnings = append(c.warnings, message)
}

func (c *ErrorCollector) HasErrors() bool {
	return len(c.errors) > 0
}

func (c *ErrorCollector) GetErrors() []*RunError {
	return c.errors
}

func (c *ErrorCollector) GetWarnings() []string {
	return c.warnings
}

// ToError converts the collector to a single error if there are errors
func (c *ErrorCollector) ToError() error {
	if len(c.errors) == 0 {
		return nil
	}

	if len(c.errors) == 1 {
		return c.errors[0]
	}

	messages := make([]string, len(c.errors))
	for i, err := range c.errors {
		messages[i] = err.Error()
	}

	return NewErrorBuilder().
		Category(ErrorCategoryUnknown).
		Severity(ErrorSeverityHigh).
		Message(fmt.Sprintf("Multiple errors occurred: %s", strings.Join(messages, "; "))).
		Build()
}

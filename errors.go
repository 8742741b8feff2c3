package threatgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/zero-day-ai/threatgraph/graph"
)

// Sentinel errors for common engine error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrStoreRequired indicates the engine was built without a graph
	// store.
	ErrStoreRequired = errors.New("store is required")

	// ErrEngineClosed indicates a call on an engine whose Close has
	// already run.
	ErrEngineClosed = errors.New("engine is closed")

	// ErrInvalidConfig indicates the provided configuration is invalid
	// or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error kinds categorize errors by their type.
const (
	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindUnavailable represents connectivity loss to a backing
	// service; operations failing this way may succeed on retry.
	KindUnavailable = "unavailable"

	// KindTimeout represents errors related to operation timeouts.
	KindTimeout = "timeout"

	// KindQuery represents queries the store rejected or could not
	// execute; retrying without change will not help.
	KindQuery = "query"

	// KindSchema represents mismatches between the engine's ontology
	// expectations and the store, such as a missing fulltext index.
	KindSchema = "schema"

	// KindStore represents store failures with no finer class.
	KindStore = "store"

	// KindCollaborator represents failures of an optional collaborator
	// such as the disambiguation model.
	KindCollaborator = "collaborator"

	// KindCancelled represents caller-initiated cancellation.
	KindCancelled = "cancelled"

	// KindInternal represents internal engine errors.
	KindInternal = "internal"
)

// Error is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category
// of error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
type Error struct {
	// Op is the operation that failed (e.g., "Engine.Correlate").
	Op string

	// Kind categorizes the error (e.g., KindValidation, KindStore).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include artifact values, actor names, or other
	// debugging information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted message
// that includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("threatgraph: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("threatgraph: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("threatgraph: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and
// errors.As() to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on
// the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a new Error with the provided context added.
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any, len(ctx))
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewValidationError creates a new Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindValidation, Err: err}
}

// NewConfigurationError creates a new Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindConfiguration, Err: err}
}

// NewStoreError creates a new Error with KindStore.
func NewStoreError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindStore, Err: err}
}

// NewCollaboratorError creates a new Error with KindCollaborator.
func NewCollaboratorError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindCollaborator, Err: err}
}

// NewTimeoutError creates a new Error with KindTimeout.
func NewTimeoutError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindTimeout, Err: err}
}

// NewInternalError creates a new Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInternal, Err: err}
}

// classify wraps an error from a lower layer with the finest kind the
// error chain supports. Already-classified errors pass through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return err
	}

	kind := KindStore
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, graph.ErrUnavailable):
		kind = KindUnavailable
	case errors.Is(err, graph.ErrNoFulltextIndex):
		kind = KindSchema
	case errors.Is(err, graph.ErrQueryFailed):
		kind = KindQuery
	case errors.Is(err, ErrEngineClosed), errors.Is(err, ErrStoreRequired):
		kind = KindValidation
	case errors.Is(err, ErrInvalidConfig):
		kind = KindConfiguration
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// CloseWithLog attempts to close the provided resource and logs any
// error at warning level. This is intended for use in defer statements
// so cleanup errors are not silently ignored.
//
// The name parameter should describe the resource being closed. If
// logger is nil, slog.Default() is used.
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			slog.String("resource", name),
			slog.Any("error", err))
	}
}

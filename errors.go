package sdk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for common engine error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidSims indicates the requested simulation count is zero or
	// negative. Runs are rejected before any sampling happens.
	ErrInvalidSims = errors.New("simulation count must be positive")

	// ErrNoImpactSource indicates a model was constructed without an impact
	// source to compute distributions with.
	ErrNoImpactSource = errors.New("no impact source configured")

	// ErrMissingImpact indicates the impact source returned no distribution
	// for one of the run's assets. Skipping the asset would understate risk,
	// so the whole run fails.
	ErrMissingImpact = errors.New("no impact distribution for asset")

	// ErrUnknownImpactType indicates an impact distribution carries a type
	// the engine has no exposure rule for.
	ErrUnknownImpactType = errors.New("unknown impact type")
)

// Error kinds categorize errors by their type.
const (
	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindImpact represents errors in impact distributions or their computation.
	KindImpact = "impact"

	// KindExposure represents errors resolving asset values or cashflows.
	KindExposure = "exposure"

	// KindAggregation represents errors during pool accumulation.
	KindAggregation = "aggregation"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindNetwork represents errors related to network operations.
	KindNetwork = "network"

	// KindInternal represents internal engine errors.
	KindInternal = "internal"
)

// Error is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &Error{
//		Op:   "Model.GetFinancialImpacts",
//		Kind: KindValidation,
//		Err:  ErrInvalidSims,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "Model.GetFinancialImpacts").
	Op string

	// Kind categorizes the error (e.g., KindExposure, KindValidation).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include asset identifiers, currencies, or other debugging
	// information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sdk: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("sdk: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("sdk: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on
// the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	// Check if target is an Error with matching Kind
	if t, ok := target.(*Error); ok {
		// Match if both Op and Kind are the same, or if Kind matches and Op is empty in target
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	// Delegate to underlying error
	return errors.Is(e.Err, target)
}

// WithContext returns a new Error with the provided context added.
// This is useful for attaching asset identity or run parameters to errors.
//
// Example:
//
//	err := NewExposureError("Model.GetFinancialImpacts", cause)
//	err = err.WithContext(map[string]any{
//		"asset_id": "plant-1",
//		"currency": "EUR",
//	})
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewValidationError creates a new Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindValidation,
		Err:  err,
	}
}

// NewImpactError creates a new Error with KindImpact.
func NewImpactError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindImpact,
		Err:  err,
	}
}

// NewExposureError creates a new Error with KindExposure.
func NewExposureError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindExposure,
		Err:  err,
	}
}

// NewAggregationError creates a new Error with KindAggregation.
func NewAggregationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindAggregation,
		Err:  err,
	}
}

// NewConfigurationError creates a new Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindConfiguration,
		Err:  err,
	}
}

// NewNetworkError creates a new Error with KindNetwork.
func NewNetworkError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindNetwork,
		Err:  err,
	}
}

// NewInternalError creates a new Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindInternal,
		Err:  err,
	}
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. This is intended for use in defer statements to ensure
// cleanup errors are not silently ignored.
//
// The name parameter should describe the resource being closed (e.g.,
// "queue client", "registry connection"). If logger is nil, slog.Default()
// is used.
//
// Example usage:
//
//	defer sdk.CloseWithLog(cache, logger, "exposure cache")
//	defer sdk.CloseWithLog(client, logger, "queue client")
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}

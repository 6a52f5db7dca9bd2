package engine

import (
	"errors"
	"fmt"
)

// ComputeError represents a failure detected while computing one edge's
// statistics. Per-edge failures are recovered locally: the edge is counted
// and skipped, the batch continues.
type ComputeError struct {
	// Code identifies the error category.
	Code ComputeErrorCode

	// Message is a human-readable description.
	Message string

	// EdgeID identifies the affected edge.
	EdgeID string

	// ParamID identifies the affected parameter, when known.
	ParamID string

	// Err is the underlying cause, when any.
	Err error
}

// ComputeErrorCode categorizes compute errors.
type ComputeErrorCode string

const (
	// ErrCodeMissingTopology indicates an edge without from/to data.
	// The sort degrades to declaration order; non-fatal.
	ErrCodeMissingTopology ComputeErrorCode = "MISSING_TOPOLOGY"

	// ErrCodeMissingLatencyConfig indicates an edge with no latency config.
	// It contributes zero to path horizons; non-fatal.
	ErrCodeMissingLatencyConfig ComputeErrorCode = "MISSING_LATENCY_CONFIG"

	// ErrCodeNoCohortsInScope indicates completeness is undefined for the
	// query scope. The edge stays evidence-only, no blend; non-fatal.
	ErrCodeNoCohortsInScope ComputeErrorCode = "NO_COHORTS_IN_SCOPE"

	// ErrCodeDataQuality indicates a cohort observed with k > n. Logged;
	// computation proceeds on the raw values.
	ErrCodeDataQuality ComputeErrorCode = "DATA_QUALITY"

	// ErrCodeSliceSource indicates the parameter slice store failed.
	ErrCodeSliceSource ComputeErrorCode = "SLICE_SOURCE"

	// ErrCodeBatchApplyFailed indicates the merge hit an unexpected
	// structural error. The entire batch update was discarded and the prior
	// graph preserved.
	ErrCodeBatchApplyFailed ComputeErrorCode = "BATCH_APPLY_FAILED"
)

// Error implements the error interface.
func (e *ComputeError) Error() string {
	if e.EdgeID != "" {
		return fmt.Sprintf("%s: %s (edge=%s)", e.Code, e.Message, e.EdgeID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ComputeError) Unwrap() error {
	return e.Err
}

// IsNoCohortsError reports whether err is a no-cohorts-in-scope error.
// Uses errors.As to handle wrapped errors.
func IsNoCohortsError(err error) bool {
	var ce *ComputeError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeNoCohortsInScope
	}
	return false
}

// IsBatchApplyError reports whether err is a batch apply failure.
func IsBatchApplyError(err error) bool {
	var ce *ComputeError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeBatchApplyFailed
	}
	return false
}

// NewNoCohortsError creates a ComputeError for an edge with no cohorts in scope.
func NewNoCohortsError(edgeID, paramID string) *ComputeError {
	return &ComputeError{
		Code:    ErrCodeNoCohortsInScope,
		Message: "no cohorts in scope, completeness undefined",
		EdgeID:  edgeID,
		ParamID: paramID,
	}
}

// NewBatchApplyError wraps a merge failure.
func NewBatchApplyError(err error) *ComputeError {
	return &ComputeError{
		Code:    ErrCodeBatchApplyFailed,
		Message: "batch update discarded, prior graph preserved",
		Err:     err,
	}
}

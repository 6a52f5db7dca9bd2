package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeErrorFormatting(t *testing.T) {
	err := NewNoCohortsError("signup-activated", "p_signup_activated")
	assert.Equal(t,
		"NO_COHORTS_IN_SCOPE: no cohorts in scope, completeness undefined (edge=signup-activated)",
		err.Error())
	assert.Equal(t, "p_signup_activated", err.ParamID)

	bare := &ComputeError{Code: ErrCodeSliceSource, Message: "store unavailable"}
	assert.Equal(t, "SLICE_SOURCE: store unavailable", bare.Error())
}

func TestComputeErrorUnwrap(t *testing.T) {
	cause := errors.New("conditional index out of range")
	err := NewBatchApplyError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeBatchApplyFailed, err.Code)
}

func TestErrorCodePredicates(t *testing.T) {
	noCohorts := fmt.Errorf("edge a-b: %w", NewNoCohortsError("a-b", "p_a_b"))
	batch := fmt.Errorf("run aborted: %w", NewBatchApplyError(errors.New("missing edge")))

	assert.True(t, IsNoCohortsError(noCohorts))
	assert.False(t, IsBatchApplyError(noCohorts))

	assert.True(t, IsBatchApplyError(batch))
	assert.False(t, IsNoCohortsError(batch))

	assert.False(t, IsNoCohortsError(errors.New("plain")))
	assert.False(t, IsBatchApplyError(nil))
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := errors.New("boom")
	got := FromError(plain)
	require.NotNil(t, got)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.ErrorIs(t, got, plain)

	typed := Clone(ErrNotFound, "driver not found")
	wrapped := fmt.Errorf("lookup: %w", typed)
	assert.Same(t, typed, FromError(wrapped))
}

func TestCloneMatchesTemplate(t *testing.T) {
	clone := Clone(ErrConflict, "status RJ is not allowed")
	assert.Equal(t, "status RJ is not allowed", clone.Message)
	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.ErrorIs(t, clone, ErrConflict)
	assert.NotErrorIs(t, clone, ErrNotFound)
}

func TestWithDetails(t *testing.T) {
	details := map[string]string{"file": "is required"}
	err := WithDetails(ErrValidation, "upload rejected", details)
	details["file"] = "changed"

	assert.Equal(t, "upload rejected", err.Message)
	assert.Equal(t, "is required", err.Details["file"])
	assert.Nil(t, ErrValidation.Details)
	assert.Nil(t, WithDetails(nil, "x", nil))
}

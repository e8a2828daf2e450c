package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsFindsWrappedError(t *testing.T) {
	cause := stdErrors.New("duplicate key")
	typed := Wrap(CodeConflict, cause, "drug already exists")
	wrapped := fmt.Errorf("adding drug: %w", typed)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeConflict, got.Code())
	assert.Equal(t, "drug already exists", got.Message())
	assert.True(t, stdErrors.Is(wrapped, cause))
}

func TestMetadataFallsBackToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(Code("SOMETHING_ELSE")).HTTPStatus)
	assert.Equal(t, http.StatusForbidden, MetadataFor(CodeDepartmentMismatch).HTTPStatus)
	assert.False(t, MetadataFor(CodeInternal).ShowMessage)
}

func TestAsNil(t *testing.T) {
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("load user: %w", Clone(ErrNotFound, "user not found"))
	got := FromError(wrapped)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "user not found", got.Message)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.Equal(t, "internal server error: boom", plain.Error())
}

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrForbidden, "not the author")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrNotFound)

	cause := errors.New("db down")
	w := Wrap(cause, ErrInternal, "failed to load")
	assert.ErrorIs(t, w, cause)
	assert.ErrorIs(t, w, ErrInternal)
}

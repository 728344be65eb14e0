package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := map[Kind]int{
		InvalidArgument: http.StatusBadRequest,
		AlreadyMarked:   http.StatusBadRequest,
		Unauthorized:    http.StatusUnauthorized,
		Forbidden:       http.StatusForbidden,
		NotFound:        http.StatusNotFound,
		Internal:        http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.HTTPStatus(), kind.String())
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(NotFound, "User not found")
	wrapped := fmt.Errorf("load target: %w", base)

	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotFound))
	assert.Equal(t, "User not found", Message(wrapped))
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("connection reset by peer")

	assert.Equal(t, Internal, KindOf(err))
	assert.False(t, Is(nil, Internal))
	assert.Equal(t, "Something went wrong!", Message(err))
}

func TestInternalMessageIsHidden(t *testing.T) {
	err := Wrap(Internal, "query users table", errors.New("pq: relation missing"))

	assert.Contains(t, err.Error(), "relation missing")
	assert.Equal(t, "Something went wrong!", Message(err))
	assert.ErrorContains(t, errors.Unwrap(err), "relation missing")
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmvc/domain/core"
)

func TestWrapKeepsCode(t *testing.T) {
	base := InvalidInput("bad orientation")
	wrapped := Wrapf(base, "load %s", "relation.csv")

	assert.Equal(t, CodeInvalidInput, GetCode(wrapped))
	assert.Equal(t, "load relation.csv: bad orientation", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))

	plain := Wrap(fmt.Errorf("disk full"), "write export")
	assert.Equal(t, CodeInternalError, GetCode(plain))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeIOError, fmt.Errorf("open x: permission denied"))
	assert.Equal(t, CodeIOError, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
	assert.False(t, IsAppError(fmt.Errorf("plain")))
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		msg  string
	}{
		{"insufficient criteria", core.NewInsufficientCriteriaError(1), CodeInsufficientInput,
			"insufficient criteria: need at least 2 non-empty criteria, found 1"},
		{"wrapped precondition", fmt.Errorf("analyze: %w", core.NewEmptyUniverseError()), CodeInsufficientInput,
			"empty universe: the table has no candidates to rank"},
		{"unknown run", fmt.Errorf("%w: abc", core.ErrRunNotFound), CodeNotFound, ""},
		{"duplicate id", fmt.Errorf("%w: row 1", core.ErrInvalidTable), CodeInvalidInput, ""},
		{"empty criterion key", fmt.Errorf("%w: criterion 1 has an empty key", core.ErrInvalidCriterion), CodeInvalidInput, ""},
		{"threshold", core.ErrInvalidThreshold, CodeInvalidInput, ""},
		{"history full", fmt.Errorf("%w: 3 runs", core.ErrHistoryFull), CodeConflict, ""},
		{"other", fmt.Errorf("boom"), CodeInternalError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDomain(tt.err)
			appErr, ok := As(got)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, appErr.Message)
			}
			assert.True(t, stderrors.Is(got, tt.err))
		})
	}
	assert.Nil(t, FromDomain(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeInsufficientInput))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(CodeInvalidInput))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("UNKNOWN"))
}

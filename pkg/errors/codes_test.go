package errors_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/Tender-Intelligence/pkg/errors"
)

func TestHTTPStatusForCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.CodeTenderNotFound, http.StatusNotFound},
		{errors.CodeFatalInput, http.StatusBadRequest},
		{errors.CodeValidationFailure, http.StatusUnprocessableEntity},
		{errors.CodeDatabaseError, http.StatusInternalServerError},
		{errors.ErrorCode("NO_SUCH_CODE"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, errors.HTTPStatusForCode(tc.code), "code %s", tc.code)
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tender record not found", errors.DefaultMessageForCode(errors.CodeTenderNotFound))
	assert.Equal(t, "unknown error", errors.DefaultMessageForCode(errors.ErrorCode("NO_SUCH_CODE")))
}

func TestClientServerErrorSplit(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsClientError(errors.CodeFatalInput))
	assert.False(t, errors.IsServerError(errors.CodeFatalInput))
	assert.True(t, errors.IsServerError(errors.CodeDatabaseError))
	assert.False(t, errors.IsClientError(errors.CodeDatabaseError))
}

func TestModuleForCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "EXT", errors.ModuleForCode(errors.CodeFatalInput))
	assert.Equal(t, "TDR", errors.ModuleForCode(errors.CodeTenderNotFound))
	assert.Equal(t, "COMMON", errors.ModuleForCode(errors.CodeInternal))
}

//Personal.AI order the ending

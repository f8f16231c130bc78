package util_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	util "github.com/spec-kit/support-desk/pkg/util"
)

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection reset")
	domainErr := util.ToDomainError(cause)
	assert.Equal(t, util.CodeInternal, domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	assert.ErrorIs(t, domainErr, cause)
}

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	err := util.NewNotFound("ticket", map[string]any{"id": "t-1"})
	domainErr := util.ToDomainError(err)
	assert.Equal(t, util.CodeNotFound, domainErr.Code)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
	assert.Equal(t, "t-1", domainErr.Details["id"])
}

func TestToDomainErrorUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("saving ticket: %w", util.NewConflict("number taken", nil))
	assert.True(t, util.IsConflict(err))
	assert.Equal(t, util.CodeConflict, util.CodeOf(err))
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, util.IsNotFound(util.NewNotFound("user", nil)))
	assert.False(t, util.IsNotFound(util.NewConflict("x", nil)))
	assert.True(t, util.IsInvalidAssignee(util.NewInvalidAssignee("u-1")))
	assert.False(t, util.IsInvalidAssignee(errors.New("other")))
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{util.NewUnauthenticated("no token"), http.StatusUnauthorized},
		{util.NewForbidden("agents cannot read audit"), http.StatusForbidden},
		{util.NewNotFound("ticket", nil), http.StatusNotFound},
		{util.NewInvalidAssignee("u-1"), http.StatusUnprocessableEntity},
		{util.NewConflict("number taken", nil), http.StatusConflict},
		{util.NewValidationError("bad field", nil), http.StatusBadRequest},
		{util.NewInternalError(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, util.ToDomainError(tc.err).HTTPStatus, util.CodeOf(tc.err))
	}
}

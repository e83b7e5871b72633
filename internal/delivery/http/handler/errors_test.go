package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "storefront-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(t *testing.T, err error) (int, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondWithError(c, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespondWithErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{appErrors.ErrUserAlreadyExists, http.StatusBadRequest, "User with this email already exists"},
		{appErrors.ErrResetTokenInvalid, http.StatusBadRequest, "Invalid or expired token"},
		{appErrors.ErrUnknownEmail, http.StatusBadRequest, "User with this email does not exist"},
		{appErrors.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{appErrors.ErrUserInactive, http.StatusUnauthorized, "Account is deactivated"},
		{appErrors.ErrInsufficientPermissions, http.StatusForbidden, "Forbidden"},
		{appErrors.ErrAddressNotFound, http.StatusNotFound, "Address not found"},
		{appErrors.ErrEmailInUse, http.StatusConflict, "Email already in use"},
		{appErrors.ErrDefaultAddressConflict, http.StatusConflict, "Another default address was set at the same time, please retry"},
		{fmt.Errorf("wrapped: %w", appErrors.ErrUserNotFound), http.StatusNotFound, "User not found"},
		{appErrors.NewAppError(appErrors.CodeBadRequest, "Nothing to update", nil), http.StatusBadRequest, "Nothing to update"},
		{errors.New("connection reset by peer"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		status, body := respond(t, tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, true, body["error"])
		assert.Equal(t, tc.message, body["message"])
		assert.Equal(t, map[string]any{}, body["data"])
	}
}

func TestRespondWithErrorIncludesValidationFields(t *testing.T) {
	status, body := respond(t, appErrors.NewValidationError("Validation failed", map[string]string{
		"email": "Invalid email format",
	}))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, map[string]any{
		"errors": map[string]any{"email": "Invalid email format"},
	}, body["data"])
}

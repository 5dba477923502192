package utils

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
)

func serviceErrorStatus(t *testing.T, err error) (int, APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleServiceError(c, err)

	var out APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func TestHandleServiceError(t *testing.T) {
	driverErr := errors.New("dial tcp: connection refused")

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"storage failure", fmt.Errorf("%w: find account: %w", ErrPersistence, driverErr), http.StatusServiceUnavailable},
		{"email taken", ErrEmailAlreadyExists, http.StatusConflict},
		{"transition beats persistence", fmt.Errorf("%w: %w", ErrInvalidTransition, ErrPersistence), http.StatusConflict},
		{"duplicate active request", ErrDuplicateActiveRequest, http.StatusConflict},
		{"concurrent modification", ErrConcurrentModification, http.StatusConflict},
		{"unmapped", driverErr, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, out := serviceErrorStatus(t, tc.err)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.code, out.Code)
			assert.Equal(t, "error", out.Status)
			assert.NotContains(t, out.Message, "connection refused")
		})
	}
}

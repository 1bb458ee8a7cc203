package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"ghostlounge_backend/internal/services"
	"ghostlounge_backend/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondServiceErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrClientNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
		{services.ErrReservationConflict, http.StatusConflict, utils.ErrCodeConflict},
		{fmt.Errorf("%w: quantity must be positive", services.ErrValidation), http.StatusBadRequest, utils.ErrCodeValidationFailed},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, utils.ErrCodeUnauthorized},
		{fmt.Errorf("%w: expired", utils.ErrInvalidToken), http.StatusUnauthorized, utils.ErrCodeUnauthorized},
		{fmt.Errorf("%w: disk full", services.ErrStore), http.StatusInternalServerError, utils.ErrCodeInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError, utils.ErrCodeInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondServiceError(c, tc.err, "Testing")
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), `"code":"`+tc.code+`"`)
		assert.Contains(t, w.Body.String(), `"success":false`)
	}
}

func TestStoreErrorsHideDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondServiceError(c, fmt.Errorf("%w: pq: password authentication failed", services.ErrStore), "Listing clients")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestParseID(t *testing.T) {
	for raw, valid := range map[string]bool{"12": true, "0": false, "-3": false, "x": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, ok := parseID(c, "id")
		assert.Equal(t, valid, ok, raw)
		if !valid {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}

func TestCurrentUserIDRequiresAuth(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	_, ok := currentUserID(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Set(utils.ContextUserIDKey, int64(4))
	id, ok := currentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, int64(4), id)
}

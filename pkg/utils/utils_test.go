package utils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, 0)

	token, err := m.GenerateAccessToken(7, "alice", "admin")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	// access and refresh tokens are not interchangeable
	_, err = m.ValidateRefreshToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh, err := m.GenerateRefreshToken(7)
	require.NoError(t, err)
	_, err = m.ValidateToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	claims, err = m.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	m := NewTokenManager("secret-a", time.Minute, 0)
	token, err := m.GenerateAccessToken(1, "bob", "staff")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Minute, 0).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithError(c, NewAPIError(http.StatusConflict, ErrCodeConflict, "Slot taken", "pc 1"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"CONFLICT","message":"Slot taken","details":"pc 1"}}`, w.Body.String())
	assert.True(t, c.IsAborted())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	RespondWithSuccess(c, http.StatusOK, map[string]int{"id": 3})
	assert.JSONEq(t, `{"success":true,"data":{"id":3}}`, w.Body.String())
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-05-01T10:00:00Z", "2024-05-01T12:00:00+02:00", "2024-05-01T10:00", "2024-05-01 10:00:00"} {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}
	_, err := ParseTimestamp("tomorrow")
	assert.Error(t, err)
}

func TestValidators(t *testing.T) {
	assert.True(t, IsValidEmail("desk@ghost.lounge"))
	assert.False(t, IsValidEmail("desk@"))
	assert.True(t, IsValidColor("#00ff41"))
	assert.False(t, IsValidColor("00ff41"))
	assert.Nil(t, NewNullString("  "))
	assert.Equal(t, "x", DerefString(NewNullString("x")))
}

func TestInitLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerTo(&buf, "debug", false)
	LogInfo("hello", map[string]interface{}{"pc": 3})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.EqualValues(t, 3, entry["pc"])
}

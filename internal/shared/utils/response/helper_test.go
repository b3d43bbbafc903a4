package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"travelhub/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorValidation(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondError(c, apperrors.Validation("seat_ids", "select at least one seat"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body StandardApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "seat_ids: select at least one seat", body.Message)
	assert.Equal(t, map[string]interface{}{"seat_ids": "select at least one seat"}, body.Errors)
	assert.Len(t, c.Errors, 1)
}

func TestRespondErrorAuthRequired(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	AbortWithError(c, apperrors.ErrAuthRequired)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

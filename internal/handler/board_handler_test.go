package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// The limit query parameter is rejected before any lookups run, so the
// handler needs no backing stores here.
func activityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBoardHandler(nil, nil, nil, nil, nil, nil)
	router := gin.New()
	router.Use(authenticated(uuid.New()))
	router.GET("/boards/:id/activity", h.Activity)
	return router
}

func TestBoardActivity_NonNumericLimitRejected(t *testing.T) {
	router := activityRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boards/"+uuid.NewString()+"/activity?limit=abc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid limit value")
}

func TestBoardActivity_NonPositiveLimitRejected(t *testing.T) {
	router := activityRouter()

	for _, limit := range []string{"-5", "0"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/boards/"+uuid.NewString()+"/activity?limit="+limit, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

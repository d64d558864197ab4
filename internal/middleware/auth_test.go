package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/mocks"
	"github.com/foodgram/backend/internal/types"
)

func authRouter(validator middleware.TokenValidator, optional bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if optional {
		router.Use(middleware.OptionalAuthMiddleware(validator))
	} else {
		router.Use(middleware.AuthMiddleware(validator))
	}
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": middleware.CurrentUserID(c)})
	})
	return router
}

func get(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddlewareAcceptsBothSchemes(t *testing.T) {
	validator := new(mocks.MockAuthService)
	validator.On("ValidateToken", mock.Anything, "good").Return(&types.TokenClaims{UserID: 7}, nil)
	router := authRouter(validator, false)

	for _, header := range []string{"Bearer good", "Token good"} {
		rr := get(router, header)
		assert.Equal(t, http.StatusOK, rr.Code, header)
		assert.JSONEq(t, `{"user_id":7}`, rr.Body.String())
	}
	validator.AssertExpectations(t)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	validator := new(mocks.MockAuthService)
	validator.On("ValidateToken", mock.Anything, "bad").Return(nil, errors.New("invalid token"))
	router := authRouter(validator, false)

	rr := get(router, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"detail":"`+middleware.MsgNotAuthenticated+`"}`, rr.Body.String())

	rr = get(router, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = get(router, "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"detail":"`+middleware.MsgInvalidToken+`"}`, rr.Body.String())
}

func TestOptionalAuthMiddleware(t *testing.T) {
	validator := new(mocks.MockAuthService)
	validator.On("ValidateToken", mock.Anything, "good").Return(&types.TokenClaims{UserID: 3}, nil)
	validator.On("ValidateToken", mock.Anything, "bad").Return(nil, errors.New("invalid token"))
	router := authRouter(validator, true)

	rr := get(router, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user_id":0}`, rr.Body.String())

	rr = get(router, "Token good")
	assert.JSONEq(t, `{"user_id":3}`, rr.Body.String())

	rr = get(router, "Token bad")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

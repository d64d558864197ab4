package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/logging"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/validation"
)

const (
	MsgNotFound         = "Not found."
	MsgPermissionDenied = "You do not have permission to perform this action."
	MsgInvalidPage      = "Invalid page."
	MsgServerError      = "Internal Server Error"
)

// respondError maps a service error to its HTTP response.
func respondError(c *gin.Context, err error) {
	var fieldErrs validation.FieldErrors
	var reqErr *service.RequestError

	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, fieldErrs)
	case errors.As(err, &reqErr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": reqErr.Message})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": MsgNotFound})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": MsgPermissionDenied})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": middleware.MsgNotAuthenticated})
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrRevokedToken):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": middleware.MsgInvalidToken})
	default:
		_ = c.Error(err)
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": MsgServerError})
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": MsgNotFound})
}

// bindJSON decodes the request body into dst and answers 400 with the
// field errors when it does not validate.
func bindJSON(c *gin.Context, dst interface{}) bool {
	validation.RegisterBindings()
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, validation.FromBindingError(err))
		return false
	}
	return true
}

// pathID parses a positive integer path parameter. Anything else is a 404,
// as no such resource can exist.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}

// requireUser returns the authenticated user id.
func requireUser(c *gin.Context) (uint, bool) {
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": middleware.MsgNotAuthenticated})
		return 0, false
	}
	return userID, true
}

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

// HealthCheck reports whether the API can reach its database.
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.HealthCheck(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "ok",
		})
	}
}

// RegisterRateLimitRoutes registers endpoints for checking rate limit status
func RegisterRateLimitRoutes(router *gin.RouterGroup, validator middleware.TokenValidator, creationLimiter *middleware.RateLimiter) {
	rateLimits := router.Group("/rate-limits")
	rateLimits.Use(middleware.AuthMiddleware(validator))
	{
		rateLimits.GET("/recipe-creation", func(c *gin.Context) {
			userID, ok := requireUser(c)
			if !ok {
				return
			}

			remaining, resetTime, err := creationLimiter.GetRemainingRequests(c.Request.Context(), strconv.FormatUint(uint64(userID), 10))
			if err != nil {
				respondError(c, err)
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"limit":      creationLimiter.Limit(),
				"remaining":  remaining,
				"reset_time": resetTime.Unix(),
				"window":     creationLimiter.Window().String(),
			})
		})
	}
}

// Services bundles the domain services behind the API.
type Services struct {
	Auth    service.IAuthService
	Users   service.IUserService
	Recipes service.IRecipeService
	Catalog service.ICatalogService
}

// RegisterRoutes mounts every API endpoint under group and the short link
// redirects on root. creationLimiter may be nil.
func RegisterRoutes(root *gin.Engine, group *gin.RouterGroup, svc Services, pagination Pagination, creationLimiter *middleware.RateLimiter) {
	recipeHandler := NewRecipeHandler(svc.Recipes, svc.Auth, pagination, creationLimiter)

	NewAuthHandler(svc.Auth).RegisterRoutes(group)
	NewUserHandler(svc.Users, svc.Auth, pagination).RegisterRoutes(group)
	recipeHandler.RegisterRoutes(group)
	NewCatalogHandler(svc.Catalog).RegisterRoutes(group)
	recipeHandler.RegisterShortLinks(root)

	if creationLimiter != nil {
		RegisterRateLimitRoutes(group, svc.Auth, creationLimiter)
	}
}

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

type UserHandler struct {
	userService service.IUserService
	validator   middleware.TokenValidator
	pagination  Pagination
}

func NewUserHandler(userService service.IUserService, validator middleware.TokenValidator, pagination Pagination) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator,
		pagination:  pagination,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.validator)
	optional := middleware.OptionalAuthMiddleware(h.validator)

	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", optional, h.List)
		users.GET("/me", auth, h.Me)
		users.PUT("/me/avatar", auth, h.SetAvatar)
		users.DELETE("/me/avatar", auth, h.DeleteAvatar)
		users.POST("/set_password", auth, h.SetPassword)
		users.GET("/subscriptions", auth, h.Subscriptions)
		users.GET("/:id", optional, h.Get)
		users.POST("/:id/subscribe", auth, h.Subscribe)
		users.DELETE("/:id/subscribe", auth, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) List(c *gin.Context) {
	req, ok := h.pagination.parse(c)
	if !ok {
		return
	}

	page, err := h.userService.List(c.Request.Context(), middleware.CurrentUserID(c), req.offset(), req.limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, h.pagination, req, page)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req types.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.SetPassword(c.Request.Context(), userID, &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req types.AvatarRequest
	if !bindJSON(c, &req) {
		return
	}

	url, err := h.userService.SetAvatar(c.Request.Context(), userID, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.AvatarResponse{Avatar: url})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteAvatar(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	req, ok := h.pagination.parse(c)
	if !ok {
		return
	}

	page, err := h.userService.Subscriptions(c.Request.Context(), userID, req.offset(), req.limit, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, h.pagination, req, page)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	authorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sub, err := h.userService.Subscribe(c.Request.Context(), userID, authorID, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	authorID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Unsubscribe(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipesLimit reads the recipes_limit query parameter. Absent or invalid
// values include every recipe.
func recipesLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("recipes_limit"))
	if err != nil || limit < 0 {
		return -1
	}
	return limit
}

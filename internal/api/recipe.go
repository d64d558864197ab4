package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
	"github.com/foodgram/backend/internal/validation"
)

const shoppingListFilename = "shopping_cart.txt"

type RecipeHandler struct {
	recipeService service.IRecipeService
	validator     middleware.TokenValidator
	pagination    Pagination
	// creationLimiter is nil when Redis is not configured.
	creationLimiter *middleware.RateLimiter
}

func NewRecipeHandler(recipeService service.IRecipeService, validator middleware.TokenValidator, pagination Pagination, creationLimiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipeService:   recipeService,
		validator:       validator,
		pagination:      pagination,
		creationLimiter: creationLimiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.validator)
	optional := middleware.OptionalAuthMiddleware(h.validator)

	create := []gin.HandlerFunc{auth}
	if h.creationLimiter != nil {
		create = append(create, h.creationLimiter.RateLimitMiddleware())
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.POST("", create...)
		recipes.GET("/download_shopping_cart", auth, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.PATCH("/:id", auth, h.UpdateRecipe)
		recipes.PUT("/:id", auth, h.UpdateRecipe)
		recipes.DELETE("/:id", auth, h.DeleteRecipe)
		recipes.GET("/:id/get-link", h.GetLink)
		recipes.POST("/:id/favorite", auth, h.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", auth, h.UnfavoriteRecipe)
		recipes.POST("/:id/shopping_cart", auth, h.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", auth, h.RemoveFromShoppingCart)
	}
}

// RegisterShortLinks serves the /s/<code> redirects handed out by get-link.
func (h *RecipeHandler) RegisterShortLinks(router gin.IRoutes) {
	router.GET("/s/:code", h.FollowShortLink)
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter, err := parseRecipeFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	req, ok := h.pagination.parse(c)
	if !ok {
		return
	}

	page, err := h.recipeService.List(c.Request.Context(), middleware.CurrentUserID(c), filter, req.offset(), req.limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, h.pagination, req, page)
}

// parseRecipeFilter reads author, tags, is_favorited and is_in_shopping_cart.
func parseRecipeFilter(c *gin.Context) (types.RecipeFilter, error) {
	var filter types.RecipeFilter
	errs := validation.FieldErrors{}

	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			errs.Add("author", "Enter a whole number.")
		}
		filter.AuthorID = uint(id)
	}

	for _, slug := range c.QueryArray("tags") {
		if slug = strings.TrimSpace(slug); slug != "" {
			filter.TagSlugs = append(filter.TagSlugs, slug)
		}
	}

	for param, dst := range map[string]**bool{
		"is_favorited":        &filter.IsFavorited,
		"is_in_shopping_cart": &filter.IsInShoppingCart,
	} {
		raw, present := c.GetQuery(param)
		if !present {
			continue
		}
		v, ok := parseFlag(raw)
		if !ok {
			errs.Add(param, "Enter a valid boolean.")
			continue
		}
		*dst = &v
	}

	return filter, errs.Err()
}

func parseFlag(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	}
	return false, false
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	h.addRelation(c, h.recipeService.AddFavorite)
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	h.removeRelation(c, h.recipeService.RemoveFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addRelation(c, h.recipeService.AddToCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeRelation(c, h.recipeService.RemoveFromCart)
}

func (h *RecipeHandler) addRelation(c *gin.Context, add func(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error)) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	recipe, err := add(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(ctx context.Context, userID, recipeID uint) error) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	body, err := h.recipeService.ShoppingList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}

func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	code, err := h.recipeService.ShortCode(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	link := strings.TrimRight(h.pagination.BaseURL, "/") + "/s/" + code
	c.JSON(http.StatusOK, types.ShortLinkResponse{ShortLink: link})
}

func (h *RecipeHandler) FollowShortLink(c *gin.Context) {
	id, err := h.recipeService.ResolveShortCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/recipes/"+strconv.FormatUint(uint64(id), 10))
}

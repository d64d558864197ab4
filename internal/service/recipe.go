package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/foodgram/backend/internal/logging"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/store"
	"github.com/foodgram/backend/internal/types"
	"github.com/foodgram/backend/internal/validation"
)

const (
	recipeImageFolder = "recipes"
	shortCodeBase     = 36
)

// RecipeService handles recipe operations
type RecipeService struct {
	recipes     *store.RecipeStore
	tags        *store.TagStore
	ingredients *store.IngredientStore
	users       *store.UserStore
	relations   *store.RelationStore
	shopping    *store.ShoppingListStore
	images      storage.ImageStore
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(stores *store.Stores, images storage.ImageStore) *RecipeService {
	return &RecipeService{
		recipes:     stores.Recipes,
		tags:        stores.Tags,
		ingredients: stores.Ingredients,
		users:       stores.Users,
		relations:   stores.Relations,
		shopping:    stores.ShoppingLists,
		images:      images,
	}
}

func (s *RecipeService) Create(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	if err := s.validate(ctx, req, true); err != nil {
		return nil, err
	}

	img, err := storage.DecodeDataURI(req.Image)
	if err != nil {
		return nil, validation.Field("image", MsgInvalidImage)
	}
	url, err := s.images.Save(ctx, recipeImageFolder, img)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		Image:       url,
		CookingTime: req.CookingTime,
	}
	if err := s.recipes.Create(ctx, recipe, recipeItems(req), req.Tags); err != nil {
		s.dropImage(ctx, url)
		return nil, err
	}

	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("recipe created")
	return s.Get(ctx, authorID, recipe.ID)
}

// Update replaces the recipe with req. The image is kept when req carries none.
func (s *RecipeService) Update(ctx context.Context, actorID, id uint, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	recipe, err := s.editable(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req, false); err != nil {
		return nil, err
	}

	oldImage := recipe.Image
	if req.Image != "" {
		img, err := storage.DecodeDataURI(req.Image)
		if err != nil {
			return nil, validation.Field("image", MsgInvalidImage)
		}
		if recipe.Image, err = s.images.Save(ctx, recipeImageFolder, img); err != nil {
			return nil, err
		}
	}
	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime

	if err := s.recipes.Update(ctx, recipe, recipeItems(req), req.Tags); err != nil {
		if recipe.Image != oldImage {
			s.dropImage(ctx, recipe.Image)
		}
		return nil, notFound(err)
	}
	if recipe.Image != oldImage {
		s.dropImage(ctx, oldImage)
	}

	return s.Get(ctx, actorID, id)
}

func (s *RecipeService) Delete(ctx context.Context, actorID, id uint) error {
	recipe, err := s.editable(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.dropImage(ctx, recipe.Image)
	logging.Ctx(ctx).Info().Uint("recipe_id", id).Uint("actor_id", actorID).Msg("recipe deleted")
	return nil
}

// editable loads a recipe that actorID may change: its author or an administrator.
func (s *RecipeService) editable(ctx context.Context, actorID, id uint) (*models.Recipe, error) {
	recipe, err := s.recipes.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if recipe.AuthorID == actorID {
		return recipe, nil
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return recipe, nil
}

// validate runs the field checks and then verifies that every referenced
// tag and ingredient exists.
func (s *RecipeService) validate(ctx context.Context, req *types.RecipeRequest, requireImage bool) error {
	errs := validation.ValidateRecipe(req, requireImage)

	if len(req.Tags) > 0 {
		missing, err := s.tags.Missing(ctx, req.Tags)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			errs.Add("tags", MsgUnknownTags(missing))
		}
	}
	if len(req.Ingredients) > 0 {
		missing, err := s.ingredients.Missing(ctx, validation.IngredientIDs(req))
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			errs.Add("ingredients", MsgUnknownIngredients(missing))
		}
	}
	return errs.Err()
}

// MsgUnknownTags names the tag ids that do not exist.
func MsgUnknownTags(ids []uint) string {
	return fmt.Sprintf("%s Unknown ids: %v.", validation.MsgTagUnknownID, ids)
}

// MsgUnknownIngredients names the ingredient ids that do not exist.
func MsgUnknownIngredients(ids []uint) string {
	return fmt.Sprintf("%s Unknown ids: %v.", validation.MsgIngredientUnknownID, ids)
}

func recipeItems(req *types.RecipeRequest) []models.RecipeIngredient {
	items := make([]models.RecipeIngredient, len(req.Ingredients))
	for i, item := range req.Ingredients {
		items[i] = models.RecipeIngredient{IngredientID: item.ID, Amount: item.Amount}
	}
	return items
}

func (s *RecipeService) Get(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	page, err := s.present(ctx, viewerID, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &page[0], nil
}

func (s *RecipeService) List(ctx context.Context, viewerID uint, filter types.RecipeFilter, offset, limit int) (*types.Page[types.RecipeResponse], error) {
	// Membership filters have no meaning for an anonymous caller.
	if viewerID == 0 && (filter.IsFavorited != nil || filter.IsInShoppingCart != nil) {
		return &types.Page[types.RecipeResponse]{Results: []types.RecipeResponse{}}, nil
	}

	recipes, total, err := s.recipes.List(ctx, store.RecipeFilter{
		AuthorID:         filter.AuthorID,
		TagSlugs:         filter.TagSlugs,
		ViewerID:         viewerID,
		IsFavorited:      filter.IsFavorited,
		IsInShoppingCart: filter.IsInShoppingCart,
	}, offset, limit)
	if err != nil {
		return nil, err
	}

	results, err := s.present(ctx, viewerID, recipes)
	if err != nil {
		return nil, err
	}
	return &types.Page[types.RecipeResponse]{Count: total, Results: results}, nil
}

// present renders recipes with the viewer's favorite, cart and subscription flags.
func (s *RecipeService) present(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	results := make([]types.RecipeResponse, len(recipes))
	if viewerID == 0 {
		for i := range recipes {
			results[i] = toRecipeResponse(&recipes[i], recipeFlags{})
		}
		return results, nil
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorites, err := s.relations.FavoriteSet(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	cart, err := s.relations.CartSet(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	following, err := s.relations.FollowingSet(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	for i := range recipes {
		r := &recipes[i]
		results[i] = toRecipeResponse(r, recipeFlags{
			favorited:  favorites[r.ID],
			inCart:     cart[r.ID],
			subscribed: following[r.AuthorID],
		})
	}
	return results, nil
}

func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error) {
	return s.addRelation(ctx, recipeID, MsgAlreadyFavorited, func() error {
		return s.relations.AddFavorite(ctx, userID, recipeID)
	})
}

func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.removeRelation(ctx, recipeID, MsgNotFavorited, func() error {
		return s.relations.RemoveFavorite(ctx, userID, recipeID)
	})
}

func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error) {
	return s.addRelation(ctx, recipeID, MsgAlreadyInCart, func() error {
		return s.relations.AddToCart(ctx, userID, recipeID)
	})
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.removeRelation(ctx, recipeID, MsgNotInCart, func() error {
		return s.relations.RemoveFromCart(ctx, userID, recipeID)
	})
}

func (s *RecipeService) addRelation(ctx context.Context, recipeID uint, dupMsg string, add func() error) (*types.RecipeShortResponse, error) {
	recipe, err := s.recipes.Get(ctx, recipeID)
	if err != nil {
		return nil, notFound(err)
	}
	err = add()
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil, badRequest(dupMsg)
	}
	if err != nil {
		return nil, err
	}
	short := toShortRecipe(recipe)
	return &short, nil
}

func (s *RecipeService) removeRelation(ctx context.Context, recipeID uint, absentMsg string, remove func() error) error {
	if _, err := s.recipes.Get(ctx, recipeID); err != nil {
		return notFound(err)
	}
	err := remove()
	if errors.Is(err, store.ErrNotFound) {
		return badRequest(absentMsg)
	}
	return err
}

// ShoppingList renders the aggregated ingredients of the user's cart as
// plain text, one "name — amount unit" line per ingredient.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uint) ([]byte, error) {
	items, err := s.shopping.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, badRequest(MsgEmptyCart)
	}

	var buf bytes.Buffer
	for _, item := range items {
		fmt.Fprintf(&buf, "%s — %d %s\n", item.Name, item.Amount, item.MeasurementUnit)
	}
	return buf.Bytes(), nil
}

// ShortCode returns the short link code of an existing recipe.
func (s *RecipeService) ShortCode(ctx context.Context, id uint) (string, error) {
	if _, err := s.recipes.Get(ctx, id); err != nil {
		return "", notFound(err)
	}
	return strconv.FormatUint(uint64(id), shortCodeBase), nil
}

// ResolveShortCode maps a short link code back to the recipe id.
func (s *RecipeService) ResolveShortCode(ctx context.Context, code string) (uint, error) {
	id, err := strconv.ParseUint(code, shortCodeBase, 32)
	if err != nil || id == 0 {
		return 0, ErrNotFound
	}
	if _, err := s.recipes.Get(ctx, uint(id)); err != nil {
		return 0, notFound(err)
	}
	return uint(id), nil
}

func (s *RecipeService) dropImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("url", url).Msg("failed to delete image")
	}
}

package service

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/foodgram/backend/internal/logging"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/store"
	"github.com/foodgram/backend/internal/types"
)

// CatalogService serves the read-only tag and ingredient dictionaries and
// loads them from JSON fixtures.
type CatalogService struct {
	tags        *store.TagStore
	ingredients *store.IngredientStore
}

func NewCatalogService(stores *store.Stores) *CatalogService {
	return &CatalogService{tags: stores.Tags, ingredients: stores.Ingredients}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]types.TagResponse, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.TagResponse, len(tags))
	for i := range tags {
		out[i] = toTagResponse(&tags[i])
	}
	return out, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*types.TagResponse, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := toTagResponse(tag)
	return &resp, nil
}

func (s *CatalogService) SearchIngredients(ctx context.Context, prefix string) ([]types.IngredientResponse, error) {
	ingredients, err := s.ingredients.Search(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]types.IngredientResponse, len(ingredients))
	for i := range ingredients {
		out[i] = toIngredientResponse(&ingredients[i])
	}
	return out, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	ingredient, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	resp := toIngredientResponse(ingredient)
	return &resp, nil
}

// ImportIngredients reads [{"name", "measurement_unit"}] and inserts the
// names not present yet. It returns the number of rows added.
func (s *CatalogService) ImportIngredients(ctx context.Context, r io.Reader) (int64, error) {
	var rows []types.IngredientResponse
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return 0, errors.Wrap(err, "decode ingredients")
	}

	seen := make(map[string]struct{}, len(rows))
	ingredients := make([]models.Ingredient, 0, len(rows))
	for i, row := range rows {
		name := strings.TrimSpace(row.Name)
		unit := strings.TrimSpace(row.MeasurementUnit)
		if name == "" || unit == "" {
			return 0, errors.Errorf("ingredient #%d: name and measurement_unit are required", i+1)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		ingredients = append(ingredients, models.Ingredient{Name: name, MeasurementUnit: unit})
	}

	n, err := s.ingredients.CreateMissing(ctx, ingredients)
	if err != nil {
		return 0, err
	}
	logging.Ctx(ctx).Info().Int("read", len(rows)).Int64("created", n).Msg("ingredients imported")
	return n, nil
}

// ImportTags reads [{"name", "slug"}] and inserts the tags not present yet.
func (s *CatalogService) ImportTags(ctx context.Context, r io.Reader) (int64, error) {
	var rows []types.TagResponse
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return 0, errors.Wrap(err, "decode tags")
	}

	tags := make([]models.Tag, 0, len(rows))
	for i, row := range rows {
		name := strings.TrimSpace(row.Name)
		slug := strings.TrimSpace(row.Slug)
		if name == "" || slug == "" {
			return 0, errors.Errorf("tag #%d: name and slug are required", i+1)
		}
		tags = append(tags, models.Tag{Name: name, Slug: slug})
	}

	n, err := s.tags.CreateMissing(ctx, tags)
	if err != nil {
		return 0, err
	}
	logging.Ctx(ctx).Info().Int("read", len(rows)).Int64("created", n).Msg("tags imported")
	return n, nil
}

var (
	_ IAuthService    = (*AuthService)(nil)
	_ IUserService    = (*UserService)(nil)
	_ IRecipeService  = (*RecipeService)(nil)
	_ ICatalogService = (*CatalogService)(nil)
)

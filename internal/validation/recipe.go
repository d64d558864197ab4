package validation

import (
	"fmt"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

const (
	MsgRequired            = "This field is required."
	MsgTagsEmpty           = "Tags must not be empty."
	MsgTagsRepeat          = "Tags must not repeat."
	MsgIngredientsEmpty    = "Ingredient list must not be empty."
	MsgIngredientsRepeat   = "Ingredients in a recipe must not repeat."
	MsgIngredientUnknownID = "Ingredient does not exist."
	MsgTagUnknownID        = "Tag does not exist."
)

var (
	MsgAmountRange      = fmt.Sprintf("Amount must be between %d and %d.", models.MinAmount, models.MaxAmount)
	MsgCookingTimeRange = fmt.Sprintf("Cooking time must be between %d and %d minutes.", models.MinCookingTime, models.MaxCookingTime)
)

// ValidateRecipe checks the parts of a recipe submission that need no
// database access. requireImage is set on create.
func ValidateRecipe(req *types.RecipeRequest, requireImage bool) FieldErrors {
	errs := FieldErrors{}

	if requireImage && req.Image == "" {
		errs.Add("image", MsgRequired)
	}

	if req.CookingTime < models.MinCookingTime || req.CookingTime > models.MaxCookingTime {
		errs.Add("cooking_time", MsgCookingTimeRange)
	}

	if len(req.Tags) == 0 {
		errs.Add("tags", MsgTagsEmpty)
	} else if hasDuplicates(req.Tags) {
		errs.Add("tags", MsgTagsRepeat)
	}

	if len(req.Ingredients) == 0 {
		errs.Add("ingredients", MsgIngredientsEmpty)
	} else {
		ids := make([]uint, len(req.Ingredients))
		for i, item := range req.Ingredients {
			ids[i] = item.ID
			if item.Amount < models.MinAmount || item.Amount > models.MaxAmount {
				errs.Add("ingredients", MsgAmountRange)
			}
		}
		if hasDuplicates(ids) {
			errs.Add("ingredients", MsgIngredientsRepeat)
		}
	}

	return errs
}

func hasDuplicates(ids []uint) bool {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// IngredientIDs returns the ingredient ids referenced by req.
func IngredientIDs(req *types.RecipeRequest) []uint {
	ids := make([]uint, len(req.Ingredients))
	for i, item := range req.Ingredients {
		ids[i] = item.ID
	}
	return ids
}

package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/types"
)

func validRecipe() *types.RecipeRequest {
	return &types.RecipeRequest{
		Name:        "Soup",
		Text:        "Boil.",
		Image:       "data:image/png;base64,iVBORw0KGgo=",
		CookingTime: 10,
		Tags:        []uint{1, 2},
		Ingredients: []types.IngredientAmount{{ID: 1, Amount: 10}, {ID: 2, Amount: 5}},
	}
}

func TestValidateRecipeAccepts(t *testing.T) {
	assert.False(t, ValidateRecipe(validRecipe(), true).HasErrors())
}

func TestValidateRecipeTags(t *testing.T) {
	req := validRecipe()
	req.Tags = nil
	assert.Equal(t, []string{MsgTagsEmpty}, ValidateRecipe(req, true)["tags"])

	req.Tags = []uint{1, 1}
	assert.Equal(t, []string{MsgTagsRepeat}, ValidateRecipe(req, true)["tags"])
}

func TestValidateRecipeIngredients(t *testing.T) {
	req := validRecipe()
	req.Ingredients = []types.IngredientAmount{}
	assert.Equal(t, []string{MsgIngredientsEmpty}, ValidateRecipe(req, true)["ingredients"])

	req.Ingredients = []types.IngredientAmount{{ID: 3, Amount: 1}, {ID: 3, Amount: 2}}
	assert.Equal(t, []string{MsgIngredientsRepeat}, ValidateRecipe(req, true)["ingredients"])
}

func TestValidateRecipeAmountBounds(t *testing.T) {
	tests := []struct {
		amount int
		ok     bool
	}{
		{0, false},
		{1, true},
		{10000, true},
		{10001, false},
		{-5, false},
	}
	for _, tt := range tests {
		req := validRecipe()
		req.Ingredients = []types.IngredientAmount{{ID: 1, Amount: tt.amount}}
		errs := ValidateRecipe(req, true)
		if tt.ok {
			assert.False(t, errs.HasErrors(), "amount %d", tt.amount)
		} else {
			assert.Equal(t, []string{MsgAmountRange}, errs["ingredients"], "amount %d", tt.amount)
		}
	}
}

func TestValidateRecipeAmountMessageNotRepeated(t *testing.T) {
	req := validRecipe()
	req.Ingredients = []types.IngredientAmount{{ID: 1, Amount: 0}, {ID: 2, Amount: 0}}
	assert.Len(t, ValidateRecipe(req, true)["ingredients"], 1)
}

func TestValidateRecipeCookingTime(t *testing.T) {
	req := validRecipe()
	req.CookingTime = 0
	assert.Contains(t, ValidateRecipe(req, true), "cooking_time")

	req.CookingTime = 1
	assert.NotContains(t, ValidateRecipe(req, true), "cooking_time")
}

func TestValidateRecipeImage(t *testing.T) {
	req := validRecipe()
	req.Image = ""
	assert.Equal(t, []string{MsgRequired}, ValidateRecipe(req, true)["image"])
	assert.False(t, ValidateRecipe(req, false).HasErrors())
}

func TestValidUsername(t *testing.T) {
	assert.True(t, ValidUsername("chef.anna+1@home"))
	assert.False(t, ValidUsername("me"))
	assert.False(t, ValidUsername("ME"))
	assert.False(t, ValidUsername("with space"))
	assert.False(t, ValidUsername(""))
}

func TestFromBindingErrorUsesJSONNames(t *testing.T) {
	RegisterBindings()

	req := types.RegisterRequest{Email: "bad", Username: "me", FirstName: "A", LastName: "B", Password: "longenough"}
	err := binding.Validator.ValidateStruct(&req)
	require.Error(t, err)

	errs := FromBindingError(err)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "username")
	assert.NotContains(t, errs, "first_name")
}

func TestFieldErrorsErr(t *testing.T) {
	assert.NoError(t, FieldErrors{}.Err())
	err := Field("tags", MsgTagsEmpty).Err()
	require.Error(t, err)
	assert.Equal(t, "tags: "+MsgTagsEmpty, err.Error())
}

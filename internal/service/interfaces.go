package service

import (
	"context"
	"io"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	GenerateToken(user *models.User) (string, error)
}

// IUserService defines the interface for accounts and subscriptions
type IUserService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*types.RegisteredUserResponse, error)
	Get(ctx context.Context, viewerID, id uint) (*types.UserResponse, error)
	List(ctx context.Context, viewerID uint, offset, limit int) (*types.Page[types.UserResponse], error)
	SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error
	SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error)
	DeleteAvatar(ctx context.Context, userID uint) error
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	Subscriptions(ctx context.Context, userID uint, offset, limit, recipesLimit int) (*types.Page[types.SubscriptionResponse], error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.RecipeResponse, error)
	Update(ctx context.Context, actorID, id uint, req *types.RecipeRequest) (*types.RecipeResponse, error)
	Delete(ctx context.Context, actorID, id uint) error
	Get(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error)
	List(ctx context.Context, viewerID uint, filter types.RecipeFilter, offset, limit int) (*types.Page[types.RecipeResponse], error)
	AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
	ShoppingList(ctx context.Context, userID uint) ([]byte, error)
	ShortCode(ctx context.Context, id uint) (string, error)
	ResolveShortCode(ctx context.Context, code string) (uint, error)
}

// ICatalogService defines the interface for tags and ingredients
type ICatalogService interface {
	ListTags(ctx context.Context) ([]types.TagResponse, error)
	GetTag(ctx context.Context, id uint) (*types.TagResponse, error)
	SearchIngredients(ctx context.Context, prefix string) ([]types.IngredientResponse, error)
	GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error)
	ImportIngredients(ctx context.Context, r io.Reader) (int64, error)
	ImportTags(ctx context.Context, r io.Reader) (int64, error)
}

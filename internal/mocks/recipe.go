package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/foodgram/backend/internal/types"
)

// MockRecipeService is a mock implementation of the RecipeService interface
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) Create(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	args := m.Called(ctx, authorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, actorID, id uint, req *types.RecipeRequest) (*types.RecipeResponse, error) {
	args := m.Called(ctx, actorID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, actorID, id uint) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

func (m *MockRecipeService) Get(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error) {
	args := m.Called(ctx, viewerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeResponse), args.Error(1)
}

func (m *MockRecipeService) List(ctx context.Context, viewerID uint, filter types.RecipeFilter, offset, limit int) (*types.Page[types.RecipeResponse], error) {
	args := m.Called(ctx, viewerID, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Page[types.RecipeResponse]), args.Error(1)
}

func (m *MockRecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error) {
	args := m.Called(ctx, userID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeShortResponse), args.Error(1)
}

func (m *MockRecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	args := m.Called(ctx, userID, recipeID)
	return args.Error(0)
}

func (m *MockRecipeService) AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error) {
	args := m.Called(ctx, userID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RecipeShortResponse), args.Error(1)
}

func (m *MockRecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	args := m.Called(ctx, userID, recipeID)
	return args.Error(0)
}

func (m *MockRecipeService) ShoppingList(ctx context.Context, userID uint) ([]byte, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockRecipeService) ShortCode(ctx context.Context, id uint) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockRecipeService) ResolveShortCode(ctx context.Context, code string) (uint, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(uint), args.Error(1)
}

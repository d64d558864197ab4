package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/foodgram/backend/internal/types"
)

// MockUserService is a mock implementation of the UserService interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req *types.RegisterRequest) (*types.RegisteredUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RegisteredUserResponse), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, viewerID, id uint) (*types.UserResponse, error) {
	args := m.Called(ctx, viewerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserResponse), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, viewerID uint, offset, limit int) (*types.Page[types.UserResponse], error) {
	args := m.Called(ctx, viewerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Page[types.UserResponse]), args.Error(1)
}

func (m *MockUserService) SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error {
	args := m.Called(ctx, userID, req)
	return args.Error(0)
}

func (m *MockUserService) SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	args := m.Called(ctx, userID, dataURI)
	return args.String(0), args.Error(1)
}

func (m *MockUserService) DeleteAvatar(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	args := m.Called(ctx, userID, authorID, recipesLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SubscriptionResponse), args.Error(1)
}

func (m *MockUserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	args := m.Called(ctx, userID, authorID)
	return args.Error(0)
}

func (m *MockUserService) Subscriptions(ctx context.Context, userID uint, offset, limit, recipesLimit int) (*types.Page[types.SubscriptionResponse], error) {
	args := m.Called(ctx, userID, offset, limit, recipesLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Page[types.SubscriptionResponse]), args.Error(1)
}

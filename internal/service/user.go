package service

import (
	"context"
	"errors"
	"strings"

	"github.com/foodgram/backend/internal/logging"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/store"
	"github.com/foodgram/backend/internal/types"
	"github.com/foodgram/backend/internal/validation"
)

const avatarFolder = "users"

type UserService struct {
	users     *store.UserStore
	recipes   *store.RecipeStore
	relations *store.RelationStore
	images    storage.ImageStore
}

func NewUserService(stores *store.Stores, images storage.ImageStore) *UserService {
	return &UserService{
		users:     stores.Users,
		recipes:   stores.Recipes,
		relations: stores.Relations,
		images:    images,
	}
}

func (s *UserService) Register(ctx context.Context, req *types.RegisterRequest) (*types.RegisteredUserResponse, error) {
	user, err := s.create(ctx, req, false)
	if err != nil {
		return nil, err
	}
	return &types.RegisteredUserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

// CreateSuperuser registers an administrator account.
func (s *UserService) CreateSuperuser(ctx context.Context, req *types.RegisterRequest) (*models.User, error) {
	return s.create(ctx, req, true)
}

func (s *UserService) create(ctx context.Context, req *types.RegisterRequest, superuser bool) (*models.User, error) {
	errs := validation.FieldErrors{}
	if !validation.ValidUsername(req.Username) {
		errs.Add("username", "Enter a valid username.")
	}

	usernameTaken, emailTaken, err := s.users.Taken(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		errs.Add("username", MsgUsernameTaken)
	}
	if emailTaken {
		errs.Add("email", MsgEmailTaken)
	}
	if errs.HasErrors() {
		return nil, errs
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		IsSuperuser:  superuser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, validation.Field("username", MsgUsernameTaken)
		}
		return nil, err
	}

	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Bool("superuser", superuser).Msg("user registered")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, viewerID, id uint) (*types.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	subscribed, err := s.isSubscribed(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user, subscribed)
	return &resp, nil
}

func (s *UserService) List(ctx context.Context, viewerID uint, offset, limit int) (*types.Page[types.UserResponse], error) {
	users, total, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	following, err := s.relations.FollowingSet(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	results := make([]types.UserResponse, len(users))
	for i := range users {
		results[i] = toUserResponse(&users[i], following[users[i].ID])
	}
	return &types.Page[types.UserResponse]{Count: total, Results: results}, nil
}

func (s *UserService) SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}
	if !CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return validation.Field("current_password", MsgWrongPassword)
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return notFound(s.users.UpdatePassword(ctx, userID, hash))
}

// SetAvatar stores the uploaded image and returns its URL. The previous
// avatar is removed on a best effort basis.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", notFound(err)
	}

	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return "", validation.Field("avatar", MsgInvalidImage)
	}
	url, err := s.images.Save(ctx, avatarFolder, img)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdateAvatar(ctx, userID, url); err != nil {
		return "", notFound(err)
	}

	s.dropImage(ctx, user.Avatar)
	return url, nil
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}
	if user.Avatar == "" {
		return nil
	}
	if err := s.users.UpdateAvatar(ctx, userID, ""); err != nil {
		return notFound(err)
	}
	s.dropImage(ctx, user.Avatar)
	return nil
}

func (s *UserService) dropImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("url", url).Msg("failed to delete image")
	}
}

func (s *UserService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, notFound(err)
	}
	if userID == authorID {
		return nil, badRequest(MsgSelfSubscription)
	}

	err = s.relations.Follow(ctx, userID, authorID)
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil, badRequest(MsgAlreadySubscribed)
	}
	if err != nil {
		return nil, err
	}

	return s.subscription(ctx, author, recipesLimit)
}

func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return notFound(err)
	}
	err := s.relations.Unfollow(ctx, userID, authorID)
	if errors.Is(err, store.ErrNotFound) {
		return badRequest(MsgNotSubscribed)
	}
	return err
}

func (s *UserService) Subscriptions(ctx context.Context, userID uint, offset, limit, recipesLimit int) (*types.Page[types.SubscriptionResponse], error) {
	authors, total, err := s.relations.Following(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.SubscriptionResponse, 0, len(authors))
	for i := range authors {
		sub, err := s.subscription(ctx, &authors[i], recipesLimit)
		if err != nil {
			return nil, err
		}
		results = append(results, *sub)
	}
	return &types.Page[types.SubscriptionResponse]{Count: total, Results: results}, nil
}

// subscription renders an author followed by the viewer. A negative
// recipesLimit includes every recipe.
func (s *UserService) subscription(ctx context.Context, author *models.User, recipesLimit int) (*types.SubscriptionResponse, error) {
	recipes, err := s.recipes.ListByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return nil, err
	}
	count, err := s.recipes.CountByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	short := make([]types.RecipeShortResponse, len(recipes))
	for i := range recipes {
		short[i] = toShortRecipe(&recipes[i])
	}
	return &types.SubscriptionResponse{
		UserResponse: toUserResponse(author, true),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}

func (s *UserService) isSubscribed(ctx context.Context, viewerID, authorID uint) (bool, error) {
	if viewerID == 0 {
		return false, nil
	}
	return s.relations.IsFollowing(ctx, viewerID, authorID)
}

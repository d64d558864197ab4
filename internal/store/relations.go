package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/models"
)

// RelationStore manages the user-to-target pairs behind favorites, the
// shopping cart and subscriptions.
type RelationStore struct {
	db *gorm.DB
}

func NewRelationStore(db *gorm.DB) *RelationStore {
	return &RelationStore{db: db}
}

func (s *RelationStore) AddFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.add(ctx, &models.Favorite{UserID: userID, RecipeID: recipeID}, "add favorite")
}

func (s *RelationStore) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, &models.Favorite{}, "recipe_id", userID, recipeID, "remove favorite")
}

func (s *RelationStore) IsFavorite(ctx context.Context, userID, recipeID uint) (bool, error) {
	return s.exists(ctx, &models.Favorite{}, "recipe_id", userID, recipeID)
}

// FavoriteSet returns which of recipeIDs the user has favorited.
func (s *RelationStore) FavoriteSet(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return s.memberSet(ctx, &models.Favorite{}, "recipe_id", userID, recipeIDs)
}

func (s *RelationStore) AddToCart(ctx context.Context, userID, recipeID uint) error {
	return s.add(ctx, &models.ShoppingCart{UserID: userID, RecipeID: recipeID}, "add to cart")
}

func (s *RelationStore) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, &models.ShoppingCart{}, "recipe_id", userID, recipeID, "remove from cart")
}

func (s *RelationStore) InCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	return s.exists(ctx, &models.ShoppingCart{}, "recipe_id", userID, recipeID)
}

// CartSet returns which of recipeIDs are in the user's cart.
func (s *RelationStore) CartSet(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return s.memberSet(ctx, &models.ShoppingCart{}, "recipe_id", userID, recipeIDs)
}

func (s *RelationStore) Follow(ctx context.Context, userID, authorID uint) error {
	return s.add(ctx, &models.Follow{UserID: userID, AuthorID: authorID}, "follow")
}

func (s *RelationStore) Unfollow(ctx context.Context, userID, authorID uint) error {
	return s.remove(ctx, &models.Follow{}, "author_id", userID, authorID, "unfollow")
}

func (s *RelationStore) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.exists(ctx, &models.Follow{}, "author_id", userID, authorID)
}

// FollowingSet returns which of authorIDs the user follows.
func (s *RelationStore) FollowingSet(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	return s.memberSet(ctx, &models.Follow{}, "author_id", userID, authorIDs)
}

// Following lists the authors the user follows, ordered by subscription time.
func (s *RelationStore) Following(ctx context.Context, userID uint, offset, limit int) ([]models.User, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&total).Error
	if err != nil {
		return nil, 0, translate(err, "count subscriptions")
	}

	var authors []models.User
	err = s.db.WithContext(ctx).
		Select("users.*").
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.id").
		Offset(offset).Limit(limit).
		Find(&authors).Error
	if err != nil {
		return nil, 0, translate(err, "list subscriptions")
	}
	return authors, total, nil
}

func (s *RelationStore) add(ctx context.Context, row interface{}, msg string) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error, msg)
}

func (s *RelationStore) remove(ctx context.Context, model interface{}, column string, userID, targetID uint, msg string) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND "+column+" = ?", userID, targetID).Delete(model)
	if res.Error != nil {
		return translate(res.Error, msg)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, msg)
	}
	return nil
}

func (s *RelationStore) exists(ctx context.Context, model interface{}, column string, userID, targetID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(model).Where("user_id = ? AND "+column+" = ?", userID, targetID).Count(&n).Error
	return n > 0, translate(err, "check relation")
}

func (s *RelationStore) memberSet(ctx context.Context, model interface{}, column string, userID uint, ids []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if userID == 0 || len(ids) == 0 {
		return set, nil
	}
	var found []uint
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ?", userID).Where(column+" IN ?", ids).
		Pluck(column, &found).Error
	if err != nil {
		return nil, translate(err, "load relations")
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

package store

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/models"
)

type TagStore struct {
	db *gorm.DB
}

func NewTagStore(db *gorm.DB) *TagStore {
	return &TagStore{db: db}
}

func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Order("id").Find(&tags).Error
	return tags, translate(err, "list tags")
}

func (s *TagStore) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, translate(err, "get tag")
	}
	return &tag, nil
}

// Missing returns the ids that do not belong to any tag.
func (s *TagStore) Missing(ctx context.Context, ids []uint) ([]uint, error) {
	return missingIDs(ctx, s.db, &models.Tag{}, ids)
}

// CreateMissing inserts tags whose name and slug are not taken yet and reports how many were added.
func (s *TagStore) CreateMissing(ctx context.Context, tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tags)
	return res.RowsAffected, translate(res.Error, "create tags")
}

type IngredientStore struct {
	db *gorm.DB
}

func NewIngredientStore(db *gorm.DB) *IngredientStore {
	return &IngredientStore{db: db}
}

// Search lists ingredients whose name starts with prefix, case-insensitively.
func (s *IngredientStore) Search(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	q := s.db.WithContext(ctx).Order("name")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(prefix))+"%")
	}
	var ingredients []models.Ingredient
	err := q.Find(&ingredients).Error
	return ingredients, translate(err, "search ingredients")
}

func (s *IngredientStore) GetByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, translate(err, "get ingredient")
	}
	return &ingredient, nil
}

// Missing returns the ids that do not belong to any ingredient.
func (s *IngredientStore) Missing(ctx context.Context, ids []uint) ([]uint, error) {
	return missingIDs(ctx, s.db, &models.Ingredient{}, ids)
}

// CreateMissing inserts ingredients whose name is not taken yet and reports how many were added.
func (s *IngredientStore) CreateMissing(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		CreateInBatches(&ingredients, 500)
	return res.RowsAffected, translate(res.Error, "create ingredients")
}

func missingIDs(ctx context.Context, db *gorm.DB, model interface{}, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, translate(err, "lookup ids")
	}
	present := make(map[uint]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []uint
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

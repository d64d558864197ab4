package store

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/models"
)

// RecipeFilter narrows a recipe listing. The membership filters refer to ViewerID.
type RecipeFilter struct {
	AuthorID         uint
	TagSlugs         []string
	ViewerID         uint
	IsFavorited      *bool
	IsInShoppingCart *bool
}

type RecipeStore struct {
	db *gorm.DB
}

func NewRecipeStore(db *gorm.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// Create inserts the recipe with its ingredient amounts and tags in one transaction.
func (s *RecipeStore) Create(ctx context.Context, recipe *models.Recipe, items []models.RecipeIngredient, tagIDs []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return errors.Wrap(err, "insert recipe")
		}
		return replaceAssociations(tx, recipe.ID, items, tagIDs)
	})
	return translate(err, "create recipe")
}

// Update overwrites the recipe columns and replaces every ingredient and tag
// association. Nothing is written unless all statements succeed.
func (s *RecipeStore) Update(ctx context.Context, recipe *models.Recipe, items []models.RecipeIngredient, tagIDs []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Updates(map[string]interface{}{
			"name":         recipe.Name,
			"text":         recipe.Text,
			"image":        recipe.Image,
			"cooking_time": recipe.CookingTime,
		})
		if res.Error != nil {
			return errors.Wrap(res.Error, "update recipe")
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return replaceAssociations(tx, recipe.ID, items, tagIDs)
	})
	return translate(err, "update recipe")
}

// replaceAssociations deletes the join rows of recipeID and inserts the given ones.
func replaceAssociations(tx *gorm.DB, recipeID uint, items []models.RecipeIngredient, tagIDs []uint) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return errors.Wrap(err, "clear recipe ingredients")
	}
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return errors.Wrap(err, "clear recipe tags")
	}

	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.IngredientID, Amount: item.Amount}
	}
	if len(rows) > 0 {
		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			return errors.Wrap(err, "insert recipe ingredients")
		}
	}

	tags := make([]models.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		tags[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if len(tags) > 0 {
		if err := tx.Create(&tags).Error; err != nil {
			return errors.Wrap(err, "insert recipe tags")
		}
	}
	return nil
}

// Delete removes the recipe together with every row that references it.
func (s *RecipeStore) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.RecipeIngredient{},
			&models.RecipeTag{},
			&models.Favorite{},
			&models.ShoppingCart{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return errors.Wrap(err, "delete recipe references")
			}
		}
		res := tx.Delete(&models.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "delete recipe")
}

func (s *RecipeStore) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withDetails(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, translate(err, "get recipe")
	}
	return &recipe, nil
}

// Get loads the bare recipe row without associations.
func (s *RecipeStore) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		return nil, translate(err, "get recipe")
	}
	return &recipe, nil
}

// List returns one page of recipes matching f, newest first, and the total match count.
func (s *RecipeStore) List(ctx context.Context, f RecipeFilter, offset, limit int) ([]models.Recipe, int64, error) {
	q, err := s.filtered(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count recipes")
	}

	q, err = s.filtered(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	var recipes []models.Recipe
	err = withDetails(q).
		Order("recipes.pub_date DESC").Order("recipes.id DESC").
		Offset(offset).Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, translate(err, "list recipes")
	}
	return recipes, total, nil
}

func (s *RecipeStore) filtered(ctx context.Context, f RecipeFilter) (*gorm.DB, error) {
	q := s.db.WithContext(ctx).Model(&models.Recipe{})

	if f.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}

	if len(f.TagSlugs) > 0 {
		sql, args, err := squirrel.
			Select("rt.recipe_id").From("recipe_tags rt").
			Join("tags t ON t.id = rt.tag_id").
			Where(squirrel.Eq{"t.slug": f.TagSlugs}).
			ToSql()
		if err != nil {
			return nil, errors.Wrap(err, "build tag filter")
		}
		q = q.Where("recipes.id IN ("+sql+")", args...)
	}

	var err error
	if f.IsFavorited != nil {
		if q, err = whereMember(q, "favorites", f.ViewerID, *f.IsFavorited); err != nil {
			return nil, err
		}
	}
	if f.IsInShoppingCart != nil {
		if q, err = whereMember(q, "shopping_carts", f.ViewerID, *f.IsInShoppingCart); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// whereMember keeps recipes that are (or, with member false, are not) in the
// user's rows of table.
func whereMember(q *gorm.DB, table string, userID uint, member bool) (*gorm.DB, error) {
	sql, args, err := squirrel.
		Select("recipe_id").From(table).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, errors.Wrapf(err, "build %s filter", table)
	}
	op := "IN"
	if !member {
		op = "NOT IN"
	}
	return q.Where("recipes.id "+op+" ("+sql+")", args...), nil
}

// ListByAuthor returns the newest recipes of an author. A negative limit returns all.
func (s *RecipeStore) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date DESC").Order("id DESC").
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, translate(err, "list author recipes")
	}
	return recipes, nil
}

func (s *RecipeStore) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, translate(err, "count author recipes")
}

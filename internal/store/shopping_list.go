package store

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ShoppingItem is one aggregated line of a shopping list.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

type ShoppingListStore struct {
	db *gorm.DB
}

func NewShoppingListStore(db *gorm.DB) *ShoppingListStore {
	return &ShoppingListStore{db: db}
}

// Aggregate sums ingredient amounts over every recipe in the user's cart,
// one row per ingredient name and unit, ordered by name.
func (s *ShoppingListStore) Aggregate(ctx context.Context, userID uint) ([]ShoppingItem, error) {
	sql, args, err := squirrel.
		Select("i.name AS name", "i.measurement_unit AS measurement_unit", "SUM(ri.amount) AS amount").
		From("shopping_carts sc").
		Join("recipe_ingredients ri ON ri.recipe_id = sc.recipe_id").
		Join("ingredients i ON i.id = ri.ingredient_id").
		Where(squirrel.Eq{"sc.user_id": userID}).
		GroupBy("i.name", "i.measurement_unit").
		OrderBy("i.name", "i.measurement_unit").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	items := make([]ShoppingItem, 0)
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&items).Error; err != nil {
		return nil, translate(err, "aggregate shopping list")
	}
	return items, nil
}

// Package store is the persistence layer. Each store wraps a *gorm.DB and
// exposes typed queries; callers match failures against ErrNotFound and
// ErrAlreadyExists with errors.Is.
package store

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Stores groups every repository over one database handle.
type Stores struct {
	Users         *UserStore
	Recipes       *RecipeStore
	Tags          *TagStore
	Ingredients   *IngredientStore
	Relations     *RelationStore
	ShoppingLists *ShoppingListStore
}

func New(db *gorm.DB) *Stores {
	return &Stores{
		Users:         NewUserStore(db),
		Recipes:       NewRecipeStore(db),
		Tags:          NewTagStore(db),
		Ingredients:   NewIngredientStore(db),
		Relations:     NewRelationStore(db),
		ShoppingLists: NewShoppingListStore(db),
	}
}

// translate maps driver errors onto the package sentinels and adds context.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(ErrNotFound, msg)
	}
	if isDuplicate(err) {
		return errors.Wrap(ErrAlreadyExists, msg)
	}
	return errors.Wrap(err, msg)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

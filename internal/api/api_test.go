package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/store"
	"github.com/foodgram/backend/internal/testhelpers"
)

const baseURL = "http://testserver"

type APISuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine

	author      *models.User
	reader      *models.User
	authorToken string
	readerToken string
	salt        *models.Ingredient
	pepper      *models.Ingredient
	lunch       *models.Tag
	dinner      *models.Tag
}

func TestAPISuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	t := s.T()
	s.db = testhelpers.SetupSQLite(t)
	stores := store.New(s.db)
	images := storage.NewLocalStore(t.TempDir(), baseURL+"/media")
	auth := service.NewAuthService(stores.Users, "test-secret", time.Hour, service.NewMemoryTokenRevoker())

	s.router = router.SetupRouter(router.Options{
		DB: s.db,
		Services: api.Services{
			Auth:    auth,
			Users:   service.NewUserService(stores, images),
			Recipes: service.NewRecipeService(stores, images),
			Catalog: service.NewCatalogService(stores),
		},
		Pagination: api.Pagination{BaseURL: baseURL, PageSize: 6, MaxPageSize: 100},
	})

	s.author = testhelpers.CreateUser(t, s.db, "author")
	s.reader = testhelpers.CreateUser(t, s.db, "reader")
	s.authorToken = s.login(s.author.Email)
	s.readerToken = s.login(s.reader.Email)

	s.salt = testhelpers.CreateIngredient(t, s.db, "Salt", "g")
	s.pepper = testhelpers.CreateIngredient(t, s.db, "Pepper", "pinch")
	s.lunch = testhelpers.CreateTag(t, s.db, "lunch")
	s.dinner = testhelpers.CreateTag(t, s.db, "dinner")
}

func (s *APISuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APISuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *APISuite) login(email string) string {
	w := s.do(http.MethodPost, "/api/auth/token/login", "", map[string]string{
		"email":    email,
		"password": testhelpers.TestPassword,
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return s.decode(w)["auth_token"].(string)
}

func (s *APISuite) recipeBody(name string, tags ...uint) map[string]interface{} {
	if len(tags) == 0 {
		tags = []uint{s.lunch.ID}
	}
	return map[string]interface{}{
		"name":         name,
		"text":         "Mix and serve.",
		"image":        testhelpers.PNGDataURI,
		"cooking_time": 10,
		"tags":         tags,
		"ingredients": []map[string]interface{}{
			{"id": s.salt.ID, "amount": 15},
		},
	}
}

func (s *APISuite) createRecipe(token, name string, tags ...uint) uint {
	w := s.do(http.MethodPost, "/api/recipes", token, s.recipeBody(name, tags...))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return uint(s.decode(w)["id"].(float64))
}

func recipePath(id uint, suffix string) string {
	return "/api/recipes/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func (s *APISuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("healthy", s.decode(w)["status"])
}

func (s *APISuite) TestUnknownRoute() {
	w := s.do(http.MethodGet, "/api/nothing-here", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(api.MsgNotFound, s.decode(w)["detail"])
}

func (s *APISuite) TestRegister() {
	body := map[string]string{
		"email":      "new@example.com",
		"username":   "newcomer",
		"first_name": "New",
		"last_name":  "Comer",
		"password":   "long-enough-pass",
	}
	w := s.do(http.MethodPost, "/api/users", "", body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	resp := s.decode(w)
	s.Equal("newcomer", resp["username"])
	s.NotContains(resp, "password")
	s.NotContains(resp, "is_subscribed")

	w = s.do(http.MethodPost, "/api/users", "", body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.decode(w), "username")
}

func (s *APISuite) TestRegisterValidation() {
	w := s.do(http.MethodPost, "/api/users", "", map[string]string{
		"email":    "not-an-email",
		"username": "bad name!",
		"password": "short",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	resp := s.decode(w)
	for _, field := range []string{"email", "username", "first_name", "last_name", "password"} {
		s.Contains(resp, field)
	}
}

func (s *APISuite) TestLoginWrongPassword() {
	w := s.do(http.MethodPost, "/api/auth/token/login", "", map[string]string{
		"email":    s.author.Email,
		"password": "wrong-password",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APISuite) TestMeAndLogout() {
	w := s.do(http.MethodGet, "/api/users/me", s.authorToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("author", s.decode(w)["username"])

	w = s.do(http.MethodGet, "/api/users/me", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/token/logout", s.authorToken, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/users/me", s.authorToken, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APISuite) TestInvalidTokenOnPublicEndpoint() {
	w := s.do(http.MethodGet, "/api/recipes", "garbage", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APISuite) TestSetPassword() {
	w := s.do(http.MethodPost, "/api/users/set_password", s.authorToken, map[string]string{
		"current_password": "wrong-password",
		"new_password":     "another-pass-123",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.decode(w), "current_password")

	w = s.do(http.MethodPost, "/api/users/set_password", s.authorToken, map[string]string{
		"current_password": testhelpers.TestPassword,
		"new_password":     "another-pass-123",
	})
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *APISuite) TestAvatar() {
	w := s.do(http.MethodPut, "/api/users/me/avatar", s.authorToken, map[string]string{"avatar": testhelpers.PNGDataURI})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(s.decode(w)["avatar"], baseURL+"/media/users/")

	w = s.do(http.MethodDelete, "/api/users/me/avatar", s.authorToken, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodPut, "/api/users/me/avatar", s.authorToken, map[string]string{"avatar": "not a data uri"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APISuite) TestCreateRecipe() {
	w := s.do(http.MethodPost, "/api/recipes", "", s.recipeBody("Soup"))
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/recipes", s.authorToken, s.recipeBody("Soup"))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	resp := s.decode(w)
	s.Equal("Soup", resp["name"])
	s.Equal("author", resp["author"].(map[string]interface{})["username"])
	s.Equal(false, resp["is_favorited"])
	ingredients := resp["ingredients"].([]interface{})
	s.Require().Len(ingredients, 1)
	s.Equal(float64(15), ingredients[0].(map[string]interface{})["amount"])
}

func (s *APISuite) TestCreateRecipeValidation() {
	body := s.recipeBody("Soup")
	body["ingredients"] = []map[string]interface{}{}
	body["cooking_time"] = 0
	w := s.do(http.MethodPost, "/api/recipes", s.authorToken, body)
	s.Equal(http.StatusBadRequest, w.Code)
	resp := s.decode(w)
	s.Contains(resp, "ingredients")
	s.Contains(resp, "cooking_time")
}

func (s *APISuite) TestUpdateRecipePermissions() {
	id := s.createRecipe(s.authorToken, "Soup")

	w := s.do(http.MethodPatch, recipePath(id, ""), s.readerToken, s.recipeBody("Stolen"))
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, recipePath(id, ""), s.readerToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	body := s.recipeBody("Better soup", s.dinner.ID)
	delete(body, "image")
	w = s.do(http.MethodPatch, recipePath(id, ""), s.authorToken, body)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	resp := s.decode(w)
	s.Equal("Better soup", resp["name"])
	tags := resp["tags"].([]interface{})
	s.Require().Len(tags, 1)
	s.Equal("dinner", tags[0].(map[string]interface{})["slug"])

	w = s.do(http.MethodDelete, recipePath(id, ""), s.authorToken, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, recipePath(id, ""), "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestMissingRecipe() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/recipes/999", "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/recipes/abc", "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/recipes/999/favorite", s.readerToken, nil).Code)
}

func (s *APISuite) TestPagination() {
	for _, name := range []string{"First", "Second", "Third"} {
		s.createRecipe(s.authorToken, name)
	}

	w := s.do(http.MethodGet, "/api/recipes?limit=2", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	resp := s.decode(w)
	s.Equal(float64(3), resp["count"])
	s.Len(resp["results"], 2)
	s.Equal(baseURL+"/api/recipes?limit=2&page=2", resp["next"])
	s.Nil(resp["previous"])
	s.Equal("Third", resp["results"].([]interface{})[0].(map[string]interface{})["name"])

	w = s.do(http.MethodGet, "/api/recipes?limit=2&page=2", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	resp = s.decode(w)
	s.Len(resp["results"], 1)
	s.Nil(resp["next"])
	s.Equal(baseURL+"/api/recipes?limit=2", resp["previous"])

	w = s.do(http.MethodGet, "/api/recipes?limit=2&page=3", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal(api.MsgInvalidPage, s.decode(w)["detail"])

	w = s.do(http.MethodGet, "/api/recipes?page=zero", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestEmptyListFirstPage() {
	w := s.do(http.MethodGet, "/api/recipes", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	resp := s.decode(w)
	s.Equal(float64(0), resp["count"])
	s.Equal([]interface{}{}, resp["results"])
}

func (s *APISuite) TestFilters() {
	soup := s.createRecipe(s.authorToken, "Soup", s.lunch.ID)
	s.createRecipe(s.authorToken, "Stew", s.dinner.ID)
	s.createRecipe(s.readerToken, "Salad", s.lunch.ID)

	count := func(path, token string) float64 {
		w := s.do(http.MethodGet, path, token, nil)
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		return s.decode(w)["count"].(float64)
	}

	s.Equal(float64(2), count("/api/recipes?author="+strconv.FormatUint(uint64(s.author.ID), 10), ""))
	s.Equal(float64(2), count("/api/recipes?tags=lunch", ""))
	s.Equal(float64(3), count("/api/recipes?tags=lunch&tags=dinner", ""))

	s.Equal(http.StatusCreated, s.do(http.MethodPost, recipePath(soup, "/favorite"), s.readerToken, nil).Code)
	s.Equal(float64(1), count("/api/recipes?is_favorited=1", s.readerToken))
	s.Equal(float64(2), count("/api/recipes?is_favorited=0", s.readerToken))
	s.Equal(float64(0), count("/api/recipes?is_favorited=1", ""))
	s.Equal(float64(0), count("/api/recipes?is_in_shopping_cart=1", s.readerToken))

	w := s.do(http.MethodGet, "/api/recipes?is_favorited=maybe", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.decode(w), "is_favorited")
}

func (s *APISuite) TestFavoriteToggle() {
	id := s.createRecipe(s.authorToken, "Soup")
	path := recipePath(id, "/favorite")

	w := s.do(http.MethodPost, path, s.readerToken, nil)
	s.Require().Equal(http.StatusCreated, w.Code)
	resp := s.decode(w)
	s.Equal("Soup", resp["name"])
	s.Contains(resp, "cooking_time")
	s.NotContains(resp, "author")

	w = s.do(http.MethodPost, path, s.readerToken, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(service.MsgAlreadyFavorited, s.decode(w)["errors"])

	w = s.do(http.MethodGet, recipePath(id, ""), s.readerToken, nil)
	s.Equal(true, s.decode(w)["is_favorited"])

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, path, s.readerToken, nil).Code)
	w = s.do(http.MethodDelete, path, s.readerToken, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(service.MsgNotFavorited, s.decode(w)["errors"])

	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, path, "", nil).Code)
}

func (s *APISuite) TestShoppingCartDownload() {
	w := s.do(http.MethodGet, "/api/recipes/download_shopping_cart", s.readerToken, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	first := s.createRecipe(s.authorToken, "Soup")
	second := s.createRecipe(s.authorToken, "Stew")
	for _, id := range []uint{first, second} {
		s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, recipePath(id, "/shopping_cart"), s.readerToken, nil).Code)
	}

	w = s.do(http.MethodGet, "/api/recipes/download_shopping_cart", s.readerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), "shopping_cart.txt")
	s.Equal("Salt — 30 g\n", w.Body.String())

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, recipePath(first, "/shopping_cart"), s.readerToken, nil).Code)
	w = s.do(http.MethodGet, "/api/recipes/download_shopping_cart", s.readerToken, nil)
	s.Equal("Salt — 15 g\n", w.Body.String())

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil).Code)
}

func (s *APISuite) TestShortLink() {
	id := s.createRecipe(s.authorToken, "Soup")

	w := s.do(http.MethodGet, recipePath(id, "/get-link"), "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	link := s.decode(w)["short-link"].(string)
	code := strconv.FormatUint(uint64(id), 36)
	s.Equal(baseURL+"/s/"+code, link)

	w = s.do(http.MethodGet, "/s/"+code, "", nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal("/recipes/"+strconv.FormatUint(uint64(id), 10), w.Header().Get("Location"))

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/s/zzzz", "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/s/%21%21", "", nil).Code)
}

func (s *APISuite) TestSubscriptions() {
	authorPath := "/api/users/" + strconv.FormatUint(uint64(s.author.ID), 10)
	s.createRecipe(s.authorToken, "Soup")
	s.createRecipe(s.authorToken, "Stew")

	w := s.do(http.MethodPost, authorPath+"/subscribe?recipes_limit=1", s.readerToken, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	resp := s.decode(w)
	s.Equal(true, resp["is_subscribed"])
	s.Equal(float64(2), resp["recipes_count"])
	s.Len(resp["recipes"], 1)

	w = s.do(http.MethodPost, authorPath+"/subscribe", s.readerToken, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	self := "/api/users/" + strconv.FormatUint(uint64(s.reader.ID), 10) + "/subscribe"
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, self, s.readerToken, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/users/999/subscribe", s.readerToken, nil).Code)

	w = s.do(http.MethodGet, "/api/users/subscriptions", s.readerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	page := s.decode(w)
	s.Equal(float64(1), page["count"])
	sub := page["results"].([]interface{})[0].(map[string]interface{})
	s.Equal("author", sub["username"])
	s.Len(sub["recipes"], 2)

	w = s.do(http.MethodGet, authorPath, s.readerToken, nil)
	s.Equal(true, s.decode(w)["is_subscribed"])
	w = s.do(http.MethodGet, authorPath, "", nil)
	s.Equal(false, s.decode(w)["is_subscribed"])

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, authorPath+"/subscribe", s.readerToken, nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodDelete, authorPath+"/subscribe", s.readerToken, nil).Code)
}

func (s *APISuite) TestUserList() {
	w := s.do(http.MethodGet, "/api/users?limit=1", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	resp := s.decode(w)
	s.Equal(float64(2), resp["count"])
	s.Equal(baseURL+"/api/users?limit=1&page=2", resp["next"])
}

func (s *APISuite) TestCatalog() {
	w := s.do(http.MethodGet, "/api/tags", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var tags []map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &tags))
	s.Len(tags, 2)

	w = s.do(http.MethodGet, "/api/tags/"+strconv.FormatUint(uint64(s.dinner.ID), 10), "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("dinner", s.decode(w)["slug"])

	w = s.do(http.MethodGet, "/api/ingredients?name=sa", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var ingredients []map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &ingredients))
	s.Require().Len(ingredients, 1)
	s.Equal("Salt", ingredients[0]["name"])

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/ingredients/999", "", nil).Code)
}

func (s *APISuite) TestRecipeSurvivesDatabaseRoundTrip() {
	id := s.createRecipe(s.authorToken, "Soup")
	var recipe models.Recipe
	s.Require().NoError(s.db.WithContext(context.Background()).First(&recipe, id).Error)
	s.Equal(s.author.ID, recipe.AuthorID)
	s.Contains(recipe.Image, baseURL+"/media/recipes/")
}

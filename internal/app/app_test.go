package app_test

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/app"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/server"
	"github.com/foodgram/backend/internal/testhelpers"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		ServerHost:         "127.0.0.1",
		ServerPort:         "0",
		BaseURL:            "http://testserver",
		DBDriver:           "sqlite",
		SQLitePath:         filepath.Join(dir, "foodgram.db"),
		RedisHost:          "127.0.0.1",
		RedisPort:          "1",
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		PageSize:           6,
		MaxPageSize:        100,
		MediaRoot:          filepath.Join(dir, "media"),
		MediaBaseURL:       "http://testserver/media",
		CORSAllowedOrigins: []string{"*"},
		RecipeRateLimit:    30,
		LogLevel:           "error",
	}
}

func TestApplicationServesAPI(t *testing.T) {
	var (
		srv *server.Server
		db  *gorm.DB
	)
	application := fx.New(
		fx.NopLogger,
		fx.Supply(testConfig(t)),
		app.Module,
		fx.Populate(&srv, &db),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, application.Start(ctx))
	defer func() {
		assert.NoError(t, application.Stop(context.Background()))
	}()

	salt := &models.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	require.NoError(t, db.Create(salt).Error)
	lunch := &models.Tag{Name: "Lunch", Slug: "lunch"}
	require.NoError(t, db.Create(lunch).Error)

	base := "http://" + srv.Addr()
	client := resty.New().SetBaseURL(base)

	resp, err := client.R().SetContext(ctx).Get("/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"email":      "cook@example.com",
			"username":   "cook",
			"first_name": "Home",
			"last_name":  "Cook",
			"password":   testhelpers.TestPassword,
		}).
		Post("/api/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())

	type TokenResp struct {
		AuthToken string `json:"auth_token"`
	}
	resp, err = client.R().
		SetContext(ctx).
		SetResult(&TokenResp{}).
		SetBody(map[string]string{"email": "cook@example.com", "password": testhelpers.TestPassword}).
		Post("/api/auth/token/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())
	token := resp.Result().(*TokenResp).AuthToken
	require.NotEmpty(t, token)

	type RecipeResp struct {
		ID    uint   `json:"id"`
		Image string `json:"image"`
	}
	resp, err = client.R().
		SetContext(ctx).
		SetAuthScheme("Token").
		SetAuthToken(token).
		SetResult(&RecipeResp{}).
		SetBody(map[string]interface{}{
			"name":         "Soup",
			"text":         "Boil water.",
			"image":        testhelpers.PNGDataURI,
			"cooking_time": 20,
			"tags":         []uint{lunch.ID},
			"ingredients":  []map[string]interface{}{{"id": salt.ID, "amount": 5}},
		}).
		Post("/api/recipes")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())
	recipe := resp.Result().(*RecipeResp)
	assert.True(t, strings.HasPrefix(recipe.Image, "http://testserver/media/recipes/"))

	// the image is served from the local media directory
	resp, err = client.R().SetContext(ctx).Get(strings.TrimPrefix(recipe.Image, "http://testserver"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	resp, err = client.R().SetContext(ctx).Get("/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), "foodgram_http_requests_total")
}

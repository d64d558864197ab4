package main

import (
	"go.uber.org/fx"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/app"
)

func main() {
	fx.New(
		fx.NopLogger,
		fx.Provide(config.LoadConfig),
		app.Module,
	).Run()
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/logging"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/store"
	"github.com/foodgram/backend/internal/types"
	"github.com/foodgram/backend/migrations"
)

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "manage",
		Short:         "Foodgram administrative commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.LoadConfig(); err != nil {
				return err
			}
			logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})
			return nil
		},
	}
	load := func() *config.Config { return cfg }

	root.AddCommand(
		newMigrateCmd(load),
		newLoadIngredientsCmd(load),
		newCreateSuperuserCmd(load),
		newSetupBucketCmd(load),
	)
	return root
}

func newMigrateCmd(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			if cfg.DBDriver == "sqlite" {
				db, err := database.New(cfg)
				if err != nil {
					return err
				}
				defer database.Close(db)
				return database.AutoMigrate(db)
			}

			db, err := sql.Open("postgres", cfg.PostgresDSN())
			if err != nil {
				return errors.Wrap(err, "connect to database")
			}
			defer db.Close()
			if err := database.ApplySQLMigrations(cmd.Context(), db, migrations.FS); err != nil {
				return err
			}
			logging.Info().Msg("all migrations applied")
			return nil
		},
	}
}

func newLoadIngredientsCmd(load func() *config.Config) *cobra.Command {
	var tagsFile string

	cmd := &cobra.Command{
		Use:   "load-ingredients <file>",
		Short: "Import ingredients (and optionally tags) from JSON files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), load(), func(ctx context.Context, db *gorm.DB) error {
				catalog := service.NewCatalogService(store.New(db))

				n, err := importFile(ctx, args[0], catalog.ImportIngredients)
				if err != nil {
					return err
				}
				logging.Info().Int64("created", n).Str("file", args[0]).Msg("ingredients loaded")

				if tagsFile == "" {
					return nil
				}
				n, err = importFile(ctx, tagsFile, catalog.ImportTags)
				if err != nil {
					return err
				}
				logging.Info().Int64("created", n).Str("file", tagsFile).Msg("tags loaded")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tagsFile, "tags", "", "JSON file with tags to load")
	return cmd
}

func importFile(ctx context.Context, path string, load func(context.Context, io.Reader) (int64, error)) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return load(ctx, f)
}

func newCreateSuperuserCmd(load func() *config.Config) *cobra.Command {
	var req types.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), load(), func(ctx context.Context, db *gorm.DB) error {
				users := service.NewUserService(store.New(db), nil)
				user, err := users.CreateSuperuser(ctx, &req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created with id %d\n", user.Username, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "login name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "Admin", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "Admin", "last name")
	for _, name := range []string{"username", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newSetupBucketCmd(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "setup-bucket",
		Short: "Allow public reads on the media bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			if cfg.S3BucketName == "" {
				return errors.New("S3_BUCKET_NAME is not set")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			s3cfg, err := config.NewS3Config(ctx, cfg)
			if err != nil {
				return err
			}
			if err := s3cfg.SetupBucketPolicy(ctx); err != nil {
				return errors.Wrap(err, "apply bucket policy")
			}
			logging.Info().Str("bucket", s3cfg.BucketName).Msg("bucket policy applied")
			return nil
		},
	}
}

func withDatabase(ctx context.Context, cfg *config.Config, fn func(context.Context, *gorm.DB) error) error {
	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(ctx, db)
}

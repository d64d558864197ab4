package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

const minProductionSecretLength = 32

// ValidateConfig checks if the configuration meets the requirements for the given environment
func ValidateConfig(cfg *Config, env Environment) error {
	var errs ValidationErrors

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "must be set"})
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" || cfg.DBName == "" || cfg.DBUser == "" {
			errs = append(errs, ValidationError{"DB_HOST", "DB_HOST, DB_NAME and DB_USER are required for postgres"})
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "must be set for sqlite"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "jwt_secret secret or JWT_SECRET is required"})
	}
	if cfg.JWTTTL <= 0 {
		errs = append(errs, ValidationError{"JWT_TTL", "must be positive"})
	}

	if cfg.PageSize < 1 {
		errs = append(errs, ValidationError{"PAGE_SIZE", "must be at least 1"})
	}
	if cfg.MaxPageSize < cfg.PageSize {
		errs = append(errs, ValidationError{"MAX_PAGE_SIZE", "must not be lower than PAGE_SIZE"})
	}

	if env == Production || env == CI {
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", "db_password secret is required"})
		}
	}
	if env == Production {
		if len(cfg.JWTSecret) < minProductionSecretLength {
			errs = append(errs, ValidationError{"JWT_SECRET", fmt.Sprintf("must be at least %d characters in production", minProductionSecretLength)})
		}
		if cfg.DBDriver == "sqlite" {
			errs = append(errs, ValidationError{"DB_DRIVER", "sqlite is not allowed in production"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

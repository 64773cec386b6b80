package config

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/site-auditor/internal/frontier"
	"github.com/jonesrussell/north-cloud/site-auditor/internal/logger"
)

const maxPort = 65535

// ValidationError is a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for values the services cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory, StorageDatabase:
	default:
		errs = append(errs, &ValidationError{Field: "storage", Message: "must be one of: memory, database"})
	}
	if c.Storage == StorageDatabase {
		if _, _, err := c.Database.DSN(); err != nil {
			errs = append(errs, &ValidationError{Field: "database.driver", Message: err.Error()})
		}
	}

	switch c.Crawler.Dedup {
	case frontier.DedupExact, frontier.DedupBloom:
	default:
		errs = append(errs, &ValidationError{Field: "crawler.dedup", Message: "must be one of: exact, bloom"})
	}

	probe := c.Audit.RunDefaults("https://example.com/")
	if err := probe.Validate(); err != nil {
		errs = append(errs, &ValidationError{Field: "audit", Message: err.Error()})
	}

	if c.Server.Port < 1 || c.Server.Port > maxPort {
		errs = append(errs, &ValidationError{Field: "server.port", Message: "must be between 1 and 65535"})
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "fatal":
	default:
		errs = append(errs, &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"})
	}
	switch c.Logging.Format {
	case logger.FormatJSON, logger.FormatConsole:
	default:
		errs = append(errs, &ValidationError{Field: "logging.format", Message: "must be one of: json, console"})
	}

	return errors.Join(errs...)
}

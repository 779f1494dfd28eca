package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"
)

const (
	DefaultDir = "pkg/migrate/migrations"
	// DefaultDialect matches the SQL in DefaultDir.
	DefaultDialect = "postgres"
)

var supportedCommands = map[string]bool{
	"up":     true,
	"down":   true,
	"status": true,
}

// Run validates dir and executes one of up, down or status against db.
func Run(ctx context.Context, db *sql.DB, dir string, command string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if !supportedCommands[command] {
		return fmt.Errorf("unsupported goose command %q", command)
	}
	if err := ValidateDir(dir); err != nil {
		return fmt.Errorf("refusing to run invalid migrations: %w", err)
	}
	if err := goose.SetDialect(DefaultDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	// RunContext prints status output to stdout
	if err := goose.RunContext(ctx, command, db, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down to targetVersion, which must
// be 0 or the version of a migration file in dir.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	target, err := resolveTargetVersion(dir, targetVersion)
	if err != nil {
		return err
	}
	if err := goose.SetDialect(DefaultDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

func resolveTargetVersion(dir, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || target < 0 {
		return 0, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS or 0)", raw)
	}
	if target == 0 {
		return 0, nil
	}

	files, _, err := listMigrations(dir)
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		if f.Version == raw {
			return target, nil
		}
	}
	return 0, fmt.Errorf("no migration with version %s in %q", raw, dir)
}

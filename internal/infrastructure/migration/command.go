package migration

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"go.uber.org/zap"
)

// ErrUsage reports a missing or malformed command argument
var ErrUsage = errors.New("invalid migration command usage")

// Usage describes the commands understood by Execute
const Usage = `Motoshop Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  drop -confirm         Drop all database objects
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations

Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -log-level string     Log level (default: info)`

// NeedsDatabase reports whether command talks to the database. create and
// list only touch the migrations directory.
func NeedsDatabase(command string) bool {
	return command != "create" && command != "list"
}

// Execute runs a database command against r. args[0] is the command name.
func Execute(r Runner, args []string, logger *zap.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: command required", ErrUsage)
	}

	switch command := args[0]; command {
	case "up":
		return r.Up()

	case "down":
		return r.Down()

	case "step":
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return r.Steps(n)

	case "goto":
		if len(args) < 2 {
			return fmt.Errorf("%w: version required", ErrUsage)
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("%w: invalid version %q", ErrUsage, args[1])
		}
		return r.GoTo(uint(version))

	case "version":
		version, dirty, err := r.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			logger.Info("No migrations applied")
			return nil
		}
		logger.Info("Current migration version",
			zap.Uint("version", version),
			zap.Bool("dirty", dirty),
		)
		return nil

	case "force":
		version, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return r.Force(version)

	case "drop":
		if !slices.Contains(args[1:], "-confirm") && !slices.Contains(args[1:], "--confirm") {
			return fmt.Errorf("%w: drop requires -confirm", ErrUsage)
		}
		return r.Drop()

	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

func intArg(args []string, what string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%w: %s required", ErrUsage, what)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrUsage, what, args[1])
	}
	return n, nil
}

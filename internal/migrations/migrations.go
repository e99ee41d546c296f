package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Dialect selects the schema flavour to apply.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

func (d Dialect) dir() (string, error) {
	switch d {
	case SQLite:
		return "sqlite", nil
	case Postgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
}

// Run applies all pending migrations for dialect against db.
func Run(db *sql.DB, dialect Dialect) error {
	dir, err := dialect.dir()
	if err != nil {
		return err
	}
	sub, err := fs.Sub(files, dir)
	if err != nil {
		return fmt.Errorf("opening %s migrations: %w", dir, err)
	}
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

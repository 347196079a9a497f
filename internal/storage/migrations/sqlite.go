package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RunSQLiteMigrations applies all embedded SQLite files in lexical order,
// one statement at a time.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	files, err := readFiles(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}

	for _, f := range files {
		stmts, err := f.statements()
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", f.name, err)
			}
		}
	}

	return nil
}

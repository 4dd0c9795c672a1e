package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"pintlog-backend-go/internal/db"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

type migration struct {
	Name    string
	Version int
	Path    string
}

// Apply runs every embedded migration for dialect that is not yet recorded
// in schema_migrations, in version order.
func Apply(conn *sqlx.DB, dialect db.Dialect) error {
	if err := ensureTable(conn); err != nil {
		return err
	}
	migs, err := listMigrations(files, string(dialect))
	if err != nil {
		return err
	}
	applied, err := appliedVersions(conn)
	if err != nil {
		return err
	}
	for _, mig := range migs {
		if applied[mig.Version] {
			continue
		}
		if err := applyMigration(conn, mig); err != nil {
			return err
		}
	}
	return nil
}

func ensureTable(conn *sqlx.DB) error {
	_, err := conn.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TIMESTAMP NOT NULL
)`)
	return err
}

func listMigrations(fsys fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	migs := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, ok := parseVersionNumber(name)
		if !ok {
			return nil, fmt.Errorf("migration %s: name must start with V<number>__", name)
		}
		migs = append(migs, migration{
			Name:    name,
			Version: version,
			Path:    path.Join(dir, name),
		})
	}
	sort.Slice(migs, func(i, j int) bool {
		return migs[i].Version < migs[j].Version
	})
	return migs, nil
}

func appliedVersions(conn *sqlx.DB) (map[int]bool, error) {
	rows := []int{}
	if err := conn.Select(&rows, `SELECT version FROM schema_migrations`); err != nil {
		return nil, err
	}
	versions := make(map[int]bool, len(rows))
	for _, version := range rows {
		versions[version] = true
	}
	return versions, nil
}

func applyMigration(conn *sqlx.DB, mig migration) error {
	content, err := fs.ReadFile(files, mig.Path)
	if err != nil {
		return err
	}
	tx, err := conn.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(content)) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply %s: %w", mig.Name, err)
		}
	}
	if _, err := tx.Exec(tx.Rebind(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`),
		mig.Version, mig.Name, time.Now().UTC()); err != nil {
		return fmt.Errorf("record %s: %w", mig.Name, err)
	}
	return tx.Commit()
}

// splitStatements splits a migration on ";" line endings. Migrations must
// not contain semicolons inside literals.
func splitStatements(content string) []string {
	parts := strings.Split(content, ";")
	stmts := make([]string, 0, len(parts))
	for _, part := range parts {
		stmt := strings.TrimSpace(part)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func parseVersion(name string) string {
	if !strings.HasPrefix(name, "V") {
		return ""
	}
	parts := strings.SplitN(name[1:], "__", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[0])
}

func parseVersionNumber(name string) (int, bool) {
	raw := parseVersion(name)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

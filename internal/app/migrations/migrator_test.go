package migrations

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestMigrationVersion(t *testing.T) {
	c := qt.New(t)
	c.Assert(migrationVersion("migrations/001_init.sql"), qt.Equals, "001")
	c.Assert(migrationVersion("002_add_roster_index.sql"), qt.Equals, "002")
}

func TestListMigrations(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "notes.txt"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644), qt.IsNil)
	}
	c.Assert(os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755), qt.IsNil)

	files, err := listMigrations(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(files, qt.DeepEquals, []string{
		filepath.Join(dir, "001_a.sql"),
		filepath.Join(dir, "002_b.sql"),
	})

	_, err = listMigrations(filepath.Join(dir, "missing"))
	c.Assert(err, qt.ErrorMatches, "failed to read migration directory: .*")
}

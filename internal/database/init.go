package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

var validDbName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type Database struct {
	dbName      string
	MysqlClient *sql.DB
}

func NewDatabase(client *sql.DB, dbName string) (*Database, error) {
	if !validDbName.MatchString(dbName) {
		return nil, errors.Errorf("invalid database name %q", dbName)
	}

	return &Database{
		dbName:      dbName,
		MysqlClient: client,
	}, nil
}

// CreateDatabaseAndTable creates the database if needed, switches to it and
// runs every .sql file under migrationsDir in name order.
func (d *Database) CreateDatabaseAndTable(ctx context.Context, migrationsDir string) error {
	if _, err := d.MysqlClient.ExecContext(ctx, `CREATE DATABASE IF NOT EXISTS `+d.dbName); err != nil {
		return errors.Wrapf(err, "failed to create db %s", d.dbName)
	}

	if _, err := d.MysqlClient.ExecContext(ctx, `USE `+d.dbName); err != nil {
		return errors.Wrapf(err, "failed to use db %s", d.dbName)
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		c, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}

		if _, err := d.MysqlClient.ExecContext(ctx, string(c)); err != nil {
			return errors.Wrapf(err, "run migration %s", name)
		}
	}

	return nil
}

package adapter

import (
	"context"
	"database/sql"
	"sync"

	"github.com/go-sql-driver/mysql"
	db "github.com/iqbalbaharum/anyix-swap/internal/database"
	"github.com/pkg/errors"
)

var (
	mysqlClient *sql.DB
	mySQLOnce   sync.Once
)

// InitMySQLClient creates dbName, runs the migrations and opens the pool
// used by the stores against dbName.
func InitMySQLClient(ctx context.Context, dsn string, dbName string, migrationsDir string) error {
	if dsn == "" {
		return errors.New("MySQL DSN is empty")
	}

	var initError error

	mySQLOnce.Do(func() {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			initError = errors.Wrap(err, "parse MySQL DSN")
			return
		}
		cfg.DBName = ""

		// USE only applies to a single connection.
		bootstrap, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			initError = errors.Wrap(err, "failed to connect to MySQL")
			return
		}
		defer bootstrap.Close()
		bootstrap.SetMaxOpenConns(1)

		if err := bootstrap.PingContext(ctx); err != nil {
			initError = errors.Wrap(err, "failed to ping MySQL")
			return
		}

		database, err := db.NewDatabase(bootstrap, dbName)
		if err != nil {
			initError = err
			return
		}

		if err := database.CreateDatabaseAndTable(ctx, migrationsDir); err != nil {
			initError = err
			return
		}

		cfg.DBName = dbName
		client, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			initError = errors.Wrap(err, "failed to connect to MySQL")
			return
		}

		mysqlClient = client
	})

	return initError
}

func GetMySQLClient() (*sql.DB, error) {
	if mysqlClient == nil {
		return nil, errors.New("MySQL client is not initialized. call InitMySQLClient first")
	}

	return mysqlClient, nil
}

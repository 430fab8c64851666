package database

import (
	"context"
	"database/sql/driver"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

// sqliteLowerFunc folds text the way strings.ToLower does. SQLite's
// built-in LOWER only folds ASCII.
const sqliteLowerFunc = "unicode_lower"

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
	if err := sqlite.RegisterDeterministicScalarFunction(sqliteLowerFunc, 1, unicodeLower); err != nil {
		panic(eris.Wrap(err, "database: register "+sqliteLowerFunc))
	}
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// lowerFunc names the SQL function whose folding matches strings.ToLower on
// the given driver.
func lowerFunc(driverName string) string {
	if driverName == DriverSQLite {
		return sqliteLowerFunc
	}
	return "LOWER"
}

// NewDBConnection opens the pool for the given driver and pings it.
func NewDBConnection(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverPgx:
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	default:
		return nil, eris.Errorf("database: unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, eris.Wrapf(err, "database: open %s", driver)
	}

	if driver != DriverSQLite {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "database: ping %s", driver)
	}

	return db, nil
}

// sqlitePragmas run on every new pool connection.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// sqliteDSN pins the driver's time format so DATETIME columns sort and compare
// as text in chronological order, and adds the connection pragmas.
func sqliteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "_time_format=") {
		params = append(params, "_time_format=sqlite")
	}
	if !strings.Contains(dsn, "_pragma=") {
		for _, p := range sqlitePragmas {
			params = append(params, "_pragma="+p)
		}
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

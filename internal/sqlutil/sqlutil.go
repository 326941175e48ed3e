package sqlutil

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"
)

const (
	PrefixPostgres   = "postgres:"
	PrefixPostgreSQL = "postgresql:"
	PrefixOracle     = "oracle:"
	PrefixSqlite     = "sqlite:"
	PrefixFile       = "file:"
)

var ErrUnsupportedURI = errors.New("unsupported database uri")

func IsDatabaseURI(uri string) bool {
	var _, _, err = Driver(uri)
	return err == nil
}

// Driver returns the database/sql driver name and the data source name for uri.
func Driver(uri string) (string, string, error) {
	switch {
	case strings.HasPrefix(uri, PrefixPostgres), strings.HasPrefix(uri, PrefixPostgreSQL):
		return "postgres", uri, nil
	case strings.HasPrefix(uri, PrefixOracle):
		return "oracle", uri, nil
	case strings.HasPrefix(uri, PrefixSqlite):
		return "sqlite", strings.TrimPrefix(uri, PrefixSqlite), nil
	case strings.HasPrefix(uri, PrefixFile):
		return "sqlite", uri, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
}

func IsMemoryDSN(dsn string) bool {
	var name, query, _ = strings.Cut(dsn, "?")
	name = strings.TrimPrefix(name, PrefixFile)
	return name == ":memory:" || name == "" || strings.Contains(query, "mode=memory")
}

// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
func Placeholder(uri string, n int) string {
	switch {
	case strings.HasPrefix(uri, PrefixPostgres), strings.HasPrefix(uri, PrefixPostgreSQL):
		return fmt.Sprintf("$%d", n)
	case strings.HasPrefix(uri, PrefixOracle):
		return fmt.Sprintf(":%d", n)
	}
	return "?"
}

func GetDB(dbs map[string]*sql.DB, uri string) (*sql.DB, error) {
	if db, found := dbs[uri]; found {
		return db, nil
	}
	var driverName, dsn, err = Driver(uri)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", driverName).Msg("Opening database connection")
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if driverName == "sqlite" && IsMemoryDSN(dsn) {
		// a private in-memory database exists per connection
		db.SetMaxOpenConns(1)
	}
	if dbs != nil {
		dbs[uri] = db
	}
	return db, nil
}

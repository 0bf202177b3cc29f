// Package db provides the database/sql connection plumbing (URL parsing,
// opening, placeholder rebinding) for the SQL-backed tenant store.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ParseURL parses a database connection string of the form
// "sqlite://path/to/db.sqlite" or "postgresql://..." into a driver name and
// driver-specific DSN.
func ParseURL(dbURL string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(dbURL, "sqlite://"):
		driver = "sqlite3"
		dsn = strings.TrimPrefix(dbURL, "sqlite://")

		dir := filepath.Dir(dsn)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", "", fmt.Errorf("create database directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_fk=1"
		}
		return driver, dsn, nil

	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		return "postgres", dbURL, nil

	default:
		return "", "", fmt.Errorf("unsupported database URL format: %s (use sqlite:// or postgresql://)", dbURL)
	}
}

// Open parses dbURL and opens a connection pool for the resulting driver.
func Open(dbURL string) (*sql.DB, error) {
	driver, dsn, err := ParseURL(dbURL)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	return conn, nil
}

// Rebind rewrites a query written with "?" placeholders into the dialect
// the given driver expects. sqlite3 keeps "?"; postgres needs "$1", "$2", ...
func Rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

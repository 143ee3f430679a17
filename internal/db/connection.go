package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/income-clean/internal/config"
)

// Connection holds the database connection shared by the stores and the
// diagnostics queries.
type Connection struct {
	DB *sql.DB
}

// NewConnection opens a Postgres connection from PG* environment variables.
func NewConnection() (*Connection, error) {
	host := config.GetEnv("PGHOST", "localhost")
	port := config.GetEnv("PGPORT", "5432")
	user := config.GetEnv("PGUSER", "income")
	password := config.GetEnv("PGPASSWORD", "income")
	dbname := config.GetEnv("PGDATABASE", "household_income")
	sslmode := config.GetEnv("PGSSLMODE", "disable")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Small workload: the pipeline is serialized, only diagnostics read
	// concurrently.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return &Connection{DB: db}, nil
}

// Close closes the database connection.
func (c *Connection) Close() error {
	return c.DB.Close()
}

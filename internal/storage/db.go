package storage

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/lib/pq"
)

type DB struct {
	connection *sql.DB
}

func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Connection pool tuning
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &DB{connection: db}, nil
}

func (db *DB) Close() {
	if err := db.connection.Close(); err != nil {
		log.Println("Error closing the database connection:", err)
	}
}

// GetConnection returns the underlying database connection for advanced queries
func (db *DB) GetConnection() *sql.DB {
	return db.connection
}

// isUniqueViolation reports whether err is a postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

package postgres

import (
	"database/sql"
	"fmt"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/hrygo/kaiwa/internal/profile"
	"github.com/hrygo/kaiwa/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL connection for profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, fmt.Errorf("dsn required")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// placeholder returns the positional parameter for 1-based index n.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	list := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			list += ", "
		}
		list += placeholder(i)
	}
	return list
}

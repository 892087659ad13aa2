// Package db builds the PostgreSQL repository set and runs the embedded
// schema migrations on startup.
package db

import (
	"context"
	"database/sql"

	"github.com/provenia/provenia/internal/server/repositories/catalog"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Catalog() catalog.Repository
	Close() error
}

// Package db selects the concrete store driver for a profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/kaiwa/internal/profile"
	"github.com/hrygo/kaiwa/store"
	"github.com/hrygo/kaiwa/store/db/postgres"
	"github.com/hrygo/kaiwa/store/db/sqlite"
)

// NewDBDriver creates the driver named by profile.Driver.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	case "postgres":
		return postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported driver: %s", profile.Driver)
	}
}

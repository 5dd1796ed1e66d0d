// Package database connects the import pipeline to concrete databases.
//
// Backends live in subpackages and register themselves from init, the same
// way database/sql drivers do. Import internal/database/all to link every
// backend into a binary.
package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/csvimport/internal/core"
)

// Target identifies the database a backend should open.
type Target struct {
	Project  string // cloud project (spanner)
	Instance string // instance ID, host (postgres) or directory (sqlite)
	Database string // database ID
	URL      string // PostgreSQL connection string; overrides Instance/Database for postgres only
}

// Driver opens a database handle for a Target.
type Driver interface {
	Open(ctx context.Context, t Target) (core.Handle, error)
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(ctx context.Context, t Target) (core.Handle, error)

// Open calls f.
func (f DriverFunc) Open(ctx context.Context, t Target) (core.Handle, error) {
	return f(ctx, t)
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a backend available by the provided name.
// If Register is called twice with the same name or if driver is nil, it panics.
func Register(name string, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("database: Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("database: Register called twice for driver " + name)
	}
	drivers[name] = driver
}

// Open opens a handle using the named backend.
func Open(ctx context.Context, name string, t Target) (core.Handle, error) {
	driversMu.RLock()
	driver, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database: unknown driver %q (forgotten import?)", name)
	}
	return driver.Open(ctx, t)
}

// Drivers returns a sorted list of the names of the registered backends.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]string, 0, len(drivers))
	for name := range drivers {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

// Connector returns a core.Connector that opens the named backend with base,
// taking the instance and database IDs from each Connect call.
func Connector(name string, base Target) core.Connector {
	return core.ConnectorFunc(func(ctx context.Context, instanceID, databaseID string) (core.Handle, error) {
		t := base
		t.Instance = instanceID
		t.Database = databaseID
		h, err := Open(ctx, name, t)
		if err != nil {
			return nil, &core.ConnectError{Instance: instanceID, Database: databaseID, Err: err}
		}
		return h, nil
	})
}

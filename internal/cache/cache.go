// Package cache provides the local persistence of progress documents.
//
// Values are opaque bytes keyed by storage key. A missing key is reported with ok == false
// rather than an error.
package cache

import (
	"context"
	"fmt"
	"strings"
)

// Cache is a key-value store for serialized progress documents
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Driver names a Cache implementation
type Driver string

const (
	DriverSQLite Driver = "sqlite"
	DriverRedis  Driver = "redis"
	DriverMemory Driver = "memory"
)

// Options holds the settings of every driver; only the fields of the selected driver are used
type Options struct {
	Driver        Driver
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open creates the cache selected by opts.Driver
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch Driver(strings.ToLower(string(opts.Driver))) {
	case DriverSQLite, "":
		return OpenSQLite(ctx, opts.Path)
	case DriverRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", opts.Driver)
	}
}

package store

import (
	"context"
	"fmt"
)

// Options selects and configures a backend
type Options struct {
	Kind Kind
	// Path is the database file (sqlite) or scene directory (file)
	Path string
	// RedisAddr is host:port of the redis server
	RedisAddr string
}

// Open creates the backend described by opts
func Open(ctx context.Context, opts Options) (SceneStore, error) {
	switch opts.Kind {
	case KindMemory, "":
		return NewMemoryStore(), nil
	case KindSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite store needs a path")
		}
		return NewSQLiteStore(opts.Path)
	case KindRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis store needs an address")
		}
		return DialRedis(ctx, opts.RedisAddr)
	case KindFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("file store needs a directory")
		}
		return NewFileStore(opts.Path)
	}
	return nil, fmt.Errorf("unknown store %q", opts.Kind)
}

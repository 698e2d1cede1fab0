package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/remote"
	"github.com/rshade/planfocus/internal/store"
)

const (
	storeFileName  = "store.json"
	sqliteFileName = "planfocus.db"
)

// OpenStore opens the configured backend. Remote stores are handshaken before
// they are returned so their capabilities are known.
func OpenStore(ctx context.Context, sc StoreConfig) (store.Store, error) {
	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "config").
		Str("operation", "open_store").
		Str("backend", sc.Backend).
		Msg("opening store")

	switch sc.Backend {
	case BackendMemory:
		return store.NewMemoryStore().WithCompositeIndex(sc.CompositeIndex), nil

	case BackendFile:
		path, err := pathOrDefault(sc.Path, storeFileName)
		if err != nil {
			return nil, err
		}
		fs, err := store.NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return fs.WithCompositeIndex(sc.CompositeIndex), nil

	case BackendSQLite:
		path, err := pathOrDefault(sc.Path, sqliteFileName)
		if err != nil {
			return nil, err
		}
		return store.OpenSQLite(ctx, path)

	case BackendPostgres:
		return store.OpenPostgres(ctx, sc.DSN)

	case BackendRemote:
		client := remote.NewClient(sc.URL, sc.Token)
		if _, err := client.Handshake(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to %s: %w", sc.URL, err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("%w: unknown store.backend %q", ErrInvalidConfig, sc.Backend)
	}
}

func pathOrDefault(path, name string) (string, error) {
	if path != "" {
		return path, nil
	}
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, name), nil
}

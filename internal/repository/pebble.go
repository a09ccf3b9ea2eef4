package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"
)

// PebbleKV stores keys as "<namespace>:<key>" in a pebble directory.
type PebbleKV struct {
	db     *pebble.DB
	prefix string
}

// OpenPebble opens (or creates) the pebble database directory at path.
func OpenPebble(path, namespace string) (*PebbleKV, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository: pebble path must not be empty")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, errors.New("repository: namespace must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("repository: create pebble dir: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("repository: open pebble: %w", err)
	}
	return &PebbleKV{db: db, prefix: namespace + ":"}, nil
}

func (p *PebbleKV) key(k string) []byte {
	return []byte(p.prefix + k)
}

func (p *PebbleKV) Get(_ context.Context, key string) ([]byte, error) {
	v, closer, err := p.db.Get(p.key(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: pebble get %q: %w", key, err)
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (p *PebbleKV) Put(_ context.Context, key string, value []byte) error {
	if err := p.db.Set(p.key(key), value, pebble.Sync); err != nil {
		return fmt.Errorf("repository: pebble put %q: %w", key, err)
	}
	return nil
}

func (p *PebbleKV) Delete(_ context.Context, key string) error {
	if err := p.db.Delete(p.key(key), pebble.Sync); err != nil {
		return fmt.Errorf("repository: pebble delete %q: %w", key, err)
	}
	return nil
}

func (p *PebbleKV) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Package storage is the persistent key-value store behind the cart.
// A namespace is one browser session; keys inside it are small JSON blobs.
package storage

import (
	"context"
	"fmt"
	"sync"
)

type KV interface {
	Get(ctx context.Context, ns, key string) ([]byte, bool, error)
	Put(ctx context.Context, ns, key string, value []byte) error
	Delete(ctx context.Context, ns, key string) error
	Close() error
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// Open picks a backend by driver name.
func Open(cfg Config) (KV, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		s, err := NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		p, err := NewPG(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// Memory keeps everything in process; used in tests and `STORAGE_DRIVER=memory`.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemory() *Memory { return &Memory{m: make(map[string][]byte)} }

func memKey(ns, key string) string { return ns + "\x00" + key }

func (s *Memory) Get(_ context.Context, ns, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[memKey(ns, key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *Memory) Put(_ context.Context, ns, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.m[memKey(ns, key)] = v
	return nil
}

func (s *Memory) Delete(_ context.Context, ns, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, memKey(ns, key))
	return nil
}

func (s *Memory) Close() error { return nil }

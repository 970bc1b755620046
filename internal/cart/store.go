package cart

import (
	"context"
	"encoding/json"
	"fmt"
)

// StorageKey is the single key the cart mapping is kept under.
const StorageKey = "cart"

// KV is the part of storage.KV the cart needs.
type KV interface {
	Get(ctx context.Context, ns, key string) ([]byte, bool, error)
	Put(ctx context.Context, ns, key string, value []byte) error
}

// Encode serialises the mapping as a JSON object {"id": qty}.
func Encode(c Cart) ([]byte, error) {
	return json.Marshal(c.Map())
}

// Decode never fails: absent, empty or malformed data is an empty cart,
// and entries with a non-positive quantity are dropped.
func Decode(data []byte) Cart {
	if len(data) == 0 {
		return New()
	}
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return New()
	}
	return FromMap(m)
}

// Store loads and saves one browser's cart. ns is the browser session id.
type Store struct {
	kv KV
	ns string
}

func NewStore(kv KV, ns string) *Store { return &Store{kv: kv, ns: ns} }

// Load reads the persisted cart and drops ids the catalog no longer has.
// If anything was dropped the reconciled mapping is written back.
func (s *Store) Load(ctx context.Context, known func(id string) bool) (Cart, []string, error) {
	data, ok, err := s.kv.Get(ctx, s.ns, StorageKey)
	if err != nil {
		return New(), nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok {
		return New(), nil, nil
	}
	c := Decode(data)
	dropped := c.Retain(known)
	if len(dropped) > 0 {
		if err := s.Save(ctx, c); err != nil {
			return c, dropped, err
		}
	}
	return c, dropped, nil
}

func (s *Store) Save(ctx context.Context, c Cart) error {
	data, err := Encode(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Put(ctx, s.ns, StorageKey, data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

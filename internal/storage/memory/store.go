// Package memory backs the storefront with a go-memdb database. Write
// transactions take the database's single writer lock, which gives the
// same guarantee the Postgres adapters get from SQL transactions: a cart
// mutation and its ledger adjustment commit together or not at all.
// It serves dev mode and the unit tests.
package memory

import (
	"time"

	memdb "github.com/hashicorp/go-memdb"
)

type Store struct {
	db  *memdb.MemDB
	now func() time.Time
}

func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Per-port facades over the shared database. They exist because the port
// method sets overlap (several define Get); the data underneath is one
// memdb instance, so cross-aggregate transactions still work.

type CatalogRepo struct{ s *Store }

type Ledger struct{ s *Store }

type CartStore struct{ s *Store }

type OrderStore struct{ s *Store }

type FlagStore struct{ s *Store }

type Groups struct{ s *Store }

func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }
func (s *Store) Ledger() *Ledger       { return &Ledger{s: s} }
func (s *Store) Carts() *CartStore     { return &CartStore{s: s} }
func (s *Store) Orders() *OrderStore   { return &OrderStore{s: s} }
func (s *Store) Flags() *FlagStore     { return &FlagStore{s: s} }
func (s *Store) Groups() *Groups       { return &Groups{s: s} }

// Package memory is the in-process DocumentStore. It keeps BSON documents in
// per-collection slices and mints sequential "mock_id_<n>" identifiers.
// Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/document"
	"go.mongodb.org/mongo-driver/bson"
)

// Name identifies this backend.
const Name = "memory"

type collection struct {
	seq  uint64
	docs []bson.Raw
}

// Store is safe for concurrent use; a single mutex serializes writers.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	uniques     map[string][]string
}

// New returns an empty store enforcing the given unique fields.
func New(uniques ...document.Unique) *Store {
	s := &Store{
		collections: make(map[string]*collection),
		uniques:     make(map[string][]string),
	}
	for _, u := range uniques {
		s.uniques[u.Collection] = append(s.uniques[u.Collection], u.Field)
	}
	return s
}

func (s *Store) Name() string { return Name }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// collection returns the named collection, creating it. Callers hold s.mu.
func (s *Store) collection(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{}
		s.collections[name] = c
	}
	return c
}

// Insert appends doc under the next sequence number of the collection.
func (s *Store) Insert(ctx context.Context, coll string, doc any) (ident.ID, error) {
	raw, err := document.Marshal(doc)
	if err != nil {
		return ident.ID{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(coll)
	if err := s.checkUnique(coll, c, raw); err != nil {
		return ident.ID{}, err
	}

	id := ident.Local(c.seq + 1)
	stored, err := document.WithID(raw, id)
	if err != nil {
		return ident.ID{}, fmt.Errorf("%w: insert: %w", common.ErrorStorage, err)
	}

	c.seq++
	c.docs = append(c.docs, stored)
	return id, nil
}

func (s *Store) checkUnique(coll string, c *collection, raw bson.Raw) error {
	for _, field := range s.uniques[coll] {
		v, err := raw.LookupErr(field)
		if err != nil {
			continue
		}
		for _, existing := range c.docs {
			if ev, err := existing.LookupErr(field); err == nil && ev.Equal(v) {
				return fmt.Errorf("%w: %s.%s", common.ErrorAlreadyExists, coll, field)
			}
		}
	}
	return nil
}

// FindOne returns the first document in insertion order matching filter.
func (s *Store) FindOne(ctx context.Context, coll string, filter document.Filter) (bson.Raw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, err := s.indexOf(coll, filter)
	if err != nil {
		return nil, err
	}
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	return document.Clone(s.collections[coll].docs[i]), nil
}

// FindMany returns all matching documents in insertion order.
func (s *Store) FindMany(ctx context.Context, coll string, filter document.Filter) ([]bson.Raw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[coll]
	if !ok {
		return []bson.Raw{}, nil
	}

	out := make([]bson.Raw, 0)
	for _, doc := range c.docs {
		ok, err := document.Matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, document.Clone(doc))
		}
	}
	return out, nil
}

// UpdateOne applies patch to the first match and reports whether one matched.
func (s *Store) UpdateOne(ctx context.Context, coll string, filter document.Filter, patch document.Patch) (bool, error) {
	if err := document.ValidatePatch(patch); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(coll, filter)
	if err != nil || i < 0 {
		return false, err
	}

	c := s.collections[coll]
	updated, err := document.ApplyPatch(c.docs[i], patch)
	if err != nil {
		return false, err
	}
	c.docs[i] = updated
	return true, nil
}

// DeleteOne removes the first match and reports whether one was removed.
func (s *Store) DeleteOne(ctx context.Context, coll string, filter document.Filter) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(coll, filter)
	if err != nil || i < 0 {
		return false, err
	}

	c := s.collections[coll]
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return true, nil
}

// indexOf returns the position of the first match or -1. Callers hold s.mu.
func (s *Store) indexOf(coll string, filter document.Filter) (int, error) {
	c, ok := s.collections[coll]
	if !ok {
		return -1, nil
	}
	for i, doc := range c.docs {
		ok, err := document.Matches(doc, filter)
		if err != nil {
			return -1, err
		}
		if ok {
			return i, nil
		}
	}
	return -1, nil
}

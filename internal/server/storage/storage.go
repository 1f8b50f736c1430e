// Package storage is the persistence façade. Services see collections of
// BSON documents and identifiers; which backend holds them is decided once
// by Open and is visible to callers only through the identifier format.
package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/document"
	"go.mongodb.org/mongo-driver/bson"
)

type (
	// Filter is a conjunction of exact-equality conditions.
	Filter = document.Filter
	// Patch sets the listed fields.
	Patch = document.Patch
)

// DocumentStore is implemented by the memory, mongostore and pgstore backends.
type DocumentStore interface {
	Insert(ctx context.Context, coll string, doc any) (ident.ID, error)
	// FindOne returns common.ErrorNotFound when nothing matches.
	FindOne(ctx context.Context, coll string, filter Filter) (bson.Raw, error)
	FindMany(ctx context.Context, coll string, filter Filter) ([]bson.Raw, error)
	// UpdateOne reports whether a document matched the filter.
	UpdateOne(ctx context.Context, coll string, filter Filter, patch Patch) (bool, error)
	DeleteOne(ctx context.Context, coll string, filter Filter) (bool, error)
	Name() string
	Close(ctx context.Context) error
}

// Collection binds a DocumentStore to one collection name.
type Collection struct {
	store DocumentStore
	name  string
}

func (c Collection) Name() string { return c.name }

// Insert stores doc and returns the identifier minted for it.
func (c Collection) Insert(ctx context.Context, doc any) (ident.ID, error) {
	return c.store.Insert(ctx, c.name, doc)
}

// FindOne decodes the first match into out.
func (c Collection) FindOne(ctx context.Context, filter Filter, out any) error {
	raw, err := c.store.FindOne(ctx, c.name, filter)
	if err != nil {
		return err
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", common.ErrorStorage, c.name, err)
	}
	return nil
}

// FindByID is FindOne on _id.
func (c Collection) FindByID(ctx context.Context, id ident.ID, out any) error {
	return c.FindOne(ctx, Filter{document.IDField: id}, out)
}

func (c Collection) FindMany(ctx context.Context, filter Filter) ([]bson.Raw, error) {
	return c.store.FindMany(ctx, c.name, filter)
}

func (c Collection) UpdateOne(ctx context.Context, filter Filter, patch Patch) (bool, error) {
	return c.store.UpdateOne(ctx, c.name, filter, patch)
}

func (c Collection) DeleteOne(ctx context.Context, filter Filter) (bool, error) {
	return c.store.DeleteOne(ctx, c.name, filter)
}

// DecodeAll unmarshals every document into a T.
func DecodeAll[T any](raws []bson.Raw) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := bson.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", common.ErrorStorage, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Storage vends the application's collections over the selected backend.
type Storage struct {
	store    DocumentStore
	degraded bool
}

// New wraps an already opened store.
func New(store DocumentStore) *Storage {
	return &Storage{store: store}
}

func (s *Storage) Collection(name string) Collection {
	return Collection{store: s.store, name: name}
}

func (s *Storage) Users() Collection  { return s.Collection(common.UsersCollection) }
func (s *Storage) Tasks() Collection  { return s.Collection(common.TasksCollection) }
func (s *Storage) Labels() Collection { return s.Collection(common.LabelsCollection) }

// Backend names the active backend.
func (s *Storage) Backend() Backend { return Backend(s.store.Name()) }

// Degraded reports that auto selection fell back to the in-process store.
func (s *Storage) Degraded() bool { return s.degraded }

func (s *Storage) Close(ctx context.Context) error { return s.store.Close(ctx) }

// Package mongostore is the MongoDB-backed DocumentStore. Identifiers are
// ObjectIDs minted on the client, so they are known before the round trip.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Name identifies this backend.
const Name = "mongo"

// Store wraps a connected client and one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to uri, verifies the server answers within timeout and
// creates the unique indexes. A server that cannot be reached yields an error
// wrapping common.ErrorBackendUnavailable.
func Open(ctx context.Context, uri, database string, timeout time.Duration, uniques ...document.Unique) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", common.ErrorBackendUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %v", common.ErrorBackendUnavailable, err)
	}

	s := &Store{client: client, db: client.Database(database)}

	if err := s.ensureIndexes(ctx, uniques); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context, uniques []document.Unique) error {
	for _, u := range uniques {
		if err := u.Validate(); err != nil {
			return err
		}
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: u.Field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexName(u)),
		}
		if _, err := s.db.Collection(u.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("%w: create index %s: %v", common.ErrorStorage, indexName(u), err)
		}
	}
	return nil
}

func indexName(u document.Unique) string {
	return u.Collection + "_" + u.Field + "_unique"
}

func (s *Store) Name() string { return Name }

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Insert(ctx context.Context, coll string, doc any) (ident.ID, error) {
	raw, err := document.Marshal(doc)
	if err != nil {
		return ident.ID{}, err
	}

	id := ident.Native(primitive.NewObjectID())
	stored, err := document.WithID(raw, id)
	if err != nil {
		return ident.ID{}, wrapErr("insert", err)
	}

	if _, err := s.db.Collection(coll).InsertOne(ctx, stored); err != nil {
		return ident.ID{}, wrapErr("insert", err)
	}
	return id, nil
}

func (s *Store) FindOne(ctx context.Context, coll string, filter document.Filter) (bson.Raw, error) {
	res := s.db.Collection(coll).FindOne(ctx, normalize(filter), options.FindOne().SetSort(bson.D{{Key: document.IDField, Value: 1}}))
	raw, err := res.Raw()
	if err != nil {
		return nil, wrapErr("find one", err)
	}
	return document.Clone(raw), nil
}

func (s *Store) FindMany(ctx context.Context, coll string, filter document.Filter) ([]bson.Raw, error) {
	cur, err := s.db.Collection(coll).Find(ctx, normalize(filter), options.Find().SetSort(bson.D{{Key: document.IDField, Value: 1}}))
	if err != nil {
		return nil, wrapErr("find", err)
	}
	defer cur.Close(ctx)

	out := make([]bson.Raw, 0)
	for cur.Next(ctx) {
		out = append(out, document.Clone(cur.Current))
	}
	if err := cur.Err(); err != nil {
		return nil, wrapErr("find", err)
	}
	return out, nil
}

// UpdateOne reports whether a document matched, even if the patch left it
// unchanged, to agree with the other backends.
func (s *Store) UpdateOne(ctx context.Context, coll string, filter document.Filter, patch document.Patch) (bool, error) {
	if err := document.ValidatePatch(patch); err != nil {
		return false, err
	}
	res, err := s.db.Collection(coll).UpdateOne(ctx, normalize(filter), bson.M{"$set": patch})
	if err != nil {
		return false, wrapErr("update", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) DeleteOne(ctx context.Context, coll string, filter document.Filter) (bool, error) {
	res, err := s.db.Collection(coll).DeleteOne(ctx, normalize(filter))
	if err != nil {
		return false, wrapErr("delete", err)
	}
	return res.DeletedCount > 0, nil
}

// normalize turns a nil filter into the match-all document the driver needs.
func normalize(filter document.Filter) document.Filter {
	if filter == nil {
		return document.Filter{}
	}
	return filter
}

// wrapErr maps driver errors onto the common taxonomy.
func wrapErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return common.ErrorNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s: %v", common.ErrorAlreadyExists, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", common.ErrorStorage, op, err)
	}
}

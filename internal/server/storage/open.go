package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/document"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/memory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/mongostore"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/pgstore"
)

// Backend selects a DocumentStore implementation.
type Backend string

const (
	// BackendAuto tries MongoDB and falls back to memory.
	BackendAuto     Backend = "auto"
	BackendMemory   Backend = memory.Name
	BackendMongo    Backend = mongostore.Name
	BackendPostgres Backend = pgstore.Name
)

// Options configure Open.
type Options struct {
	Backend        Backend
	MongoURI       string
	MongoDatabase  string
	PostgresDSN    string
	ConnectTimeout time.Duration
}

// uniqueFields lists the constraints every backend enforces.
var uniqueFields = []document.Unique{
	{Collection: common.UsersCollection, Field: "email"},
}

var openMongo = func(ctx context.Context, uri, database string, timeout time.Duration, uniques ...document.Unique) (DocumentStore, error) {
	s, err := mongostore.Open(ctx, uri, database, timeout, uniques...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

var openPostgres = func(ctx context.Context, dsn string, timeout time.Duration, uniques ...document.Unique) (DocumentStore, error) {
	s, err := pgstore.Open(ctx, dsn, timeout, uniques...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Open selects the backend once. Explicit backends fail hard; auto probes
// MongoDB within ConnectTimeout and otherwise binds the in-process store,
// logging the degradation once.
func Open(ctx context.Context, opts Options, log logging.Logger) (*Storage, error) {
	log = log.With("module", "storage")

	switch opts.Backend {
	case BackendMemory:
		log.Info(ctx, "storage selected", "backend", BackendMemory)
		return New(memory.New(uniqueFields...)), nil

	case BackendMongo:
		s, err := openMongo(ctx, opts.MongoURI, opts.MongoDatabase, opts.ConnectTimeout, uniqueFields...)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "storage selected", "backend", BackendMongo, "database", opts.MongoDatabase)
		return New(s), nil

	case BackendPostgres:
		s, err := openPostgres(ctx, opts.PostgresDSN, opts.ConnectTimeout, uniqueFields...)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "storage selected", "backend", BackendPostgres)
		return New(s), nil

	case BackendAuto, "":
		s, err := openMongo(ctx, opts.MongoURI, opts.MongoDatabase, opts.ConnectTimeout, uniqueFields...)
		if err == nil {
			log.Info(ctx, "storage selected", "backend", BackendMongo, "database", opts.MongoDatabase)
			return New(s), nil
		}
		log.Warn(ctx, "document database unavailable, using in-memory storage; data will not survive a restart",
			"error", err, "timeout", opts.ConnectTimeout)
		st := New(memory.New(uniqueFields...))
		st.degraded = true
		return st, nil

	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", common.ErrorInvalidInput, opts.Backend)
	}
}

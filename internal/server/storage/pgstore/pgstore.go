// Package pgstore keeps documents in a single Postgres table. The BSON body
// is authoritative; a canonical Extended JSON copy in attrs serves the GIN
// containment prefilter and the unique indexes.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/document"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Name identifies this backend.
const Name = "postgres"

const uniqueViolation = "23505"

// Store is a DocumentStore over database/sql with the pgx driver.
type Store struct {
	db *sql.DB
}

// New wraps an open database. Call Migrate before use.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn, checks the server answers within timeout and
// migrates the schema.
func Open(ctx context.Context, dsn string, timeout time.Duration, uniques ...document.Unique) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", common.ErrorBackendUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", common.ErrorBackendUnavailable, err)
	}

	s := New(db)
	if err := s.Migrate(ctx, uniques...); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations and creates one partial unique
// index per constraint.
func (s *Store) Migrate(ctx context.Context, uniques ...document.Unique) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("%w: goose dialect: %v", common.ErrorStorage, err)
	}
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("%w: migrate: %v", common.ErrorStorage, err)
	}

	for _, u := range uniques {
		if err := u.Validate(); err != nil {
			return err
		}
		// Names are validated identifiers, so interpolation is safe.
		q := fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS documents_%s_%s_unique ON documents ((attrs->'%s')) WHERE collection = '%s'`,
			u.Collection, u.Field, u.Field, u.Collection)
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: create index: %v", common.ErrorStorage, err)
		}
	}
	return nil
}

func (s *Store) Name() string { return Name }

// Close closes the connection pool.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
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
	attrs, err := toJSON(stored)
	if err != nil {
		return ident.ID{}, err
	}

	query :=
		`INSERT INTO documents (collection, id, body, attrs)
		 VALUES ($1, $2, $3, $4::jsonb)`

	if _, err := s.db.ExecContext(ctx, query, coll, id.String(), []byte(stored), attrs); err != nil {
		return ident.ID{}, wrapErr("insert", err)
	}
	return id, nil
}

func (s *Store) FindOne(ctx context.Context, coll string, filter document.Filter) (bson.Raw, error) {
	row, err := s.first(ctx, s.db, coll, filter, false)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, common.ErrorNotFound
	}
	return row.body, nil
}

func (s *Store) FindMany(ctx context.Context, coll string, filter document.Filter) ([]bson.Raw, error) {
	out := make([]bson.Raw, 0)
	err := s.scan(ctx, s.db, coll, filter, false, func(r *stored) bool {
		out = append(out, r.body)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateOne(ctx context.Context, coll string, filter document.Filter, patch document.Patch) (bool, error) {
	if err := document.ValidatePatch(patch); err != nil {
		return false, err
	}

	var matched bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		row, err := s.first(ctx, tx, coll, filter, true)
		if err != nil || row == nil {
			return err
		}
		matched = true

		body, err := document.ApplyPatch(row.body, patch)
		if err != nil {
			return err
		}
		attrs, err := toJSON(body)
		if err != nil {
			return err
		}

		query :=
			`UPDATE documents SET body = $1, attrs = $2::jsonb, updated_at = now()
			 WHERE seq = $3`
		if _, err := tx.ExecContext(ctx, query, []byte(body), attrs, row.seq); err != nil {
			return wrapErr("update", err)
		}
		return nil
	})
	if err != nil {
		return false, txErr("update", err)
	}
	return matched, nil
}

func (s *Store) DeleteOne(ctx context.Context, coll string, filter document.Filter) (bool, error) {
	var deleted bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		row, err := s.first(ctx, tx, coll, filter, true)
		if err != nil || row == nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE seq = $1`, row.seq)
		if err != nil {
			return wrapErr("delete", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrapErr("delete", err)
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, txErr("delete", err)
	}
	return deleted, nil
}

type stored struct {
	seq  int64
	body bson.Raw
}

func (s *Store) first(ctx context.Context, db dbx.DBTX, coll string, filter document.Filter, lock bool) (*stored, error) {
	var found *stored
	err := s.scan(ctx, db, coll, filter, lock, func(r *stored) bool {
		found = r
		return false
	})
	return found, err
}

// scan streams candidate rows narrowed by jsonb containment and hands every
// exact match to yield until it returns false. The containment prefilter is
// looser than BSON equality (arrays, numeric widths) so the body is rechecked.
func (s *Store) scan(ctx context.Context, db dbx.DBTX, coll string, filter document.Filter, lock bool, yield func(*stored) bool) error {
	probe, err := containment(filter)
	if err != nil {
		return err
	}

	query :=
		`SELECT seq, body FROM documents
		 WHERE collection = $1 AND attrs @> $2::jsonb
		 ORDER BY seq`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, err := db.QueryContext(ctx, query, coll, probe)
	if err != nil {
		return wrapErr("select", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := &stored{}
		var body []byte
		if err := rows.Scan(&r.seq, &body); err != nil {
			return wrapErr("scan", err)
		}
		r.body = bson.Raw(body)

		ok, err := document.Matches(r.body, filter)
		if err != nil {
			return err
		}
		if ok && !yield(r) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return wrapErr("select", err)
	}
	return nil
}

// containment builds the jsonb probe from the non-nil filter values. A nil
// value stands for a missing field, which @> cannot express.
func containment(filter document.Filter) (string, error) {
	probe := bson.M{}
	for k, v := range filter {
		if v != nil {
			probe[k] = v
		}
	}
	b, err := bson.MarshalExtJSON(probe, true, false)
	if err != nil {
		return "", fmt.Errorf("%w: filter: %v", common.ErrorInvalidInput, err)
	}
	return string(b), nil
}

func toJSON(raw bson.Raw) (string, error) {
	b, err := bson.MarshalExtJSON(raw, true, false)
	if err != nil {
		return "", fmt.Errorf("%w: encode attrs: %v", common.ErrorInvalidInput, err)
	}
	return string(b), nil
}

// txErr maps a WithTx failure. Errors already in the common taxonomy pass
// through; begin and commit failures are wrapped.
func txErr(op string, err error) error {
	for _, known := range []error{common.ErrorStorage, common.ErrorAlreadyExists, common.ErrorInvalidInput, common.ErrorNotFound} {
		if errors.Is(err, known) {
			return err
		}
	}
	return wrapErr(op, err)
}

// wrapErr maps driver errors onto the common taxonomy.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%w: %s: %s", common.ErrorAlreadyExists, op, pgErr.ConstraintName)
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrorNotFound
	default:
		return fmt.Errorf("%w: %s: %w", common.ErrorStorage, op, err)
	}
}

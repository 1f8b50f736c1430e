// Package storagetest holds the behavioural contract every DocumentStore
// implementation must satisfy.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/ident"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// Store mirrors storage.DocumentStore.
type Store interface {
	Insert(ctx context.Context, coll string, doc any) (ident.ID, error)
	FindOne(ctx context.Context, coll string, filter document.Filter) (bson.Raw, error)
	FindMany(ctx context.Context, coll string, filter document.Filter) ([]bson.Raw, error)
	UpdateOne(ctx context.Context, coll string, filter document.Filter, patch document.Patch) (bool, error)
	DeleteOne(ctx context.Context, coll string, filter document.Filter) (bool, error)
	Name() string
	Close(ctx context.Context) error
}

// Factory returns a fresh, empty store that enforces a unique "email" field
// in the "people" collection.
type Factory func(t *testing.T) Store

type person struct {
	ID    ident.ID `bson:"_id,omitempty"`
	Name  string   `bson:"name"`
	Email string   `bson:"email"`
	Team  string   `bson:"team"`
}

// PeopleUnique is the constraint Factory implementations must configure.
var PeopleUnique = document.Unique{Collection: "people", Field: "email"}

// Run executes the contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("insert then find by id", func(t *testing.T) { testInsertFind(t, newStore(t)) })
	t.Run("find one missing", func(t *testing.T) { testFindMissing(t, newStore(t)) })
	t.Run("find many conjunction", func(t *testing.T) { testFindMany(t, newStore(t)) })
	t.Run("update one", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("delete one", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("unique field", func(t *testing.T) { testUnique(t, newStore(t)) })
	t.Run("collections are isolated", func(t *testing.T) { testIsolation(t, newStore(t)) })
	t.Run("id round trip through display form", func(t *testing.T) { testDisplayRoundTrip(t, newStore(t)) })
}

func insert(t *testing.T, s Store, coll string, p person) ident.ID {
	t.Helper()
	id, err := s.Insert(context.Background(), coll, p)
	require.NoError(t, err)
	require.False(t, id.IsZero())
	return id
}

func decode(t *testing.T, raw bson.Raw) person {
	t.Helper()
	var p person
	require.NoError(t, bson.Unmarshal(raw, &p))
	return p
}

func testInsertFind(t *testing.T, s Store) {
	ctx := context.Background()
	id := insert(t, s, "people", person{Name: "alice", Email: "alice@example.com"})

	raw, err := s.FindOne(ctx, "people", document.Filter{document.IDField: id})
	require.NoError(t, err)

	got := decode(t, raw)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "alice", got.Name)
}

func testFindMissing(t *testing.T, s Store) {
	_, err := s.FindOne(context.Background(), "people", document.Filter{"name": "nobody"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	many, err := s.FindMany(context.Background(), "people", document.Filter{"name": "nobody"})
	require.NoError(t, err)
	assert.Empty(t, many)
}

func testFindMany(t *testing.T, s Store) {
	ctx := context.Background()
	insert(t, s, "people", person{Name: "a", Email: "a@x.io", Team: "red"})
	insert(t, s, "people", person{Name: "b", Email: "b@x.io", Team: "blue"})
	insert(t, s, "people", person{Name: "c", Email: "c@x.io", Team: "red"})

	red, err := s.FindMany(ctx, "people", document.Filter{"team": "red"})
	require.NoError(t, err)
	require.Len(t, red, 2)
	assert.Equal(t, "a", decode(t, red[0]).Name)
	assert.Equal(t, "c", decode(t, red[1]).Name)

	one, err := s.FindMany(ctx, "people", document.Filter{"team": "red", "name": "c"})
	require.NoError(t, err)
	require.Len(t, one, 1)

	all, err := s.FindMany(ctx, "people", document.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testUpdate(t *testing.T, s Store) {
	ctx := context.Background()
	id := insert(t, s, "people", person{Name: "a", Email: "a@x.io", Team: "red"})

	ok, err := s.UpdateOne(ctx, "people", document.Filter{document.IDField: id}, document.Patch{"team": "green"})
	require.NoError(t, err)
	assert.True(t, ok)

	raw, err := s.FindOne(ctx, "people", document.Filter{document.IDField: id})
	require.NoError(t, err)
	got := decode(t, raw)
	assert.Equal(t, "green", got.Team)
	assert.Equal(t, "a", got.Name)

	ok, err = s.UpdateOne(ctx, "people", document.Filter{"name": "ghost"}, document.Patch{"team": "x"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.UpdateOne(ctx, "people", document.Filter{document.IDField: id}, document.Patch{document.IDField: "mock_id_999"})
	assert.ErrorIs(t, err, common.ErrorInvalidInput)
}

func testDelete(t *testing.T, s Store) {
	ctx := context.Background()
	id := insert(t, s, "people", person{Name: "a", Email: "a@x.io"})
	insert(t, s, "people", person{Name: "b", Email: "b@x.io"})

	ok, err := s.DeleteOne(ctx, "people", document.Filter{document.IDField: id})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteOne(ctx, "people", document.Filter{document.IDField: id})
	require.NoError(t, err)
	assert.False(t, ok)

	rest, err := s.FindMany(ctx, "people", nil)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "b", decode(t, rest[0]).Name)
}

func testUnique(t *testing.T, s Store) {
	insert(t, s, "people", person{Name: "a", Email: "dup@x.io"})

	_, err := s.Insert(context.Background(), "people", person{Name: "b", Email: "dup@x.io"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	// Other collections are not constrained.
	insert(t, s, "pets", person{Name: "a", Email: "dup@x.io"})
	insert(t, s, "pets", person{Name: "b", Email: "dup@x.io"})
}

func testIsolation(t *testing.T, s Store) {
	ctx := context.Background()
	insert(t, s, "people", person{Name: "a", Email: "a@x.io"})

	got, err := s.FindMany(ctx, "pets", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testDisplayRoundTrip(t *testing.T, s Store) {
	ctx := context.Background()
	id := insert(t, s, "people", person{Name: "a", Email: "a@x.io"})

	parsed := ident.Parse(id.String())
	assert.Equal(t, id, parsed)

	raw, err := s.FindOne(ctx, "people", document.Filter{document.IDField: parsed})
	require.NoError(t, err)
	assert.Equal(t, id.String(), decode(t, raw).ID.String())
}

// RunConcurrentInserts checks that parallel inserts get distinct ids.
// For sequence-minting stores it also checks the sequence is gap free.
func RunConcurrentInserts(t *testing.T, s Store, n int) []ident.ID {
	t.Helper()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make([]ident.ID, 0, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.Insert(context.Background(), "people", person{Name: fmt.Sprint(i), Email: fmt.Sprintf("%d@x.io", i)})
			assert.NoError(t, err)
			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id.String()], "duplicate id %s", id)
		seen[id.String()] = true
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func bufLogger(t *testing.T) (logging.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := logging.New(&buf, "debug", "json")
	require.NoError(t, err)
	return l, &buf
}

func stubOpeners(t *testing.T, mongoErr, pgErr error) (mongoCalls, pgCalls *int) {
	t.Helper()
	origMongo, origPg := openMongo, openPostgres
	t.Cleanup(func() { openMongo, openPostgres = origMongo, origPg })

	mongoCalls, pgCalls = new(int), new(int)
	openMongo = func(ctx context.Context, uri, database string, timeout time.Duration, uniques ...document.Unique) (DocumentStore, error) {
		*mongoCalls++
		if mongoErr != nil {
			return nil, mongoErr
		}
		return &nativeStore{docs: map[string][]bson.Raw{}}, nil
	}
	openPostgres = func(ctx context.Context, dsn string, timeout time.Duration, uniques ...document.Unique) (DocumentStore, error) {
		*pgCalls++
		if pgErr != nil {
			return nil, pgErr
		}
		return &pgFake{nativeStore{docs: map[string][]bson.Raw{}}}, nil
	}
	return mongoCalls, pgCalls
}

type pgFake struct{ nativeStore }

func (*pgFake) Name() string { return "postgres" }

var errDown = fmt.Errorf("%w: ping: connection refused", common.ErrorBackendUnavailable)

func TestOpen_AutoPrefersMongo(t *testing.T) {
	mongoCalls, _ := stubOpeners(t, nil, nil)
	log, buf := bufLogger(t)

	st, err := Open(context.Background(), Options{Backend: BackendAuto, ConnectTimeout: time.Second}, log)
	require.NoError(t, err)
	assert.Equal(t, BackendMongo, st.Backend())
	assert.False(t, st.Degraded())
	assert.Equal(t, 1, *mongoCalls)
	assert.NotContains(t, buf.String(), `"level":"WARN"`)
}

func TestOpen_AutoFallsBackOnce(t *testing.T) {
	mongoCalls, pgCalls := stubOpeners(t, errDown, nil)
	log, buf := bufLogger(t)

	st, err := Open(context.Background(), Options{ConnectTimeout: time.Second}, log)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, st.Backend())
	assert.True(t, st.Degraded())
	assert.Equal(t, 1, *mongoCalls)
	assert.Equal(t, 0, *pgCalls)
	assert.Equal(t, 1, strings.Count(buf.String(), `"level":"WARN"`))

	// Calls never re-probe.
	ctx := context.Background()
	id, err := st.Users().Insert(ctx, bson.M{"email": "a@x.io"})
	require.NoError(t, err)
	assert.Equal(t, "mock_id_1", id.String())
	assert.Equal(t, 1, *mongoCalls)
}

func TestOpen_ExplicitBackendsFailHard(t *testing.T) {
	stubOpeners(t, errDown, errDown)
	log, _ := bufLogger(t)

	_, err := Open(context.Background(), Options{Backend: BackendMongo}, log)
	assert.ErrorIs(t, err, common.ErrorBackendUnavailable)

	_, err = Open(context.Background(), Options{Backend: BackendPostgres}, log)
	assert.ErrorIs(t, err, common.ErrorBackendUnavailable)
}

func TestOpen_Explicit(t *testing.T) {
	stubOpeners(t, nil, nil)
	log, _ := bufLogger(t)

	st, err := Open(context.Background(), Options{Backend: BackendPostgres}, log)
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, st.Backend())

	st, err = Open(context.Background(), Options{Backend: BackendMemory}, log)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, st.Backend())
	assert.False(t, st.Degraded())
	assert.NoError(t, st.Close(context.Background()))
}

func TestOpen_UnknownBackend(t *testing.T) {
	log, _ := bufLogger(t)
	_, err := Open(context.Background(), Options{Backend: "redis"}, log)
	assert.True(t, errors.Is(err, common.ErrorInvalidInput))
}

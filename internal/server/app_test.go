package server

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.StorageBackend = config.BackendMemory
	c.BcryptCost = 4
	return c
}

func TestNewApp_Memory(t *testing.T) {
	var buf bytes.Buffer
	app, err := NewApp(context.Background(), testConfig(), &buf)
	require.NoError(t, err)
	assert.Equal(t, storage.BackendMemory, app.storage.Backend())
	assert.Contains(t, buf.String(), `"msg":"storage selected"`)
}

func TestNewApp_BadLogLevel(t *testing.T) {
	c := testConfig()
	c.LogLevel = "loud"
	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewApp_StorageError(t *testing.T) {
	orig := openStorage
	t.Cleanup(func() { openStorage = orig })
	openStorage = func(ctx context.Context, opts storage.Options, log logging.Logger) (*storage.Storage, error) {
		return nil, common.ErrorBackendUnavailable
	}

	_, err := NewApp(context.Background(), testConfig(), &bytes.Buffer{})
	assert.True(t, errors.Is(err, common.ErrorBackendUnavailable))
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	app, err := NewApp(context.Background(), testConfig(), &buf)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Contains(t, buf.String(), "App stopped")
}

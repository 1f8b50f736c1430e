// Package server initializes and runs the TaskKeeper API process.
// It selects the storage backend once, wires the services, and serves HTTP
// until SIGINT/SIGTERM, then shuts down gracefully.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/taskkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/labels"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	storage *storage.Storage
	server  *httpapi.Server
}

// openStorage is a seam for tests.
var openStorage = storage.Open

// NewApp builds the application from c, writing logs to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(w, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	st, err := openStorage(ctx, storage.Options{
		Backend:        storage.Backend(c.StorageBackend),
		MongoURI:       c.MongoURI,
		MongoDatabase:  c.MongoDatabase,
		PostgresDSN:    c.DatabaseDSN,
		ConnectTimeout: c.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	hasher := credentials.NewHasher(c.BcryptCost)

	us := services.NewUserService(users.NewDocumentRepository(st.Users()), hasher, tokens, logger)
	ts := services.NewTaskService(tasks.NewDocumentRepository(st.Tasks()), logger)
	ls := services.NewLabelService(labels.NewDocumentRepository(st.Labels()))

	api := httpapi.New(us, ts, ls, st, logger)
	srv := httpapi.NewServer(c.HTTPAddr, api.Router(c.CORSAllowedOrigins),
		c.ReadTimeout, c.WriteTimeout, c.ShutdownTimeout, logger)

	return &App{config: c, logger: logger, storage: st, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a signal arrives, then closes storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"storage", app.storage.Backend(), "degraded", app.storage.Degraded())

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server error", "error", err)
	}

	if cerr := app.storage.Close(context.Background()); cerr != nil {
		app.logger.Error(ctx, "storage close error", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}

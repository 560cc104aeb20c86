package app

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hgcsasdas/FFHS/internal/blobstore"
	"github.com/hgcsasdas/FFHS/internal/config"
	"github.com/hgcsasdas/FFHS/internal/core"
	"github.com/hgcsasdas/FFHS/internal/database"
	"github.com/hgcsasdas/FFHS/internal/server"
	"github.com/hgcsasdas/FFHS/internal/users"
)

// App is the application layer between the CLI and the engine. It
// constructs all dependencies from config, runs startup bootstrap, and
// manages resource lifecycle on Close.
type App struct {
	cfg      *config.Config
	db       *database.SQLiteDatabase
	blobs    core.BlobStore
	Registry *core.Registry
	Store    *core.Store
	Users    *users.Service
	Tokens   *users.TokenIssuer
	logger   core.Logger
	logFile  *os.File
}

// New creates a fully wired App from the given config: it opens the
// database, applies pending migrations, builds the blob store, the engine
// and the user service, and seeds the default admin account. The caller
// must call Close when done.
func New(cfg *config.Config) (*App, error) {
	slogger, logFile, err := newLogger(cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	db, err := database.NewFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.MigrateUp(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	blobs, err := blobstore.NewFromConfig(cfg.Storage)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	clock := core.RealClock{}
	idgen := core.UUIDGenerator{}

	registry := core.NewRegistry(db, blobs, logger, clock, idgen)
	store := core.NewStore(db, blobs, registry, logger, clock, idgen)
	userSvc := users.NewService(db, logger, clock, idgen)

	ttl := time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	tokens := users.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), ttl, clock)

	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		if err := userSvc.EnsureDefaultAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
			db.Close()
			logFile.Close()
			return nil, fmt.Errorf("seeding default admin: %w", err)
		}
	}

	return &App{
		cfg:      cfg,
		db:       db,
		blobs:    blobs,
		Registry: registry,
		Store:    store,
		Users:    userSvc,
		Tokens:   tokens,
		logger:   logger,
		logFile:  logFile,
	}, nil
}

// Serve runs the HTTP server until it fails. It always returns a non-nil
// error, as http.ListenAndServe does.
func (a *App) Serve() error {
	srv := server.New(a.Registry, a.Store, a.Users, a.Tokens, a.logger)
	a.logger.Info("listening", "addr", a.cfg.ListenAddr)
	return http.ListenAndServe(a.cfg.ListenAddr, srv.Handler())
}

// Close releases the database connection and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}

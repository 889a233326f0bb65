package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkraev/crudkit/internal/config"
	"github.com/mkraev/crudkit/internal/crud"
	"github.com/mkraev/crudkit/internal/handler"
	"github.com/mkraev/crudkit/internal/logger"
	"github.com/mkraev/crudkit/internal/model"
	"github.com/mkraev/crudkit/internal/query"
	"github.com/mkraev/crudkit/internal/repository"
	"github.com/mkraev/crudkit/internal/repository/fs"
	"github.com/mkraev/crudkit/internal/repository/postgres"
	"github.com/mkraev/crudkit/internal/repository/sqlite"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("config loading failed: %v", err)
	}

	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("logger initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Album backend per configuration.
	var (
		albums  repository.Resource[model.Album]
		probe   repository.Pinger
		txm     repository.TxManager
		cleanup func()
	)
	switch cfg.CRUD.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Postgres, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("postgres connection failed")
		}
		albums = postgres.NewAlbumResource(pool)
		probe = postgres.NewPinger(pool)
		txm = postgres.NewTxManager(pool)
		cleanup = pool.Close
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("sqlite open failed")
		}
		albums = sqlite.NewAlbumResource(db)
		probe = sqlite.NewPinger(db)
		cleanup = func() { _ = db.Close() }
	default:
		appLogger.Fatal().Str("backend", string(cfg.CRUD.Backend)).Msg("unknown crud backend")
	}
	defer cleanup()

	albumCtl, err := crud.New(crud.Config[model.Album]{
		ModelName:          "albums",
		PrimaryKey:         "id",
		BasePath:           handler.APIV1Prefix + "/albums",
		Fields:             []string{"title", "artist", "genre", "year"},
		PageSize:           cfg.CRUD.PageSize,
		ViewOnSingleResult: cfg.CRUD.ViewOnSingleResult,
		CaseSensitiveMatch: cfg.CRUD.CaseSensitiveMatch,
		NotEqual:           query.Operator(cfg.CRUD.NotEqualOperator),
		Tx:                 txm,
		NewRecord:          func() model.Album { return model.Album{} },
		KeyOf:              func(a model.Album) string { return strconv.FormatInt(a.ID, 10) },
	}, albums, nil, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("album controller wiring failed")
	}

	entryCtl, err := crud.New(crud.Config[model.CatalogEntry]{
		ModelName:          "entries",
		PrimaryKey:         "key",
		BasePath:           handler.APIV1Prefix + "/entries",
		Fields:             []string{"title", "artist", "format"},
		PageSize:           cfg.CRUD.PageSize,
		ViewOnSingleResult: cfg.CRUD.ViewOnSingleResult,
		NewRecord:          func() model.CatalogEntry { return model.CatalogEntry{} },
		KeyOf:              func(e model.CatalogEntry) string { return e.Key },
	}, fs.NewEntryResource(fs.NewCatalogFile(cfg.Catalog.Path)), nil, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("entry controller wiring failed")
	}

	if cfg.Logger.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	handler.Register(engine, probe, albumCtl, entryCtl)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler.MethodOverride(engine),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("backend", string(cfg.CRUD.Backend)).Msg("service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/kvss/internal/adapters/gormstore"
	"github.com/atvirokodosprendimai/kvss/internal/adapters/gormstore/gormdb"
	"github.com/atvirokodosprendimai/kvss/internal/adapters/httpapi"
	"github.com/atvirokodosprendimai/kvss/internal/core/usecase"
	"github.com/atvirokodosprendimai/kvss/internal/metrics"
	"github.com/atvirokodosprendimai/kvss/migrations"
)

type Config struct {
	Addr           string
	DBDriver       string
	DBPath         string
	DBDSN          string
	RequestTimeout time.Duration
	CORSOrigins    []string
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openDB(cfg Config, log *zap.Logger) (*gormdb.DB, error) {
	switch gormdb.Dialect(cfg.DBDriver) {
	case gormdb.SQLite, "":
		return gormdb.OpenSQLite(cfg.DBPath, log)
	case gormdb.Postgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
		return gormdb.OpenPostgres(cfg.DBDSN, gormdb.PostgresOptions{}, log)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

// NewServer opens storage, applies migrations and wires the HTTP API. The
// returned closer releases the database handles.
func NewServer(ctx context.Context, cfg Config, log *zap.Logger) (*http.Server, io.Closer, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := openDB(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB, string(db.Dialect())); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	m := metrics.New()

	registry := usecase.NewRegistryService(gormstore.NewTenantRepository(db), usecase.WithRegistryRecorder(m))
	gate := usecase.NewAccessGate(registry, m)
	pairs := usecase.NewPairService(gormstore.NewPairRepository(db), m)

	handler := httpapi.NewHandler(registry, gate, pairs, m, log.Named("http"), httpapi.Config{
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(log.Named("http")),
	}

	log.Info("storage ready", zap.String("driver", string(db.Dialect())))
	return server, resourceCloser{closers: []io.Closer{db}}, nil
}

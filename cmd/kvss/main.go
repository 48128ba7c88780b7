package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/kvss/internal/app"
	"github.com/atvirokodosprendimai/kvss/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cmd := &cli.Command{
		Name:  "kvss",
		Usage: "Multi-tenant key-value store over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("KVSS_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-driver",
				Value:   "sqlite",
				Sources: cli.EnvVars("KVSS_DB_DRIVER"),
				Usage:   "Storage backend: sqlite or postgres",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Value:   "./kvss.sqlite",
				Sources: cli.EnvVars("KVSS_DB_PATH"),
				Usage:   "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "db-dsn",
				Sources: cli.EnvVars("KVSS_DB_DSN"),
				Usage:   "Postgres connection string",
			},
			&cli.DurationFlag{
				Name:    "request-timeout",
				Value:   5 * time.Second,
				Sources: cli.EnvVars("KVSS_REQUEST_TIMEOUT"),
				Usage:   "Deadline for each API request",
			},
			&cli.StringFlag{
				Name:    "log-env",
				Value:   "production",
				Sources: cli.EnvVars("KVSS_LOG_ENV"),
				Usage:   "Logger flavour: production or development",
			},
			&cli.StringSliceFlag{
				Name:    "cors-origin",
				Value:   []string{"*"},
				Sources: cli.EnvVars("KVSS_CORS_ORIGINS"),
				Usage:   "Allowed CORS origins",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			zl, err := logger.New(c.String("log-env"))
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer func() { _ = zl.Sync() }()

			cfg := app.Config{
				Addr:           c.String("addr"),
				DBDriver:       c.String("db-driver"),
				DBPath:         c.String("db-path"),
				DBDSN:          c.String("db-dsn"),
				RequestTimeout: c.Duration("request-timeout"),
				CORSOrigins:    c.StringSlice("cors-origin"),
			}

			server, closer, err := app.NewServer(ctx, cfg, zl)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					zl.Error("close resources", zap.Error(closeErr))
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				zl.Info("listening", zap.String("addr", cfg.Addr))
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				zl.Info("received signal", zap.String("signal", sig.String()))
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

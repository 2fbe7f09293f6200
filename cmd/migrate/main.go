// Command migrate runs goose migrations against the configured database.
//
//	migrate [up|down|status|version|redo|reset] [args...]
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"moto-dispatch/internal/app"
	"moto-dispatch/internal/config"
	"moto-dispatch/internal/logx"
	"moto-dispatch/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	logger := app.NewLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	command, args := "up", []string(nil)
	if rest := pflag.Args(); len(rest) > 0 {
		command, args = rest[0], rest[1:]
	}

	connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := repository.NewPool(connCtx, cfg.DB.DSN())
	connCancel()
	if err != nil {
		logger.Error("database connection error", logx.Err(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool, command, args...); err != nil {
		logger.Error("migrate failed", logx.String("command", command), logx.Err(err))
		pool.Close()
		os.Exit(1)
	}
	logger.Info("migrate done", logx.String("command", command))
}

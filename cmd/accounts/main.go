package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/middleware/requestlog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("accounts: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := accounts.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.Logging.Level)

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()

	if err := accounts.CreateSchema(ctx, db); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	users := accounts.NewUsersRepository(db)

	if err := accounts.SeedAdmin(ctx, users, cfg.Admin, logger); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	tokens := accounts.NewTokenService([]byte(cfg.Auth.SigningKey), cfg.Auth.TokenTTL, logger)
	auther := accounts.NewAuthenticator(users, tokens).WithLogger(logger)
	gate := accounts.NewAccessGate(users, tokens).WithLogger(logger)
	ctrl := accounts.NewController(users, auther, gate).WithLogger(logger)

	app := fiber.New(fiber.Config{
		AppName:               "accounts",
		DisableStartupMessage: true,
		ErrorHandler:          accounts.ErrorHandler(logger),
	})

	app.Use(requestlog.New(requestlog.Config{Logger: logger}))

	accounts.RegisterRoutes(app, ctrl)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.Server.Addr)
		serveErr <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server stopped: %w", err)
	case sig := <-waitExitSignal():
		logger.Info("received %s, shutting down", sig)
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return nil
}

func waitExitSignal() chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

type logLevel int

const (
	levelDebug logLevel = iota
	levelInfo
	levelWarn
	levelError
)

// appLogger writes leveled lines to stderr. Messages below the configured
// level are dropped.
type appLogger struct {
	level logLevel
}

func newLogger(level string) *appLogger {
	l := &appLogger{level: levelInfo}
	switch strings.ToLower(level) {
	case "debug":
		l.level = levelDebug
	case "", "info":
		l.level = levelInfo
	case "warn", "warning":
		l.level = levelWarn
	case "error":
		l.level = levelError
	}
	return l
}

func (l *appLogger) Debug(format string, args ...any) { l.printf(levelDebug, "DBG", format, args...) }
func (l *appLogger) Info(format string, args ...any)  { l.printf(levelInfo, "INF", format, args...) }
func (l *appLogger) Warn(format string, args ...any)  { l.printf(levelWarn, "WRN", format, args...) }
func (l *appLogger) Error(format string, args ...any) { l.printf(levelError, "ERR", format, args...) }

func (l *appLogger) printf(level logLevel, tag, format string, args ...any) {
	if level < l.level {
		return
	}
	fmt.Fprintf(os.Stderr, "%s [%s] %s\n",
		time.Now().Format(time.RFC3339), tag, fmt.Sprintf(format, args...))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pitchside"
)

var serveFlags struct {
	addr     string
	db       string
	redis    string
	pageSize int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the website",
	Long: `Runs the HTTP server.

Required environment:
  ADMIN_PASSWORD   admin area password
  SESSION_SECRET   session cookie secret

Optional environment:
  SITE_NAME, SITE_URL, SITE_DESCRIPTION, ADDR, DATABASE_PATH, IMAGE_DIR,
  REDIS_URL, PAGE_SIZE, USERS_API_URL, CONTACT_EMAIL, COOKIE_SECURE`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", pitchside.EnvOr("ADDR", ":3000"), "Listen address")
	f.StringVar(&serveFlags.db, "db", pitchside.EnvOr("DATABASE_PATH", "data/pitchside.db"), "SQLite database path")
	f.StringVar(&serveFlags.redis, "redis", pitchside.EnvOr("REDIS_URL", ""), "Redis URL for the shared content cache")
	f.IntVar(&serveFlags.pageSize, "page-size", envInt("PAGE_SIZE", 20), "News posts per page")
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(pitchside.EnvOr(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func runServe(cmd *cobra.Command, args []string) error {
	password, err := pitchside.MustEnv("ADMIN_PASSWORD")
	if err != nil {
		return err
	}
	secret, err := pitchside.MustEnv("SESSION_SECRET")
	if err != nil {
		return err
	}

	app := pitchside.New(pitchside.SiteConfig{
		Name:          pitchside.EnvOr("SITE_NAME", "QuidditchUK"),
		URL:           pitchside.EnvOr("SITE_URL", "http://localhost:3000"),
		Description:   pitchside.EnvOr("SITE_DESCRIPTION", "The national governing body for quadball in the UK"),
		Addr:          serveFlags.addr,
		DatabasePath:  serveFlags.db,
		ImageDir:      pitchside.EnvOr("IMAGE_DIR", ""),
		RedisURL:      serveFlags.redis,
		PageSize:      serveFlags.pageSize,
		ContactEmail:  pitchside.EnvOr("CONTACT_EMAIL", ""),
		UsersAPIURL:   pitchside.EnvOr("USERS_API_URL", ""),
		AdminPassword: password,
		SessionSecret: secret,
		CookieSecure:  pitchside.EnvOr("COOKIE_SECURE", "") == "true",
	}, pitchside.WithLogger(logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		// Start failed before or while listening.
		return errors.Join(err, app.Close())
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil {
		logger.Warn("server stopped", zap.Error(err))
	}
	return nil
}

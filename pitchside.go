// Package pitchside serves a sports governing body's public website from
// CMS documents: composable slice pages, an infinitely scrolling news feed,
// club profiles, a contact relay and a member account page.
//
// Content lives in SQLite behind a read-through cache (in-process or Redis),
// pages are rendered by the views package, and a small admin area edits news
// posts and images.
package pitchside

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pitchside/content"
	"github.com/eringen/pitchside/feed"
	"github.com/eringen/pitchside/slices"
	"github.com/eringen/pitchside/views"
)

// App is the central pitchside application. It wires together the store,
// cache, slice registry, news views, handlers and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Logger  *zap.Logger
	Store   *content.Store
	Cache   *content.Cache
	Slices  *slices.Registry
	Feeds   *feed.Views
	Metrics *Metrics
	Mailer  Mailer
	Users   Users

	redis          *content.RedisBackend
	loginLimiter   *RateLimiter
	contactLimiter *RateLimiter
	stopSweeper    func()
	background     sync.WaitGroup
	customRoutes   []func(*App)
	staticDir      string
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Logger:    zap.NewNop(),
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Mailer == nil {
		a.Mailer = LogMailer{Logger: a.Logger.Named("mail")}
	}
	if a.Users == nil && a.Config.UsersAPIURL != "" {
		a.Users = NewUsersClient(a.Config.UsersAPIURL)
	}
	return a
}

// Setup opens the store and cache, starts the view sweeper and registers
// middleware and routes. Start calls it; tests call it directly and drive
// a.Echo with httptest.
func (a *App) Setup(ctx context.Context) error {
	if a.Config.AdminPassword == "" {
		return errors.New("pitchside: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return errors.New("pitchside: SessionSecret is required")
	}

	store, err := content.NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pitchside: init store: %w", err)
	}
	a.Store = store

	var backend content.Backend = content.NewMemoryBackend(a.Config.CacheTTL)
	if a.Config.RedisURL != "" {
		rb, err := content.NewRedisBackend(ctx, a.Config.RedisURL, "pitchside", a.Config.CacheTTL)
		if err != nil {
			return fmt.Errorf("pitchside: init redis cache: %w", err)
		}
		a.redis = rb
		backend = rb
	}
	a.Cache = content.NewCache(a.Store, backend)

	a.Metrics = NewMetrics()
	a.Feeds = feed.NewViews(a.Config.ViewIdleTime)
	a.Metrics.WatchViews(a.Feeds)
	a.Slices = views.NewRegistry(slices.Multi{
		slices.LogDiagnostics{Logger: a.Logger},
		a.Metrics,
	})

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.contactLimiter = NewRateLimiter(5, 10*time.Minute)

	stop, err := a.Feeds.StartSweeper(a.Config.SweepSchedule, a.sweep)
	if err != nil {
		return fmt.Errorf("pitchside: view sweeper: %w", err)
	}
	a.stopSweeper = stop

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(context.Background()); err != nil {
		return err
	}
	a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded assets are served under /public/ ahead of the site's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/loadmore.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/site.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.Static("/images", a.Config.ImageDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: a.Metrics.Registry,
	}))

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/news/", a.handleNews)
	e.GET("/news/more/", a.handleNewsMore)
	e.GET("/news/:uid/", a.handlePost)
	e.GET("/clubs/", a.handleClubs)
	e.GET("/clubs/:uid/", a.handleClub)
	e.GET("/dashboard/account/info/", a.handleAccountInfo)
	e.POST("/dashboard/account/info/", a.handleAccountUpdate)
	e.POST("/dashboard/account/info/password/", a.handlePasswordUpdate)
	e.GET("/:uid/", a.handlePage)

	// API
	e.GET("/api/news/", a.handleAPINews)
	e.Any("/api/contact/form/", a.handleContact)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/post/:uid/", a.handleAdminPost)
	e.POST("/admin/save/", a.handleAdminSave)
	e.POST("/admin/delete/:uid/", a.handleAdminDelete)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.POST("/admin/images/delete/:filename/", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.contactLimiter != nil {
		a.contactLimiter.Stop()
	}
	a.background.Wait()

	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

// sweep runs on the view sweeper's schedule. Expired cache entries are
// pruned alongside idle news views.
func (a *App) sweep(removedViews int) {
	pruned := a.Cache.Prune()
	if removedViews > 0 || pruned > 0 {
		a.Logger.Debug("swept", zap.Int("news_views", removedViews), zap.Int("cache_entries", pruned))
	}
}

// goBackground runs fn in the background. Close waits for it.
func (a *App) goBackground(fn func()) {
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		fn()
	}()
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or an error if
// it is empty.
func MustEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("pitchside: required environment variable %s is not set", key)
	}
	return v, nil
}

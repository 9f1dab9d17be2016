package pitchside

import (
	"time"

	"go.uber.org/zap"

	"github.com/eringen/pitchside/content"
)

// SiteConfig holds all configuration for a pitchside site.
type SiteConfig struct {
	Name        string // Site name (default "QuidditchUK")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/pitchside.db")
	ImageDir     string // Uploaded images (default "data/images")

	RedisURL string        // Shared content cache; in-process cache when empty
	CacheTTL time.Duration // Content cache TTL (default 5min)

	PageSize      int           // Posts per news page (default 20)
	ViewIdleTime  time.Duration // Drop a news view's pager after this long unused (default 15min)
	SweepSchedule string        // cron schedule of the view sweep (default "@every 1m")

	ContactEmail string // Recipient of the contact form (default "secretary@quidditchuk.org")
	ContactCC    string // Copied on every contact message (default "admin@quidditchuk.org")
	UsersAPIURL  string // Members API; account page is unavailable when empty
	LoginURL     string // Where signed-out members are sent (default "/login/")

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "QuidditchUK"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pitchside.db"
	}
	if c.ImageDir == "" {
		c.ImageDir = "data/images"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.PageSize <= 0 {
		c.PageSize = content.DefaultPageSize
	}
	if c.ViewIdleTime == 0 {
		c.ViewIdleTime = 15 * time.Minute
	}
	if c.SweepSchedule == "" {
		c.SweepSchedule = "@every 1m"
	}
	if c.ContactEmail == "" {
		c.ContactEmail = "secretary@quidditchuk.org"
	}
	if c.ContactCC == "" {
		c.ContactCC = "admin@quidditchuk.org"
	}
	if c.LoginURL == "" {
		c.LoginURL = "/login/"
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for site-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger replaces the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithMailer sets how contact form messages are delivered (default: logged).
func WithMailer(m Mailer) Option {
	return func(a *App) {
		a.Mailer = m
	}
}

// WithUsers sets the members service behind the account page.
func WithUsers(u Users) Option {
	return func(a *App) {
		a.Users = u
	}
}

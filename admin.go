package pitchside

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pitchside/content"
	"github.com/eringen/pitchside/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.site(c.Request().Context()), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminPost(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()
	doc, err := a.Store.GetByUID(ctx, content.TypePost, c.Param("uid"))
	if err != nil {
		if content.IsNotFound(err) {
			return echo.ErrNotFound
		}
		return err
	}
	return Render(c, views.AdminForm(a.site(ctx), content.PostFromDocument(doc), CsrfToken(c)))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("failed admin login", zap.String("ip", ip))
	return Render(c, views.AdminLogin(a.site(c.Request().Context()), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func adminRedirect(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) handleAdminSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()

	title := strings.TrimSpace(c.FormValue("title"))
	uid := strings.TrimSpace(c.FormValue("uid"))
	if uid == "" {
		uid = Slugify(title)
	}
	if uid == "" {
		return adminRedirect(c, "Slug is required. Add a title or slug.")
	}
	date := strings.TrimSpace(c.FormValue("date"))
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return adminRedirect(c, "Invalid date format. Use YYYY-MM-DD.")
	}

	doc := content.Document{
		UID:  uid,
		Type: content.TypePost,
		Date: date,
		Tags: FilterEmpty(strings.Split(c.FormValue("tags"), ",")),
		Data: map[string]any{
			"title":   title,
			"summary": c.FormValue("summary"),
			"image":   strings.TrimSpace(c.FormValue("image")),
			"content": c.FormValue("content"),
		},
	}
	if _, err := a.Store.SaveDocument(ctx, doc); err != nil {
		return err
	}
	a.invalidate(c)
	return adminRedirect(c, "Saved "+title)
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	uid := c.Param("uid")
	if err := a.Store.DeleteDocument(c.Request().Context(), content.TypePost, uid); err != nil {
		return err
	}
	a.invalidate(c)
	return adminRedirect(c, "Deleted "+uid)
}

// invalidate drops cached content after an edit. The store is already
// updated, so a cache failure only delays the change until entries expire.
func (a *App) invalidate(c echo.Context) {
	if err := a.Cache.Invalidate(c.Request().Context()); err != nil {
		a.Logger.Warn("invalidate content cache", zap.Error(err))
	}
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	ctx := c.Request().Context()
	docs, err := a.Store.ListAll(ctx, content.TypePost)
	if err != nil {
		return err
	}
	return Render(c, views.AdminDashboard(a.site(ctx), content.Posts(docs), msg, CsrfToken(c)))
}

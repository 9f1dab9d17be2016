package pitchside

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/pitchside/views"
)

const (
	accountInfoPath   = "/dashboard/account/info/"
	minPasswordLength = 8
)

// handleAccountInfo shows the signed-in member's details with forms to
// change them. The member record and the page chrome are loaded
// concurrently. Members without a valid session token are sent to the
// login page.
func (a *App) handleAccountInfo(c echo.Context) error {
	token := memberToken(c)
	if token == "" || a.Users == nil {
		return a.toLogin(c)
	}

	var (
		user User
		site views.Site
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		user, err = a.Users.GetUser(ctx, token)
		return err
	})
	g.Go(func() error {
		site = a.site(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return a.toLogin(c)
		}
		return err
	}

	meta := views.Meta{
		Title:       "My info",
		Description: "Sign in to " + a.Config.Name + " to manage your membership, account details and more",
	}
	return Render(c, views.AccountInfo(site, meta, views.Account{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Club:      user.Club,
	}, c.QueryParam("msg"), CsrfToken(c)))
}

// handleAccountUpdate saves the "Change your details" form.
func (a *App) handleAccountUpdate(c echo.Context) error {
	token := memberToken(c)
	if token == "" || a.Users == nil {
		return a.toLogin(c)
	}
	update := UserUpdate{
		FirstName: strings.TrimSpace(c.FormValue("first_name")),
		LastName:  strings.TrimSpace(c.FormValue("last_name")),
	}
	if update.FirstName == "" || update.LastName == "" {
		return accountRedirect(c, "First and last name are required.")
	}
	if _, err := a.Users.UpdateUser(c.Request().Context(), token, update); err != nil {
		return a.accountError(c, "update member details", err)
	}
	return accountRedirect(c, "Your details have been updated.")
}

// handlePasswordUpdate saves the "Change your password" form.
func (a *App) handlePasswordUpdate(c echo.Context) error {
	token := memberToken(c)
	if token == "" || a.Users == nil {
		return a.toLogin(c)
	}
	change := PasswordChange{
		Old: c.FormValue("old_password"),
		New: c.FormValue("password"),
	}
	switch {
	case change.Old == "" || change.New == "":
		return accountRedirect(c, "Enter your current and new password.")
	case len(change.New) < minPasswordLength:
		return accountRedirect(c, "Your new password must be at least 8 characters.")
	case change.New != c.FormValue("confirm_password"):
		return accountRedirect(c, "The new passwords do not match.")
	}
	if err := a.Users.UpdatePassword(c.Request().Context(), token, change); err != nil {
		return a.accountError(c, "update member password", err)
	}
	return accountRedirect(c, "Your password has been changed.")
}

func (a *App) toLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, a.Config.LoginURL)
}

func accountRedirect(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, accountInfoPath+"?msg="+url.QueryEscape(msg))
}

// accountError maps a members API failure to a redirect.
func (a *App) accountError(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return a.toLogin(c)
	case errors.Is(err, ErrRejected):
		return accountRedirect(c, "The members service did not accept that change. Check your details and try again.")
	}
	a.Logger.Error(op, zap.Error(err))
	return accountRedirect(c, "We couldn't save your changes. Try again later.")
}

package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/pitchside/content"
)

var adminMeta = Meta{Title: "Admin"}

// AdminLogin renders the password form.
func AdminLogin(site Site, showError bool, csrfToken string) templ.Component {
	return page(site, adminMeta, partial("admin-login", struct {
		ShowError bool
		CSRF      string
	}{showError, csrfToken}))
}

// AdminDashboard lists every post with an empty editor above the list.
func AdminDashboard(site Site, posts []content.Post, message, csrfToken string) templ.Component {
	return page(site, adminMeta, partial("admin-dashboard", struct {
		Posts   []content.Post
		Draft   content.Post
		Message string
		CSRF    string
	}{posts, content.Post{}, message, csrfToken}))
}

// AdminForm renders the editor for one post.
func AdminForm(site Site, post content.Post, csrfToken string) templ.Component {
	return page(site, adminMeta, partial("admin-form", struct {
		Post content.Post
		CSRF string
	}{post, csrfToken}))
}

// AdminImages renders the image library.
func AdminImages(site Site, images []content.Image, csrfToken string) templ.Component {
	return page(site, adminMeta, partial("admin-images", struct {
		Images []content.Image
		CSRF   string
	}{images, csrfToken}))
}

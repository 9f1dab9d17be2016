package views

import (
	"html/template"

	"github.com/eringen/pitchside/content"
)

// Site holds site-wide settings. Every handler passes this to templates so
// nothing is hardcoded.
type Site struct {
	Name        string // SITE_NAME
	URL         string // SITE_URL
	Description string // SITE_DESCRIPTION
	Footer      content.Footer
}

// Meta carries per-page OpenGraph and SEO metadata into the <head> template.
type Meta struct {
	Title       string
	Description string
	Image       string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      template.JS
}

// LoadMore is the trigger element that asks for the next news page. A
// non-empty Error is shown beside it and the trigger becomes a retry.
type LoadMore struct {
	URL   string
	Error string
}

// Account is the signed-in member shown on the account page.
type Account struct {
	FirstName string
	LastName  string
	Email     string
	Club      string
}

type layoutData struct {
	Site Site
	Meta Meta
	Body template.HTML
}

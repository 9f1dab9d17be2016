// Package views holds the site's HTML templates and the view models they
// render. Templates are html/template files with sprig helpers; every page is
// exposed as a templ.Component so handlers render them the same way.
package views

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/a-h/templ"
	"github.com/yuin/goldmark"

	"github.com/eringen/pitchside/content"
	"github.com/eringen/pitchside/slices"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("views").Funcs(funcs()).ParseFS(templateFS, "templates/*.html"))

func funcs() template.FuncMap {
	fm := sprig.HtmlFuncMap()
	fm["field"] = Field
	fm["items"] = Items
	fm["markdown"] = Markdown
	fm["pubdate"] = PubDate
	fm["year"] = func() int { return time.Now().Year() }
	fm["PathEscape"] = PathEscape
	fm["JoinTags"] = JoinTags
	return fm
}

// Field returns the string value of key in fields, or "".
func Field(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// Items returns the repeatable group stored under key.
func Items(fields map[string]any, key string) []map[string]any {
	raw, _ := fields[key].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

var md = goldmark.New()

// Markdown renders CMS rich text. Raw HTML in the source is not passed through.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// PubDate formats a YYYY-MM-DD date for display.
func PubDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("2 January 2006")
}

// partial renders a named template as a component.
func partial(name string, data any) templ.Component {
	return templ.FromGoHTML(templates.Lookup(name), data)
}

// page wraps body in the site layout.
func page(site Site, meta Meta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html, err := templ.ToGoHTML(ctx, body)
		if err != nil {
			return err
		}
		return templates.ExecuteTemplate(w, "layout", layoutData{Site: site, Meta: meta, Body: html})
	})
}

// Page renders resolved CMS sections inside the layout.
func Page(site Site, meta Meta, sections []slices.Section) templ.Component {
	return page(site, meta, slices.Render(sections))
}

// News renders the news listing with a load-more trigger when more pages exist.
func News(site Site, meta Meta, posts []content.Post, more *LoadMore) templ.Component {
	return page(site, meta, partial("news", newsData{Posts: posts, More: more}))
}

// NewsMore renders the posts of one more page plus the next trigger.
func NewsMore(posts []content.Post, more *LoadMore) templ.Component {
	return partial("news-items", newsData{Posts: posts, More: more})
}

type newsData struct {
	Posts []content.Post
	More  *LoadMore
}

// Post renders a single news post with related posts.
func Post(site Site, meta Meta, post content.Post, related []content.Post) templ.Component {
	return page(site, meta, partial("post", struct {
		Post    content.Post
		Related []content.Post
	}{post, related}))
}

// Clubs renders the club finder.
func Clubs(site Site, meta Meta, clubs []content.Club, postcode string) templ.Component {
	return page(site, meta, partial("clubs", struct {
		Clubs    []content.Club
		Postcode string
	}{clubs, strings.ToUpper(strings.TrimSpace(postcode))}))
}

// Club renders a club profile with its latest tagged posts.
func Club(site Site, meta Meta, club content.Club, posts []content.Post) templ.Component {
	return page(site, meta, partial("club", struct {
		Club  content.Club
		Posts []content.Post
	}{club, posts}))
}

// AccountInfo renders the member's account page with the details and
// password forms. msg is the outcome of the last submitted form.
func AccountInfo(site Site, meta Meta, account Account, msg, csrf string) templ.Component {
	return page(site, meta, partial("account-info", struct {
		Account Account
		Msg     string
		CSRF    string
	}{account, msg, csrf}))
}

// NotFound renders the 404 page.
func NotFound(site Site) templ.Component {
	return page(site, Meta{Title: "Page not found"}, partial("not-found", nil))
}

// ServerError renders the 500 page.
func ServerError(site Site) templ.Component {
	return page(site, Meta{Title: "Something went wrong"}, partial("server-error", nil))
}

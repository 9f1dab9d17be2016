package pitchside

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pitchside/content"
	"github.com/eringen/pitchside/slices"
	"github.com/eringen/pitchside/views"
)

// latestNewsCount is how many posts a latest_news section or a club
// profile shows.
const latestNewsCount = 3

// site returns the chrome shared by every page. A missing or unreadable
// footer leaves the footer empty rather than failing the page.
func (a *App) site(ctx context.Context) views.Site {
	s := views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
	}
	doc, err := a.Cache.GetSingle(ctx, content.TypeFooter)
	switch {
	case err == nil:
		s.Footer = content.FooterFromDocument(doc)
	case !content.IsNotFound(err):
		a.Logger.Warn("load footer", zap.Error(err))
	}
	return s
}

func (a *App) latestPosts(ctx context.Context, n int, tags []string) ([]content.Post, error) {
	resp, err := a.Cache.QueryByType(ctx, content.TypePost, content.Query{
		Ordering: content.DateDesc,
		PageSize: n,
		Page:     1,
		Tags:     tags,
	})
	if err != nil {
		return nil, err
	}
	return content.Posts(resp.Results), nil
}

// sliceContext loads what the blocks' renderers need beyond their own
// fields. Latest posts are only queried when a latest_news block is present.
func (a *App) sliceContext(ctx context.Context, blocks []content.Block) (slices.Context, error) {
	for _, b := range blocks {
		if b.Type != views.SliceLatestNews {
			continue
		}
		posts, err := a.latestPosts(ctx, latestNewsCount, nil)
		if err != nil {
			return slices.Context{}, err
		}
		return slices.Context{Posts: posts}, nil
	}
	return slices.Context{}, nil
}

func (a *App) documentMeta(doc content.Document, fallbackTitle string) views.Meta {
	m := views.Meta{
		Title:       doc.String("meta_title"),
		Description: doc.String("meta_description"),
		Image:       doc.String("meta_image"),
	}
	if m.Title == "" {
		m.Title = fallbackTitle
	}
	return m
}

// renderDocument resolves a slice document and renders it in the layout.
func (a *App) renderDocument(c echo.Context, doc content.Document, meta views.Meta) error {
	ctx := c.Request().Context()
	sctx, err := a.sliceContext(ctx, doc.Slices)
	if err != nil {
		return err
	}
	sections := a.Slices.Resolve(doc.Slices, sctx)
	return Render(c, views.Page(a.site(ctx), meta, sections))
}

func (a *App) handleHome(c echo.Context) error {
	doc, err := a.Cache.GetSingle(c.Request().Context(), content.TypeHome)
	if err != nil {
		if content.IsNotFound(err) {
			return echo.ErrNotFound
		}
		return err
	}
	meta := a.documentMeta(doc, "")
	meta.URL = BuildURL(a.Config.URL)
	meta.JSONLD = views.WebsiteJsonLD(a.site(c.Request().Context()))
	return a.renderDocument(c, doc, meta)
}

func (a *App) handlePage(c echo.Context) error {
	uid := c.Param("uid")
	doc, err := a.Cache.GetByUID(c.Request().Context(), content.TypePage, uid)
	if err != nil {
		if content.IsNotFound(err) {
			return echo.ErrNotFound
		}
		return err
	}
	meta := a.documentMeta(doc, doc.String("title"))
	meta.URL = BuildURL(a.Config.URL, uid)
	return a.renderDocument(c, doc, meta)
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")
	doc, err := a.Cache.GetByUID(ctx, content.TypePost, uid)
	if err != nil {
		if content.IsNotFound(err) {
			return echo.ErrNotFound
		}
		return err
	}
	post := content.PostFromDocument(doc)

	var related []content.Post
	if len(post.Tags) > 0 {
		recent, err := a.latestPosts(ctx, a.Config.PageSize, post.Tags)
		if err != nil {
			return err
		}
		related = FilterRelatedPosts(post, recent, latestNewsCount)
	}

	site := a.site(ctx)
	meta := views.Meta{
		Title:       post.Title,
		Description: post.Summary,
		Image:       post.Image,
		URL:         BuildURL(a.Config.URL, "news", uid),
		OGType:      "article",
		JSONLD:      views.NewsArticleJsonLD(site, post),
	}
	return Render(c, views.Post(site, meta, post, related))
}

func (a *App) handleClubs(c echo.Context) error {
	ctx := c.Request().Context()
	resp, err := a.Cache.QueryByType(ctx, content.TypeClub, content.Query{
		Ordering: content.DateDesc,
		PageSize: 100,
		Page:     1,
	})
	if err != nil {
		return err
	}
	clubs := make([]content.Club, 0, len(resp.Results))
	for _, d := range resp.Results {
		clubs = append(clubs, content.ClubFromDocument(d))
	}
	sort.SliceStable(clubs, func(i, j int) bool {
		return strings.ToLower(clubs[i].Name) < strings.ToLower(clubs[j].Name)
	})
	meta := views.Meta{
		Title:       "Find a club",
		Description: "Find a quadball club near you.",
		URL:         BuildURL(a.Config.URL, "clubs"),
	}
	return Render(c, views.Clubs(a.site(ctx), meta, clubs, c.QueryParam("postcode")))
}

func (a *App) handleClub(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("uid")
	doc, err := a.Cache.GetByUID(ctx, content.TypeClub, uid)
	if err != nil {
		if content.IsNotFound(err) {
			return echo.ErrNotFound
		}
		return err
	}
	club := content.ClubFromDocument(doc)

	var posts []content.Post
	if len(club.Tags) > 0 {
		posts, err = a.latestPosts(ctx, latestNewsCount, club.Tags)
		if err != nil {
			return err
		}
	}

	site := a.site(ctx)
	meta := views.Meta{
		Title:       club.Name,
		Description: club.Name + " is a " + club.League + " quadball club.",
		Image:       club.Cover(),
		URL:         BuildURL(a.Config.URL, "clubs", uid),
		JSONLD:      views.SportsTeamJsonLD(site, club),
	}
	return Render(c, views.Club(site, meta, club, posts))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	var docs []content.Document
	for _, t := range []string{content.TypePage, content.TypePost, content.TypeClub} {
		d, err := a.Store.ListAll(ctx, t)
		if err != nil {
			return err
		}
		docs = append(docs, d...)
	}
	return a.renderSitemap(c, docs)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.latestPosts(c.Request().Context(), a.Config.PageSize, nil)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.site(c.Request().Context())))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.Error(err), zap.String("uri", c.Request().RequestURI))
		_ = RenderStatus(c, code, views.ServerError(a.site(c.Request().Context())))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

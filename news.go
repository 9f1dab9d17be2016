package pitchside

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pitchside/content"
	"github.com/eringen/pitchside/feed"
	"github.com/eringen/pitchside/views"
)

const loadMoreError = "We couldn't load more news. Check your connection and try again."

// fetchNews is the feed.PageFunc for the news list.
func (a *App) fetchNews(ctx context.Context, page int) ([]content.Post, error) {
	resp, err := a.Cache.QueryByType(ctx, content.TypePost, content.Query{
		Ordering: content.DateDesc,
		PageSize: a.Config.PageSize,
		Page:     page,
	})
	if err != nil {
		return nil, err
	}
	return content.Posts(resp.Results), nil
}

func moreURL(viewID string, page int) string {
	q := url.Values{}
	if viewID != "" {
		q.Set("view", viewID)
	}
	q.Set("page", strconv.Itoa(page))
	return "/news/more/?" + q.Encode()
}

// requestPage fetches page on p if it is still the pager's next page.
func (a *App) requestPage(ctx context.Context, p *feed.Pager, page int) (bool, error) {
	fetched, err := p.RequestPage(ctx, page)
	a.Metrics.ObserveFetch(fetched, err)
	return fetched, err
}

// newsPageInRange reports whether page can hold posts or is the empty page
// just past the end. Pages beyond that never reach the cache or the store.
func (a *App) newsPageInRange(ctx context.Context, page int) (bool, error) {
	if page == 1 {
		return true, nil
	}
	resp, err := a.Cache.QueryByType(ctx, content.TypePost, content.Query{
		Ordering: content.DateDesc,
		PageSize: a.Config.PageSize,
		Page:     1,
	})
	if err != nil {
		return false, err
	}
	return page <= resp.TotalPages+1, nil
}

// handleNews renders the first page of news. While more pages may exist the
// pager is kept in a.Feeds and the page carries a trigger pointing at it.
func (a *App) handleNews(c echo.Context) error {
	ctx := c.Request().Context()
	p := feed.New(a.fetchNews, a.Config.PageSize)
	if _, err := a.requestPage(ctx, p, 1); err != nil {
		return err
	}

	snap := p.Snapshot()
	var more *views.LoadMore
	if snap.HasMore {
		id := a.Feeds.Add(p)
		more = &views.LoadMore{URL: moreURL(id, snap.NextPage)}
	}
	meta := views.Meta{
		Title:       "News",
		Description: "The latest news from " + a.Config.Name,
		URL:         BuildURL(a.Config.URL, "news"),
	}
	return Render(c, views.News(a.site(ctx), meta, snap.Posts, more))
}

// handleNewsMore answers a load-more trigger with the posts of its page and
// a fresh trigger, or 204 when the trigger is dropped: the page is already
// fetched or being fetched, or the feed has ended. A failed fetch answers
// with a retry trigger for the same page.
func (a *App) handleNewsMore(c echo.Context) error {
	ctx := c.Request().Context()
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
	}

	id := c.QueryParam("view")
	p, ok := a.Feeds.Get(id)
	if !ok {
		inRange, err := a.newsPageInRange(ctx, page)
		if err != nil {
			return err
		}
		if !inRange {
			return c.NoContent(http.StatusNoContent)
		}
		// expired or restarted: continue from the requested page
		p = feed.New(a.fetchNews, a.Config.PageSize, feed.WithFirstPage(page))
		id = a.Feeds.Add(p)
	}

	fetched, err := a.requestPage(ctx, p, page)
	switch {
	case errors.Is(err, feed.ErrClosed):
		return Render(c, views.NewsMore(nil, &views.LoadMore{URL: moreURL("", page), Error: loadMoreError}))
	case err != nil:
		a.Logger.Warn("load more news", zap.Int("page", page), zap.Error(err))
		return Render(c, views.NewsMore(nil, &views.LoadMore{URL: moreURL(id, page), Error: loadMoreError}))
	case !fetched:
		return c.NoContent(http.StatusNoContent)
	}

	after := p.Snapshot()
	posts := p.Added(page)
	var more *views.LoadMore
	if after.HasMore {
		more = &views.LoadMore{URL: moreURL(id, after.NextPage)}
	} else {
		a.Feeds.Remove(id)
	}
	return Render(c, views.NewsMore(posts, more))
}

// newsPage is the JSON shape of GET /api/news/.
type newsPage struct {
	Results        []content.Post `json:"results"`
	Page           int            `json:"page"`
	ResultsPerPage int            `json:"results_per_page"`
	TotalResults   int            `json:"total_results_size"`
	TotalPages     int            `json:"total_pages"`
}

func (a *App) handleAPINews(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid page %q", v))
		}
		page = n
	}
	ctx := c.Request().Context()
	inRange, err := a.newsPageInRange(ctx, page)
	if err != nil {
		return err
	}
	if !inRange {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("page %d is past the end", page))
	}
	resp, err := a.Cache.QueryByType(ctx, content.TypePost, content.Query{
		Ordering: content.DateDesc,
		PageSize: a.Config.PageSize,
		Page:     page,
	})
	if err != nil {
		return err
	}
	posts := content.Posts(resp.Results)
	for i := range posts {
		posts[i].Content = ""
	}
	return c.JSON(http.StatusOK, newsPage{
		Results:        posts,
		Page:           resp.Page,
		ResultsPerPage: resp.ResultsPerPage,
		TotalResults:   resp.TotalResults,
		TotalPages:     resp.TotalPages,
	})
}

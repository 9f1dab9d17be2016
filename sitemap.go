package pitchside

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pitchside/content"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// documentPath returns the public path segments of a routable document.
func documentPath(d content.Document) []string {
	switch d.Type {
	case content.TypePost:
		return []string{"news", d.UID}
	case content.TypeClub:
		return []string{"clubs", d.UID}
	case content.TypePage:
		return []string{d.UID}
	}
	return nil
}

func (a *App) renderSitemap(c echo.Context, docs []content.Document) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "news")},
		{Loc: BuildURL(base, "clubs")},
	}
	for _, d := range docs {
		segs := documentPath(d)
		if segs == nil {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, segs...),
			LastMod: d.Date,
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}

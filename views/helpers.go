package views

import (
	"encoding/json"
	"html/template"
	"net/url"
	"path"
	"strings"

	"github.com/eringen/pitchside/content"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

func jsonLD(data map[string]any) template.JS {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return template.JS(b)
}

// WebsiteJsonLD produces a Schema.org WebSite block for the home page.
func WebsiteJsonLD(site Site) template.JS {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      buildURL(site.URL),
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	return jsonLD(data)
}

// NewsArticleJsonLD produces a Schema.org NewsArticle block for a post.
func NewsArticleJsonLD(site Site, post content.Post) template.JS {
	postURL := buildURL(site.URL, "news", post.UID)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "NewsArticle",
		"headline":      post.Title,
		"description":   post.Summary,
		"datePublished": post.Date,
		"url":           postURL,
		"publisher": map[string]string{
			"@type": "SportsOrganization",
			"name":  site.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.Image != "" {
		data["image"] = post.Image
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	return jsonLD(data)
}

// SportsTeamJsonLD produces a Schema.org SportsTeam block for a club profile.
func SportsTeamJsonLD(site Site, club content.Club) template.JS {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "SportsTeam",
		"name":     club.Name,
		"sport":    "Quadball",
		"url":      buildURL(site.URL, "clubs", club.UID),
	}
	if club.Icon != "" {
		data["logo"] = club.Icon
	}
	if club.OfficialWebsite != "" {
		data["sameAs"] = club.OfficialWebsite
	}
	if club.Venue != "" {
		data["location"] = map[string]string{"@type": "Place", "name": club.Venue}
	}
	return jsonLD(data)
}

// PathEscape wraps url.PathEscape for use in templates.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// JoinTags formats a tag slice as a comma-separated string for form fields.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// Package content is the CMS query service: documents made of ordered slices,
// the post and club projections the site renders, and the stores that serve them.
package content

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("content: not found")

// Document types known to the site. Other types are stored and served but
// have no dedicated projection.
const (
	TypePost   = "post"
	TypePage   = "page"
	TypeClub   = "club"
	TypeHome   = "home"
	TypeFooter = "footer"
)

// Block is one server-authored section of a page. Type selects the renderer;
// Fields are passed through to it unchanged.
type Block struct {
	Type   string         `json:"slice_type" yaml:"slice_type"`
	Fields map[string]any `json:"fields,omitempty" yaml:"fields"`
}

// Document is a CMS document. Pages carry their sections in Slices; posts and
// clubs keep their payload in Data.
type Document struct {
	ID     string         `json:"id" yaml:"id"`
	UID    string         `json:"uid" yaml:"uid"`
	Type   string         `json:"type" yaml:"type"`
	Date   string         `json:"date" yaml:"date"`
	Tags   []string       `json:"tags,omitempty" yaml:"tags"`
	Data   map[string]any `json:"data,omitempty" yaml:"data"`
	Slices []Block        `json:"slices,omitempty" yaml:"slices"`
}

// String returns a string field from Data, or "" when absent.
func (d Document) String(key string) string {
	s, _ := d.Data[key].(string)
	return s
}

// Ordering selects the sort order of a query. Date descending is the default.
type Ordering int

const (
	DateDesc Ordering = iota
	DateAsc
)

// Query pages through documents of one type.
type Query struct {
	Ordering Ordering
	PageSize int
	Page     int      // 1-based
	Tags     []string // match any
}

// Response is one page of query results.
type Response struct {
	Results        []Document `json:"results"`
	Page           int        `json:"page"`
	ResultsPerPage int        `json:"results_per_page"`
	TotalResults   int        `json:"total_results_size"`
	TotalPages     int        `json:"total_pages"`
}

// Querier is the read side of the CMS.
type Querier interface {
	QueryByType(ctx context.Context, docType string, q Query) (Response, error)
	GetByUID(ctx context.Context, docType, uid string) (Document, error)
	GetSingle(ctx context.Context, docType string) (Document, error)
}

// Post is the news item projection of a post document.
type Post struct {
	ID      string   `json:"id"`
	UID     string   `json:"uid"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Summary string   `json:"summary"`
	Image   string   `json:"image"`
	Tags    []string `json:"tags"`
	Content string   `json:"content,omitempty"`
	Link    string   `json:"link"`
}

// PostFromDocument projects a post document.
func PostFromDocument(d Document) Post {
	return Post{
		ID:      d.ID,
		UID:     d.UID,
		Title:   d.String("title"),
		Date:    d.Date,
		Summary: d.String("summary"),
		Image:   d.String("image"),
		Tags:    d.Tags,
		Content: d.String("content"),
		Link:    "/news/" + d.UID + "/",
	}
}

// Posts projects every document in docs.
func Posts(docs []Document) []Post {
	posts := make([]Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, PostFromDocument(d))
	}
	return posts
}

// ClubActive is the status of a club that is currently playing.
const ClubActive = "active"

// Team is a squad fielded by a club.
type Team struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Club is the profile projection of a club document.
type Club struct {
	ID              string
	UID             string
	Name            string
	League          string // "Community", "University", ...
	Venue           string
	Icon            string
	Images          []string
	FeaturedColor   string
	TextColor       string
	Trainings       string
	Leader          string
	LeaderPosition  string
	OfficialWebsite string
	Status          string
	Facebook        string
	Twitter         string
	Instagram       string
	Youtube         string
	Teams           []Team
	Tags            []string
}

// Active reports whether the club is currently playing.
func (c Club) Active() bool {
	return strings.EqualFold(c.Status, ClubActive)
}

// Cover returns the first club image, or "".
func (c Club) Cover() string {
	if len(c.Images) == 0 {
		return ""
	}
	return c.Images[0]
}

// ClubFromDocument projects a club document.
func ClubFromDocument(d Document) Club {
	c := Club{
		ID:              d.ID,
		UID:             d.UID,
		Name:            d.String("name"),
		League:          d.String("league"),
		Venue:           d.String("venue"),
		Icon:            d.String("icon"),
		Images:          stringList(d.Data["images"]),
		FeaturedColor:   d.String("featured_color"),
		TextColor:       d.String("text_color"),
		Trainings:       d.String("trainings"),
		Leader:          d.String("leader"),
		LeaderPosition:  d.String("leader_position"),
		OfficialWebsite: d.String("official_website"),
		Status:          d.String("status"),
		Facebook:        d.String("social_facebook"),
		Twitter:         d.String("social_twitter"),
		Instagram:       d.String("social_instagram"),
		Youtube:         d.String("social_youtube"),
		Tags:            d.Tags,
	}
	if teams, ok := d.Data["teams"].([]any); ok {
		for _, t := range teams {
			m, ok := t.(map[string]any)
			if !ok {
				continue
			}
			uuid, _ := m["uuid"].(string)
			name, _ := m["name"].(string)
			c.Teams = append(c.Teams, Team{UUID: uuid, Name: name})
		}
	}
	if c.Name == "" {
		c.Name = d.UID
	}
	return c
}

func stringList(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// MenuLink is one entry of a footer menu.
type MenuLink struct {
	Label string
	URL   string
}

// Menu is a titled list of links.
type Menu struct {
	Label string
	Links []MenuLink
}

// Footer is the site-wide footer projection of the footer singleton.
type Footer struct {
	Menus           []Menu
	DisclaimerLabel string
	Disclaimer      string
}

// FooterFromDocument projects the footer singleton. Menus are read from
// menu_1..menu_3 with their _label and _links fields.
func FooterFromDocument(d Document) Footer {
	f := Footer{
		DisclaimerLabel: d.String("disclaimer_label"),
		Disclaimer:      d.String("disclaimer"),
	}
	for _, prefix := range []string{"menu_1", "menu_2", "menu_3"} {
		label := d.String(prefix + "_label")
		links, _ := d.Data[prefix+"_links"].([]any)
		if label == "" && len(links) == 0 {
			continue
		}
		m := Menu{Label: label}
		for _, l := range links {
			lm, ok := l.(map[string]any)
			if !ok {
				continue
			}
			text, _ := lm["link_label"].(string)
			url, _ := lm["link"].(string)
			m.Links = append(m.Links, MenuLink{Label: text, URL: url})
		}
		f.Menus = append(f.Menus, m)
	}
	return f
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pitchside"
	"github.com/eringen/pitchside/content"
	"github.com/eringen/pitchside/feed"
)

var newsFlags struct {
	site string
	all  bool
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Page through a site's news feed",
	Long: `Reads the news feed of a running site from its JSON API, one page at a
time. Press Enter to load the next page, or pass --all to read to the end.`,
	RunE: runNews,
}

func init() {
	f := newsCmd.Flags()
	f.StringVar(&newsFlags.site, "site", pitchside.EnvOr("SITE_URL", "http://localhost:3000"), "Base URL of the site")
	f.BoolVar(&newsFlags.all, "all", false, "Fetch every page without waiting for Enter")
}

// newsResponse is the body of GET /api/news/.
type newsResponse struct {
	Results        []content.Post `json:"results"`
	Page           int            `json:"page"`
	ResultsPerPage int            `json:"results_per_page"`
	TotalPages     int            `json:"total_pages"`
}

type newsClient struct {
	base string
	http *http.Client
}

func (c newsClient) page(ctx context.Context, page int) (newsResponse, error) {
	u := strings.TrimRight(c.base, "/") + "/api/news/?" + url.Values{"page": {strconv.Itoa(page)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return newsResponse{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return newsResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return newsResponse{}, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	var out newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return newsResponse{}, fmt.Errorf("decode news page: %w", err)
	}
	return out, nil
}

func (c newsClient) fetch(ctx context.Context, page int) ([]content.Post, error) {
	resp, err := c.page(ctx, page)
	return resp.Results, err
}

func runNews(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := newsClient{base: newsFlags.site, http: &http.Client{Timeout: 15 * time.Second}}

	// The first page tells us the server's page size.
	first, err := client.page(ctx, 1)
	if err != nil {
		return err
	}
	p := feed.New(client.fetch, first.ResultsPerPage, feed.WithInitialPage(first.Results))

	out := cmd.OutOrStdout()
	printPosts(out, first.Results, 0)
	shown := len(first.Results)

	in := bufio.NewScanner(cmd.InOrStdin())
	for p.HasMore() {
		if !newsFlags.all {
			fmt.Fprint(out, "-- Enter for more, q to quit -- ")
			if !in.Scan() || strings.TrimSpace(in.Text()) == "q" {
				break
			}
		}
		if _, err := p.RequestNextPage(ctx); err != nil {
			logger.Warn("load next page", zap.Error(err))
			fmt.Fprintf(out, "could not load more news: %v\n", err)
			if newsFlags.all {
				return err
			}
			continue
		}
		merged := p.Merged()
		printPosts(out, merged[shown:], shown)
		shown = len(merged)
	}
	fmt.Fprintf(out, "%d posts\n", shown)
	return nil
}

func printPosts(w io.Writer, posts []content.Post, offset int) {
	for i, post := range posts {
		fmt.Fprintf(w, "%3d. %s  %s\n     %s\n", offset+i+1, post.Date, post.Title, post.Link)
	}
}

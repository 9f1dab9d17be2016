package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eringen/pitchside/content"
)

// newsServer serves total posts in pages of size, like GET /api/news/.
func newsServer(t *testing.T, total, size int) (*httptest.Server, func() []int) {
	t.Helper()
	var (
		mu        sync.Mutex
		requested []int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		mu.Lock()
		requested = append(requested, page)
		mu.Unlock()
		var posts []content.Post
		for i := (page - 1) * size; i < total && i < page*size; i++ {
			posts = append(posts, content.Post{ID: strconv.Itoa(i), Title: fmt.Sprintf("Post %d", i+1)})
		}
		_ = json.NewEncoder(w).Encode(newsResponse{Results: posts, Page: page, ResultsPerPage: size})
	}))
	t.Cleanup(srv.Close)
	return srv, func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), requested...)
	}
}

func runNewsCmd(t *testing.T, site string, all bool, stdin string) string {
	t.Helper()
	logger = zap.NewNop()
	newsFlags.site = site
	newsFlags.all = all
	t.Cleanup(func() { newsFlags.all = false })

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	require.NoError(t, runNews(cmd, nil))
	return out.String()
}

func TestNewsReadsEveryPage(t *testing.T) {
	srv, requested := newsServer(t, 7, 3)
	out := runNewsCmd(t, srv.URL, true, "")

	assert.Equal(t, []int{1, 2, 3}, requested())
	assert.Contains(t, out, "Post 7")
	assert.Contains(t, out, "7 posts")
}

func TestNewsStopsAfterEmptyPage(t *testing.T) {
	srv, requested := newsServer(t, 6, 3)
	out := runNewsCmd(t, srv.URL, true, "")

	assert.Equal(t, []int{1, 2, 3}, requested())
	assert.Contains(t, out, "6 posts")
}

func TestNewsWaitsForEnter(t *testing.T) {
	srv, requested := newsServer(t, 10, 3)
	out := runNewsCmd(t, srv.URL, false, "\nq\n")

	assert.Equal(t, []int{1, 2}, requested())
	assert.Contains(t, out, "Post 6")
	assert.NotContains(t, out, "Post 7")
	assert.Contains(t, out, "6 posts")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "pitchside dev\n", out.String())
}

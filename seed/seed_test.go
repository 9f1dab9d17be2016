package seed

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pitchside/content"
	"github.com/eringen/pitchside/views"
)

func TestDefaultLoads(t *testing.T) {
	docs, err := Default()
	require.NoError(t, err)

	byType := map[string]int{}
	for _, d := range docs {
		byType[d.Type]++
	}
	assert.Equal(t, 1, byType[content.TypeHome])
	assert.Equal(t, 1, byType[content.TypeFooter])
	assert.Equal(t, 5, byType[content.TypePost])
	assert.Equal(t, 2, byType[content.TypeClub])
	assert.Equal(t, 2, byType[content.TypePage])
}

func TestDefaultSlicesHaveRenderers(t *testing.T) {
	docs, err := Default()
	require.NoError(t, err)
	renderers := views.Renderers()
	for _, d := range docs {
		for _, b := range d.Slices {
			_, ok := renderers[b.Type]
			assert.True(t, ok, "%s/%s uses %q", d.Type, d.UID, b.Type)
		}
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	store, err := content.NewStore(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	docs, err := Default()
	require.NoError(t, err)
	n, err := Apply(ctx, store, docs)
	require.NoError(t, err)
	assert.Equal(t, len(docs), n)

	// applying twice replaces rather than duplicates
	_, err = Apply(ctx, store, docs)
	require.NoError(t, err)
	posts, err := store.ListAll(ctx, content.TypePost)
	require.NoError(t, err)
	assert.Len(t, posts, 5)
	assert.Equal(t, "british-quadball-cup-2024-results", posts[0].UID)

	home, err := store.GetSingle(ctx, content.TypeHome)
	require.NoError(t, err)
	assert.Len(t, home.Slices, 4)

	footer, err := store.GetSingle(ctx, content.TypeFooter)
	require.NoError(t, err)
	f := content.FooterFromDocument(footer)
	require.Len(t, f.Menus, 3)
	assert.Equal(t, "/clubs/", f.Menus[1].Links[0].URL)

	doc, err := store.GetByUID(ctx, content.TypeClub, "london-unspeakables-quidditch")
	require.NoError(t, err)
	club := content.ClubFromDocument(doc)
	assert.True(t, club.Active())
	assert.Len(t, club.Teams, 3)
	assert.Equal(t, "#381e51", club.FeaturedColor)

	resp, err := store.QueryByType(ctx, content.TypePost, content.Query{PageSize: 3, Page: 1, Tags: club.Tags})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalResults)
}

func TestLoadRejectsDocumentWithoutUID(t *testing.T) {
	fsys := fstest.MapFS{
		"d/a.yaml": {Data: []byte("- type: post\n  data: {title: x}\n")},
	}
	_, err := Load(fsys, "d")
	assert.ErrorContains(t, err, "needs type and uid")
}

func TestLoadReportsBadYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"d/a.yaml": {Data: []byte("- type: [unclosed\n")},
	}
	_, err := Load(fsys, "d")
	assert.ErrorContains(t, err, "d/a.yaml")
}

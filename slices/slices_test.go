package slices

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eringen/pitchside/content"
)

func named(name string) Renderer {
	return func(p Props) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := fmt.Fprintf(w, "[%s:%s:%v:%d]", name, p.Key, p.Fields["title"], len(p.Posts))
			return err
		})
	}
}

type recorder struct{ missing []string }

func (r *recorder) MissingType(t string) { r.missing = append(r.missing, t) }

func render(t *testing.T, sections []Section) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(sections).Render(context.Background(), &buf))
	return buf.String()
}

func TestResolveSkipsUnknownTypes(t *testing.T) {
	diag := &recorder{}
	reg := NewRegistry(map[string]Renderer{"A": named("compA"), "B": named("compB")}, diag)

	sections := reg.Resolve([]content.Block{{Type: "A"}, {Type: "C"}, {Type: "B"}}, Context{})

	require.Len(t, sections, 2)
	assert.Equal(t, "A", sections[0].Type)
	assert.Equal(t, "B", sections[1].Type)
	assert.Equal(t, []string{"C"}, diag.missing)
	assert.Equal(t, "[compA:slice0:<nil>:0][compB:slice2:<nil>:0]", render(t, sections))
}

func TestResolvePreservesOrderAndPassesContext(t *testing.T) {
	reg := NewRegistry(map[string]Renderer{"hero": named("hero"), "latest_news": named("news")}, nil)
	blocks := []content.Block{
		{Type: "latest_news", Fields: map[string]any{"title": "Latest"}},
		{Type: "unknown"},
		{Type: "hero", Fields: map[string]any{"title": "Welcome"}},
		{Type: "latest_news", Fields: map[string]any{"title": "Again"}},
	}
	posts := []content.Post{{ID: "1"}, {ID: "2"}}

	out := render(t, reg.Resolve(blocks, Context{Posts: posts}))
	assert.Equal(t, "[news:slice0:Latest:2][hero:slice2:Welcome:2][news:slice3:Again:2]", out)
}

func TestResolveLengthEqualsRecognisedCount(t *testing.T) {
	reg := NewRegistry(map[string]Renderer{"A": named("a"), "B": named("b")}, nil)
	cases := [][]string{
		{},
		{"X"},
		{"A", "A", "A"},
		{"X", "A", "Y", "B", "Z"},
		{"B", "X", "X", "A"},
	}
	for _, types := range cases {
		var blocks []content.Block
		want := 0
		for _, typ := range types {
			blocks = append(blocks, content.Block{Type: typ})
			if reg.Has(typ) {
				want++
			}
		}
		sections := reg.Resolve(blocks, Context{})
		assert.Len(t, sections, want, "types %v", types)
		var got []string
		for _, s := range sections {
			got = append(got, s.Type)
		}
		var recognised []string
		for _, typ := range types {
			if reg.Has(typ) {
				recognised = append(recognised, typ)
			}
		}
		assert.Equal(t, recognised, got, "types %v", types)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	reg := NewRegistry(map[string]Renderer{"A": named("a"), "B": named("b")}, nil)
	blocks := []content.Block{{Type: "B"}, {Type: "Q"}, {Type: "A", Fields: map[string]any{"title": "x"}}}
	ctx := Context{Posts: []content.Post{{ID: "p"}}}

	first := reg.Resolve(blocks, ctx)
	second := reg.Resolve(blocks, ctx)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
		assert.Equal(t, first[i].Type, second[i].Type)
	}
	assert.Equal(t, render(t, first), render(t, second))
}

func TestRegistryIsCopied(t *testing.T) {
	renderers := map[string]Renderer{"A": named("a")}
	reg := NewRegistry(renderers, nil)
	renderers["B"] = named("b")
	delete(renderers, "A")

	assert.True(t, reg.Has("A"))
	assert.False(t, reg.Has("B"))
}

func TestLogDiagnostics(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reg := NewRegistry(nil, Multi{LogDiagnostics{Logger: zap.New(core)}, Nop{}})

	sections := reg.Resolve([]content.Block{{Type: "carousel"}}, Context{})

	assert.Empty(t, sections)
	entries := logs.FilterMessage("missing slice component").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "carousel", entries[0].ContextMap()["slice_type"])
}

// Package slices turns the ordered content blocks of a CMS document into the
// ordered sections of a rendered page.
//
// A Registry maps block type names to renderers. Blocks whose type has no
// renderer are reported to a Diagnostics sink and left out; the rest of the
// page still renders.
package slices

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/pitchside/content"
)

// Context is auxiliary data handed to every renderer alongside the block's
// own fields, such as the latest news for a "latest_news" block.
type Context struct {
	Posts []content.Post
}

// Props is what a renderer receives for one block.
type Props struct {
	Key    string
	Type   string
	Fields map[string]any
	Posts  []content.Post
}

// Renderer builds the component for one block.
type Renderer func(Props) templ.Component

// Section is one renderable part of a page.
type Section struct {
	Key       string
	Type      string
	Component templ.Component
}

// Diagnostics receives reports about blocks that could not be rendered.
// Implementations must not block.
type Diagnostics interface {
	MissingType(sliceType string)
}

// Registry is an immutable lookup table from block type to renderer.
type Registry struct {
	renderers map[string]Renderer
	diag      Diagnostics
}

// NewRegistry copies renderers into a new Registry. A nil diag discards
// reports.
func NewRegistry(renderers map[string]Renderer, diag Diagnostics) *Registry {
	r := &Registry{
		renderers: make(map[string]Renderer, len(renderers)),
		diag:      diag,
	}
	for k, v := range renderers {
		if v != nil {
			r.renderers[k] = v
		}
	}
	if r.diag == nil {
		r.diag = Nop{}
	}
	return r
}

// Has reports whether sliceType has a renderer.
func (r *Registry) Has(sliceType string) bool {
	_, ok := r.renderers[sliceType]
	return ok
}

// Resolve maps blocks to sections in block order. Keys are derived from the
// block's position in the document, so they stay stable across calls.
func (r *Registry) Resolve(blocks []content.Block, ctx Context) []Section {
	sections := make([]Section, 0, len(blocks))
	for i, b := range blocks {
		render, ok := r.renderers[b.Type]
		if !ok {
			r.diag.MissingType(b.Type)
			continue
		}
		key := "slice" + strconv.Itoa(i)
		sections = append(sections, Section{
			Key:  key,
			Type: b.Type,
			Component: render(Props{
				Key:    key,
				Type:   b.Type,
				Fields: b.Fields,
				Posts:  ctx.Posts,
			}),
		})
	}
	return sections
}

// Render concatenates sections into a single component.
func Render(sections []Section) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, s := range sections {
			if err := s.Component.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

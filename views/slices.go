package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/pitchside/slices"
)

// Slice types with a renderer.
const (
	SliceVideoHeroWithCTA   = "video_hero_with_cta"
	SliceLatestNews         = "latest_news"
	SliceHero               = "hero"
	SliceHeaderAndParagraph = "header_and_paragraph"
	SliceImages             = "images"
	SliceImageAndContent    = "image_and_content"
	SliceCards              = "cards"
	SliceFindQuidditch      = "find_quidditch"
)

var sliceTypes = []string{
	SliceVideoHeroWithCTA,
	SliceLatestNews,
	SliceHero,
	SliceHeaderAndParagraph,
	SliceImages,
	SliceImageAndContent,
	SliceCards,
	SliceFindQuidditch,
}

func sliceRenderer(sliceType string) slices.Renderer {
	name := "slice/" + sliceType
	return func(p slices.Props) templ.Component {
		return partial(name, p)
	}
}

// Renderers returns a renderer for every slice type the site templates know.
func Renderers() map[string]slices.Renderer {
	m := make(map[string]slices.Renderer, len(sliceTypes))
	for _, t := range sliceTypes {
		m[t] = sliceRenderer(t)
	}
	return m
}

// NewRegistry builds the slice registry used by page handlers.
func NewRegistry(diag slices.Diagnostics) *slices.Registry {
	return slices.NewRegistry(Renderers(), diag)
}

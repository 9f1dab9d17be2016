package pitchside

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pitchside/content"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Cup Final 2024", "cup-final-2024"},
		{"  Hello,   World!  ", "hello-world"},
		{"Quadball: what's new?", "quadball-what-s-new"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "https://quidditchuk.org", BuildURL("https://quidditchuk.org"))
	assert.Equal(t, "https://quidditchuk.org/news/cup/", BuildURL("https://quidditchuk.org", "news", "cup"))
	assert.Equal(t, "https://quidditchuk.org/clubs/", BuildURL("https://quidditchuk.org/", "clubs"))
}

func TestFilterEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, FilterEmpty([]string{"a", " ", "", "b"}))
	assert.Nil(t, FilterEmpty([]string{" "}))
}

func TestFilterRelatedPosts(t *testing.T) {
	current := content.Post{UID: "cup", Tags: []string{"Finals"}}
	posts := []content.Post{
		{UID: "cup", Tags: []string{"finals"}},
		{UID: "a", Tags: []string{"finals"}},
		{UID: "b", Tags: []string{"training"}},
		{UID: "c", Tags: []string{"training", " FINALS "}},
		{UID: "d", Tags: []string{"finals"}},
	}

	got := FilterRelatedPosts(current, posts, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].UID)
	assert.Equal(t, "c", got[1].UID)

	assert.Empty(t, FilterRelatedPosts(content.Post{UID: "x"}, posts, 3))
}

func testPNG(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestProcessImageScalesWideImages(t *testing.T) {
	meta, data, err := processImage(testPNG(t, 3200, 800), "Team Photo.PNG")
	require.NoError(t, err)
	assert.Equal(t, "team-photo.jpg", meta.Filename)
	assert.Equal(t, "Team Photo.PNG", meta.OriginalName)
	assert.Equal(t, 1600, meta.Width)
	assert.Equal(t, 400, meta.Height)
	assert.Equal(t, len(data), meta.Size)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Width)
}

func TestProcessImageKeepsSmallImages(t *testing.T) {
	meta, _, err := processImage(testPNG(t, 40, 30), "../../etc/???.png")
	require.NoError(t, err)
	assert.Equal(t, "image.jpg", meta.Filename)
	assert.Equal(t, 40, meta.Width)
	assert.Equal(t, 30, meta.Height)
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, _, err := processImage(bytes.NewBufferString("not an image"), "x.png")
	assert.ErrorContains(t, err, "decode image")
}

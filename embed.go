package pitchside

import "embed"

// EmbeddedAssets contains static assets shipped with the site:
// loadmore.js, site.css
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

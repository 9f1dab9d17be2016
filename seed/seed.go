// Package seed provides the embedded starter content for a new pitchside
// site: the home and footer singletons, a few pages, news posts and clubs.
package seed

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/eringen/pitchside/content"
)

// Data contains the seed documents. Each .yaml file holds a list of
// documents in content.Document's YAML shape.
//
//go:embed data/*.yaml
var Data embed.FS

// Saver stores documents. *content.Store implements it.
type Saver interface {
	SaveDocument(ctx context.Context, d content.Document) (content.Document, error)
}

// Load reads every .yaml file under dir in fsys, in name order.
func Load(fsys fs.FS, dir string) ([]content.Document, error) {
	matches, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var docs []content.Document
	for _, name := range matches {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		var batch []content.Document
		if err := yaml.Unmarshal(b, &batch); err != nil {
			return nil, fmt.Errorf("seed: %s: %w", name, err)
		}
		for i, d := range batch {
			if d.Type == "" || d.UID == "" {
				return nil, fmt.Errorf("seed: %s: document %d needs type and uid", name, i)
			}
		}
		docs = append(docs, batch...)
	}
	return docs, nil
}

// Default returns the embedded seed documents.
func Default() ([]content.Document, error) {
	return Load(Data, "data")
}

// Apply saves docs in order and returns how many were written. Existing
// documents with the same type and uid are replaced.
func Apply(ctx context.Context, s Saver, docs []content.Document) (int, error) {
	for i, d := range docs {
		if _, err := s.SaveDocument(ctx, d); err != nil {
			return i, fmt.Errorf("seed: save %s/%s: %w", d.Type, d.UID, err)
		}
	}
	return len(docs), nil
}

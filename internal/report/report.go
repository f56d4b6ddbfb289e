// Package report renders a comparison result. The JSON renderer writes the
// wire document consumed by release tooling:
//
//	{"changes": [{"changeType": "RemovedMethod", "before": "...", "meta": {...}}]}
//
// The other renderers are views for people.
package report

import (
	"fmt"
	"io"
	"strings"

	"apidiff/internal/breaking"
	"apidiff/internal/errors"
	"apidiff/internal/symbols"
)

// Report is what a renderer draws from. Old and New are only read by the
// listing renderer.
type Report struct {
	Result         *breaking.Result
	Old, New       *symbols.Table
	IncludeSummary bool
}

// Renderer writes one output format.
type Renderer interface {
	Format() string
	Render(w io.Writer, r *Report) error
}

// Renderers returns every supported renderer, JSON first.
func Renderers() []Renderer {
	return []Renderer{
		jsonRenderer{},
		yamlRenderer{},
		humanRenderer{},
		listingRenderer{},
	}
}

// Formats lists the names accepted by For.
func Formats() []string {
	var out []string
	for _, r := range Renderers() {
		out = append(out, r.Format())
	}
	return out
}

// For returns the renderer for format.
func For(format string) (Renderer, error) {
	for _, r := range Renderers() {
		if r.Format() == format {
			return r, nil
		}
	}
	return nil, errors.New(errors.InvalidInput,
		fmt.Sprintf("unknown format %q (want one of %s)", format, strings.Join(Formats(), ", ")), nil)
}

// document is the wire shape shared by the JSON and YAML renderers.
type document struct {
	Changes []breaking.Change `json:"changes" yaml:"changes"`
	Summary *breaking.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func newDocument(r *Report) document {
	doc := document{Changes: r.Result.Changes}
	if doc.Changes == nil {
		doc.Changes = []breaking.Change{}
	}
	if r.IncludeSummary {
		doc.Summary = r.Result.Summary
	}
	return doc
}

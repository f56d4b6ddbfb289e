package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"apidiff/internal/errors"
	"apidiff/internal/symbols"
)

type listingRenderer struct{}

func (listingRenderer) Format() string { return "listing" }

// Render writes a unified diff of the two revisions' API listings.
func (listingRenderer) Render(w io.Writer, r *Report) error {
	if r.Old == nil || r.New == nil {
		return errors.New(errors.InvalidInput, "listing output needs both symbol tables", nil)
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        Listing(r.Old),
		B:        Listing(r.New),
		FromFile: r.Old.Revision,
		ToFile:   r.New.Revision,
		Context:  2,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, diff)
	return err
}

// Listing renders t as sorted lines, one per class and member, each
// ending in a newline.
func Listing(t *symbols.Table) []string {
	var lines []string
	for _, c := range t.Classes() {
		lines = append(lines, fmt.Sprintf("%s %s %s%s\n", c.Visibility, c.Kind, c.FQN, deprecatedMark(c.Deprecated)))
		for _, name := range c.FieldNames() {
			f := c.Fields[name]
			lines = append(lines, fmt.Sprintf("  %s field %s %s%s\n", f.Visibility, f.TypeFull, f.Name, deprecatedMark(f.Deprecated)))
		}
		for _, sig := range c.Signatures() {
			m := c.MethodsBySignature[sig]
			params := make([]string, len(m.Params))
			for i, p := range m.Params {
				params[i] = p.TypeFull + " " + p.Name
			}
			lines = append(lines, fmt.Sprintf("  %s method %s %s(%s)%s\n",
				m.Visibility, m.ReturnTypeFull, m.Name, strings.Join(params, ", "), deprecatedMark(m.Deprecated)))
		}
	}
	return lines
}

func deprecatedMark(d bool) string {
	if d {
		return " @Deprecated"
	}
	return ""
}

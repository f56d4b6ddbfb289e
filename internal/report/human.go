package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"apidiff/internal/breaking"
)

type humanRenderer struct{}

func (humanRenderer) Format() string { return "human" }

// Render prints a summary header followed by the changes grouped by
// impact. Within a group, changes keep their canonical order.
func (humanRenderer) Render(w io.Writer, r *Report) error {
	res := r.Result
	s := res.Summary
	if s == nil {
		s = breaking.Summarize(res.Changes)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "API changes %s -> %s\n", res.OldRevision, res.NewRevision)
	if s.TotalChanges == 0 {
		b.WriteString("No API changes.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "%d changes: %d breaking, %d non-breaking, %d unknown, %d waived\n",
		s.TotalChanges, s.Breaking, s.NonBreaking, s.Unknown, s.Waived)
	fmt.Fprintf(&b, "Suggested version bump: %s\n", s.SemverAdvice)

	groups := []struct {
		title string
		keep  func(breaking.Change) bool
	}{
		{"Breaking", func(c breaking.Change) bool { return !c.Waived && c.Impact == breaking.Breaking }},
		{"Unknown", func(c breaking.Change) bool { return !c.Waived && c.Impact != breaking.Breaking && c.Impact != breaking.NonBreaking }},
		{"Non-breaking", func(c breaking.Change) bool { return !c.Waived && c.Impact == breaking.NonBreaking }},
		{"Waived", func(c breaking.Change) bool { return c.Waived }},
	}
	for _, g := range groups {
		var picked []breaking.Change
		for _, c := range res.Changes {
			if g.keep(c) {
				picked = append(picked, c)
			}
		}
		if len(picked) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", g.title, len(picked))
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		for _, c := range picked {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Kind, symbolOf(c), detail(c))
		}
		tw.Flush()
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func symbolOf(c breaking.Change) string {
	if c.Symbol != "" {
		return c.Symbol
	}
	if c.Before != "" {
		return c.Before
	}
	return c.After
}

func detail(c breaking.Change) string {
	if c.Waived {
		if reason := c.Meta.Text(breaking.MetaWaiverReason); reason != "" {
			return "(" + reason + ")"
		}
		return ""
	}
	switch c.Kind {
	case breaking.AddedClass, breaking.RemovedClass,
		breaking.AddedField, breaking.RemovedField,
		breaking.AddedMethod, breaking.RemovedMethod:
		return ""
	}
	return c.Before + " -> " + c.After
}

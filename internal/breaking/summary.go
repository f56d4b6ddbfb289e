package breaking

import "apidiff/internal/symbols"

// Compare runs the full pipeline on two frozen tables: diff, classify,
// waive, summarize.
func Compare(old, new *symbols.Table, opts CompareOptions) *Result {
	changes := ClassifyAll(Diff(old, new, opts.Diff))
	if opts.Waiver != nil {
		ApplyWaivers(changes, opts.Waiver)
	}
	return &Result{
		OldRevision: old.Revision,
		NewRevision: new.Revision,
		Changes:     changes,
		Summary:     Summarize(changes),
	}
}

// ApplyWaivers marks breaking changes accepted by w. It returns the number
// of changes waived.
func ApplyWaivers(changes []Change, w Waiver) int {
	n := 0
	for i := range changes {
		c := &changes[i]
		if c.Impact != Breaking {
			continue
		}
		reason, ok := w.Waive(*c)
		if !ok {
			continue
		}
		c.Waived = true
		if c.Meta == nil {
			c.Meta = Meta{}
		}
		c.Meta[MetaWaived] = true
		if reason != "" {
			c.Meta[MetaWaiverReason] = reason
		}
		n++
	}
	return n
}

// Summarize counts changes by impact, kind and package and derives the
// semantic version bump. Waived breaking changes are counted as Waived only.
func Summarize(changes []Change) *Summary {
	s := &Summary{
		TotalChanges: len(changes),
		ByKind:       make(map[string]int),
		ByPackage:    make(map[string]int),
	}
	for _, c := range changes {
		s.ByKind[string(c.Kind)]++
		if fqn := c.Meta.Text(MetaFQN); fqn != "" {
			s.ByPackage[symbols.PackageOf(fqn)]++
		}
		switch {
		case c.Waived:
			s.Waived++
		case c.Impact == Breaking:
			s.Breaking++
		case c.Impact == NonBreaking:
			s.NonBreaking++
		default:
			s.Unknown++
		}
		switch c.Kind {
		case AddedClass, AddedField, AddedMethod:
			s.Additions++
		}
	}
	s.SemverAdvice = semverAdvice(s)
	return s
}

func semverAdvice(s *Summary) string {
	switch {
	case s.Breaking > 0:
		return "major"
	case s.Additions > 0:
		return "minor"
	default:
		return "patch"
	}
}

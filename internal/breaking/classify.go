package breaking

import "apidiff/internal/symbols"

// rule classifies the changes it matches.
type rule struct {
	name     string
	matches  func(Change) bool
	classify func(Change) (Impact, Confidence)
}

func fixed(i Impact, c Confidence) func(Change) (Impact, Confidence) {
	return func(Change) (Impact, Confidence) { return i, c }
}

func kindIn(kinds ...ChangeKind) func(Change) bool {
	return func(c Change) bool {
		for _, k := range kinds {
			if c.Kind == k {
				return true
			}
		}
		return false
	}
}

// rules returns the classifier rules in evaluation order. The first match
// decides.
func rules() []rule {
	return []rule{
		{
			name:     "removal",
			matches:  kindIn(RemovedClass, RemovedMethod, RemovedField),
			classify: fixed(Breaking, High),
		},
		{
			name:     "type change",
			matches:  kindIn(ModifiedFieldType, ModifiedMethodReturnType, ModifiedMethodParameterTypes),
			classify: fixed(Breaking, High),
		},
		{
			name:     "addition",
			matches:  kindIn(AddedClass, AddedMethod, AddedField),
			classify: fixed(NonBreaking, High),
		},
		{
			name:     "visibility",
			matches:  kindIn(ModifiedMethodVisibility, ModifiedFieldVisibility),
			classify: classifyVisibility,
		},
		{
			name:     "cosmetic",
			matches:  kindIn(ModifiedMethodParameterNames, ModifiedMethodDeprecation, ModifiedFieldDeprecation),
			classify: fixed(NonBreaking, Medium),
		},
	}
}

// classifyVisibility treats any narrowing of access as breaking.
func classifyVisibility(c Change) (Impact, Confidence) {
	before := symbols.Visibility(c.Before).Rank()
	after := symbols.Visibility(c.After).Rank()
	switch {
	case before < 0 || after < 0:
		return Unknown, Low
	case after < before:
		return Breaking, High
	default:
		return NonBreaking, Medium
	}
}

// Classify returns the impact and confidence of one change. It looks only at
// the change's kind and before/after values.
func Classify(c Change) (Impact, Confidence) {
	for _, r := range rules() {
		if r.matches(c) {
			return r.classify(c)
		}
	}
	return Unknown, Low
}

// ClassifyAll sets Impact and Confidence on every change in place and
// returns the slice.
func ClassifyAll(changes []Change) []Change {
	rs := rules()
	for i := range changes {
		changes[i].Impact, changes[i].Confidence = Unknown, Low
		for _, r := range rs {
			if r.matches(changes[i]) {
				changes[i].Impact, changes[i].Confidence = r.classify(changes[i])
				break
			}
		}
	}
	return changes
}

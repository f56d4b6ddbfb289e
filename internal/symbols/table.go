package symbols

import "sort"

// Table is the symbol table of one revision, keyed by class FQN.
//
// Tables are built by extraction and MergeFrom, then frozen. Mutating a
// frozen table panics; diffing only reads.
type Table struct {
	Revision string

	classes map[string]*ClassSymbol
	frozen  bool
}

// NewTable returns an empty table labelled with revision.
func NewTable(revision string) *Table {
	return &Table{Revision: revision, classes: make(map[string]*ClassSymbol)}
}

// Class looks up a class by FQN.
func (t *Table) Class(fqn string) (*ClassSymbol, bool) {
	c, ok := t.classes[fqn]
	return c, ok
}

// FQNs returns all class FQNs in ascending order.
func (t *Table) FQNs() []string {
	return sortedKeys(t.classes)
}

// Len returns the number of classes.
func (t *Table) Len() int {
	return len(t.classes)
}

// Counts returns the number of classes, fields and signature-unique methods.
func (t *Table) Counts() (classes, fields, methods int) {
	for _, c := range t.classes {
		fields += len(c.Fields)
		methods += len(c.MethodsBySignature)
	}
	return len(t.classes), fields, methods
}

// Freeze marks the table read-only.
func (t *Table) Freeze() {
	t.frozen = true
}

// Frozen reports whether Freeze was called.
func (t *Table) Frozen() bool {
	return t.frozen
}

func (t *Table) mustBeMutable() {
	if t.frozen {
		panic("symbols: mutation of frozen table " + t.Revision)
	}
}

// upsertClass returns the class for fqn, creating it on first sight.
func (t *Table) upsertClass(fqn string) *ClassSymbol {
	t.mustBeMutable()
	c, ok := t.classes[fqn]
	if !ok {
		c = newClass(fqn)
		t.classes[fqn] = c
	}
	return c
}

// Duplicate records a member that lost a first-occurrence-wins collision.
type Duplicate struct {
	FQN    string
	Member string // field name or full signature
	Field  bool
}

// MergeFrom folds other into t under the insert-if-absent law: a class,
// field name or method signature already present in t is kept and the
// incoming one is reported as a duplicate; everything else is inserted.
// Method name buckets always receive the incoming overloads; an overload
// that already lost inside other is carried along without being reported
// again.
//
// For fragments with disjoint keys the result is independent of merge
// order. Colliding keys resolve to whichever fragment was merged first.
func (t *Table) MergeFrom(other *Table) []Duplicate {
	t.mustBeMutable()
	var dups []Duplicate
	for _, fqn := range other.FQNs() {
		dups = append(dups, t.mergeClass(other.classes[fqn])...)
	}
	return dups
}

// AddClass folds a class built outside extraction, such as one decoded
// from a snapshot, into t under the same law as MergeFrom. Only Fields and
// MethodsByName of c are read; signature maps are rebuilt.
func (t *Table) AddClass(c *ClassSymbol) []Duplicate {
	t.mustBeMutable()
	return t.mergeClass(c)
}

func (t *Table) mergeClass(src *ClassSymbol) []Duplicate {
	var dups []Duplicate
	dst := t.upsertClass(src.FQN)
	dst.absorb(src.Kind, src.Modifiers, src.Visibility, src.Deprecated, src.EnclosingFQN)
	for _, n := range src.Nested {
		dst.addNested(n)
	}
	for _, name := range src.FieldNames() {
		if !dst.addField(src.Fields[name]) {
			dups = append(dups, Duplicate{FQN: src.FQN, Member: name, Field: true})
		}
	}
	for _, name := range sortedKeys(src.MethodsByName) {
		// Overloads that already lost inside src were reported when src
		// was built; only src's winners can collide again here.
		seen := make(map[string]bool)
		for _, m := range src.MethodsByName[name] {
			sig := m.FullSignature()
			won := dst.addMethod(m)
			if !won && !seen[sig] {
				dups = append(dups, Duplicate{FQN: src.FQN, Member: sig})
			}
			seen[sig] = true
		}
	}
	return dups
}

// Classes returns the classes in FQN order.
func (t *Table) Classes() []*ClassSymbol {
	out := make([]*ClassSymbol, 0, len(t.classes))
	for _, fqn := range t.FQNs() {
		out = append(out, t.classes[fqn])
	}
	return out
}

// Packages returns the distinct packages in the table, sorted.
func (t *Table) Packages() []string {
	seen := make(map[string]bool)
	for fqn := range t.classes {
		seen[PackageOf(fqn)] = true
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

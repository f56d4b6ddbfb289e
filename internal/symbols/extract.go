package symbols

import (
	"strings"

	"apidiff/internal/decl"
)

// ExtractOptions tunes Extract.
type ExtractOptions struct {
	// SkipPackage drops every type of a file whose package it accepts.
	SkipPackage func(pkg string) bool
}

// ExtractStats counts what one Extract call recorded.
type ExtractStats struct {
	Classes int
	Fields  int
	Methods int
	// Dropped counts members of anonymous or unnamed types.
	Dropped    int
	Skipped    bool
	Duplicates []Duplicate
}

// Extract records the types of f and their members into t.
//
// Classes are inserted or merged by FQN. Fields and methods follow the
// first-occurrence-wins law of MergeFrom; losers are returned as duplicates
// and every method still lands in its name bucket. Members whose owner has
// no FQN are dropped. Extract does no I/O.
func Extract(t *Table, f *decl.File, opts ExtractOptions) ExtractStats {
	var st ExtractStats
	if opts.SkipPackage != nil && opts.SkipPackage(f.Package) {
		st.Skipped = true
		return st
	}
	x := extraction{table: t, stats: &st}
	for _, td := range f.Types {
		x.visit(td, f.Package, nil)
	}
	return st
}

type extraction struct {
	table *Table
	stats *ExtractStats
}

// visit records td. prefix is the package for top-level types and the
// enclosing FQN otherwise.
func (x *extraction) visit(td *decl.TypeDecl, prefix string, outer *decl.TypeDecl) {
	if td == nil {
		return
	}
	if td.Anonymous || td.Name == "" {
		x.stats.Dropped += countMembers(td)
		return
	}

	fqn := td.Name
	if prefix != "" {
		fqn = prefix + "." + td.Name
	}
	enclosing := ""
	if outer != nil {
		enclosing = prefix
	}

	c := x.table.upsertClass(fqn)
	c.absorb(td.Kind, td.Modifiers, VisibilityOf(td.Modifiers, implicitlyPublic(outer)),
		decl.IsDeprecated(td.Annotations, td.Javadoc), enclosing)
	if outer != nil {
		if parent, ok := x.table.Class(enclosing); ok {
			parent.addNested(fqn)
		}
	}
	x.stats.Classes++

	memberPublic := implicitlyPublic(td)
	for _, fd := range td.Fields {
		x.addField(c, td, fd, memberPublic)
	}
	for _, md := range td.Methods {
		x.addMethod(c, td, md, memberPublic)
	}
	for _, nested := range td.Types {
		x.visit(nested, fqn, td)
	}
}

func (x *extraction) addField(c *ClassSymbol, owner *decl.TypeDecl, fd *decl.FieldDecl, implicitPublic bool) {
	typeFull := NormalizeType(fd.Type)
	mods := unionSorted(nil, fd.Modifiers)
	vis := VisibilityOf(fd.Modifiers, implicitPublic)
	if fd.EnumConstant {
		typeFull = owner.Name
		mods = []string{"final", "public", "static"}
		vis = Public
	}
	deprecated := decl.IsDeprecated(fd.Annotations, fd.Javadoc)

	for _, name := range fd.Names {
		if name == "" {
			continue
		}
		f := &FieldSymbol{
			Name:       name,
			Type:       EraseType(typeFull),
			TypeFull:   typeFull,
			Deprecated: deprecated,
			Modifiers:  mods,
			Visibility: vis,
		}
		if c.addField(f) {
			x.stats.Fields++
		} else {
			x.stats.Duplicates = append(x.stats.Duplicates, Duplicate{FQN: c.FQN, Member: name, Field: true})
		}
	}
}

func (x *extraction) addMethod(c *ClassSymbol, owner *decl.TypeDecl, md *decl.MethodDecl, implicitPublic bool) {
	m := &MethodSymbol{
		Name:           md.Name,
		FQN:            c.FQN,
		Deprecated:     decl.IsDeprecated(md.Annotations, md.Javadoc),
		Modifiers:      unionSorted(nil, md.Modifiers),
		Visibility:     VisibilityOf(md.Modifiers, implicitPublic),
		TypeParamCount: len(md.TypeParams),
		Constructor:    md.Constructor,
	}
	if md.Constructor {
		m.Name = owner.Name
		m.ReturnType, m.ReturnTypeFull = "void", "void"
		if owner.Kind == decl.KindEnum && m.Visibility == PackagePrivate {
			m.Visibility = Private
		}
	} else {
		m.ReturnTypeFull = NormalizeType(md.ReturnType)
		m.ReturnType = EraseType(m.ReturnTypeFull)
	}
	if m.Name == "" {
		x.stats.Dropped++
		return
	}

	m.Params = make([]Param, len(md.Params))
	for i, p := range md.Params {
		full := NormalizeType(p.Type)
		if p.Varargs && !strings.HasSuffix(strings.TrimSpace(p.Type), "...") {
			full += "[]"
		}
		m.Params[i] = Param{Name: p.Name, Type: EraseType(full), TypeFull: full}
	}

	if c.addMethod(m) {
		x.stats.Methods++
	} else {
		x.stats.Duplicates = append(x.stats.Duplicates, Duplicate{FQN: c.FQN, Member: m.FullSignature()})
	}
}

func implicitlyPublic(td *decl.TypeDecl) bool {
	return td != nil && (td.Kind == decl.KindInterface || td.Kind == decl.KindAnnotation)
}

func countMembers(td *decl.TypeDecl) int {
	n := len(td.Methods)
	for _, fd := range td.Fields {
		n += len(fd.Names)
	}
	for _, nested := range td.Types {
		n += countMembers(nested)
	}
	return n
}

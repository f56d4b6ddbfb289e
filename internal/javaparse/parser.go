//go:build cgo

// Package javaparse turns Java source files into declaration trees using the
// tree-sitter Java grammar. Method bodies are never descended into.
package javaparse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"apidiff/internal/decl"
	"apidiff/internal/errors"
)

// Parser wraps a tree-sitter parser. A Parser is not safe for concurrent
// use; give each worker its own.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a Java parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Parser{parser: p}
}

// Available reports whether source parsing is compiled in.
func Available() bool {
	return true
}

// Parse parses one compilation unit. A file containing syntax errors is
// rejected with a PARSE_FAILURE error naming the first error line.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*decl.File, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.New(errors.ParseFailure, "tree-sitter parse failed", err).WithPath(path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		return nil, errors.New(errors.ParseFailure, fmt.Sprintf("syntax error near line %d", line), nil).WithPath(path)
	}

	w := walker{src: source}
	f := &decl.File{Path: path}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_declaration":
			f.Package = w.packageName(n)
		default:
			if td := w.typeDecl(n); td != nil {
				f.Types = append(f.Types, td)
			}
		}
	}
	return f, nil
}

type walker struct {
	src []byte
}

func (w walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

func (w walker) packageName(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
			return strings.Join(strings.Fields(w.text(c)), "")
		}
	}
	return ""
}

var typeKinds = map[string]decl.TypeKind{
	"class_declaration":           decl.KindClass,
	"interface_declaration":       decl.KindInterface,
	"enum_declaration":            decl.KindEnum,
	"record_declaration":          decl.KindRecord,
	"annotation_type_declaration": decl.KindAnnotation,
}

// typeDecl converts a type declaration node; other nodes yield nil.
func (w walker) typeDecl(n *sitter.Node) *decl.TypeDecl {
	kind, ok := typeKinds[n.Type()]
	if !ok {
		return nil
	}
	td := &decl.TypeDecl{
		Name:    w.text(n.ChildByFieldName("name")),
		Kind:    kind,
		Javadoc: w.javadoc(n),
	}
	td.Modifiers, td.Annotations = w.modifiers(n)

	if kind == decl.KindRecord {
		w.recordComponents(td, n.ChildByFieldName("parameters"))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.members(td, body)
	}
	if kind == decl.KindRecord {
		w.recordAccessors(td)
	}
	return td
}

// members walks a class, interface, enum or annotation body.
func (w walker) members(td *decl.TypeDecl, body *sitter.Node) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		n := body.NamedChild(i)
		switch n.Type() {
		case "field_declaration", "constant_declaration":
			td.Fields = append(td.Fields, w.fields(n)...)
		case "method_declaration", "constructor_declaration", "compact_constructor_declaration":
			if md := w.method(td, n); md != nil {
				td.Methods = append(td.Methods, md)
			}
		case "annotation_type_element_declaration":
			td.Methods = append(td.Methods, w.annotationElement(n))
		case "enum_constant":
			w.enumConstant(td, n)
		case "enum_body_declarations":
			w.members(td, n)
		default:
			if nested := w.typeDecl(n); nested != nil {
				td.Types = append(td.Types, nested)
			}
		}
	}
}

// fields splits one field declaration into a FieldDecl per run of
// declarators sharing a type; `int a, b[];` gives int a and int[] b.
func (w walker) fields(n *sitter.Node) []*decl.FieldDecl {
	mods, annotations := w.modifiers(n)
	javadoc := w.javadoc(n)
	base := w.typeText(n.ChildByFieldName("type"))

	var out []*decl.FieldDecl
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "variable_declarator" {
			continue
		}
		typ := base
		if dims := c.ChildByFieldName("dimensions"); dims != nil {
			typ += w.text(dims)
		}
		name := w.text(c.ChildByFieldName("name"))
		if last := len(out) - 1; last >= 0 && out[last].Type == typ {
			out[last].Names = append(out[last].Names, name)
			continue
		}
		out = append(out, &decl.FieldDecl{
			Names:       []string{name},
			Type:        typ,
			Modifiers:   mods,
			Annotations: annotations,
			Javadoc:     javadoc,
		})
	}
	return out
}

func (w walker) method(owner *decl.TypeDecl, n *sitter.Node) *decl.MethodDecl {
	md := &decl.MethodDecl{
		Name:    w.text(n.ChildByFieldName("name")),
		Javadoc: w.javadoc(n),
	}
	md.Modifiers, md.Annotations = w.modifiers(n)

	switch n.Type() {
	case "constructor_declaration":
		md.Constructor = true
	case "compact_constructor_declaration":
		// canonical record constructor, already covered by the components
		return nil
	default:
		md.ReturnType = w.typeText(n.ChildByFieldName("type"))
		if dims := n.ChildByFieldName("dimensions"); dims != nil {
			md.ReturnType += w.text(dims)
		}
	}
	md.TypeParams = w.typeParams(n.ChildByFieldName("type_parameters"))
	md.Params = w.params(n.ChildByFieldName("parameters"))
	return md
}

func (w walker) annotationElement(n *sitter.Node) *decl.MethodDecl {
	md := &decl.MethodDecl{
		Name:       w.text(n.ChildByFieldName("name")),
		ReturnType: w.typeText(n.ChildByFieldName("type")),
		Javadoc:    w.javadoc(n),
	}
	md.Modifiers, md.Annotations = w.modifiers(n)
	return md
}

func (w walker) enumConstant(td *decl.TypeDecl, n *sitter.Node) {
	fd := &decl.FieldDecl{
		Names:        []string{w.text(n.ChildByFieldName("name"))},
		EnumConstant: true,
		Javadoc:      w.javadoc(n),
	}
	_, fd.Annotations = w.modifiers(n)
	td.Fields = append(td.Fields, fd)

	if body := n.ChildByFieldName("body"); body != nil {
		anon := &decl.TypeDecl{Anonymous: true}
		w.members(anon, body)
		td.Types = append(td.Types, anon)
	}
}

func (w walker) recordComponents(td *decl.TypeDecl, params *sitter.Node) {
	for _, p := range w.params(params) {
		td.Fields = append(td.Fields, &decl.FieldDecl{
			Names:     []string{p.Name},
			Type:      p.Type,
			Modifiers: []string{"private", "final"},
		})
	}
}

// recordAccessors adds the implicit public accessor of each component that
// the body does not declare itself.
func (w walker) recordAccessors(td *decl.TypeDecl) {
	declared := make(map[string]bool)
	for _, m := range td.Methods {
		if len(m.Params) == 0 {
			declared[m.Name] = true
		}
	}
	for _, f := range td.Fields {
		if !decl.HasModifier(f.Modifiers, "private") || decl.HasModifier(f.Modifiers, "static") {
			continue
		}
		name := f.Names[0]
		if declared[name] {
			continue
		}
		td.Methods = append(td.Methods, &decl.MethodDecl{
			Name:       name,
			ReturnType: f.Type,
			Modifiers:  []string{"public"},
		})
	}
}

func (w walker) params(n *sitter.Node) []decl.Param {
	if n == nil {
		return nil
	}
	var out []decl.Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "formal_parameter":
			typ := w.typeText(c.ChildByFieldName("type"))
			if dims := c.ChildByFieldName("dimensions"); dims != nil {
				typ += w.text(dims)
			}
			out = append(out, decl.Param{Name: w.text(c.ChildByFieldName("name")), Type: typ})
		case "spread_parameter":
			out = append(out, w.spread(c))
		}
	}
	return out
}

// spread handles `String... parts`, whose type and declarator are plain
// children rather than fields.
func (w walker) spread(n *sitter.Node) decl.Param {
	p := decl.Param{Varargs: true}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "modifiers":
		case "variable_declarator":
			p.Name = w.text(c.ChildByFieldName("name"))
		case "identifier":
			p.Name = w.text(c)
		default:
			if p.Type == "" {
				p.Type = w.typeText(c)
			}
		}
	}
	return p
}

func (w walker) typeParams(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "type_parameter" {
			out = append(out, w.text(c))
		}
	}
	return out
}

// typeText returns the declared type with type annotations removed.
func (w walker) typeText(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() != "annotated_type" {
		return w.text(n)
	}
	var parts []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if isAnnotation(c) {
			continue
		}
		parts = append(parts, w.text(c))
	}
	return strings.Join(parts, " ")
}

// modifiers splits a declaration's modifiers node into keywords and
// annotation texts.
func (w walker) modifiers(n *sitter.Node) (mods, annotations []string) {
	var m *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == "modifiers" {
			m = c
			break
		}
	}
	if m == nil {
		return nil, nil
	}
	for i := 0; i < int(m.ChildCount()); i++ {
		c := m.Child(i)
		if isAnnotation(c) {
			annotations = append(annotations, w.text(c))
			continue
		}
		if kw := strings.TrimSpace(w.text(c)); kw != "" {
			mods = append(mods, kw)
		}
	}
	return mods, annotations
}

// javadoc returns the /** */ comment directly preceding n, if any.
func (w walker) javadoc(n *sitter.Node) string {
	prev := n.PrevSibling()
	for prev != nil && prev.Type() == "line_comment" {
		prev = prev.PrevSibling()
	}
	if prev == nil || (prev.Type() != "block_comment" && prev.Type() != "comment") {
		return ""
	}
	if text := w.text(prev); strings.HasPrefix(text, "/**") {
		return text
	}
	return ""
}

func isAnnotation(n *sitter.Node) bool {
	return n.Type() == "marker_annotation" || n.Type() == "annotation"
}

func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.HasError() {
			return firstErrorLine(c)
		}
	}
	return int(n.StartPoint().Row) + 1
}

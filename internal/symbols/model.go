// Package symbols holds the canonical API model of one Java revision: class,
// field and method symbols keyed by fully-qualified name and signature, and
// the extractor that builds them from declaration trees.
package symbols

import (
	"sort"
	"strconv"
	"strings"

	"apidiff/internal/decl"
)

// Visibility is a Java access level.
type Visibility string

const (
	Public         Visibility = "public"
	Protected      Visibility = "protected"
	PackagePrivate Visibility = "default"
	Private        Visibility = "private"
)

// Rank orders access levels from private (0) to public (3). Unknown values
// rank -1.
func (v Visibility) Rank() int {
	switch v {
	case Public:
		return 3
	case Protected:
		return 2
	case PackagePrivate:
		return 1
	case Private:
		return 0
	}
	return -1
}

// VisibilityOf derives the access level from a modifier list.
// implicitPublic applies to interface and annotation members.
func VisibilityOf(mods []string, implicitPublic bool) Visibility {
	switch {
	case decl.HasModifier(mods, "public"):
		return Public
	case decl.HasModifier(mods, "protected"):
		return Protected
	case decl.HasModifier(mods, "private"):
		return Private
	case implicitPublic:
		return Public
	}
	return PackagePrivate
}

// ClassSymbol is a type declaration and its members.
type ClassSymbol struct {
	FQN          string
	Kind         decl.TypeKind
	Modifiers    []string
	Visibility   Visibility
	Deprecated   bool
	EnclosingFQN string
	Nested       []string

	Fields             map[string]*FieldSymbol
	MethodsBySignature map[string]*MethodSymbol
	// MethodsByName lists every overload in insertion order, including
	// declarations that lost a signature collision.
	MethodsByName map[string][]*MethodSymbol
}

func newClass(fqn string) *ClassSymbol {
	return &ClassSymbol{
		FQN:                fqn,
		Kind:               decl.KindClass,
		Fields:             make(map[string]*FieldSymbol),
		MethodsBySignature: make(map[string]*MethodSymbol),
		MethodsByName:      make(map[string][]*MethodSymbol),
	}
}

// Package returns the class FQN up to the first upper-case segment.
func (c *ClassSymbol) Package() string {
	return PackageOf(c.FQN)
}

// FieldNames returns field names in ascending order.
func (c *ClassSymbol) FieldNames() []string {
	return sortedKeys(c.Fields)
}

// Signatures returns method signatures in ascending order.
func (c *ClassSymbol) Signatures() []string {
	return sortedKeys(c.MethodsBySignature)
}

// addField inserts f unless a field with the same name exists. It reports
// whether f was stored.
func (c *ClassSymbol) addField(f *FieldSymbol) bool {
	if _, ok := c.Fields[f.Name]; ok {
		return false
	}
	c.Fields[f.Name] = f
	return true
}

// addMethod appends m to its name bucket and inserts it by signature unless
// that signature is already taken. It reports whether m won the signature.
func (c *ClassSymbol) addMethod(m *MethodSymbol) bool {
	c.MethodsByName[m.Name] = append(c.MethodsByName[m.Name], m)
	sig := m.FullSignature()
	if _, ok := c.MethodsBySignature[sig]; ok {
		return false
	}
	c.MethodsBySignature[sig] = m
	return true
}

// absorb merges a revisit of the same type. Modifiers are unioned, the
// widest visibility is kept and deprecation is sticky, so the result does
// not depend on visit order.
func (c *ClassSymbol) absorb(kind decl.TypeKind, mods []string, vis Visibility, deprecated bool, enclosing string) {
	if kind != "" && c.Kind == decl.KindClass {
		c.Kind = kind
	}
	c.Modifiers = unionSorted(c.Modifiers, mods)
	if vis.Rank() > c.Visibility.Rank() {
		c.Visibility = vis
	}
	c.Deprecated = c.Deprecated || deprecated
	if c.EnclosingFQN == "" {
		c.EnclosingFQN = enclosing
	}
}

func (c *ClassSymbol) addNested(fqn string) {
	c.Nested = unionSorted(c.Nested, []string{fqn})
}

// FieldSymbol is one field or enum constant.
type FieldSymbol struct {
	Name       string
	Type       string
	TypeFull   string
	Deprecated bool
	Modifiers  []string
	Visibility Visibility
}

// Param is a method parameter.
type Param struct {
	Name     string
	Type     string
	TypeFull string
}

// MethodSymbol is a method, constructor or annotation element.
type MethodSymbol struct {
	Name           string
	FQN            string
	ReturnType     string
	ReturnTypeFull string
	Params         []Param
	Deprecated     bool
	Modifiers      []string
	Visibility     Visibility
	TypeParamCount int
	Constructor    bool
}

// FullSignature is the identity key: owner#name(T1,T2) over erased types.
func (m *MethodSymbol) FullSignature() string {
	return m.FQN + "#" + m.Name + "(" + strings.Join(m.ParamTypes(), ",") + ")"
}

// SignatureWithReturn appends ":returnType" to the full signature.
func (m *MethodSymbol) SignatureWithReturn() string {
	return m.FullSignature() + ":" + m.ReturnType
}

// ArityKey groups overloads by name and parameter count.
func (m *MethodSymbol) ArityKey() string {
	return ArityKey(m.Name, len(m.Params))
}

// ParamTypes returns the erased parameter types in order.
func (m *MethodSymbol) ParamTypes() []string {
	out := make([]string, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.Type
	}
	return out
}

// ParamNames returns the parameter names in order.
func (m *MethodSymbol) ParamNames() []string {
	out := make([]string, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.Name
	}
	return out
}

// ArityKey builds "name|count".
func ArityKey(name string, paramCount int) string {
	return name + "|" + strconv.Itoa(paramCount)
}

// PackageOf returns the package part of a type FQN, taking segments up to
// the first one that starts with an upper-case letter.
func PackageOf(fqn string) string {
	parts := strings.Split(fqn, ".")
	for i, p := range parts {
		if p != "" && p[0] >= 'A' && p[0] <= 'Z' {
			return strings.Join(parts[:i], ".")
		}
	}
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[:i]
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unionSorted(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Package decl is the parsed declaration tree symbol extraction consumes.
//
// It is produced by the Java source parser and by the SCIP index reader and
// carries exactly what the API model needs: names, declared type text,
// modifiers, annotations and javadoc presence. It holds no method bodies.
package decl

import "strings"

// TypeKind is the declaration keyword of a type.
type TypeKind string

const (
	KindClass      TypeKind = "class"
	KindInterface  TypeKind = "interface"
	KindEnum       TypeKind = "enum"
	KindRecord     TypeKind = "record"
	KindAnnotation TypeKind = "annotation"
)

// File is one compilation unit.
type File struct {
	Path    string
	Package string
	Types   []*TypeDecl
}

// TypeDecl is a class, interface, enum, record or annotation declaration.
// Anonymous and local classes are flagged so their members can be dropped.
type TypeDecl struct {
	Name        string
	Kind        TypeKind
	Modifiers   []string
	Annotations []string
	Javadoc     string
	Anonymous   bool

	Fields  []*FieldDecl
	Methods []*MethodDecl
	Types   []*TypeDecl
}

// FieldDecl is one field declaration statement. `int a, b;` binds two names.
// Enum constants are FieldDecls with EnumConstant set.
type FieldDecl struct {
	Names        []string
	Type         string
	Modifiers    []string
	Annotations  []string
	Javadoc      string
	EnumConstant bool
}

// MethodDecl is a method, constructor or annotation element.
type MethodDecl struct {
	Name        string
	Constructor bool
	ReturnType  string
	Params      []Param
	TypeParams  []string
	Modifiers   []string
	Annotations []string
	Javadoc     string
}

// Param is one formal parameter.
type Param struct {
	Name    string
	Type    string
	Varargs bool
}

// HasModifier reports whether mods contains m.
func HasModifier(mods []string, m string) bool {
	for _, x := range mods {
		if x == m {
			return true
		}
	}
	return false
}

// IsDeprecated reports a @Deprecated annotation (simple or qualified name,
// with or without arguments) or a @deprecated javadoc tag.
func IsDeprecated(annotations []string, javadoc string) bool {
	for _, a := range annotations {
		a = strings.TrimPrefix(strings.TrimSpace(a), "@")
		if i := strings.IndexByte(a, '('); i >= 0 {
			a = a[:i]
		}
		if a == "Deprecated" || a == "java.lang.Deprecated" {
			return true
		}
	}
	return strings.Contains(javadoc, "@deprecated")
}

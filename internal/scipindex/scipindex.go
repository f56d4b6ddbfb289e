// Package scipindex reads a SCIP index produced by a Java indexer and
// rebuilds declaration trees from the signatures it records, so a revision
// can be diffed from its index alone.
package scipindex

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"apidiff/internal/decl"
	"apidiff/internal/errors"
)

// Ext is the file extension recognised as a SCIP source.
const Ext = ".scip"

// Parser turns Java source into a declaration tree.
type Parser interface {
	Parse(ctx context.Context, path string, source []byte) (*decl.File, error)
}

// Index is the Java content of one SCIP index.
type Index struct {
	Tool     string
	Files    []*decl.File
	Failures []error
}

// Load reads the index at path. Every Java document is rendered as a stub
// compilation unit holding only the recorded signatures and handed to p.
// Documents that fail to parse are reported in Failures and skipped.
func Load(ctx context.Context, path string, p Parser) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Missing("index", path, err)
	}
	var raw scippb.Index
	if err := proto.Unmarshal(data, &raw); err != nil {
		return nil, errors.New(errors.InvalidInput, "failed to decode SCIP index", err).WithPath(path)
	}

	idx := &Index{}
	if info := raw.GetMetadata().GetToolInfo(); info != nil {
		idx.Tool = strings.TrimSpace(info.GetName() + " " + info.GetVersion())
	}

	docs := append([]*scippb.Document(nil), raw.GetDocuments()...)
	sort.Slice(docs, func(i, j int) bool { return docs[i].GetRelativePath() < docs[j].GetRelativePath() })

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !isJava(doc) {
			continue
		}
		src, ok := Render(doc)
		if !ok {
			continue
		}
		f, err := p.Parse(ctx, doc.GetRelativePath(), src)
		if err != nil {
			idx.Failures = append(idx.Failures, err)
			continue
		}
		f.Path = doc.GetRelativePath()
		idx.Files = append(idx.Files, f)
	}
	return idx, nil
}

func isJava(doc *scippb.Document) bool {
	return strings.EqualFold(doc.GetLanguage(), "java") || strings.HasSuffix(doc.GetRelativePath(), ".java")
}

type member struct {
	sig         string
	constructor bool
}

type typeNode struct {
	name     string
	header   string
	fields   []member
	methods  []member
	children []*typeNode
	index    map[string]*typeNode
}

func (n *typeNode) child(name string) *typeNode {
	if c, ok := n.index[name]; ok {
		return c
	}
	c := &typeNode{name: name, index: make(map[string]*typeNode)}
	n.index[name] = c
	n.children = append(n.children, c)
	return c
}

// Render rebuilds Java source for one document from its symbol
// signatures. It reports false when the document declares no types.
func Render(doc *scippb.Document) ([]byte, bool) {
	root := &typeNode{index: make(map[string]*typeNode)}
	pkg := ""

	for _, info := range doc.GetSymbols() {
		if scippb.IsLocalSymbol(info.GetSymbol()) {
			continue
		}
		sym, err := scippb.ParseSymbol(info.GetSymbol())
		if err != nil {
			continue
		}
		ds := sym.GetDescriptors()
		i := 0
		var ns []string
		for i < len(ds) && ds[i].GetSuffix() == scippb.Descriptor_Namespace {
			ns = append(ns, ds[i].GetName())
			i++
		}
		node := root
		for i < len(ds) && ds[i].GetSuffix() == scippb.Descriptor_Type {
			node = node.child(ds[i].GetName())
			i++
		}
		if node == root {
			continue
		}
		if pkg == "" {
			pkg = strings.Join(ns, ".")
		}

		rest := ds[i:]
		sig := signature(info)
		switch {
		case len(rest) == 0:
			if sig != "" {
				node.header = sig
			}
		case len(rest) == 1 && rest[0].GetSuffix() == scippb.Descriptor_Term && sig != "":
			node.fields = append(node.fields, member{sig: sig})
		case len(rest) == 1 && rest[0].GetSuffix() == scippb.Descriptor_Method && sig != "":
			node.methods = append(node.methods, member{sig: sig, constructor: rest[0].GetName() == "<init>"})
		}
	}
	if len(root.children) == 0 {
		return nil, false
	}

	var b strings.Builder
	if pkg != "" {
		fmt.Fprintf(&b, "package %s;\n\n", pkg)
	}
	for _, c := range root.children {
		renderType(&b, c, 0)
	}
	return []byte(b.String()), true
}

func renderType(b *strings.Builder, n *typeNode, depth int) {
	indent := strings.Repeat("    ", depth)
	header := n.header
	if header == "" {
		header = "class " + n.name
	}
	fmt.Fprintf(b, "%s%s {\n", indent, header)
	inner := indent + "    "
	fields := n.fields
	if isEnum(header) {
		// Bare identifiers are constants and must precede the body.
		var constants []string
		var rest []member
		for _, f := range fields {
			if strings.ContainsAny(f.sig, " \t") {
				rest = append(rest, f)
			} else {
				constants = append(constants, strings.TrimSuffix(f.sig, ";"))
			}
		}
		fmt.Fprintf(b, "%s%s;\n", inner, strings.Join(constants, ", "))
		fields = rest
	}
	for _, f := range fields {
		fmt.Fprintf(b, "%s%s;\n", inner, strings.TrimSuffix(f.sig, ";"))
	}
	for _, m := range n.methods {
		sig := strings.TrimSuffix(m.sig, ";")
		if m.constructor {
			fmt.Fprintf(b, "%s%s {}\n", inner, sig)
		} else {
			fmt.Fprintf(b, "%s%s;\n", inner, sig)
		}
	}
	for _, c := range n.children {
		renderType(b, c, depth+1)
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

func isEnum(header string) bool {
	for _, tok := range strings.Fields(header) {
		if tok == "enum" {
			return true
		}
	}
	return false
}

// signature returns the recorded declaration text, annotated when the
// documentation marks the symbol deprecated.
func signature(info *scippb.SymbolInformation) string {
	sig := strings.TrimSpace(info.GetSignatureDocumentation().GetText())
	if sig == "" {
		return ""
	}
	sig = strings.Join(strings.Fields(sig), " ")
	if strings.Contains(sig, "@Deprecated") {
		return sig
	}
	for _, d := range info.GetDocumentation() {
		if strings.Contains(d, "@deprecated") {
			return "@Deprecated " + sig
		}
	}
	return sig
}

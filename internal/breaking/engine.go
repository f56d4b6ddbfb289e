package breaking

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"apidiff/internal/symbols"
)

// Diff compares two revisions and returns unclassified changes.
//
// Classes are visited in ascending FQN order. Within a matched class field
// changes precede method changes, each ascending by name or signature, and
// the records for one member follow the order type, parameter names,
// visibility, deprecation. Diff only reads the tables.
func Diff(old, new *symbols.Table, opts DiffOptions) []Change {
	var changes []Change
	for _, fqn := range unionKeys(old.FQNs(), new.FQNs()) {
		o, inOld := old.Class(fqn)
		n, inNew := new.Class(fqn)

		switch {
		case !inOld:
			if !opts.APIOnly || visible(n.Visibility) {
				changes = append(changes, classChange(AddedClass, n))
			}
		case !inNew:
			if !opts.APIOnly || visible(o.Visibility) {
				changes = append(changes, classChange(RemovedClass, o))
			}
		default:
			changes = append(changes, diffFields(o, n, opts)...)
			methods := diffMethods(o, n, opts)
			if opts.ReconcileParameterTypes {
				methods = reconcile(methods, o, n)
			}
			changes = append(changes, methods...)
		}
	}
	return changes
}

func diffFields(o, n *symbols.ClassSymbol, opts DiffOptions) []Change {
	var changes []Change
	for _, name := range unionKeys(o.FieldNames(), n.FieldNames()) {
		of, inOld := o.Fields[name]
		nf, inNew := n.Fields[name]

		if opts.APIOnly && !visible(fieldVisibility(of)) && !visible(fieldVisibility(nf)) {
			continue
		}
		switch {
		case !inOld:
			changes = append(changes, Change{
				Kind: AddedField, Symbol: fieldID(n.FQN, name), Category: CategoryField,
				After: nf.TypeFull + " " + name, Meta: fieldMeta(n.FQN, nf),
			})
		case !inNew:
			changes = append(changes, Change{
				Kind: RemovedField, Symbol: fieldID(o.FQN, name), Category: CategoryField,
				Before: of.TypeFull + " " + name, Meta: fieldMeta(o.FQN, of),
			})
		default:
			mod := func(kind ChangeKind, before, after string) {
				changes = append(changes, Change{
					Kind: kind, Symbol: fieldID(n.FQN, name), Category: CategoryField,
					Before: before, After: after, Meta: fieldMeta(n.FQN, nf),
				})
			}
			if of.Type != nf.Type {
				mod(ModifiedFieldType, of.Type, nf.Type)
			}
			if of.Visibility != nf.Visibility {
				mod(ModifiedFieldVisibility, string(of.Visibility), string(nf.Visibility))
			}
			if of.Deprecated != nf.Deprecated {
				mod(ModifiedFieldDeprecation, strconv.FormatBool(of.Deprecated), strconv.FormatBool(nf.Deprecated))
			}
		}
	}
	return changes
}

func diffMethods(o, n *symbols.ClassSymbol, opts DiffOptions) []Change {
	var changes []Change
	for _, sig := range unionKeys(o.Signatures(), n.Signatures()) {
		om, inOld := o.MethodsBySignature[sig]
		nm, inNew := n.MethodsBySignature[sig]

		if opts.APIOnly && !visible(methodVisibility(om)) && !visible(methodVisibility(nm)) {
			continue
		}
		switch {
		case !inOld:
			changes = append(changes, Change{
				Kind: AddedMethod, Symbol: sig, Category: CategoryMethod,
				After: nm.SignatureWithReturn(), Meta: methodMeta(nm),
			})
		case !inNew:
			changes = append(changes, Change{
				Kind: RemovedMethod, Symbol: sig, Category: CategoryMethod,
				Before: om.SignatureWithReturn(), Meta: methodMeta(om),
			})
		default:
			mod := func(kind ChangeKind, before, after string, extra Meta) {
				meta := methodMeta(nm)
				for k, v := range extra {
					meta[k] = v
				}
				changes = append(changes, Change{
					Kind: kind, Symbol: sig, Category: CategoryMethod,
					Before: before, After: after, Meta: meta,
				})
			}
			if om.ReturnType != nm.ReturnType {
				mod(ModifiedMethodReturnType, om.ReturnType, nm.ReturnType, nil)
			}
			if oldNames, newNames := om.ParamNames(), nm.ParamNames(); !slices.Equal(oldNames, newNames) {
				mod(ModifiedMethodParameterNames, join(oldNames), join(newNames), Meta{
					MetaParamNameChange: true,
					MetaOldParamNames:   oldNames,
					MetaNewParamNames:   newNames,
				})
			}
			if om.Visibility != nm.Visibility {
				mod(ModifiedMethodVisibility, string(om.Visibility), string(nm.Visibility), nil)
			}
			if om.Deprecated != nm.Deprecated {
				mod(ModifiedMethodDeprecation, strconv.FormatBool(om.Deprecated), strconv.FormatBool(nm.Deprecated), nil)
			}
		}
	}
	return changes
}

func classChange(kind ChangeKind, c *symbols.ClassSymbol) Change {
	ch := Change{Kind: kind, Symbol: c.FQN, Category: CategoryClass, Meta: Meta{
		MetaSymbolKind: "class",
		MetaFQN:        c.FQN,
		MetaVisibility: string(c.Visibility),
		MetaDeprecated: c.Deprecated,
	}}
	if kind == AddedClass {
		ch.After = c.FQN
	} else {
		ch.Before = c.FQN
	}
	return ch
}

func fieldID(fqn, name string) string {
	return fqn + "#" + name
}

func fieldMeta(fqn string, f *symbols.FieldSymbol) Meta {
	return Meta{
		MetaSymbolKind: "field",
		MetaFQN:        fqn,
		MetaFieldName:  f.Name,
		MetaFieldType:  f.TypeFull,
		MetaSignature:  fieldID(fqn, f.Name),
		MetaVisibility: string(f.Visibility),
		MetaDeprecated: f.Deprecated,
	}
}

func methodMeta(m *symbols.MethodSymbol) Meta {
	meta := Meta{
		MetaSymbolKind:     "method",
		MetaFQN:            m.FQN,
		MetaMethodName:     m.Name,
		MetaSignature:      m.FullSignature(),
		MetaVisibility:     string(m.Visibility),
		MetaReturnType:     m.ReturnType,
		MetaParameterTypes: m.ParamTypes(),
		MetaParameterNames: m.ParamNames(),
		MetaDeprecated:     m.Deprecated,
	}
	if m.Constructor {
		meta[MetaConstructor] = true
	}
	return meta
}

func visible(v symbols.Visibility) bool {
	return v == symbols.Public || v == symbols.Protected
}

func fieldVisibility(f *symbols.FieldSymbol) symbols.Visibility {
	if f == nil {
		return ""
	}
	return f.Visibility
}

func methodVisibility(m *symbols.MethodSymbol) symbols.Visibility {
	if m == nil {
		return ""
	}
	return m.Visibility
}

func join(parts []string) string {
	return strings.Join(parts, ",")
}

// unionKeys merges two ascending slices into one ascending, deduplicated
// slice.
func unionKeys(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Strings(out)
	w := 0
	for i, s := range out {
		if i == 0 || s != out[w-1] {
			out[w] = s
			w++
		}
	}
	return out[:w]
}

package breaking

import (
	"sort"

	"apidiff/internal/symbols"
)

// reconcile folds RemovedMethod/AddedMethod pairs of one class that share
// an arity key into ModifiedMethodParameterTypes. Only keys with exactly one
// removal and one addition are folded; ambiguous overload sets stay as they
// are. A return type change on a folded pair is kept as its own record.
func reconcile(changes []Change, o, n *symbols.ClassSymbol) []Change {
	removed := make(map[string][]int)
	added := make(map[string][]int)
	for i, c := range changes {
		switch c.Kind {
		case RemovedMethod:
			if m := o.MethodsBySignature[c.Symbol]; m != nil {
				removed[m.ArityKey()] = append(removed[m.ArityKey()], i)
			}
		case AddedMethod:
			if m := n.MethodsBySignature[c.Symbol]; m != nil {
				added[m.ArityKey()] = append(added[m.ArityKey()], i)
			}
		}
	}

	replace := make(map[int][]Change)
	drop := make(map[int]bool)
	for key, r := range removed {
		a := added[key]
		if len(r) != 1 || len(a) != 1 {
			continue
		}
		om := o.MethodsBySignature[changes[r[0]].Symbol]
		nm := n.MethodsBySignature[changes[a[0]].Symbol]
		replace[r[0]] = foldPair(om, nm)
		drop[a[0]] = true
	}
	if len(replace) == 0 {
		return changes
	}

	out := make([]Change, 0, len(changes))
	for i, c := range changes {
		switch {
		case drop[i]:
		case replace[i] != nil:
			out = append(out, replace[i]...)
		default:
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func foldPair(om, nm *symbols.MethodSymbol) []Change {
	sig := nm.FullSignature()
	meta := methodMeta(nm)
	meta[MetaOldParameterTypes] = om.ParamTypes()

	folded := []Change{{
		Kind:     ModifiedMethodParameterTypes,
		Symbol:   sig,
		Category: CategoryMethod,
		Before:   "(" + join(om.ParamTypes()) + ")",
		After:    "(" + join(nm.ParamTypes()) + ")",
		Meta:     meta,
	}}
	if om.ReturnType != nm.ReturnType {
		folded = append(folded, Change{
			Kind:     ModifiedMethodReturnType,
			Symbol:   sig,
			Category: CategoryMethod,
			Before:   om.ReturnType,
			After:    nm.ReturnType,
			Meta:     methodMeta(nm),
		})
	}
	return folded
}

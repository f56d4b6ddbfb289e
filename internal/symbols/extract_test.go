package symbols

import (
	"reflect"
	"testing"

	"apidiff/internal/decl"
)

func sampleFile() *decl.File {
	return &decl.File{
		Path:    "test/Sample.java",
		Package: "test",
		Types: []*decl.TypeDecl{{
			Name:      "Sample",
			Kind:      decl.KindClass,
			Modifiers: []string{"public"},
			Fields: []*decl.FieldDecl{
				{Names: []string{"a", "b"}, Type: "int", Modifiers: []string{"public"}},
				{Names: []string{"items"}, Type: "List< String >", Modifiers: []string{"protected"}},
				{Names: []string{"a"}, Type: "long", Modifiers: []string{"private"}},
			},
			Methods: []*decl.MethodDecl{
				{Constructor: true, Modifiers: []string{"public"}},
				{Name: "foo", ReturnType: "int", Params: []decl.Param{{Name: "x", Type: "int"}}, Modifiers: []string{"public"}},
				{Name: "foo", ReturnType: "int", Params: []decl.Param{{Name: "s", Type: "String"}}, Modifiers: []string{"public"}},
				{Name: "foo", ReturnType: "long", Params: []decl.Param{{Name: "y", Type: "int"}}, Modifiers: []string{"private"}},
				{Name: "join", ReturnType: "String", Params: []decl.Param{{Name: "parts", Type: "String", Varargs: true}},
					Modifiers: []string{"public", "static"}, Annotations: []string{"@Deprecated"}},
				{Name: "map", ReturnType: "Map<K, V>", TypeParams: []string{"K", "V"}, Modifiers: []string{"public"}},
			},
			Types: []*decl.TypeDecl{
				{Name: "Inner", Kind: decl.KindInterface, Methods: []*decl.MethodDecl{{Name: "run", ReturnType: "void"}}},
				{Anonymous: true, Methods: []*decl.MethodDecl{{Name: "lost", ReturnType: "void"}}},
			},
		}},
	}
}

func TestExtractClasses(t *testing.T) {
	table := NewTable("old")
	st := Extract(table, sampleFile(), ExtractOptions{})

	if got, want := table.FQNs(), []string{"test.Sample", "test.Sample.Inner"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("FQNs() = %v, want %v", got, want)
	}
	if st.Classes != 2 {
		t.Errorf("Classes = %d, want 2", st.Classes)
	}
	if st.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", st.Dropped)
	}

	outer, _ := table.Class("test.Sample")
	if !reflect.DeepEqual(outer.Nested, []string{"test.Sample.Inner"}) {
		t.Errorf("Nested = %v", outer.Nested)
	}
	if outer.Visibility != Public {
		t.Errorf("Visibility = %v, want public", outer.Visibility)
	}
	inner, _ := table.Class("test.Sample.Inner")
	if inner.EnclosingFQN != "test.Sample" {
		t.Errorf("EnclosingFQN = %q", inner.EnclosingFQN)
	}
	if inner.Kind != decl.KindInterface {
		t.Errorf("Kind = %v, want interface", inner.Kind)
	}
	run := inner.MethodsBySignature["test.Sample.Inner#run()"]
	if run == nil || run.Visibility != Public {
		t.Errorf("interface method should be implicitly public: %+v", run)
	}
}

func TestExtractFieldsFirstWins(t *testing.T) {
	table := NewTable("old")
	st := Extract(table, sampleFile(), ExtractOptions{})
	c, _ := table.Class("test.Sample")

	if got, want := c.FieldNames(), []string{"a", "b", "items"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("FieldNames() = %v, want %v", got, want)
	}
	if a := c.Fields["a"]; a.Type != "int" || a.Visibility != Public {
		t.Errorf("field a = %+v, want first declaration", a)
	}
	items := c.Fields["items"]
	if items.Type != "List" || items.TypeFull != "List<String>" || items.Visibility != Protected {
		t.Errorf("field items = %+v", items)
	}
	if len(st.Duplicates) != 2 {
		t.Fatalf("Duplicates = %+v, want field a and foo(int)", st.Duplicates)
	}
	if d := st.Duplicates[0]; !d.Field || d.Member != "a" {
		t.Errorf("Duplicates[0] = %+v", d)
	}
}

func TestExtractMethods(t *testing.T) {
	table := NewTable("old")
	st := Extract(table, sampleFile(), ExtractOptions{})
	c, _ := table.Class("test.Sample")

	want := []string{
		"test.Sample#Sample()",
		"test.Sample#foo(String)",
		"test.Sample#foo(int)",
		"test.Sample#join(String[])",
		"test.Sample#map()",
	}
	if got := c.Signatures(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Signatures() = %v, want %v", got, want)
	}
	if st.Methods != 5 {
		t.Errorf("Methods = %d, want 5", st.Methods)
	}

	ctor := c.MethodsBySignature["test.Sample#Sample()"]
	if !ctor.Constructor || ctor.ReturnType != "void" {
		t.Errorf("constructor = %+v", ctor)
	}
	foo := c.MethodsBySignature["test.Sample#foo(int)"]
	if foo.ReturnType != "int" || foo.Params[0].Name != "x" {
		t.Errorf("foo(int) should be the first declaration, got %+v", foo)
	}
	if foo.SignatureWithReturn() != "test.Sample#foo(int):int" {
		t.Errorf("SignatureWithReturn() = %q", foo.SignatureWithReturn())
	}
	join := c.MethodsBySignature["test.Sample#join(String[])"]
	if !join.Deprecated || join.Params[0].TypeFull != "String[]" {
		t.Errorf("join = %+v", join)
	}
	m := c.MethodsBySignature["test.Sample#map()"]
	if m.ReturnType != "Map" || m.ReturnTypeFull != "Map<K, V>" || m.TypeParamCount != 2 {
		t.Errorf("map = %+v", m)
	}
}

func TestExtractArityBuckets(t *testing.T) {
	table := NewTable("old")
	Extract(table, sampleFile(), ExtractOptions{})
	c, _ := table.Class("test.Sample")

	// every overload is visible by name, including the losing duplicate
	if got := len(c.MethodsByName["foo"]); got != 3 {
		t.Errorf("len(MethodsByName[foo]) = %d, want 3", got)
	}
	for _, m := range c.MethodsByName["foo"] {
		if m.ArityKey() != "foo|1" {
			t.Errorf("ArityKey() = %q, want foo|1", m.ArityKey())
		}
	}
}

func TestExtractRevisitMergesClass(t *testing.T) {
	table := NewTable("new")
	first := &decl.File{Package: "p", Types: []*decl.TypeDecl{{Name: "A", Modifiers: []string{"final"}}}}
	second := &decl.File{Package: "p", Types: []*decl.TypeDecl{{
		Name: "A", Modifiers: []string{"public"}, Annotations: []string{"@Deprecated"},
	}}}

	Extract(table, first, ExtractOptions{})
	Extract(table, second, ExtractOptions{})

	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}
	c, _ := table.Class("p.A")
	if !reflect.DeepEqual(c.Modifiers, []string{"final", "public"}) {
		t.Errorf("Modifiers = %v", c.Modifiers)
	}
	if !c.Deprecated || c.Visibility != Public {
		t.Errorf("class = %+v", c)
	}
}

func TestExtractEnum(t *testing.T) {
	table := NewTable("old")
	Extract(table, &decl.File{Package: "p", Types: []*decl.TypeDecl{{
		Name: "Color",
		Kind: decl.KindEnum,
		Fields: []*decl.FieldDecl{
			{Names: []string{"RED", "GREEN"}, EnumConstant: true},
		},
		Methods: []*decl.MethodDecl{{Constructor: true, Params: []decl.Param{{Name: "rgb", Type: "int"}}}},
	}}}, ExtractOptions{})

	c, _ := table.Class("p.Color")
	red := c.Fields["RED"]
	if red == nil || red.Type != "Color" || red.Visibility != Public {
		t.Errorf("RED = %+v", red)
	}
	ctor := c.MethodsBySignature["p.Color#Color(int)"]
	if ctor == nil || ctor.Visibility != Private {
		t.Errorf("enum constructor = %+v, want private", ctor)
	}
}

func TestExtractSkipPackage(t *testing.T) {
	table := NewTable("old")
	st := Extract(table, sampleFile(), ExtractOptions{
		SkipPackage: func(pkg string) bool { return pkg == "test" },
	})
	if !st.Skipped || table.Len() != 0 {
		t.Errorf("Skipped = %v, Len() = %d", st.Skipped, table.Len())
	}
}

func TestExtractDefaultPackage(t *testing.T) {
	table := NewTable("old")
	Extract(table, &decl.File{Types: []*decl.TypeDecl{{Name: "Main"}}}, ExtractOptions{})
	if _, ok := table.Class("Main"); !ok {
		t.Errorf("FQNs() = %v, want [Main]", table.FQNs())
	}
}

package pyast

import "testing"

func TestChildrenOrderAndNilSkipping(t *testing.T) {
	fn := &FunctionDef{
		Name:       "f",
		Decorators: []Node{&Name{ID: "dec", Line: 1}},
		Params:     []Node{&Name{ID: "int", Line: 2}},
		Returns:    nil,
		Body:       []Node{&Call{Func: &Name{ID: "g", Line: 3}, Line: 3}},
		Line:       2,
	}

	kids := Children(fn)
	if len(kids) != 3 {
		t.Fatalf("expected 3 children, got %d", len(kids))
	}
	if n, ok := kids[0].(*Name); !ok || n.ID != "dec" {
		t.Errorf("expected decorator first, got %#v", kids[0])
	}
	if _, ok := kids[2].(*Call); !ok {
		t.Errorf("expected body call last, got %#v", kids[2])
	}
}

func TestInspectVisitsEveryNodeOnce(t *testing.T) {
	mod := &Module{Body: []Node{
		&Import{Names: []Alias{{Name: "os"}}, Line: 1},
		&Compound{Kind: "if_statement", Line: 2, Elems: []Node{
			&Name{ID: "x", Line: 2},
			&Attribute{Value: &Name{ID: "os", Line: 3}, Attr: "sep", Line: 3},
		}},
	}}

	counts := make(map[string]int)
	Inspect(mod, func(n Node) bool {
		switch n := n.(type) {
		case *Name:
			counts[n.ID]++
		case *Compound:
			counts["compound"]++
		}
		return true
	})

	for key, want := range map[string]int{"x": 1, "os": 1, "compound": 1} {
		if counts[key] != want {
			t.Errorf("expected %s visited %d times, got %d", key, want, counts[key])
		}
	}
}

func TestInspectPrune(t *testing.T) {
	mod := &Module{Body: []Node{
		&ClassDef{Name: "C", Line: 1, Body: []Node{&Name{ID: "inner", Line: 2}}},
	}}
	seen := false
	Inspect(mod, func(n Node) bool {
		if n, ok := n.(*Name); ok && n.ID == "inner" {
			seen = true
		}
		_, isClass := n.(*ClassDef)
		return !isClass
	})
	if seen {
		t.Error("expected class body to be pruned")
	}
}

func TestAliasLocalName(t *testing.T) {
	tests := []struct {
		alias Alias
		want  string
	}{
		{Alias{Name: "os"}, "os"},
		{Alias{Name: "numpy", AsName: "np"}, "np"},
		{Alias{Name: "os.path"}, "os.path"},
	}
	for _, tc := range tests {
		if got := tc.alias.LocalName(); got != tc.want {
			t.Errorf("LocalName(%+v) = %q, want %q", tc.alias, got, tc.want)
		}
	}
	if !(Alias{Name: "*"}).IsWildcard() {
		t.Error("expected * to be a wildcard")
	}
}

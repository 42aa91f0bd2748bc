package cgen

import (
	"strings"
	"testing"
)

func TestCreationArgsFixedOrder(t *testing.T) {
	closure := []ClosureVar{{Name: "a", Shared: true}, {Name: "b"}}

	args := creationArgs(true, true, true, closure)
	want := []string{
		"PyObject *defaults",
		"PyObject *kw_defaults",
		"PyObject *annotations",
		"PyCellObject *cell_a",
		"PyCellObject *cell_b",
	}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Fatalf("creation args = %v, want %v", args, want)
	}

	if got := creationArgs(false, false, false, nil); len(got) != 0 {
		t.Fatalf("empty inputs must produce empty arg list, got %v", got)
	}
}

func TestCreationArgsArity(t *testing.T) {
	closure := []ClosureVar{{Name: "x"}, {Name: "y"}, {Name: "z"}}
	for _, tc := range []struct {
		defaults, kw, ann bool
		want              int
	}{
		{false, false, false, 3},
		{true, false, false, 4},
		{true, true, false, 5},
		{true, true, true, 6},
	} {
		got := len(creationArgs(tc.defaults, tc.kw, tc.ann, closure))
		if got != tc.want {
			t.Fatalf("arity for %+v = %d, want %d", tc, got, tc.want)
		}
	}
}

func TestClosureCopySequence(t *testing.T) {
	closure := []ClosureVar{{Name: "counter", Shared: true}, {Name: "limit"}}

	stmts := closureCopyStatements(closure)
	joined := strings.Join(stmts, "\n")

	if !strings.Contains(stmts[0], "malloc( 2 * sizeof(PyCellObject *) )") {
		t.Fatalf("capture array not sized to closure: %q", stmts[0])
	}
	if !strings.Contains(joined, "closure[0] = cell_counter;") ||
		!strings.Contains(joined, "closure[1] = cell_limit;") {
		t.Fatalf("cells not stored in source order:\n%s", joined)
	}
	if strings.Count(joined, "Py_INCREF") != 2 {
		t.Fatalf("expected one increment per cell:\n%s", joined)
	}
	if strings.Index(joined, "closure[0] = cell_counter;") > strings.Index(joined, "closure[1] = cell_limit;") {
		t.Fatalf("copy order does not follow source order:\n%s", joined)
	}

	if got := closureCopyStatements(nil); got != nil {
		t.Fatalf("no closure must emit nothing, got %v", got)
	}
}

func TestDirectClosureFormalsAliasCapability(t *testing.T) {
	closure := []ClosureVar{{Name: "a", Shared: true}, {Name: "b"}}

	withAlias := directClosureFormals(closure, Capabilities{DirectAliasParams: true})
	if withAlias[0] != "PyCellObject *cell_a" || withAlias[1] != "PyObject **cell_b" {
		t.Fatalf("alias-capable formals wrong: %v", withAlias)
	}

	withoutAlias := directClosureFormals(closure, Capabilities{DirectAliasParams: false})
	if withoutAlias[1] != "PyCellObject *cell_b" {
		t.Fatalf("plain variable must box without alias capability: %v", withoutAlias)
	}
}

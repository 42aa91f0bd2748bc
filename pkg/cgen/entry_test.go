package cgen

import (
	"strings"
	"testing"
)

func TestEntryPointGenericShape(t *testing.T) {
	ctx := newTestContext()
	fn := plainCallable("testmod$f")
	fn.Params = []Param{{Name: "a"}, {Name: "b", Shared: true}}
	fn.UserLocals = []LocalVar{{Name: "total"}}
	fn.NeedsExceptionExit = true

	s := ctx.NewScope(false)
	s.ReturnValueTemp()
	out, err := ctx.GenerateEntryPoint(s, fn, testParser{})
	if err != nil {
		t.Fatalf("GenerateEntryPoint: %v", err)
	}

	if !strings.Contains(out, "static PyObject *impl_function_testmod_f( struct Asp_FunctionObject *self, PyObject *par_a, PyObject *par_b )") {
		t.Fatalf("generic shape header missing:\n%s", out)
	}
	if !strings.Contains(out, "PyObject *var_a = par_a;") {
		t.Fatalf("plain parameter rebinding missing:\n%s", out)
	}
	if !strings.Contains(out, "PyCellObject *var_b = PyCell_NEW1( par_b );") {
		t.Fatalf("shared parameter must be boxed:\n%s", out)
	}
	if !strings.Contains(out, "PyObject *var_total = NULL;") {
		t.Fatalf("user local declaration missing:\n%s", out)
	}
	if !strings.Contains(out, "fparse_testmod_f") {
		t.Fatalf("trampoline must accompany the generic shape:\n%s", out)
	}
}

func TestEntryPointDirectShape(t *testing.T) {
	ctx := newTestContext()
	fn := plainCallable("testmod$helper")
	fn.CreatedCall = false
	fn.DirectCall = true
	fn.CrossModule = true
	fn.Params = []Param{{Name: "x"}}
	fn.Closure = []ClosureVar{{Name: "bound", Shared: true}}

	s := ctx.NewScope(true)
	out, err := ctx.GenerateEntryPoint(s, fn, testParser{})
	if err != nil {
		t.Fatalf("GenerateEntryPoint: %v", err)
	}

	if !strings.Contains(out, "ASP_CROSS_MODULE PyObject *impl_function_testmod_helper( PyObject *par_x, PyCellObject *cell_bound )") {
		t.Fatalf("direct shape header missing:\n%s", out)
	}
	if strings.Contains(out, "fparse_") {
		t.Fatalf("direct-only callable must not carry a trampoline:\n%s", out)
	}

	decl := ctx.GenerateCallableDecl(fn)
	if !strings.Contains(decl, "ASP_CROSS_MODULE PyObject *impl_function_testmod_helper( PyObject *par_x, PyCellObject *cell_bound );") {
		t.Fatalf("direct declaration wrong:\n%s", decl)
	}
}

func TestEntryPointDualConventionKeepsOneDefinition(t *testing.T) {
	ctx := newTestContext()
	fn := plainCallable("testmod$both")
	fn.DirectCall = true
	fn.Params = []Param{{Name: "x"}}

	s := ctx.NewScope(false)
	out, err := ctx.GenerateEntryPoint(s, fn, testParser{})
	if err != nil {
		t.Fatalf("GenerateEntryPoint: %v", err)
	}

	if got := strings.Count(out, "static PyObject *impl_function_testmod_both( struct Asp_FunctionObject *self"); got != 1 {
		t.Fatalf("protocol shape defined %d times, want 1:\n%s", got, out)
	}
	if strings.Contains(out, "ASP_LOCAL_MODULE") || strings.Contains(out, "ASP_CROSS_MODULE") {
		t.Fatalf("dual-convention callable must not also get the direct shape:\n%s", out)
	}
	if !strings.Contains(out, "fparse_testmod_both") {
		t.Fatalf("trampoline must accompany the protocol shape:\n%s", out)
	}
	if decl := ctx.GenerateCallableDecl(fn); decl != "" {
		t.Fatalf("dual-convention callable must not declare a direct entry: %q", decl)
	}
}

func TestSharedUserLocalLivesInCell(t *testing.T) {
	ctx := newTestContext()
	fn := plainCallable("testmod$capturer")
	fn.UserLocals = []LocalVar{{Name: "acc", Shared: true}, {Name: "i"}}

	s := ctx.NewScope(false)
	s.ReturnValueTemp()
	out, err := ctx.GenerateEntryPoint(s, fn, testParser{})
	if err != nil {
		t.Fatalf("GenerateEntryPoint: %v", err)
	}

	if !strings.Contains(out, "PyCellObject *var_acc = PyCell_EMPTY();") {
		t.Fatalf("shared local must start as an empty cell:\n%s", out)
	}
	if !strings.Contains(out, "PyObject *var_i = NULL;") {
		t.Fatalf("plain local declaration missing:\n%s", out)
	}
}

func TestExitSectionComposition(t *testing.T) {
	for _, tc := range []struct {
		name          string
		exceptionExit bool
		returnValue   bool
	}{
		{"neither", false, false},
		{"exception", true, false},
		{"return", false, true},
		{"both", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext()
			fn := plainCallable("testmod$" + tc.name)
			fn.NeedsExceptionExit = tc.exceptionExit
			s := ctx.NewScope(false)
			if tc.returnValue {
				s.ReturnValueTemp()
			}
			exit := s.exitSection(fn)

			if !strings.Contains(exit, "ASP_CANNOT_GET_HERE") {
				t.Fatalf("unreachable guard always required:\n%s", exit)
			}
			if got := strings.Contains(exit, "function_exception_exit:"); got != tc.exceptionExit {
				t.Fatalf("exception exit presence = %t, want %t:\n%s", got, tc.exceptionExit, exit)
			}
			if got := strings.Contains(exit, "function_return_exit:"); got != tc.returnValue {
				t.Fatalf("return exit presence = %t, want %t:\n%s", got, tc.returnValue, exit)
			}
			if !strings.HasPrefix(strings.TrimSpace(exit), "//") {
				t.Fatalf("guard must be the fallthrough at the top of the exit section:\n%s", exit)
			}
		})
	}
}

func TestLocalsDictSetupAndCleanup(t *testing.T) {
	ctx := newTestContext()
	fn := plainCallable("testmod$classbody")
	fn.NeedsLocalsDict = true
	fn.NeedsExceptionExit = true

	s := ctx.NewScope(false)
	s.ReturnValueTemp()
	out, err := ctx.GenerateEntryPoint(s, fn, testParser{})
	if err != nil {
		t.Fatalf("GenerateEntryPoint: %v", err)
	}

	if !strings.Contains(out, "PyObject *locals_dict = PyDict_New();") {
		t.Fatalf("locals dict scaffolding missing:\n%s", out)
	}
	if strings.Count(out, "Py_DECREF( locals_dict );") != 2 {
		t.Fatalf("both exits must release the locals dict:\n%s", out)
	}
}

func TestExceptionBookkeepingDeclarations(t *testing.T) {
	ctx := newTestContext()
	fn := plainCallable("testmod$trier")
	fn.NeedsExceptionExit = true

	s := ctx.NewScope(false)
	s.SetKeeperCount(2)
	s.AddPreserver(1)
	s.AddFrameDeclaration("struct Asp_FrameObject *frame_function;")
	s.ReturnValueTemp()

	out, err := ctx.GenerateEntryPoint(s, fn, testParser{})
	if err != nil {
		t.Fatalf("GenerateEntryPoint: %v", err)
	}

	for _, want := range []string{
		"PyObject *exception_type = NULL, *exception_value = NULL;",
		"PyObject *exception_keeper_type_1;",
		"PyObject *exception_keeper_type_2;",
		"PyObject *exception_preserved_type_1;",
		"struct Asp_FrameObject *frame_function;",
		"tmp_return_value = NULL;",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestEntryPointRejectsSuspendable(t *testing.T) {
	ctx := newTestContext()
	fn := plainCallable("testmod$gen")
	fn.IsGenerator = true

	defer func() {
		if recover() == nil {
			t.Fatal("suspendable callable must not reach the plain composer")
		}
	}()
	_, _ = ctx.GenerateEntryPoint(ctx.NewScope(false), fn, testParser{})
}

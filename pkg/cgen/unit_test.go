package cgen

import (
	"strings"
	"testing"
)

func TestRenderTranslationUnitOrdering(t *testing.T) {
	ctx := newTestContext()
	fn := plainCallable("testmod$worker")

	s := ctx.NewScope(false)
	emit := NewCollector()
	ctx.GenerateCallableCreation(s, s.AllocateTemp("made"), fn, testParser{}, emit)

	entryScope := ctx.NewScope(false)
	entryScope.ReturnValueTemp()
	body, err := ctx.GenerateEntryPoint(entryScope, fn, testParser{})
	if err != nil {
		t.Fatalf("GenerateEntryPoint: %v", err)
	}

	files := ctx.RenderTranslationUnit(UnitInfo{Name: "testmod", Revision: "deadbeef"}, []string{body, emit.String()})

	source, ok := files["testmod.c"]
	if !ok {
		t.Fatalf("missing source file, got %v", keysOf(files))
	}
	text := string(source)

	makerPos := strings.Index(text, "static PyObject *MAKE_FUNCTION_testmod_worker(")
	callPos := strings.LastIndex(text, "MAKE_FUNCTION_testmod_worker(")
	if makerPos < 0 || callPos <= makerPos {
		t.Fatalf("maker must precede its call site:\n%s", text)
	}
	if !strings.Contains(text, `"deadbeef"`) && !strings.Contains(text, "deadbeef") {
		t.Fatalf("revision stamp missing:\n%s", text)
	}

	header, ok := files["testmod.h"]
	if !ok {
		t.Fatalf("missing header file, got %v", keysOf(files))
	}
	if strings.Contains(string(header), "MAKE_FUNCTION_testmod_worker(") {
		t.Fatalf("header must not leak file-scoped declarations:\n%s", header)
	}
	if !strings.Contains(string(header), "#ifndef ASP_UNIT_TESTMOD_H") {
		t.Fatalf("header guard missing:\n%s", header)
	}
}

func TestHeaderKeepsOnlyExportedDeclarations(t *testing.T) {
	ctx := newTestContext()

	local := plainCallable("testmod$private")
	local.CreatedCall = false
	local.DirectCall = true
	exported := plainCallable("testmod$public")
	exported.CreatedCall = false
	exported.DirectCall = true
	exported.CrossModule = true

	ctx.RegisterDeclaration("private:decl", ctx.GenerateCallableDecl(local))
	ctx.RegisterDeclaration("public:decl", ctx.GenerateCallableDecl(exported))

	files := ctx.RenderTranslationUnit(UnitInfo{Name: "testmod"}, nil)
	header := string(files["testmod.h"])

	if !strings.Contains(header, "ASP_CROSS_MODULE PyObject *impl_function_testmod_public(") {
		t.Fatalf("exported declaration missing from header:\n%s", header)
	}
	if strings.Contains(header, "impl_function_testmod_private") {
		t.Fatalf("module-private declaration leaked into header:\n%s", header)
	}

	source := string(files["testmod.c"])
	for _, want := range []string{"impl_function_testmod_private", "impl_function_testmod_public"} {
		if !strings.Contains(source, want) {
			t.Fatalf("source missing declaration of %s:\n%s", want, source)
		}
	}
}

func TestRenderTranslationUnitDefaults(t *testing.T) {
	ctx := newTestContext()
	files := ctx.RenderTranslationUnit(UnitInfo{}, nil)
	source := string(files["unit.c"])
	if !strings.Contains(source, "unversioned") {
		t.Fatalf("missing revision fallback:\n%s", source)
	}
}

func keysOf(files map[string][]byte) []string {
	out := make([]string, 0, len(files))
	for name := range files {
		out = append(out, name)
	}
	return out
}

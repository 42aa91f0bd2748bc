package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildRendersUnit(t *testing.T) {
	dir := t.TempDir()
	writeBuildInput(t, dir, "lowered.yml", `
callables:
  - identity: outer
    name: outer
    qualname: outer
    filename: demo.asp
    line: 3
    params:
      - name: items
    locals:
      - name: total
    created_call: true
    toplevel: true
    exception_exit: true
    returns: true
    defaults: [0]
    body:
      - "tmp_return_value = var_total;"
      - "Py_INCREF( tmp_return_value );"
      - "goto function_return_exit;"
  - identity: counter
    name: counter
    qualname: counter
    generator: true
    created_call: true
    toplevel: true
    exception_exit: true
    params:
      - name: limit
        shared: true
    body:
      - "Asp_Generator_Yield( generator, Py_None );"
`)
	writeBuildInput(t, dir, "target.toml", `
[runtime]
name = "current"
qualified_names = true
direct_alias_params = true
self_describing = true
`)
	manifestPath := writeManifest(t, dir, `
unit: demo
inputs:
  - lowered.yml
profile: target.toml
`)

	result, err := BuildFromPath(manifestPath)
	if err != nil {
		t.Fatalf("BuildFromPath returned error: %v", err)
	}
	if result.Unit != "demo" {
		t.Fatalf("Unit = %q, want demo", result.Unit)
	}
	if result.Revision != "unversioned" {
		t.Fatalf("Revision = %q, want unversioned outside a repository", result.Revision)
	}

	source := string(result.Files["demo.c"])
	if source == "" {
		t.Fatalf("demo.c missing, files = %v", fileNames(result.Files))
	}

	for _, want := range []string{
		"MAKE_FUNCTION_outer(",
		"MAKE_FUNCTION_counter(",
		"static PyObject *fparse_outer(",
		"static PyObject *impl_function_outer( struct Asp_FunctionObject *self, PyObject *par_items )",
		"return impl_function_outer( self, par_items );",
		"static PyObject *impl_function_counter( struct Asp_FunctionObject *self, PyObject *par_limit )",
		"static void impl_counter( struct Asp_GeneratorObject *generator )",
		"Asp_Generator_New(",
		"init_constants_demo",
		"PyObject *Asp_InitUnit_demo( PyObject *module )",
		"Asp_Module_SetAttr( module, const_str_plain_outer,",
		"Asp_Module_SetAttr( module, const_str_plain_counter,",
		"tmp_defaults_1 = Asp_Tuple_Pack( 1, const_int_pos_0 );",
		"function_return_exit:",
	} {
		if !strings.Contains(source, want) {
			t.Fatalf("demo.c missing %q:\n%s", want, source)
		}
	}

	// The maker body must precede the construction site in the initializer.
	maker := strings.Index(source, "static PyObject *MAKE_FUNCTION_outer(")
	site := strings.Index(source, "= MAKE_FUNCTION_outer(")
	if maker < 0 || site < 0 || maker > site {
		t.Fatalf("maker at %d must precede call site at %d", maker, site)
	}

	// Constants initialize before code objects, which reference them.
	constsCall := strings.Index(source, "init_constants_demo();")
	codeobjCall := strings.Index(source, "init_codeobjects_demo();")
	if constsCall < 0 || codeobjCall < 0 || constsCall > codeobjCall {
		t.Fatalf("initializer ordering wrong: constants at %d, code objects at %d", constsCall, codeobjCall)
	}

	header := string(result.Files["demo.h"])
	if !strings.Contains(header, "ASP_UNIT_DEMO_H") {
		t.Fatalf("header guard missing:\n%s", header)
	}
	if !strings.Contains(header, "PyObject *Asp_InitUnit_demo( PyObject *module );") {
		t.Fatalf("header missing initializer declaration:\n%s", header)
	}
}

func TestBuildWarnsOnDualConvention(t *testing.T) {
	dir := t.TempDir()
	writeBuildInput(t, dir, "lowered.yml", `
callables:
  - identity: both_ways
    name: both_ways
    direct_call: true
    created_call: true
    body:
      - "goto function_return_exit;"
    returns: true
`)
	manifestPath := writeManifest(t, dir, `
unit: demo
inputs:
  - lowered.yml
`)

	result, err := BuildFromPath(manifestPath)
	if err != nil {
		t.Fatalf("BuildFromPath returned error: %v", err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "both_ways") {
		t.Fatalf("Warnings = %#v, want one dual-convention warning", result.Warnings)
	}

	source := string(result.Files["demo.c"])
	if got := strings.Count(source, "static PyObject *impl_function_both_ways( struct Asp_FunctionObject *self )"); got != 1 {
		t.Fatalf("protocol shape defined %d times, want 1:\n%s", got, source)
	}
	if strings.Contains(source, "ASP_LOCAL_MODULE PyObject *impl_function_both_ways") {
		t.Fatalf("dual-convention callable must not also get the direct shape:\n%s", source)
	}
}

func TestBuildRejectsBadDescriptions(t *testing.T) {
	dir := t.TempDir()
	writeBuildInput(t, dir, "lowered.yml", `
callables:
  - identity: orphan
    name: orphan
    body: []
`)
	manifestPath := writeManifest(t, dir, `
unit: demo
inputs:
  - lowered.yml
`)

	if _, err := BuildFromPath(manifestPath); err == nil || !strings.Contains(err.Error(), "no entry convention") {
		t.Fatalf("expected description validation error, got %v", err)
	}
}

func TestWriteFilesPlacesOutputs(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "build")
	written, err := WriteFiles(out, map[string][]byte{
		"demo.c": []byte("/* c */\n"),
		"demo.h": []byte("/* h */\n"),
	})
	if err != nil {
		t.Fatalf("WriteFiles returned error: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("written = %#v", written)
	}
	if written[0] != filepath.Join(out, "demo.c") || written[1] != filepath.Join(out, "demo.h") {
		t.Fatalf("written order wrong: %#v", written)
	}
	data, err := os.ReadFile(written[0])
	if err != nil || string(data) != "/* c */\n" {
		t.Fatalf("read back failed: %q, %v", data, err)
	}
}

func writeBuildInput(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(strings.TrimSpace(contents)+"\n"), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func fileNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	return names
}

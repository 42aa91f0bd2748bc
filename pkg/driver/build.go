package driver

import (
	"fmt"
	"path/filepath"
	"strings"

	"asp/compiler-go/pkg/cgen"
)

// BuildResult carries the rendered translation unit of one manifest.
type BuildResult struct {
	Unit     string
	Revision string
	Files    map[string][]byte
	Warnings []string
}

// BuildFromPath loads the manifest at path, its profile and inputs, and
// renders the unit. Nothing is written to disk.
func BuildFromPath(path string) (*BuildResult, error) {
	manifest, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	profile, err := LoadProfile(manifest.Profile)
	if err != nil {
		return nil, err
	}
	return Build(manifest, profile)
}

// Build lowers every callable description named by the manifest into one C
// translation unit plus its companion header. Definitions keep their input
// order; top-level definitions are additionally constructed and published in
// the synthesized unit initializer.
func Build(manifest *Manifest, profile *Profile) (*BuildResult, error) {
	if manifest == nil {
		return nil, fmt.Errorf("driver: nil manifest")
	}

	pool := NewConstantPool()
	parser := NewArgumentParser()
	ctx := cgen.NewContext(profile.Capabilities(), pool, "module_"+manifest.Unit)

	initScope := ctx.NewScope(false)
	initEmit := cgen.NewCollector()
	var bodies []string
	var warnings []string

	for _, input := range manifest.Inputs {
		unit, err := LoadDescriptions(input)
		if err != nil {
			return nil, err
		}
		byIdentity := make(map[string]*cgen.Callable, len(unit.Callables))
		for _, fn := range unit.Callables {
			byIdentity[fn.Identity] = fn
			if fn.DirectCall && fn.CreatedCall {
				warnings = append(warnings, fmt.Sprintf(
					"driver: %s: %q reachable both directly and through the invocation protocol; lowering the protocol shape",
					input, fn.Identity))
			}
			body, err := lowerCallable(ctx, fn, parser)
			if err != nil {
				return nil, err
			}
			bodies = append(bodies, body)
			if decl := ctx.GenerateCallableDecl(fn); decl != "" {
				ctx.RegisterDeclaration(fn.Identity+":decl", decl)
			}
			for i, decl := range parser.Declarations(fn) {
				ctx.RegisterDeclaration(fmt.Sprintf("%s:parse:%d", fn.Identity, i), decl)
			}
		}
		for _, identity := range unit.Toplevel {
			publishDefinition(ctx, initScope, pool, byIdentity[identity], parser, initEmit)
		}
	}

	// Interning the code-object metadata now keeps the constant pool
	// complete before its declarations are registered.
	ctx.CodeObjectDeclarations()
	for i, decl := range pool.Declarations() {
		ctx.RegisterDeclaration(fmt.Sprintf("constants:%d", i), decl+"\n")
	}

	if !pool.Empty() {
		bodies = append(bodies, renderConstantsInit(manifest.Unit, pool))
	}
	ctx.RegisterDeclaration("unit:init",
		fmt.Sprintf("PyObject *Asp_InitUnit_%s( PyObject *module );\n", sanitizeSegment(manifest.Unit)))
	bodies = append(bodies, renderUnitInit(ctx, initScope, manifest.Unit, pool, initEmit))

	revision := Revision(filepath.Dir(manifest.Path))
	files := ctx.RenderTranslationUnit(cgen.UnitInfo{Name: manifest.Unit, Revision: revision}, bodies)

	return &BuildResult{Unit: manifest.Unit, Revision: revision, Files: files, Warnings: warnings}, nil
}

func lowerCallable(ctx *cgen.Context, fn *cgen.Callable, parser cgen.ParameterParser) (string, error) {
	scope := ctx.NewScope(fn.DirectCall && !fn.CreatedCall)
	if fn.Suspendable() {
		return ctx.GenerateGeneratorFunction(scope, fn, parser)
	}
	return ctx.GenerateEntryPoint(scope, fn, parser)
}

// publishDefinition emits the construction of a top-level definition and
// binds the result to its name in the module namespace. Asp_Module_SetAttr
// consumes the reference.
func publishDefinition(ctx *cgen.Context, scope *cgen.Scope, pool *ConstantPool, fn *cgen.Callable, parser cgen.ParameterParser, emit *cgen.Collector) {
	result := scope.AllocateTemp("definition")
	ctx.GenerateCallableCreation(scope, result, fn, parser, emit)
	emit.Emitf("Asp_Module_SetAttr( module, %s, %s );", pool.Render(fn.Name), result)
	scope.TransferCleanup(result)
}

func renderConstantsInit(unit string, pool *ConstantPool) string {
	var out strings.Builder
	fmt.Fprintf(&out, "static void init_constants_%s( void )\n{\n", sanitizeSegment(unit))
	for _, init := range pool.Initializations() {
		fmt.Fprintf(&out, "    %s\n", init)
	}
	out.WriteString("}\n")
	return out.String()
}

func renderUnitInit(ctx *cgen.Context, scope *cgen.Scope, unit string, pool *ConstantPool, emit *cgen.Collector) string {
	var out strings.Builder
	fmt.Fprintf(&out, "PyObject *Asp_InitUnit_%s( PyObject *module )\n{\n", sanitizeSegment(unit))
	for _, decl := range scope.TempDeclarations() {
		fmt.Fprintf(&out, "    %s\n", decl)
	}
	out.WriteString("\n")
	if !pool.Empty() {
		fmt.Fprintf(&out, "    init_constants_%s();\n", sanitizeSegment(unit))
	}
	if decls, _ := ctx.CodeObjectDeclarations(); len(decls) > 0 {
		fmt.Fprintf(&out, "    init_codeobjects_%s();\n", sanitizeSegment(unit))
	}
	out.WriteString("\n")
	for _, line := range emit.Lines() {
		for _, sub := range strings.Split(line, "\n") {
			if sub == "" {
				out.WriteString("\n")
				continue
			}
			fmt.Fprintf(&out, "    %s\n", sub)
		}
	}
	out.WriteString("\n    return module;\n}\n")
	return out.String()
}

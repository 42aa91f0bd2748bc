package driver

import (
	"fmt"
	"strings"

	"asp/compiler-go/pkg/cgen"
)

// ArgumentParser renders the generic-entry trampolines that unpack the
// invocation protocol's argument tuple and keyword dict into parameter
// slots before forwarding to the entry-point body.
type ArgumentParser struct{}

// NewArgumentParser constructs the trampoline renderer.
func NewArgumentParser() *ArgumentParser {
	return &ArgumentParser{}
}

// EntryPointName names the tuple/dict argument entry point.
func (*ArgumentParser) EntryPointName(identity string) string {
	return "fparse_" + sanitizeSegment(identity)
}

// QuickEntryPointName names the positional fast path, or NULL when the
// parameter set rules one out.
func (*ArgumentParser) QuickEntryPointName(fn *cgen.Callable) string {
	if fn.StarList != "" || fn.StarDict != "" || len(fn.KwDefaults) > 0 {
		return "NULL"
	}
	return "dparse_" + sanitizeSegment(fn.Identity)
}

// Declarations renders the forward declarations of the callable's parsing
// entry points. Makers reference these symbols before the trampoline bodies
// appear.
func (p *ArgumentParser) Declarations(fn *cgen.Callable) []string {
	if !fn.CreatedCall {
		return nil
	}
	decls := []string{fmt.Sprintf(
		"static PyObject *%s( struct Asp_FunctionObject *self, PyObject *args, PyObject *kwargs );\n",
		p.EntryPointName(fn.Identity))}
	if quick := p.QuickEntryPointName(fn); quick != "NULL" {
		decls = append(decls, fmt.Sprintf(
			"static PyObject *%s( struct Asp_FunctionObject *self, PyObject **args, Py_ssize_t count );\n",
			quick))
	}
	return decls
}

// Trampoline renders the parsing entry points of one callable and reports
// the parameter slots they bind, in source order. Star-list and star-dict
// collectors bind after the named parameters. Both entry points forward
// the function object ahead of the slots.
func (p *ArgumentParser) Trampoline(fn *cgen.Callable) (string, []string) {
	bound := make([]string, 0, len(fn.Params)+2)
	for _, param := range fn.Params {
		bound = append(bound, "par_"+sanitizeSegment(param.Name))
	}
	if fn.StarList != "" {
		bound = append(bound, "par_"+sanitizeSegment(fn.StarList))
	}
	if fn.StarDict != "" {
		bound = append(bound, "par_"+sanitizeSegment(fn.StarDict))
	}

	var out strings.Builder
	p.renderFullParse(&out, fn, bound)
	if quick := p.QuickEntryPointName(fn); quick != "NULL" {
		p.renderQuickParse(&out, fn, quick, bound)
	}
	return out.String(), bound
}

func (p *ArgumentParser) renderFullParse(out *strings.Builder, fn *cgen.Callable, bound []string) {
	fmt.Fprintf(out, "static PyObject *%s( struct Asp_FunctionObject *self, PyObject *args, PyObject *kwargs )\n{\n",
		p.EntryPointName(fn.Identity))
	for _, slot := range bound {
		fmt.Fprintf(out, "    PyObject *%s = NULL;\n", slot)
	}
	out.WriteString("\n")

	refs := make([]string, 0, len(bound))
	for _, slot := range bound {
		refs = append(refs, "&"+slot)
	}
	slotArgs := ""
	if len(refs) > 0 {
		slotArgs = ", " + strings.Join(refs, ", ")
	}
	fmt.Fprintf(out, "    if ( !Asp_Function_ParseArgs( self, args, kwargs, %d%s ) )\n    {\n        goto parse_error_exit;\n    }\n\n",
		len(fn.Params), slotArgs)

	forwarded := append([]string{"self"}, bound...)
	fmt.Fprintf(out, "    return %s( %s );\n\n", cgen.ImplementationName(fn.Identity), strings.Join(forwarded, ", "))
	out.WriteString("parse_error_exit:\n")
	for _, slot := range bound {
		fmt.Fprintf(out, "    Py_XDECREF( %s );\n", slot)
	}
	out.WriteString("    return NULL;\n}\n")
}

func (p *ArgumentParser) renderQuickParse(out *strings.Builder, fn *cgen.Callable, name string, bound []string) {
	fmt.Fprintf(out, "\nstatic PyObject *%s( struct Asp_FunctionObject *self, PyObject **args, Py_ssize_t count )\n{\n", name)
	fmt.Fprintf(out, "    assert( count == %d );\n\n", len(fn.Params))
	args := make([]string, 0, len(bound)+1)
	args = append(args, "self")
	for i := range bound {
		fmt.Fprintf(out, "    Py_INCREF( args[%d] );\n", i)
		args = append(args, fmt.Sprintf("args[%d]", i))
	}
	out.WriteString("\n")
	fmt.Fprintf(out, "    return %s( %s );\n}\n", cgen.ImplementationName(fn.Identity), strings.Join(args, ", "))
}

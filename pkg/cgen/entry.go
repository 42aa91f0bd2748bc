package cgen

import (
	"fmt"
	"strings"
)

// localVariableInit declares one local slot. Shared variables live in heap
// cells so mutation stays visible across scopes; plain ones are raw object
// pointers.
func localVariableInit(name string, shared bool, initFrom string) string {
	if shared {
		if initFrom != "" {
			return fmt.Sprintf("PyCellObject *%s = PyCell_NEW1( %s );", localVarName(name), initFrom)
		}
		return fmt.Sprintf("PyCellObject *%s = PyCell_EMPTY();", localVarName(name))
	}
	if initFrom != "" {
		return fmt.Sprintf("PyObject *%s = %s;", localVarName(name), initFrom)
	}
	return fmt.Sprintf("PyObject *%s = NULL;", localVarName(name))
}

func errorVariableDeclarations() []string {
	return []string{
		"PyObject *exception_type = NULL, *exception_value = NULL;",
		"PyTracebackObject *exception_tb = NULL;",
	}
}

func exceptionKeeperDeclarations(index int) []string {
	return []string{
		fmt.Sprintf("PyObject *exception_keeper_type_%d;", index),
		fmt.Sprintf("PyObject *exception_keeper_value_%d;", index),
		fmt.Sprintf("PyTracebackObject *exception_keeper_tb_%d;", index),
	}
}

func exceptionPreserverDeclarations(id int) []string {
	return []string{
		fmt.Sprintf("PyObject *exception_preserved_type_%d;", id),
		fmt.Sprintf("PyObject *exception_preserved_value_%d;", id),
		fmt.Sprintf("PyTracebackObject *exception_preserved_tb_%d;", id),
	}
}

func (s *Scope) tempDeclarations() []string {
	out := make([]string, 0, len(s.tempDecls))
	for _, decl := range s.tempDecls {
		if strings.HasSuffix(decl.ctype, "*") {
			out = append(out, decl.ctype+decl.name+";")
		} else {
			out = append(out, decl.ctype+" "+decl.name+";")
		}
	}
	return out
}

func (s *Scope) tempSeeds() []string {
	var out []string
	if s.hasGeneratorReturn {
		out = append(out, "tmp_generator_return = false;")
	}
	if s.hasReturnValue {
		out = append(out, "tmp_return_value = NULL;")
	}
	for _, decl := range s.tempDecls {
		if strings.HasPrefix(decl.name, "tmp_outline_return_value_") {
			out = append(out, decl.name+" = NULL;")
		}
	}
	return out
}

// TempDeclarations exposes the scope's temporary declarations for callers
// composing a function body outside the entry composer, such as a module
// initializer assembled statement by statement.
func (s *Scope) TempDeclarations() []string {
	return s.tempDeclarations()
}

// localsBlock lays out the declaration section shared by plain entry points
// and resumable bodies. includeParams selects whether parameter slots are
// rebound to locals here (plain callables) or already live in object-owned
// storage (resumable bodies).
func (s *Scope) localsBlock(fn *Callable, includeParams bool) []string {
	var lines []string

	if includeParams {
		for _, p := range fn.Params {
			lines = append(lines, localVariableInit(p.Name, p.Shared, parSlotName(p.Name)))
		}
	}
	for _, lv := range fn.UserLocals {
		lines = append(lines, localVariableInit(lv.Name, lv.Shared, ""))
	}
	for _, name := range fn.TempLocals {
		lines = append(lines, localVariableInit(name, false, ""))
	}

	if fn.NeedsLocalsDict {
		s.MarkLocalsDict()
	}
	if s.hasLocalsDict {
		lines = append(lines, localsDictSetup)
	}

	if s.needsExceptionVars || fn.NeedsExceptionExit {
		lines = append(lines, errorVariableDeclarations()...)
	}
	for index := 1; index <= s.keeperCount; index++ {
		lines = append(lines, exceptionKeeperDeclarations(index)...)
	}
	for _, id := range s.preserverIDs {
		lines = append(lines, exceptionPreserverDeclarations(id)...)
	}

	lines = append(lines, s.tempDeclarations()...)
	lines = append(lines, s.frameDecls...)
	lines = append(lines, s.tempSeeds()...)

	return lines
}

// exitSection composes the canonical exit: the unreachable guard is always
// present, the exception exit only when the body can raise, the return exit
// only when a return-value temp exists.
func (s *Scope) exitSection(fn *Callable) string {
	var parts []string
	parts = append(parts, strings.Join(mustNotGetHere("Return statement must have exited already."), "\n"))

	cleanup := ""
	if s.hasLocalsDict {
		cleanup = localsDictCleanup
	}
	if fn.NeedsExceptionExit {
		parts = append(parts, functionExceptionExit(cleanup))
	}
	if s.hasReturnValue {
		parts = append(parts, functionReturnExit(cleanup))
	}
	return strings.Join(parts, "\n")
}

// GenerateEntryPoint assembles the full invocation target of a plain
// callable. Created callables get the generic-entry shape plus its parsing
// trampolines, even when they are also called directly: every call can
// reach them through the function object, and one definition per identity
// must hold. Only direct-only callables get the direct shape.
func (c *Context) GenerateEntryPoint(s *Scope, fn *Callable, parser ParameterParser) (string, error) {
	if fn.Suspendable() {
		panic(internalError("suspendable callable %q passed to plain entry composer", fn.Identity))
	}
	if !fn.DirectCall && !fn.CreatedCall {
		return "", fmt.Errorf("cgen: callable %q has no entry convention", fn.Identity)
	}
	if fn.NeedsReturnValue {
		s.ReturnValueTemp()
	}

	locals := strings.Join(s.localsBlock(fn, true), "\n")
	body := strings.Join(fn.Body, "\n")
	exit := s.exitSection(fn)

	var out strings.Builder

	if fn.CreatedCall {
		trampoline, bound := parser.Trampoline(fn)
		formals := make([]string, 0, len(bound)+1)
		formals = append(formals, selfFormal)
		for _, slot := range bound {
			formals = append(formals, "PyObject *"+slot)
		}
		out.WriteString(functionBodyGeneric(fn.Identity, formals, locals, body, exit))
		out.WriteString(trampoline)
	} else {
		formals := make([]string, 0, len(fn.Params)+len(fn.Closure))
		for _, p := range fn.Params {
			formals = append(formals, "PyObject *"+parSlotName(p.Name))
		}
		formals = append(formals, directClosureFormals(fn.Closure, c.caps)...)
		out.WriteString(functionBodyDirect(fn.Identity, exportScope(fn.CrossModule), formals, locals, body, exit))
	}

	return out.String(), nil
}

// GenerateCallableDecl renders the forward declaration a callable needs
// beyond its maker: the yielder declaration for generator object bodies, the
// export-scoped direct declaration for direct-only functions, nothing
// otherwise. Created callables never get a direct declaration since their
// one definition is the protocol shape.
func (c *Context) GenerateCallableDecl(fn *Callable) string {
	if fn.Suspendable() && !fn.CreatedCall && !fn.DirectCall {
		return yielderDecl(fn.Identity)
	}
	if fn.DirectCall && !fn.CreatedCall {
		formals := make([]string, 0, len(fn.Params)+len(fn.Closure))
		for _, p := range fn.Params {
			formals = append(formals, "PyObject *"+parSlotName(p.Name))
		}
		formals = append(formals, directClosureFormals(fn.Closure, c.caps)...)
		return functionDirectDecl(fn.Identity, exportScope(fn.CrossModule), formals)
	}
	return ""
}

package cgen

import (
	"fmt"
	"strings"
)

// generatorExit composes the suspension-aware exit block. Exactly one of the
// exception / no-exception variants is present; the generator-protocol
// return block is appended when the body's return value threads back through
// the suspension protocol.
func generatorExit(needsExceptionExit, needsGeneratorReturn bool) string {
	var out string
	if needsExceptionExit {
		out = generatorExceptionExit()
	} else {
		out = generatorNoExceptionExit()
	}
	if needsGeneratorReturn {
		out += generatorReturnExit()
	}
	return out
}

// resumableBody renders the procedure re-entered on every resume. Locals
// follow the same declaration rules as plain entry points; parameters are
// not rebound here because they live in object-owned storage from
// construction time.
func (c *Context) resumableBody(s *Scope, fn *Callable) string {
	if fn.NeedsGeneratorReturn {
		s.GeneratorReturnTemp()
	}
	varInits := strings.Join(s.localsBlock(fn, false), "\n")
	body := strings.Join(fn.Body, "\n")
	exit := generatorExit(fn.NeedsExceptionExit, fn.NeedsGeneratorReturn)
	return yielderBody(fn.Identity, varInits, body, exit)
}

// parameterCopyStatements freezes the call's parameters into the array the
// suspendable object owns. Shared parameters are boxed into fresh cells with
// one new reference; plain ones are copied by pointer.
func parameterCopyStatements(params []Param) []string {
	stmts := make([]string, 0, len(params))
	for i, p := range params {
		if p.Shared {
			stmts = append(stmts, fmt.Sprintf(
				"parameters[%d] = (PyObject *)PyCell_NEW1( %s );", i, parSlotName(p.Name)))
		} else {
			stmts = append(stmts, fmt.Sprintf(
				"parameters[%d] = %s;", i, parSlotName(p.Name)))
		}
	}
	return stmts
}

func parameterDecl(params []Param) string {
	if len(params) == 0 {
		return generatorParametersAbsent()
	}
	return generatorParametersPresent(len(params), parameterCopyStatements(params))
}

// closureDecl selects among the three capture declaration variants: no
// closure, "own closure" boxed inside the defining scope, or "parent
// closure" inherited unchanged from the enclosing suspendable object.
func closureDecl(closure []ClosureVar, kind ClosureKind) string {
	switch kind {
	case ClosureNone:
		return generatorClosureAbsent()
	case ClosureOwn:
		return generatorClosureOwn(closureCopyStatements(closure))
	case ClosureParent:
		return generatorClosureParent()
	default:
		panic(internalError("unknown closure kind %d", kind))
	}
}

func closureKindFor(fn *Callable, forDirectCall bool) ClosureKind {
	if len(fn.Closure) == 0 {
		return ClosureNone
	}
	if forDirectCall {
		return ClosureOwn
	}
	return ClosureParent
}

// GenerateGeneratorFunction lowers a generator (or coroutine) function into
// the resumable-body procedure plus the construction path that copies
// parameters and closure into object-owned storage. Copying happens before
// Asp_Generator_New publishes the instance, so no resume can observe a
// partially initialized capture array.
func (c *Context) GenerateGeneratorFunction(s *Scope, fn *Callable, parser ParameterParser) (string, error) {
	if !fn.Suspendable() {
		panic(internalError("plain callable %q passed to suspension lowering", fn.Identity))
	}
	if !fn.DirectCall && !fn.CreatedCall {
		return "", fmt.Errorf("cgen: callable %q has no entry convention", fn.Identity)
	}

	codeIdentifier := c.RegisterCodeObject(codeObjectMetaFor(fn))

	var out strings.Builder
	out.WriteString(c.resumableBody(s, fn))

	var formals []string
	var trampoline string
	if s.forDirectCall {
		for _, p := range fn.Params {
			formals = append(formals, "PyObject *"+parSlotName(p.Name))
		}
		// Direct calls hand the captured cells over as trailing arguments.
		for _, cv := range fn.Closure {
			formals = append(formals, "PyCellObject *"+cellVarName(cv.Name))
		}
	} else {
		var bound []string
		trampoline, bound = parser.Trampoline(fn)
		// The protocol shape binds the function object itself; the
		// construction path reads its name, qualname and closure.
		formals = append(formals, selfFormal)
		for _, slot := range bound {
			formals = append(formals, "PyObject *"+slot)
		}
	}

	out.WriteString(genfuncImpl(genfuncImplVars{
		identity:       fn.Identity,
		formals:        formals,
		parameterDecl:  parameterDecl(fn.Params),
		parameterCount: len(fn.Params),
		closureDecl:    closureDecl(fn.Closure, closureKindFor(fn, s.forDirectCall)),
		closureCount:   len(fn.Closure),
		nameObj:        c.generatorNameConstant(fn, s.forDirectCall),
		qualnameObj:    c.generatorQualnameConstant(fn, s.forDirectCall),
		codeIdentifier: codeIdentifier,
	}))

	if !s.forDirectCall {
		out.WriteString(trampoline)
	}

	return out.String(), nil
}

// GenerateGeneratorObjectBody renders only the resumable body of an inline
// generator expression; construction happens at the use site via
// EmitGeneratorObjectCreation.
func (c *Context) GenerateGeneratorObjectBody(s *Scope, fn *Callable) string {
	if !fn.Suspendable() {
		panic(internalError("plain callable %q passed to suspension lowering", fn.Identity))
	}
	return c.resumableBody(s, fn)
}

// EmitGeneratorObjectCreation constructs a generator instance at an
// expression site. The yielder helper and its declaration are emitted once
// per identity; every site only emits the making code.
func (c *Context) EmitGeneratorObjectCreation(s, bodyScope *Scope, toName string, fn *Callable, emit *Collector) {
	codeIdentifier := c.RegisterCodeObject(codeObjectMetaFor(fn))

	if !c.HasHelper(fn.Identity) {
		c.addHelper(fn.Identity, c.GenerateGeneratorObjectBody(bodyScope, fn))
		c.addDeclaration(fn.Identity, yielderDecl(fn.Identity))
	}

	v := generatorMakingVars{
		toName:         toName,
		identity:       fn.Identity,
		nameObj:        c.renderConstant(fn.Name),
		qualnameObj:    c.qualnameConstant(fn),
		codeIdentifier: codeIdentifier,
		closureCount:   len(fn.Closure),
	}

	if len(fn.Closure) > 0 {
		v.closureMaking = closureDecl(fn.Closure, ClosureOwn)
		emit.Emit(generatorMakingWithContext(v))
	} else {
		emit.Emit(generatorMakingWithoutContext(v))
	}

	s.AddCleanup(toName)
}

// EmitCoroutineCreation constructs a coroutine instance. Template choice
// follows closure presence only.
func (c *Context) EmitCoroutineCreation(s, bodyScope *Scope, toName string, fn *Callable, emit *Collector) {
	codeIdentifier := c.RegisterCodeObject(codeObjectMetaFor(fn))

	if !c.HasHelper(fn.Identity) {
		c.addHelper(fn.Identity, c.GenerateGeneratorObjectBody(bodyScope, fn))
		c.addDeclaration(fn.Identity, yielderDecl(fn.Identity))
	}

	if len(fn.Closure) > 0 {
		emit.Emit(coroutineMakingWithContext(toName, codeIdentifier))
	} else {
		emit.Emit(coroutineMakingWithoutContext(toName, codeIdentifier))
	}

	s.AddCleanup(toName)
}

// GenerateGeneratorEntry emits the resumable body's preamble that diverts an
// injected-exception resume (a throw into the suspended instance) to the
// exception exit instead of the saved resume point.
func GenerateGeneratorEntry(lineNumberUpdate string, emit *Collector) {
	for _, line := range generatorInitialThrow("function_exception_exit", lineNumberUpdate) {
		emit.Emit(line)
	}
}

func (c *Context) generatorNameConstant(fn *Callable, forDirectCall bool) string {
	if c.caps.SelfDescribing && !forDirectCall {
		return "self->m_name"
	}
	return c.renderConstant(fn.Name)
}

func (c *Context) generatorQualnameConstant(fn *Callable, forDirectCall bool) string {
	if !c.caps.QualifiedNames {
		return "NULL"
	}
	if c.caps.SelfDescribing && !forDirectCall {
		return "self->m_qualname"
	}
	return c.qualnameConstant(fn)
}

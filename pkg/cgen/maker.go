package cgen

import (
	"strings"
)

// GenerateCallableCreation emits the code that leaves a freshly constructed
// callable object in toName. Maker body and forward declaration are produced
// at most once per identity; every further creation site only emits the
// invocation.
func (c *Context) GenerateCallableCreation(s *Scope, toName string, fn *Callable, parser ParameterParser, emit *Collector) {
	var defaultsName, kwDefaultsName string

	if fn.DefaultsFirst {
		defaultsName = c.materializeDefaults(s, fn, emit)
		kwDefaultsName = c.materializeKwDefaults(s, fn, emit)
	} else {
		kwDefaultsName = c.materializeKwDefaults(s, fn, emit)
		defaultsName = c.materializeDefaults(s, fn, emit)
	}
	annotationsName := c.materializeAnnotations(s, fn, emit)

	if !c.HasHelper(fn.Identity) {
		codeIdentifier := c.RegisterCodeObject(codeObjectMetaFor(fn))
		c.addHelper(fn.Identity, c.makerCode(fn, parser, codeIdentifier))
		c.addDeclaration(fn.Identity, makerDeclTemplate(
			fn.Identity,
			creationArgs(fn.hasDefaults(), fn.hasKwDefaults(), fn.hasAnnotations(), fn.Closure),
		))
	}

	c.emitCreationCall(s, toName, fn, defaultsName, kwDefaultsName, annotationsName, emit)
}

func (c *Context) materializeDefaults(s *Scope, fn *Callable, emit *Collector) string {
	if !fn.hasDefaults() {
		return ""
	}
	name := s.AllocateTemp("defaults")
	elements := make([]string, 0, len(fn.Defaults))
	for _, value := range fn.Defaults {
		elements = append(elements, c.renderConstant(value))
	}
	emit.Emitf("%s = Asp_Tuple_Pack( %d, %s );", name, len(elements), strings.Join(elements, ", "))
	s.AddCleanup(name)
	return name
}

func (c *Context) materializeKwDefaults(s *Scope, fn *Callable, emit *Collector) string {
	if fn.KwDefaults == nil {
		return ""
	}
	// A statically empty keyword-defaults mapping is elided upstream; its
	// arrival here is a front-end defect.
	if len(fn.KwDefaults) == 0 {
		panic(internalError("empty kw-defaults mapping for %q", fn.Identity))
	}
	name := s.AllocateTemp("kw_defaults")
	emit.Emitf("%s = %s;", name, c.renderConstant(fn.KwDefaults))
	emit.Emitf("Py_INCREF( %s );", name)
	s.AddCleanup(name)
	return name
}

func (c *Context) materializeAnnotations(s *Scope, fn *Callable, emit *Collector) string {
	if !fn.hasAnnotations() {
		return ""
	}
	name := s.AllocateTemp("annotations")
	emit.Emitf("%s = %s;", name, c.renderConstant(fn.Annotations))
	emit.Emitf("Py_INCREF( %s );", name)
	s.AddCleanup(name)
	return name
}

func (c *Context) makerCode(fn *Callable, parser ParameterParser, codeIdentifier string) string {
	v := makerVars{
		identity: fn.Identity,
		creationArgs: creationArgs(
			fn.hasDefaults(), fn.hasKwDefaults(), fn.hasAnnotations(), fn.Closure,
		),
		closureCount:   len(fn.Closure),
		fparseName:     parser.EntryPointName(fn.Identity),
		dparseName:     parser.QuickEntryPointName(fn),
		nameObj:        c.renderConstant(fn.Name),
		qualnameObj:    c.qualnameConstant(fn),
		codeIdentifier: codeIdentifier,
		docObj:         c.renderConstant(fn.Doc),
		moduleAccess:   c.moduleAccess,
	}
	if fn.hasDefaults() {
		v.defaults = "defaults"
	} else {
		v.defaults = "NULL"
	}
	if fn.hasKwDefaults() {
		v.kwDefaults = "kw_defaults"
	} else {
		v.kwDefaults = "NULL"
	}
	if fn.hasAnnotations() {
		v.annotations = "annotations"
	} else {
		v.annotations = c.renderConstant(map[string]interface{}{})
	}

	if len(fn.Closure) > 0 {
		v.contextCopy = closureCopyStatements(fn.Closure)
		if fn.IsGenerator {
			return genfuncMakerWithContext(v)
		}
		return functionMakerWithContext(v)
	}
	if fn.IsGenerator {
		return genfuncMakerWithoutContext(v)
	}
	return functionMakerWithoutContext(v)
}

// qualnameConstant omits the qualified-name object when it would duplicate
// the plain name constant, or when the target runtime has no separate
// qualified name at all.
func (c *Context) qualnameConstant(fn *Callable) string {
	if !c.caps.QualifiedNames || fn.Qualname == "" || fn.Qualname == fn.Name {
		return "NULL"
	}
	return c.renderConstant(fn.Qualname)
}

func (c *Context) emitCreationCall(s *Scope, toName string, fn *Callable, defaultsName, kwDefaultsName, annotationsName string, emit *Collector) {
	var args []string
	if defaultsName != "" {
		args = append(args, defaultsName)
	}
	if kwDefaultsName != "" {
		args = append(args, kwDefaultsName)
	}
	if annotationsName != "" {
		args = append(args, annotationsName)
	}
	args = append(args, closureProvisionArgs(fn.Closure)...)

	emit.Emitf("%s = %s( %s );", toName, makerName(fn.Identity), strings.Join(args, ", "))

	// Defaults and keyword defaults are owned by the constructed object
	// from here on.
	if s.NeedsCleanup(defaultsName) {
		s.TransferCleanup(defaultsName)
	}
	if s.NeedsCleanup(kwDefaultsName) {
		s.TransferCleanup(kwDefaultsName)
	}
	// The constructed object keeps its own annotations reference; ours is
	// released right away.
	if s.NeedsCleanup(annotationsName) {
		s.ReleaseCleanup(annotationsName, emit)
	}

	// Construction cannot fail, so no error exit here.
	s.AddCleanup(toName)
}

// errorExitCheck appends the conditional error check for a result slot. The
// needs-check decision belongs to the front end and is trusted.
func errorExitCheck(toName string, needsCheck bool, emit *Collector) {
	if !needsCheck {
		return
	}
	emit.Emitf("if ( %s == NULL )", toName)
	emit.Emit("{")
	emit.Emit("    exception_type = Asp_Error_Fetch( &exception_value, &exception_tb );")
	emit.Emit("    goto function_exception_exit;")
	emit.Emit("}")
}

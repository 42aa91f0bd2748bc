package cgen

import "strings"

// EmitDirectCall invokes a statically known callable without crossing the
// generic invocation protocol. The callee receives one full reference per
// argument: temps we own are handed over outright, everything else gets an
// increment first. Captured cells follow the explicit arguments in capture
// order.
func (c *Context) EmitDirectCall(s *Scope, toName string, fn *Callable, argNames []string, needsCheck bool, emit *Collector) {
	for _, argName := range argNames {
		if !s.NeedsCleanup(argName) {
			emit.Emitf("Py_INCREF( %s );", argName)
		}
	}

	args := make([]string, 0, len(argNames)+len(fn.Closure))
	args = append(args, argNames...)
	args = append(args, closureProvisionArgs(fn.Closure)...)

	emit.Emitf("%s = %s( %s );", toName, directEntryPointName(fn.Identity), strings.Join(args, ", "))

	// Arguments are owned by the callee from here on.
	for _, argName := range argNames {
		if s.NeedsCleanup(argName) {
			s.TransferCleanup(argName)
		}
	}

	if needsCheck {
		s.MarkExceptionVariables()
	}
	errorExitCheck(toName, needsCheck, emit)

	s.AddCleanup(toName)
}

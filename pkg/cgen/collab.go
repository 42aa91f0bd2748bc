package cgen

// ConstantRenderer materializes constant values into reference expressions
// backed by the unit's constant pool. Returned expressions are borrowed
// references.
type ConstantRenderer interface {
	Render(value interface{}) string
}

// ParameterParser generates the generic-entry trampoline for a parameter
// set and names the externally visible entry points.
type ParameterParser interface {
	// Trampoline returns the parameter-parsing entry code for the callable
	// and the parameter slot names it binds, in source order. The entry
	// points forward the function object ahead of the bound slots; the
	// protocol-shape body binds it as its first formal.
	Trampoline(fn *Callable) (code string, bound []string)

	// EntryPointName is the tuple/dict argument entry point.
	EntryPointName(identity string) string

	// QuickEntryPointName is the fast-path entry point for positional-only
	// invocation.
	QuickEntryPointName(fn *Callable) string
}

// directEntryPointName follows from the identity alone; direct calls never
// cross the invocation protocol.
func directEntryPointName(identity string) string {
	return "impl_function_" + sanitizeIdent(identity)
}

// ImplementationName names the entry-point body generated for a callable.
// Trampolines produced by a ParameterParser forward to this symbol.
func ImplementationName(identity string) string {
	return directEntryPointName(identity)
}

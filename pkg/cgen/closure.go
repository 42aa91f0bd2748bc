package cgen

import "fmt"

// closureProvisionArgs renders the call-site expressions handing each
// captured cell to a constructor or direct call, in source order.
func closureProvisionArgs(closure []ClosureVar) []string {
	args := make([]string, 0, len(closure))
	for _, cv := range closure {
		args = append(args, cellVarName(cv.Name))
	}
	return args
}

// creationArgs is the constructor's formal parameter list: defaults,
// keyword defaults, annotations (each only when present), then one cell per
// closure variable, in that fixed order.
func creationArgs(hasDefaults, hasKwDefaults, hasAnnotations bool, closure []ClosureVar) []string {
	var args []string
	if hasDefaults {
		args = append(args, "PyObject *defaults")
	}
	if hasKwDefaults {
		args = append(args, "PyObject *kw_defaults")
	}
	if hasAnnotations {
		args = append(args, "PyObject *annotations")
	}
	for _, cv := range closure {
		args = append(args, "PyCellObject *"+cellVarName(cv.Name))
	}
	return args
}

// closureCopyStatements transfers the captured cells into a freshly
// allocated capture array, taking one new reference per cell. The array is
// owned by the constructed callable afterwards.
func closureCopyStatements(closure []ClosureVar) []string {
	if len(closure) == 0 {
		return nil
	}
	stmts := make([]string, 0, len(closure)*2+1)
	stmts = append(stmts, fmt.Sprintf(
		"PyCellObject **closure = (PyCellObject **)malloc( %d * sizeof(PyCellObject *) );",
		len(closure),
	))
	for i, cv := range closure {
		stmts = append(stmts, fmt.Sprintf("closure[%d] = %s;", i, cellVarName(cv.Name)))
		stmts = append(stmts, fmt.Sprintf("Py_INCREF( closure[%d] );", i))
	}
	return stmts
}

// directClosureFormals renders closure-capture formals for a directly called
// inner function. Shared variables always travel as cells; a plain variable
// is a live alias only when the target call convention permits it.
func directClosureFormals(closure []ClosureVar, caps Capabilities) []string {
	formals := make([]string, 0, len(closure))
	for _, cv := range closure {
		if cv.Shared || !caps.DirectAliasParams {
			formals = append(formals, "PyCellObject *"+cellVarName(cv.Name))
			continue
		}
		formals = append(formals, "PyObject **"+cellVarName(cv.Name))
	}
	return formals
}

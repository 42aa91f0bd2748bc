package cgen

import (
	"fmt"
	"strings"
)

// Every binary choice below maps to its own template function. The selection
// happens at the call site; each variant is a pure function from structured
// input to text.

type makerVars struct {
	identity       string
	creationArgs   []string
	contextCopy    []string
	closureCount   int
	fparseName     string
	dparseName     string
	nameObj        string
	qualnameObj    string
	codeIdentifier string
	docObj         string
	defaults       string
	kwDefaults     string
	annotations    string
	moduleAccess   string
}

// formalArgs joins a formal parameter list, spelling out void for an empty
// one.
func formalArgs(args []string) string {
	if len(args) == 0 {
		return "void"
	}
	return strings.Join(args, ", ")
}

// selfFormal binds the function object in protocol-shape entry points.
// The parsing trampolines receive it from the invocation protocol and
// forward it so the body can read the instance's name, qualname and
// closure.
const selfFormal = "struct Asp_FunctionObject *self"

func makerDeclTemplate(identity string, args []string) string {
	return fmt.Sprintf("static PyObject *%s( %s );\n", makerName(identity), formalArgs(args))
}

func functionMakerWithContext(v makerVars) string {
	return fmt.Sprintf(`static PyObject *%s( %s )
{
%s

    PyObject *result = Asp_Function_NewClosure(
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        closure,
        %d
    );

    return result;
}
`,
		makerName(v.identity), formalArgs(v.creationArgs),
		indentedLines(v.contextCopy, 1),
		v.fparseName, v.dparseName, v.nameObj, v.qualnameObj,
		v.codeIdentifier, v.defaults, v.kwDefaults, v.annotations,
		v.moduleAccess, v.docObj, v.closureCount)
}

func functionMakerWithoutContext(v makerVars) string {
	return fmt.Sprintf(`static PyObject *%s( %s )
{
    PyObject *result = Asp_Function_New(
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s
    );

    return result;
}
`,
		makerName(v.identity), formalArgs(v.creationArgs),
		v.fparseName, v.dparseName, v.nameObj, v.qualnameObj,
		v.codeIdentifier, v.defaults, v.kwDefaults, v.annotations,
		v.moduleAccess, v.docObj)
}

func genfuncMakerWithContext(v makerVars) string {
	return fmt.Sprintf(`static PyObject *%s( %s )
{
%s

    PyObject *result = Asp_GeneratorFunction_NewClosure(
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        closure,
        %d
    );

    return result;
}
`,
		makerName(v.identity), formalArgs(v.creationArgs),
		indentedLines(v.contextCopy, 1),
		v.fparseName, v.dparseName, v.nameObj, v.qualnameObj,
		v.codeIdentifier, v.defaults, v.kwDefaults, v.annotations,
		v.moduleAccess, v.docObj, v.closureCount)
}

func genfuncMakerWithoutContext(v makerVars) string {
	return fmt.Sprintf(`static PyObject *%s( %s )
{
    PyObject *result = Asp_GeneratorFunction_New(
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s,
        %s
    );

    return result;
}
`,
		makerName(v.identity), formalArgs(v.creationArgs),
		v.fparseName, v.dparseName, v.nameObj, v.qualnameObj,
		v.codeIdentifier, v.defaults, v.kwDefaults, v.annotations,
		v.moduleAccess, v.docObj)
}

func mustNotGetHere(reason string) []string {
	return []string{
		"// " + reason,
		fmt.Sprintf("ASP_CANNOT_GET_HERE( %q );", reason),
		"return NULL;",
	}
}

func functionExceptionExit(cleanup string) string {
	return fmt.Sprintf(`function_exception_exit:
    assert( exception_type );
%s    Asp_Error_Restore( exception_type, exception_value, exception_tb );
    return NULL;
`, cleanupBlock(cleanup))
}

func functionReturnExit(cleanup string) string {
	return fmt.Sprintf(`function_return_exit:
%s    return tmp_return_value;
`, cleanupBlock(cleanup))
}

func cleanupBlock(cleanup string) string {
	if cleanup == "" {
		return ""
	}
	return indented(cleanup, 1) + "\n"
}

const localsDictSetup = `PyObject *locals_dict = PyDict_New();`
const localsDictCleanup = `Py_DECREF( locals_dict );`

func functionBodyGeneric(identity string, formals []string, locals, body, exit string) string {
	return fmt.Sprintf(`static PyObject *%s( %s )
{
%s

%s

%s
}
`, directEntryPointName(identity), formalArgs(formals),
		indented(locals, 1), indented(body, 1), indented(exit, 1))
}

func functionBodyDirect(identity, fileScope string, formals []string, locals, body, exit string) string {
	return fmt.Sprintf(`%s PyObject *%s( %s )
{
%s

%s

%s
}
`, fileScope, directEntryPointName(identity), formalArgs(formals),
		indented(locals, 1), indented(body, 1), indented(exit, 1))
}

func functionDirectDecl(identity, fileScope string, formals []string) string {
	return fmt.Sprintf("%s PyObject *%s( %s );\n",
		fileScope, directEntryPointName(identity), formalArgs(formals))
}

func yielderDecl(identity string) string {
	return fmt.Sprintf("static void %s( struct Asp_GeneratorObject *generator );\n", resumableImplName(identity))
}

func yielderBody(identity, varInits, body, exit string) string {
	return fmt.Sprintf(`static void %s( struct Asp_GeneratorObject *generator )
{
%s

%s

%s
}
`, resumableImplName(identity), indented(varInits, 1), indented(body, 1), indented(exit, 1))
}

func generatorExceptionExit() string {
	return `function_exception_exit:
    assert( exception_type );
    Asp_Generator_SetException( generator, exception_type, exception_value, exception_tb );
    generator->m_yielded = NULL;
    return;
`
}

func generatorNoExceptionExit() string {
	return `    Asp_Generator_Finish( generator );
    generator->m_yielded = NULL;
    return;
`
}

func generatorReturnExit() string {
	return `function_return_exit:
    Asp_Generator_SetReturnValue( generator, tmp_return_value );
    generator->m_yielded = NULL;
    return;
`
}

// generatorInitialThrow gives an injected-exception resume its own entry
// path, distinct from a normal value resume.
func generatorInitialThrow(exceptionExit, lineNumberUpdate string) []string {
	lines := []string{
		"if ( generator->m_exception_type != NULL )",
		"{",
	}
	if lineNumberUpdate != "" {
		lines = append(lines, "    "+lineNumberUpdate)
	}
	lines = append(lines,
		"    generator->m_yielded = NULL;",
		"    goto "+exceptionExit+";",
		"}",
	)
	return lines
}

func generatorParametersPresent(count int, parameterCopy []string) string {
	return fmt.Sprintf(`PyObject **parameters = (PyObject **)malloc( %d * sizeof(PyObject *) );
%s`, count, strings.Join(parameterCopy, "\n"))
}

func generatorParametersAbsent() string {
	return `PyObject **parameters = NULL;`
}

func generatorClosureOwn(closureCopy []string) string {
	return strings.Join(closureCopy, "\n")
}

func generatorClosureParent() string {
	return `PyCellObject **closure = self->m_closure;`
}

func generatorClosureAbsent() string {
	return `PyCellObject **closure = NULL;`
}

type genfuncImplVars struct {
	identity       string
	formals        []string
	parameterDecl  string
	parameterCount int
	closureDecl    string
	closureCount   int
	nameObj        string
	qualnameObj    string
	codeIdentifier string
}

// genfuncImpl is the construction path of a generator function: invoked per
// call, it freezes parameters and closure into storage owned by the new
// generator object before any resume can run.
func genfuncImpl(v genfuncImplVars) string {
	return fmt.Sprintf(`static PyObject *%s( %s )
{
%s
%s

    return Asp_Generator_New(
        %s,
        %s,
        %s,
        %s,
        parameters,
        %d,
        closure,
        %d
    );
}
`, directEntryPointName(v.identity), formalArgs(v.formals),
		indented(v.parameterDecl, 1), indented(v.closureDecl, 1),
		resumableImplName(v.identity), v.nameObj, v.qualnameObj,
		v.codeIdentifier, v.parameterCount, v.closureCount)
}

type generatorMakingVars struct {
	toName         string
	identity       string
	nameObj        string
	qualnameObj    string
	codeIdentifier string
	closureMaking  string
	closureCount   int
}

func generatorMakingWithContext(v generatorMakingVars) string {
	return fmt.Sprintf(`{
%s

    %s = Asp_Generator_New( %s, %s, %s, %s, NULL, 0, closure, %d );
}`, indented(v.closureMaking, 1), v.toName, resumableImplName(v.identity),
		v.nameObj, v.qualnameObj, v.codeIdentifier, v.closureCount)
}

func generatorMakingWithoutContext(v generatorMakingVars) string {
	return fmt.Sprintf("%s = Asp_Generator_New( %s, %s, %s, %s, NULL, 0, NULL, 0 );",
		v.toName, resumableImplName(v.identity), v.nameObj, v.qualnameObj, v.codeIdentifier)
}

func coroutineMakingWithContext(toName, codeIdentifier string) string {
	return fmt.Sprintf("%s = Asp_Coroutine_New( %s, self->m_closure, self->m_closure_given );",
		toName, codeIdentifier)
}

func coroutineMakingWithoutContext(toName, codeIdentifier string) string {
	return fmt.Sprintf("%s = Asp_Coroutine_New( %s, NULL, 0 );", toName, codeIdentifier)
}

func exportScope(crossModule bool) string {
	if crossModule {
		return "ASP_CROSS_MODULE"
	}
	return "ASP_LOCAL_MODULE"
}

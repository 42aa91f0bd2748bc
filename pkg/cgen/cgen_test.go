package cgen

import (
	"fmt"
	"sort"
	"strings"
)

// testConstants is a tiny constant pool standing in for the constant
// materialization collaborator.
type testConstants struct{}

func (testConstants) Render(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "Py_None"
	case string:
		if v == "" {
			return "const_str_empty"
		}
		return "const_str_plain_" + sanitizeIdent(v)
	case int:
		return fmt.Sprintf("const_int_%d", v)
	case map[string]interface{}:
		if len(v) == 0 {
			return "const_dict_empty"
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return "const_dict_" + sanitizeIdent(strings.Join(keys, "_"))
	default:
		return fmt.Sprintf("const_%v", v)
	}
}

type testParser struct{}

func (testParser) Trampoline(fn *Callable) (string, []string) {
	bound := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		bound = append(bound, parSlotName(p.Name))
	}
	code := fmt.Sprintf("static PyObject *%s( PyObject *args, PyObject *kwargs )\n{\n    /* trampoline */\n}\n",
		"fparse_"+sanitizeIdent(fn.Identity))
	return code, bound
}

func (testParser) EntryPointName(identity string) string {
	return "fparse_" + sanitizeIdent(identity)
}

func (testParser) QuickEntryPointName(fn *Callable) string {
	return "dparse_" + sanitizeIdent(fn.Identity)
}

func newTestContext() *Context {
	return NewContext(DefaultCapabilities(), testConstants{}, "module_testmod")
}

func plainCallable(identity string) *Callable {
	return &Callable{
		Identity:    identity,
		Name:        identity,
		Qualname:    identity,
		Filename:    "test.asp",
		Line:        1,
		CreatedCall: true,
		Body:        []string{"tmp_return_value = Py_None;", "Py_INCREF( tmp_return_value );", "goto function_return_exit;"},
	}
}

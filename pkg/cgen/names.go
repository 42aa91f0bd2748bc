package cgen

import (
	"strings"
	"unicode"
)

var cKeywords = map[string]struct{}{
	"auto": {}, "break": {}, "case": {}, "char": {}, "const": {},
	"continue": {}, "default": {}, "do": {}, "double": {}, "else": {},
	"enum": {}, "extern": {}, "float": {}, "for": {}, "goto": {},
	"if": {}, "int": {}, "long": {}, "register": {}, "return": {},
	"short": {}, "signed": {}, "sizeof": {}, "static": {}, "struct": {},
	"switch": {}, "typedef": {}, "union": {}, "unsigned": {}, "void": {},
	"volatile": {}, "while": {},
}

func sanitizeIdent(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if i == 0 && unicode.IsDigit(r) {
				b.WriteByte('_')
			}
			if r > unicode.MaxASCII {
				b.WriteByte('_')
				continue
			}
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	out := b.String()
	if _, ok := cKeywords[out]; ok {
		return "_" + out
	}
	return out
}

// parSlotName is the incoming parameter slot a call convention fills before
// the body runs.
func parSlotName(name string) string {
	return "par_" + sanitizeIdent(name)
}

// localVarName is the declaration name of a plain user or temp local.
func localVarName(name string) string {
	return "var_" + sanitizeIdent(name)
}

// cellVarName is the captured-context name of a closure variable. The cell
// lives in the callable's captured storage, not the enclosing C scope.
func cellVarName(name string) string {
	return "cell_" + sanitizeIdent(name)
}

func makerName(identity string) string {
	return "MAKE_FUNCTION_" + sanitizeIdent(identity)
}

func resumableImplName(identity string) string {
	return "impl_" + sanitizeIdent(identity)
}

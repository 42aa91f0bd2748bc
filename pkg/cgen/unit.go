package cgen

import (
	"bytes"
	"fmt"
	"strings"
)

// UnitInfo carries the identity stamped into an emitted translation unit.
type UnitInfo struct {
	Name     string
	Revision string
}

// RenderTranslationUnit lays out the final C text: code-object constants,
// forward declarations, then helper fragments (every maker precedes the
// call sites that reference it by construction), then the entry-point
// bodies in lowering order. The companion header collects the externally
// visible declarations; file-scoped ones stay in the source.
func (c *Context) RenderTranslationUnit(info UnitInfo, bodies []string) map[string][]byte {
	revision := info.Revision
	if revision == "" {
		revision = "unversioned"
	}
	name := info.Name
	if name == "" {
		name = "unit"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "/* Generated code for unit %q (%s). Do not edit. */\n\n", name, revision)
	fmt.Fprintf(&buf, "#include \"asp/runtime.h\"\n\n")

	// Code-object initialization references pooled constants, so the
	// declaration section comes first.
	decls, inits := c.CodeObjectDeclarations()
	forward := c.Declarations()
	for _, decl := range forward {
		buf.WriteString(decl)
	}
	if len(forward) > 0 {
		buf.WriteString("\n")
	}

	if len(decls) > 0 {
		buf.WriteString(strings.Join(decls, "\n"))
		buf.WriteString("\n\n")
		fmt.Fprintf(&buf, "static void init_codeobjects_%s( void )\n{\n", sanitizeIdent(name))
		buf.WriteString(indentedLines(inits, 1))
		buf.WriteString("\n}\n\n")
	}

	for _, helper := range c.Helpers() {
		buf.WriteString(helper)
		buf.WriteString("\n")
	}

	for _, body := range bodies {
		buf.WriteString(body)
		buf.WriteString("\n")
	}

	var header bytes.Buffer
	guard := "ASP_UNIT_" + strings.ToUpper(sanitizeIdent(name)) + "_H"
	fmt.Fprintf(&header, "/* Declarations for unit %q (%s). Do not edit. */\n", name, revision)
	fmt.Fprintf(&header, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(&header, "#include \"asp/runtime.h\"\n\n")
	for _, decl := range forward {
		// File-scoped and module-private declarations stay in the
		// translation unit; only exported symbols reach the header.
		if strings.HasPrefix(decl, "static ") || strings.HasPrefix(decl, "ASP_LOCAL_MODULE ") {
			continue
		}
		header.WriteString(decl)
	}
	fmt.Fprintf(&header, "\n#endif\n")

	return map[string][]byte{
		sanitizeIdent(name) + ".c": buf.Bytes(),
		sanitizeIdent(name) + ".h": header.Bytes(),
	}
}

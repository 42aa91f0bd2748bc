package cgen

import (
	"fmt"
	"sort"
	"strings"
)

// CodeObjectMeta is the introspection metadata registered for one callable
// definition. It feeds the runtime's code-object constants; the core only
// threads the resulting handle into constructor and resumable-body output.
type CodeObjectMeta struct {
	Filename    string
	Name        string
	Line        int
	ArgCount    int
	KwOnlyCount int
	VarNames    []string
	IsGenerator bool
	IsCoroutine bool
	IsOptimized bool
	HasStarList bool
	HasStarDict bool
	HasClosure  bool
}

func (m CodeObjectMeta) key() string {
	return fmt.Sprintf("%s:%d:%s:%d:%d:%s:%t:%t:%t:%t:%t:%t",
		m.Filename, m.Line, m.Name, m.ArgCount, m.KwOnlyCount,
		strings.Join(m.VarNames, ","), m.IsGenerator, m.IsCoroutine,
		m.IsOptimized, m.HasStarList, m.HasStarDict, m.HasClosure)
}

type codeObjectRegistry struct {
	handles map[string]string
	order   []string
	metas   map[string]CodeObjectMeta
}

func newCodeObjectRegistry() *codeObjectRegistry {
	return &codeObjectRegistry{
		handles: make(map[string]string),
		metas:   make(map[string]CodeObjectMeta),
	}
}

// RegisterCodeObject returns the stable handle for the metadata, creating it
// on first sight. Identical metadata shares one handle.
func (c *Context) RegisterCodeObject(meta CodeObjectMeta) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := meta.key()
	if handle, ok := c.codeObjects.handles[key]; ok {
		return handle
	}
	handle := fmt.Sprintf("codeobj_%s_%d", sanitizeIdent(meta.Name), len(c.codeObjects.order)+1)
	c.codeObjects.handles[key] = handle
	c.codeObjects.order = append(c.codeObjects.order, key)
	c.codeObjects.metas[key] = meta
	return handle
}

// CodeObjectDeclarations renders the static handle declarations plus the
// one-time init statements, in registration order.
func (c *Context) CodeObjectDeclarations() (decls []string, inits []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.codeObjects.order {
		meta := c.codeObjects.metas[key]
		handle := c.codeObjects.handles[key]
		decls = append(decls, fmt.Sprintf("static PyCodeObject *%s;", handle))
		flags := codeObjectFlags(meta)
		inits = append(inits, fmt.Sprintf(
			"%s = Asp_CodeObject_New( %s, %s, %d, %d, %d, %s );",
			handle,
			c.consts.Render(meta.Filename),
			c.consts.Render(meta.Name),
			meta.Line,
			meta.ArgCount,
			meta.KwOnlyCount,
			flags,
		))
	}
	return decls, inits
}

func codeObjectFlags(meta CodeObjectMeta) string {
	var flags []string
	if meta.IsGenerator {
		flags = append(flags, "ASP_CO_GENERATOR")
	}
	if meta.IsCoroutine {
		flags = append(flags, "ASP_CO_COROUTINE")
	}
	if meta.IsOptimized {
		flags = append(flags, "ASP_CO_OPTIMIZED")
	}
	if meta.HasStarList {
		flags = append(flags, "ASP_CO_VARARGS")
	}
	if meta.HasStarDict {
		flags = append(flags, "ASP_CO_VARKEYWORDS")
	}
	if meta.HasClosure {
		flags = append(flags, "ASP_CO_CLOSURE")
	}
	if len(flags) == 0 {
		return "0"
	}
	sort.Strings(flags)
	return strings.Join(flags, " | ")
}

// codeObjectMetaFor assembles registration metadata from a callable
// description the way the front end hands it over.
func codeObjectMetaFor(fn *Callable) CodeObjectMeta {
	varNames := make([]string, 0, len(fn.Params)+len(fn.UserLocals))
	for _, p := range fn.Params {
		varNames = append(varNames, p.Name)
	}
	for _, lv := range fn.UserLocals {
		varNames = append(varNames, lv.Name)
	}
	return CodeObjectMeta{
		Filename:    fn.Filename,
		Name:        fn.Name,
		Line:        fn.Line,
		ArgCount:    fn.ParamCount(),
		VarNames:    varNames,
		IsGenerator: fn.IsGenerator,
		IsCoroutine: fn.IsCoroutine,
		IsOptimized: !fn.NeedsLocalsDict,
		HasStarList: fn.StarList != "",
		HasStarDict: fn.StarDict != "",
		HasClosure:  len(fn.Closure) > 0,
	}
}

package cgen

import (
	"fmt"
	"sync"
)

// Context is the compilation-unit ledger: emitted-constructor memoization,
// forward declarations, helper fragments, and code-object handles. Callables
// may be lowered from parallel goroutines; all shared state is guarded by a
// single mutex.
type Context struct {
	mu sync.Mutex

	caps   Capabilities
	consts ConstantRenderer

	// moduleAccess is the expression generated code uses to reach the
	// module object.
	moduleAccess string

	emitted     map[string]struct{}
	declOrder   []string
	decls       map[string]string
	helperOrder []string
	helpers     map[string]string

	codeObjects *codeObjectRegistry
}

func NewContext(caps Capabilities, consts ConstantRenderer, moduleAccess string) *Context {
	if consts == nil {
		panic(internalError("constant renderer missing"))
	}
	if moduleAccess == "" {
		moduleAccess = "module"
	}
	return &Context{
		caps:         caps,
		consts:       consts,
		moduleAccess: moduleAccess,
		emitted:      make(map[string]struct{}),
		decls:        make(map[string]string),
		helpers:      make(map[string]string),
		codeObjects:  newCodeObjectRegistry(),
	}
}

func (c *Context) Capabilities() Capabilities {
	return c.caps
}

// HasHelper reports whether constructor or yielder code for the identity was
// already emitted. The emitted set is monotonic; entries are never retracted.
func (c *Context) HasHelper(identity string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.emitted[identity]
	return ok
}

func (c *Context) addHelper(identity, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.emitted[identity]; ok {
		panic(internalError("helper %q emitted twice", identity))
	}
	c.emitted[identity] = struct{}{}
	c.helperOrder = append(c.helperOrder, identity)
	c.helpers[identity] = code
}

func (c *Context) addDeclaration(identity, decl string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.decls[identity]; ok {
		panic(internalError("declaration %q emitted twice", identity))
	}
	c.declOrder = append(c.declOrder, identity)
	c.decls[identity] = decl
}

// RegisterDeclaration records a forward declaration produced outside the
// helper path, such as a direct-call signature or a constant-pool slot. Each
// key is accepted once.
func (c *Context) RegisterDeclaration(key, decl string) {
	c.addDeclaration(key, decl)
}

// Declarations returns forward declarations in emission order. They are
// collected separately from bodies so call order within a module is free.
func (c *Context) Declarations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.declOrder))
	for _, identity := range c.declOrder {
		out = append(out, c.decls[identity])
	}
	return out
}

// Helpers returns constructor and yielder fragments in emission order; every
// fragment precedes any call site that references it.
func (c *Context) Helpers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.helperOrder))
	for _, identity := range c.helperOrder {
		out = append(out, c.helpers[identity])
	}
	return out
}

func (c *Context) renderConstant(value interface{}) string {
	return c.consts.Render(value)
}

func internalError(format string, args ...interface{}) error {
	return fmt.Errorf("cgen: internal: "+format, args...)
}

type tempDecl struct {
	name  string
	ctype string
}

// Scope is the per-callable ledger: temp-name allocation, cleanup
// obligations, exception bookkeeping, and declaration lists. One Scope
// serves one callable lowering and is not shared across goroutines.
type Scope struct {
	ctx *Context

	forDirectCall bool

	tempCounts map[string]int
	tempBases  map[string]struct{}
	tempDecls  []tempDecl

	cleanup      map[string]struct{}
	cleanupOrder []string

	needsExceptionVars bool
	keeperCount        int
	preserverIDs       []int
	frameDecls         []string
	hasLocalsDict      bool

	hasReturnValue     bool
	hasGeneratorReturn bool
}

// NewScope opens a fresh per-callable ledger. forDirectCall selects the
// direct-call emission shape where the distinction matters (own-closure
// boxing, name constant resolution).
func (c *Context) NewScope(forDirectCall bool) *Scope {
	return &Scope{
		ctx:           c,
		forDirectCall: forDirectCall,
		tempCounts:    make(map[string]int),
		tempBases:     make(map[string]struct{}),
		cleanup:       make(map[string]struct{}),
	}
}

// AllocateTemp hands out tmp_<base>_<n> names, monotonically per base, and
// records the declaration as a PyObject pointer.
func (s *Scope) AllocateTemp(base string) string {
	return s.AllocateTempTyped(base, "PyObject *")
}

func (s *Scope) AllocateTempTyped(base, ctype string) string {
	count := s.tempCounts[base]
	s.tempCounts[base] = count + 1
	s.tempBases[base] = struct{}{}
	name := fmt.Sprintf("tmp_%s_%d", sanitizeIdent(base), count+1)
	s.tempDecls = append(s.tempDecls, tempDecl{name: name, ctype: ctype})
	return name
}

// HasTemp reports whether any temp of the base was allocated in this scope.
func (s *Scope) HasTemp(base string) bool {
	_, ok := s.tempBases[base]
	return ok
}

// ReturnValueTemp is the callable's single return-value slot; the exit
// section's return block keys off its existence.
func (s *Scope) ReturnValueTemp() string {
	if !s.hasReturnValue {
		s.hasReturnValue = true
		s.tempDecls = append(s.tempDecls, tempDecl{name: "tmp_return_value", ctype: "PyObject *"})
	}
	return "tmp_return_value"
}

func (s *Scope) HasReturnValue() bool {
	return s.hasReturnValue
}

// GeneratorReturnTemp flags that the body's return value threads back
// through the suspension protocol.
func (s *Scope) GeneratorReturnTemp() string {
	if !s.hasGeneratorReturn {
		s.hasGeneratorReturn = true
		s.tempDecls = append(s.tempDecls, tempDecl{name: "tmp_generator_return", ctype: "bool"})
	}
	return "tmp_generator_return"
}

func (s *Scope) HasGeneratorReturn() bool {
	return s.hasGeneratorReturn
}

// AddCleanup registers a pending-release obligation. A name may be pending
// at most once at a time.
func (s *Scope) AddCleanup(name string) {
	if name == "" {
		panic(internalError("empty cleanup temp name"))
	}
	if _, ok := s.cleanup[name]; ok {
		panic(internalError("temp %q already pending cleanup", name))
	}
	s.cleanup[name] = struct{}{}
	s.cleanupOrder = append(s.cleanupOrder, name)
}

// NeedsCleanup tolerates empty names so callers can probe optional slots.
func (s *Scope) NeedsCleanup(name string) bool {
	if name == "" {
		return false
	}
	_, ok := s.cleanup[name]
	return ok
}

// TransferCleanup removes a pending obligation because ownership moved into
// an output slot. Removing an untracked name is an internal fault: it would
// mean a double release.
func (s *Scope) TransferCleanup(name string) {
	if _, ok := s.cleanup[name]; !ok {
		panic(internalError("temp %q not pending cleanup", name))
	}
	delete(s.cleanup, name)
	for i, n := range s.cleanupOrder {
		if n == name {
			s.cleanupOrder = append(s.cleanupOrder[:i], s.cleanupOrder[i+1:]...)
			break
		}
	}
}

// ReleaseCleanup emits the release of a pending temp and removes its
// obligation.
func (s *Scope) ReleaseCleanup(name string, emit *Collector) {
	s.TransferCleanup(name)
	emit.Emitf("Py_DECREF( %s );", name)
}

// PendingCleanups returns the names still awaiting release, oldest first.
func (s *Scope) PendingCleanups() []string {
	out := make([]string, len(s.cleanupOrder))
	copy(out, s.cleanupOrder)
	return out
}

// MarkExceptionVariables requests the error variable declarations in the
// locals block.
func (s *Scope) MarkExceptionVariables() {
	s.needsExceptionVars = true
}

// SetKeeperCount sizes the exception-keeper slot set.
func (s *Scope) SetKeeperCount(count int) {
	if count < 0 {
		panic(internalError("negative keeper count %d", count))
	}
	s.keeperCount = count
}

// AddPreserver registers one exception-preserver slot id.
func (s *Scope) AddPreserver(id int) {
	s.preserverIDs = append(s.preserverIDs, id)
}

// AddFrameDeclaration appends frame bookkeeping declarations supplied by the
// frame collaborator.
func (s *Scope) AddFrameDeclaration(decl string) {
	s.frameDecls = append(s.frameDecls, decl)
}

func (s *Scope) MarkLocalsDict() {
	s.hasLocalsDict = true
}

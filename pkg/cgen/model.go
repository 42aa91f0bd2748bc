package cgen

// Param is one positional or keyword parameter descriptor. Shared parameters
// are written from nested scopes or after a suspension point and must be
// boxed in a heap cell when copied into suspendable storage.
type Param struct {
	Name   string
	Shared bool
}

// ClosureVar references a variable owned by an enclosing scope. Shared
// variables travel as reference-counted cells; plain variables may be passed
// as live aliases when the call convention allows it.
type ClosureVar struct {
	Name   string
	Shared bool
}

// LocalVar is one function-local slot. Shared locals are captured by a
// nested scope and live in heap cells from declaration on.
type LocalVar struct {
	Name   string
	Shared bool
}

// ClosureKind selects how a suspendable object obtains its capture array.
type ClosureKind int

const (
	// ClosureNone means the callable captures nothing.
	ClosureNone ClosureKind = iota
	// ClosureOwn means the capture array is boxed and increfed inside the
	// defining scope at construction time.
	ClosureOwn
	// ClosureParent means the capture is inherited unchanged from an
	// enclosing suspendable object.
	ClosureParent
)

// Callable is the front end's description of one source-level function,
// generator, or coroutine definition, with its body already rendered.
type Callable struct {
	// Identity keys constructor emission and roots all generated symbol
	// names for this definition. Immutable once assigned.
	Identity string

	Name     string
	Qualname string
	Doc      string
	Filename string
	Line     int

	Params   []Param
	StarList string
	StarDict string
	Closure  []ClosureVar

	UserLocals []LocalVar
	TempLocals []string

	IsGenerator bool
	IsCoroutine bool

	// NeedsLocalsDict marks callables that require a dynamic namespace.
	NeedsLocalsDict bool

	// DirectCall marks callables invoked statically from within the module;
	// CreatedCall marks callables reachable through the generic invocation
	// protocol. Both may be set; a created callable is lowered with the
	// protocol shape only, since every call can reach it through the
	// function object.
	DirectCall  bool
	CreatedCall bool
	CrossModule bool

	// Body is the statement sequence rendered by the body collaborator.
	Body []string

	NeedsExceptionExit   bool
	NeedsReturnValue     bool
	NeedsGeneratorReturn bool

	// Defaults, keyword defaults and annotations are materialized once at
	// definition time; values go through the constant renderer.
	Defaults      []interface{}
	KwDefaults    map[string]interface{}
	Annotations   map[string]interface{}
	DefaultsFirst bool
}

// ParamCount excludes the star-list and star-dict slots.
func (c *Callable) ParamCount() int {
	return len(c.Params)
}

func (c *Callable) hasDefaults() bool {
	return len(c.Defaults) > 0
}

func (c *Callable) hasKwDefaults() bool {
	return len(c.KwDefaults) > 0
}

func (c *Callable) hasAnnotations() bool {
	return len(c.Annotations) > 0
}

// Suspendable reports whether lowering must split the callable into a
// resumable body plus a construction path.
func (c *Callable) Suspendable() bool {
	return c.IsGenerator || c.IsCoroutine
}

package driver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"asp/compiler-go/pkg/cgen"
)

// UnitDescription is one decoded IR input file: the lowered callable
// definitions of a compilation unit, bodies already rendered, in the order
// the front end lowered them.
type UnitDescription struct {
	Path      string
	Callables []*cgen.Callable
	Toplevel  []string
}

// LoadDescriptions decodes one IR input file.
func LoadDescriptions(path string) (*UnitDescription, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw unitDoc
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("descriptions: parse %s: %w", path, err)
	}

	unit := &UnitDescription{Path: path}
	seen := make(map[string]struct{}, len(raw.Callables))
	for i, doc := range raw.Callables {
		fn, err := doc.toCallable()
		if err != nil {
			return nil, fmt.Errorf("descriptions: %s callable %d: %w", path, i, err)
		}
		if _, ok := seen[fn.Identity]; ok {
			return nil, fmt.Errorf("descriptions: %s repeats identity %q", path, fn.Identity)
		}
		seen[fn.Identity] = struct{}{}
		unit.Callables = append(unit.Callables, fn)
		if doc.Toplevel {
			unit.Toplevel = append(unit.Toplevel, fn.Identity)
		}
	}
	return unit, nil
}

type unitDoc struct {
	Callables []callableDoc `yaml:"callables"`
}

type callableDoc struct {
	Identity string `yaml:"identity"`
	Name     string `yaml:"name"`
	Qualname string `yaml:"qualname,omitempty"`
	Doc      string `yaml:"doc,omitempty"`
	Filename string `yaml:"filename,omitempty"`
	Line     int    `yaml:"line,omitempty"`

	Params   []variableDoc `yaml:"params,omitempty"`
	StarList string        `yaml:"star_list,omitempty"`
	StarDict string        `yaml:"star_dict,omitempty"`
	Closure  []variableDoc `yaml:"closure,omitempty"`

	Locals     []variableDoc `yaml:"locals,omitempty"`
	TempLocals []string      `yaml:"temp_locals,omitempty"`

	Generator  bool `yaml:"generator,omitempty"`
	Coroutine  bool `yaml:"coroutine,omitempty"`
	LocalsDict bool `yaml:"locals_dict,omitempty"`

	DirectCall  bool `yaml:"direct_call,omitempty"`
	CreatedCall bool `yaml:"created_call,omitempty"`
	CrossModule bool `yaml:"cross_module,omitempty"`
	Toplevel    bool `yaml:"toplevel,omitempty"`

	Body []string `yaml:"body"`

	ExceptionExit   bool `yaml:"exception_exit,omitempty"`
	Returns         bool `yaml:"returns,omitempty"`
	GeneratorReturn bool `yaml:"generator_return,omitempty"`

	Defaults      []interface{}          `yaml:"defaults,omitempty"`
	KwDefaults    map[string]interface{} `yaml:"kw_defaults,omitempty"`
	Annotations   map[string]interface{} `yaml:"annotations,omitempty"`
	DefaultsFirst bool                   `yaml:"defaults_first,omitempty"`
}

type variableDoc struct {
	Name   string `yaml:"name"`
	Shared bool   `yaml:"shared,omitempty"`
}

func (d callableDoc) toCallable() (*cgen.Callable, error) {
	if d.Identity == "" {
		return nil, fmt.Errorf("missing identity")
	}
	if d.Name == "" {
		return nil, fmt.Errorf("%s: missing name", d.Identity)
	}
	if d.Generator && d.Coroutine {
		return nil, fmt.Errorf("%s: both generator and coroutine", d.Identity)
	}
	if !d.DirectCall && !d.CreatedCall {
		return nil, fmt.Errorf("%s: no entry convention", d.Identity)
	}
	if d.KwDefaults != nil && len(d.KwDefaults) == 0 {
		return nil, fmt.Errorf("%s: empty kw_defaults mapping", d.Identity)
	}
	if d.Toplevel {
		if !d.CreatedCall {
			return nil, fmt.Errorf("%s: toplevel definition without created entry", d.Identity)
		}
		if len(d.Closure) > 0 {
			return nil, fmt.Errorf("%s: toplevel definition cannot capture", d.Identity)
		}
	}

	fn := &cgen.Callable{
		Identity: d.Identity,
		Name:     d.Name,
		Qualname: d.Qualname,
		Doc:      d.Doc,
		Filename: d.Filename,
		Line:     d.Line,

		StarList: d.StarList,
		StarDict: d.StarDict,

		TempLocals: append([]string{}, d.TempLocals...),

		IsGenerator:     d.Generator,
		IsCoroutine:     d.Coroutine,
		NeedsLocalsDict: d.LocalsDict,

		DirectCall:  d.DirectCall,
		CreatedCall: d.CreatedCall,
		CrossModule: d.CrossModule,

		Body: append([]string{}, d.Body...),

		NeedsExceptionExit:   d.ExceptionExit,
		NeedsReturnValue:     d.Returns,
		NeedsGeneratorReturn: d.GeneratorReturn,

		Defaults:      append([]interface{}{}, d.Defaults...),
		KwDefaults:    d.KwDefaults,
		Annotations:   d.Annotations,
		DefaultsFirst: d.DefaultsFirst,
	}
	for _, p := range d.Params {
		if p.Name == "" {
			return nil, fmt.Errorf("%s: unnamed parameter", d.Identity)
		}
		fn.Params = append(fn.Params, cgen.Param{Name: p.Name, Shared: p.Shared})
	}
	for _, cv := range d.Closure {
		if cv.Name == "" {
			return nil, fmt.Errorf("%s: unnamed closure variable", d.Identity)
		}
		fn.Closure = append(fn.Closure, cgen.ClosureVar{Name: cv.Name, Shared: cv.Shared})
	}
	for _, lv := range d.Locals {
		if lv.Name == "" {
			return nil, fmt.Errorf("%s: unnamed local variable", d.Identity)
		}
		fn.UserLocals = append(fn.UserLocals, cgen.LocalVar{Name: lv.Name, Shared: lv.Shared})
	}
	return fn, nil
}

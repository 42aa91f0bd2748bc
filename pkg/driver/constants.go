package driver

import (
	"fmt"
	"sort"
	"strings"
)

// ConstantPool interns constant values into named, unit-scoped objects.
// Render hands out borrowed references; the pool's declarations and
// initialization statements are embedded into the emitted unit text.
type ConstantPool struct {
	names map[string]string
	order []string
	inits map[string]string
	count map[string]int
}

// NewConstantPool constructs an empty pool.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{
		names: make(map[string]string),
		inits: make(map[string]string),
		count: make(map[string]int),
	}
}

// Render implements cgen.ConstantRenderer. Repeated values reuse the first
// interned name.
func (p *ConstantPool) Render(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "Asp_None"
	case bool:
		if v {
			return "Asp_True"
		}
		return "Asp_False"
	}

	key := fingerprint(value)
	if name, ok := p.names[key]; ok {
		return name
	}
	name, init := p.intern(value)
	p.names[key] = name
	p.order = append(p.order, name)
	p.inits[name] = init
	return name
}

// Declarations returns the static object declarations in interning order.
func (p *ConstantPool) Declarations() []string {
	out := make([]string, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, fmt.Sprintf("static PyObject *%s;", name))
	}
	return out
}

// Initializations returns the assignment statements in interning order.
func (p *ConstantPool) Initializations() []string {
	out := make([]string, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.inits[name])
	}
	return out
}

// Empty reports whether nothing was interned.
func (p *ConstantPool) Empty() bool {
	return len(p.order) == 0
}

func (p *ConstantPool) intern(value interface{}) (name, init string) {
	switch v := value.(type) {
	case string:
		if isPlainStringName(v) {
			name = "const_str_plain_" + v
		} else {
			name = p.numbered("const_str_digest")
		}
		init = fmt.Sprintf("%s = Asp_String_FromStringAndSize( %s, %d );", name, cStringLiteral(v), len(v))
	case int:
		name = intConstantName(int64(v))
		init = fmt.Sprintf("%s = Asp_Int_FromLong( %dl );", name, v)
	case int64:
		name = intConstantName(v)
		init = fmt.Sprintf("%s = Asp_Int_FromLong( %dl );", name, v)
	case float64:
		name = p.numbered("const_float")
		init = fmt.Sprintf("%s = Asp_Float_FromDouble( %v );", name, v)
	case []interface{}:
		name = p.numbered("const_tuple")
		elements := make([]string, 0, len(v))
		for _, element := range v {
			elements = append(elements, p.Render(element))
		}
		init = fmt.Sprintf("%s = Asp_Tuple_PackBorrowed( %d, %s );",
			name, len(v), strings.Join(elements, ", "))
		if len(v) == 0 {
			init = fmt.Sprintf("%s = Asp_Tuple_New( 0 );", name)
		}
	case map[string]interface{}:
		name = p.numbered("const_dict")
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(v)*2)
		for _, key := range keys {
			pairs = append(pairs, p.Render(key), p.Render(v[key]))
		}
		if len(pairs) == 0 {
			init = fmt.Sprintf("%s = Asp_Dict_New();", name)
		} else {
			init = fmt.Sprintf("%s = Asp_Dict_PackBorrowed( %d, %s );",
				name, len(v), strings.Join(pairs, ", "))
		}
	default:
		name = p.numbered("const_value")
		init = fmt.Sprintf("%s = Asp_Constant_FromRepr( %s );", name, cStringLiteral(fmt.Sprintf("%v", v)))
	}
	return name, init
}

func (p *ConstantPool) numbered(prefix string) string {
	p.count[prefix]++
	return fmt.Sprintf("%s_%d", prefix, p.count[prefix])
}

func intConstantName(v int64) string {
	if v < 0 {
		return fmt.Sprintf("const_int_neg_%d", -v)
	}
	return fmt.Sprintf("const_int_pos_%d", v)
}

func fingerprint(value interface{}) string {
	return fmt.Sprintf("%T:%#v", value, value)
}

// isPlainStringName reports whether the string can serve directly as a
// constant name suffix without escaping.
func isPlainStringName(s string) bool {
	if s == "" || len(s) > 40 {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func cStringLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&b, `\x%02x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

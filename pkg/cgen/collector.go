package cgen

import (
	"fmt"
	"strings"
)

// Collector accumulates generated statements for one emission site.
type Collector struct {
	lines []string
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Emit(code string) {
	if c == nil {
		return
	}
	c.lines = append(c.lines, code)
}

func (c *Collector) Emitf(format string, args ...interface{}) {
	c.Emit(fmt.Sprintf(format, args...))
}

func (c *Collector) Lines() []string {
	if c == nil {
		return nil
	}
	return c.lines
}

func (c *Collector) String() string {
	if c == nil {
		return ""
	}
	return strings.Join(c.lines, "\n")
}

// indented shifts every non-empty line right by count tab stops of four spaces.
func indented(text string, count int) string {
	if text == "" {
		return ""
	}
	prefix := strings.Repeat("    ", count)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func indentedLines(lines []string, count int) string {
	return indented(strings.Join(lines, "\n"), count)
}

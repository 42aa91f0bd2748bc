package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest models the asp.yml contents for one compilation unit.
type Manifest struct {
	Path    string
	Unit    string
	Version string
	Inputs  []string
	Profile string
	Output  string
}

// LoadManifest parses asp.yml from disk. Relative input, profile and
// output paths are resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw manifestDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", abs, err)
	}

	manifest := raw.toManifest()
	manifest.Path = abs
	manifest.resolvePaths(filepath.Dir(abs))
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// WriteManifest serialises the manifest back to disk.
func WriteManifest(manifest *Manifest, path string) error {
	if manifest == nil {
		return fmt.Errorf("manifest: nil manifest")
	}
	if path == "" {
		if manifest.Path == "" {
			return fmt.Errorf("manifest: missing path")
		}
		path = manifest.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	manifest.Path = abs
	if err := manifest.validate(); err != nil {
		return err
	}

	data := manifest.toDisk()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("manifest: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("manifest: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", abs, err)
	}
	return nil
}

func (m *Manifest) validate() error {
	if m.Unit == "" {
		return fmt.Errorf("manifest: %s missing unit name", m.Path)
	}
	if len(m.Inputs) == 0 {
		return fmt.Errorf("manifest: %s lists no inputs", m.Path)
	}
	return nil
}

func (m *Manifest) resolvePaths(base string) {
	for i, input := range m.Inputs {
		m.Inputs[i] = resolveAgainst(base, input)
	}
	if m.Profile != "" {
		m.Profile = resolveAgainst(base, m.Profile)
	}
	if m.Output == "" {
		m.Output = base
	} else {
		m.Output = resolveAgainst(base, m.Output)
	}
}

func resolveAgainst(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

func (m *Manifest) toDisk() manifestDisk {
	return manifestDisk{
		Unit:    m.Unit,
		Version: m.Version,
		Inputs:  append([]string{}, m.Inputs...),
		Profile: m.Profile,
		Output:  m.Output,
	}
}

type manifestDisk struct {
	Unit    string   `yaml:"unit"`
	Version string   `yaml:"version,omitempty"`
	Inputs  []string `yaml:"inputs"`
	Profile string   `yaml:"profile,omitempty"`
	Output  string   `yaml:"output,omitempty"`
}

func (d manifestDisk) toManifest() *Manifest {
	inputs := make([]string, 0, len(d.Inputs))
	for _, input := range d.Inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		inputs = append(inputs, input)
	}
	return &Manifest{
		Unit:    sanitizeSegment(d.Unit),
		Version: strings.TrimSpace(d.Version),
		Inputs:  inputs,
		Profile: strings.TrimSpace(d.Profile),
		Output:  strings.TrimSpace(d.Output),
	}
}

// sanitizeSegment normalizes a unit or package segment into an
// identifier-safe form: dashes and spaces become underscores, anything
// else non-alphanumeric is dropped.
func sanitizeSegment(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '.':
			b.WriteByte('_')
		}
	}
	return b.String()
}

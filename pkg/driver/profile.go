package driver

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"asp/compiler-go/pkg/cgen"
)

// Profile models the target.toml contents describing the runtime the
// generated code will link against.
type Profile struct {
	Runtime RuntimeProfile `toml:"runtime"`
}

// RuntimeProfile toggles the code shapes the target runtime supports.
type RuntimeProfile struct {
	Name              string `toml:"name"`
	QualifiedNames    bool   `toml:"qualified_names"`
	DirectAliasParams bool   `toml:"direct_alias_params"`
	SelfDescribing    bool   `toml:"self_describing"`
}

// DefaultProfile assumes a current runtime with every capability present.
func DefaultProfile() *Profile {
	return &Profile{
		Runtime: RuntimeProfile{
			Name:              "current",
			QualifiedNames:    true,
			DirectAliasParams: true,
			SelfDescribing:    true,
		},
	}
}

// LoadProfile parses target.toml from disk. An empty path yields the
// default profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	var profile Profile
	if err := toml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	if profile.Runtime.Name == "" {
		profile.Runtime.Name = "current"
	}
	return &profile, nil
}

// Capabilities maps the profile onto the feature flags code generation
// branches on.
func (p *Profile) Capabilities() cgen.Capabilities {
	if p == nil {
		return cgen.DefaultCapabilities()
	}
	return cgen.Capabilities{
		QualifiedNames:    p.Runtime.QualifiedNames,
		DirectAliasParams: p.Runtime.DirectAliasParams,
		SelfDescribing:    p.Runtime.SelfDescribing,
	}
}

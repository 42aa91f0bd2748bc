package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadProfileEmptyPathYieldsDefaults(t *testing.T) {
	profile, err := LoadProfile("")
	if err != nil {
		t.Fatalf("LoadProfile returned error: %v", err)
	}
	caps := profile.Capabilities()
	if !caps.QualifiedNames || !caps.DirectAliasParams || !caps.SelfDescribing {
		t.Fatalf("default capabilities not all set: %#v", caps)
	}
	if profile.Runtime.Name != "current" {
		t.Fatalf("Runtime.Name = %q, want current", profile.Runtime.Name)
	}
}

func TestLoadProfileFromToml(t *testing.T) {
	path := writeProfile(t, `
[runtime]
name = "legacy"
qualified_names = false
direct_alias_params = false
self_describing = true
`)

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile returned error: %v", err)
	}
	if profile.Runtime.Name != "legacy" {
		t.Fatalf("Runtime.Name = %q, want legacy", profile.Runtime.Name)
	}
	caps := profile.Capabilities()
	if caps.QualifiedNames {
		t.Fatal("QualifiedNames should be off")
	}
	if caps.DirectAliasParams {
		t.Fatal("DirectAliasParams should be off")
	}
	if !caps.SelfDescribing {
		t.Fatal("SelfDescribing should be on")
	}
}

func TestLoadProfileRejectsMalformedToml(t *testing.T) {
	path := writeProfile(t, `runtime = not toml`)
	if _, err := LoadProfile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func writeProfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.toml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

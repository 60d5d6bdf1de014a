package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTargets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write targets file: %v", err)
	}
	return path
}

func TestLoadTargets(t *testing.T) {
	path := writeTargets(t, `
collector: ["quota-collector", "--json"]
envAllowlist:
  - "HOME"
  - "QUOTA_*"
targets:
  - providers: ["claude", "gemini"]
    source: "workstation"
  - providers: ["codex"]
    source: "laptop"
    cost: true
`)

	file, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("LoadTargets() failed: %v", err)
	}

	if len(file.Collector) != 2 || file.Collector[0] != "quota-collector" {
		t.Errorf("Collector = %v, want [quota-collector --json]", file.Collector)
	}
	if len(file.EnvAllowlist) != 2 || file.EnvAllowlist[1] != "QUOTA_*" {
		t.Errorf("EnvAllowlist = %v, want [HOME QUOTA_*]", file.EnvAllowlist)
	}
	if len(file.Targets) != 2 {
		t.Fatalf("Got %d targets, want 2", len(file.Targets))
	}
	if file.Targets[0].Cost {
		t.Error("First target should not have cost enabled")
	}
	if !file.Targets[1].Cost || file.Targets[1].Source != "laptop" {
		t.Errorf("Second target = %+v, want laptop with cost", file.Targets[1])
	}
}

func TestLoadTargets_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "MissingSource",
			content: `
targets:
  - providers: ["claude"]
`,
		},
		{
			name: "MissingProviders",
			content: `
targets:
  - source: "workstation"
`,
		},
		{
			name:    "InvalidYAML",
			content: "targets: [\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTargets(t, tt.content)
			if _, err := LoadTargets(path); err == nil {
				t.Error("LoadTargets() should fail")
			}
		})
	}
}

func TestLoadTargets_MissingFile(t *testing.T) {
	if _, err := LoadTargets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadTargets() should fail for a missing file")
	}
}

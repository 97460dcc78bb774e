package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestRunWithArgs(t *testing.T) {
	schema := writeFile(t, "schema.json", `{"type": "object", "required": ["name"]}`)
	valid := writeFile(t, "valid.json", `{"name": "ada"}`)
	invalid := writeFile(t, "invalid.json", `{"age": 40}`)
	validYAML := writeFile(t, "valid.yaml", "name: ada\n")

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "valid instance",
			args:       []string{"--schema", schema, valid},
			wantCode:   0,
			wantStdout: "validates",
		},
		{
			name:       "valid yaml instance",
			args:       []string{"--schema", schema, validYAML},
			wantCode:   0,
			wantStdout: "validates",
		},
		{
			name:       "invalid instance",
			args:       []string{"--schema", schema, invalid},
			wantCode:   1,
			wantStderr: "required",
		},
		{
			name:       "one invalid among many",
			args:       []string{"--schema", schema, valid, invalid},
			wantCode:   1,
			wantStderr: "fails to validate",
		},
		{
			name:     "missing schema flag",
			args:     []string{valid},
			wantCode: 2,
		},
		{
			name:     "no instance files",
			args:     []string{"--schema", schema},
			wantCode: 2,
		},
		{
			name:     "unknown draft",
			args:     []string{"--schema", schema, "--draft", "99", valid},
			wantCode: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := runWithArgs(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("runWithArgs() = %d, want %d (stderr: %s)", code, tt.wantCode, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Fatalf("stdout = %q, want substring %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Fatalf("stderr = %q, want substring %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunWithArgsCompileFailure(t *testing.T) {
	schema := writeFile(t, "schema.json", `{"type": 12}`)
	instance := writeFile(t, "i.json", `{}`)

	var stdout, stderr bytes.Buffer
	if code := runWithArgs([]string{"--schema", schema, instance}, &stdout, &stderr); code != 1 {
		t.Fatalf("runWithArgs() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "error compiling schema") {
		t.Fatalf("stderr = %q, want compile error", stderr.String())
	}
}

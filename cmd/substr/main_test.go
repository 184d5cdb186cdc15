package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/axiomhq/substr/internal/config"
)

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestPackAndRead(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	input := writeInput(t, "application", "cationary", "cat")
	out, _, err := runCmd(t, "", "pack", input)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	packed := input + ".substr"
	if want := packed + ": 3 strings, 14 of 23 bytes\n"; out != want {
		t.Fatalf("pack output = %q, want %q", out, want)
	}

	out, _, err = runCmd(t, "", "get", packed, "1", "2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != "cationary\ncat\n" {
		t.Fatalf("get output = %q", out)
	}

	out, _, err = runCmd(t, "", "get", "--context", "3", packed, "1")
	if err != nil {
		t.Fatalf("get --context: %v", err)
	}
	if out != "pli[cationary]\n" {
		t.Fatalf("get --context output = %q", out)
	}

	out, _, err = runCmd(t, "", "dump", packed)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if out != "0\tapplication\n1\tcationary\n2\tcat\n" {
		t.Fatalf("dump output = %q", out)
	}

	out, _, err = runCmd(t, "", "stats", packed)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"strings:  3", "storage:  14 bytes", "naive:    23 bytes", "ratio:    1.64x"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats output %q missing %q", out, want)
		}
	}

	out, _, err = runCmd(t, "", "inspect", packed)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.HasPrefix(out, `{"spans": [[0, 11], [5, 9], [5, 3]]`) {
		t.Fatalf("inspect output = %q", out)
	}
}

func TestPackStdinWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "substr.yaml")
	if err := os.WriteFile(cfgPath, []byte("compression: lz4\ntrim_space: true\nskip_empty: true\nprogress: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.substr")
	_, stderr, err := runCmd(t, "  cats \n\n category\n", "pack", "--config", cfgPath, "-o", output, "-")
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	for _, want := range []string{"build phase", "phase=containment", "build finished", "msg=packed"} {
		if !strings.Contains(stderr, want) {
			t.Fatalf("log output %q missing %q", stderr, want)
		}
	}
	out, _, err := runCmd(t, "", "dump", output)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if out != "0\tcats\n1\tcategory\n" {
		t.Fatalf("dump output = %q", out)
	}
}

func TestPackFlagsOverrideConfig(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	input := writeInput(t, "a", "", "b")
	output := filepath.Join(t.TempDir(), "out.substr")
	if _, _, err := runCmd(t, "", "pack", "--skip-empty", "--compression", "none", "-o", output, input); err != nil {
		t.Fatalf("pack: %v", err)
	}
	out, _, err := runCmd(t, "", "dump", output)
	if err != nil {
		t.Fatal(err)
	}
	if out != "0\ta\n1\tb\n" {
		t.Fatalf("dump output = %q", out)
	}
}

func TestErrors(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	input := writeInput(t, "cat")
	long := writeInput(t, strings.Repeat("x", 300))
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "usage"},
		{"unknown command", []string{"zip"}, "unknown command"},
		{"pack without input", []string{"pack"}, "exactly one INPUT"},
		{"stdin without output", []string{"pack", "-"}, "--output is required"},
		{"bad compression", []string{"pack", "--compression", "brotli", input}, "unknown compression"},
		{"too long", []string{"pack", long}, "exceeds limit of 255"},
		{"get without id", []string{"get", input}, "at least one ID"},
		{"not a collection", []string{"dump", input}, "reading"},
		{"missing file", []string{"stats", filepath.Join(t.TempDir(), "nope")}, "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCmd(t, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestGetOutOfRange(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	input := writeInput(t, "cat", "cats")
	if _, _, err := runCmd(t, "", "pack", input); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"2", "-1", "x"} {
		if _, _, err := runCmd(t, "", "get", input+".substr", id); err == nil {
			t.Fatalf("get %s: expected error", id)
		}
	}
}

func TestHelp(t *testing.T) {
	out, _, err := runCmd(t, "", "help")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "substr pack") {
		t.Fatalf("help output = %q", out)
	}
}

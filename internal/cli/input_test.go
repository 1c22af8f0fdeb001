package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseInvocation_DeterministicStruct(t *testing.T) {
	workDir := t.TempDir()
	args := []string{
		"--workdir", workDir,
		"--template", "src/../Ribbon.xml",
		"--locale", "de, de-AT ,default,DE",
		"--output-dir", "out/./",
		"--trace", "traces/../trace.json",
		"--report", "report.json",
		"--log-level", "WARN",
		"--log-format", "JSON",
	}

	inv1, err := ParseInvocation(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv2, err := ParseInvocation(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(inv1, inv2) {
		t.Fatalf("expected identical invocations, got\n%#v\n%#v", inv1, inv2)
	}

	if inv1.TemplatePath != filepath.Join(workDir, "Ribbon.xml") {
		t.Fatalf("template not resolved/canonicalized: %q", inv1.TemplatePath)
	}
	if inv1.OutputDir != filepath.Join(workDir, "out") {
		t.Fatalf("output dir not resolved/canonicalized: %q", inv1.OutputDir)
	}
	if inv1.TracePath != filepath.Join(workDir, "trace.json") {
		t.Fatalf("trace not resolved/canonicalized: %q", inv1.TracePath)
	}
	if inv1.ReportPath != filepath.Join(workDir, "report.json") {
		t.Fatalf("report not resolved: %q", inv1.ReportPath)
	}
	if !reflect.DeepEqual(inv1.Locales, []string{"de", "de-AT", "default"}) {
		t.Fatalf("locales not trimmed/deduplicated: %q", inv1.Locales)
	}
	if inv1.LogFormat != "json" {
		t.Fatalf("log format not normalized: %q", inv1.LogFormat)
	}
}

func TestParseInvocation_ResolvesRelativePathsAgainstWorkDir_NotCwd(t *testing.T) {
	workDir := t.TempDir()
	otherCwd := t.TempDir()

	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
	if err := os.Chdir(otherCwd); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	inv, err := ParseInvocation([]string{"--workdir", workDir, "--template", "Ribbon.xml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.TemplatePath != filepath.Join(workDir, "Ribbon.xml") {
		t.Fatalf("expected template under workdir, got %q", inv.TemplatePath)
	}
}

func TestParseInvocation_DefaultsWorkDirToCwd(t *testing.T) {
	cwd := t.TempDir()
	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
	if err := os.Chdir(cwd); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	inv, err := ParseInvocation([]string{"--template", "Ribbon.xml"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resolvedCwd, _ := filepath.EvalSymlinks(cwd)
	resolvedGot, _ := filepath.EvalSymlinks(filepath.Dir(inv.TemplatePath))
	if resolvedGot != resolvedCwd {
		t.Fatalf("expected template in cwd %q, got %q", cwd, inv.TemplatePath)
	}
	if inv.Locales != nil {
		t.Fatalf("expected no locale filter, got %q", inv.Locales)
	}
}

func TestParseInvocation_IgnoresEnvironmentVariables(t *testing.T) {
	args := []string{"--workdir", t.TempDir(), "--template", "Ribbon.xml"}

	inv1, err := ParseInvocation(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("LOCBUILD_LOG_LEVEL", "debug")
	t.Setenv("LOCBUILD_LOG_FORMAT", "json")

	inv2, err := ParseInvocation(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(inv1, inv2) {
		t.Fatalf("expected env vars to not affect parsing, got\n%#v\n%#v", inv1, inv2)
	}
}

func TestParseInvocation_InvalidInvocations(t *testing.T) {
	wd := t.TempDir()
	cases := map[string][]string{
		"missing template":   {"--workdir", wd},
		"relative workdir":   {"--workdir", "relative", "--template", "t.xml"},
		"unknown flag":       {"--template", "t.xml", "--bogus"},
		"positional":         {"--workdir", wd, "--template", "t.xml", "extra"},
		"bad level":          {"--workdir", wd, "--template", "t.xml", "--log-level", "loud"},
		"bad format":         {"--workdir", wd, "--template", "t.xml", "--log-format", "xml"},
		"empty locale entry": {"--workdir", wd, "--template", "t.xml", "--locale", "de,,fr"},
		"list and pick":      {"--workdir", wd, "--template", "t.xml", "--list", "--interactive"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInvocation(args)
			if err == nil {
				t.Fatalf("expected error")
			}
			if ExitCode(err) != ExitInvalidInvocation {
				t.Fatalf("expected exit code %d, got %d (%v)", ExitInvalidInvocation, ExitCode(err), err)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != ExitSuccess {
		t.Fatalf("nil: got %d", got)
	}
	if got := ExitCode(&InvocationError{}); got != ExitInvalidInvocation {
		t.Fatalf("zero invocation error: got %d", got)
	}
	if got := ExitCode(os.ErrNotExist); got != ExitInternalError {
		t.Fatalf("unknown: got %d", got)
	}
}

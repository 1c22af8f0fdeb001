package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"locbuild/internal/logging"
	"locbuild/internal/target"
)

const (
	ExitSuccess           = 0
	ExitTargetFailure     = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// DefaultLocaleName selects the neutral target in --locale lists.
const DefaultLocaleName = target.NeutralName

// Invocation is the canonical description of one run. Every path is clean
// and absolute; relative flags are resolved against WorkDir.
type Invocation struct {
	WorkDir      string
	TemplatePath string
	OutputDir    string
	ConfigPath   string
	TracePath    string
	ReportPath   string

	// Locales restricts the build to these targets, in the given order.
	// Empty means every discovered target.
	Locales []string

	// LogLevel and LogFormat override the configuration when non-empty.
	LogLevel  string
	LogFormat string

	List        bool
	Interactive bool
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses command line flags into an Invocation. It does not
// read environment variables; those are the configuration layer's concern.
func ParseInvocation(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("locbuild", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		inv     Invocation
		workDir string
		locales string
	)
	fs.StringVar(&workDir, "workdir", "", "Directory relative paths resolve against (default: current directory).")
	fs.StringVar(&inv.TemplatePath, "template", "", "Template document to localize. Required.")
	fs.StringVar(&locales, "locale", "", "Comma separated targets to build; \"default\" names the neutral target.")
	fs.StringVar(&inv.OutputDir, "output-dir", "", "Write artifacts here instead of beside the template.")
	fs.StringVar(&inv.ConfigPath, "config", "", "YAML configuration file.")
	fs.StringVar(&inv.TracePath, "trace", "", "Write the canonical build trace to this path.")
	fs.StringVar(&inv.ReportPath, "report", "", "Write the JSON build report to this path.")
	fs.StringVar(&inv.LogLevel, "log-level", "", "Log level: debug|info|warn|error.")
	fs.StringVar(&inv.LogFormat, "log-format", "", "Log format: text|json.")
	fs.BoolVar(&inv.List, "list", false, "List discovered targets and exit.")
	fs.BoolVar(&inv.Interactive, "interactive", false, "Pick targets interactively.")

	if err := fs.Parse(args); err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if fs.NArg() != 0 {
		return Invocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
	}

	if strings.TrimSpace(workDir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Invocation{}, fmt.Errorf("resolving working directory: %w", err)
		}
		workDir = wd
	}
	workDir = filepath.Clean(workDir)
	if !filepath.IsAbs(workDir) {
		return Invocation{}, invalidInvocationf("--workdir must be an absolute path (got %q)", workDir)
	}
	inv.WorkDir = workDir

	if strings.TrimSpace(inv.TemplatePath) == "" {
		return Invocation{}, invalidInvocationf("--template is required")
	}
	if inv.List && inv.Interactive {
		return Invocation{}, invalidInvocationf("--list and --interactive are mutually exclusive")
	}

	if inv.LogLevel != "" {
		if _, err := logging.ParseLevel(inv.LogLevel); err != nil {
			return Invocation{}, invalidInvocationf("invalid --log-level: %v", err)
		}
	}
	switch strings.ToLower(inv.LogFormat) {
	case "", logging.FormatText, logging.FormatJSON:
		inv.LogFormat = strings.ToLower(inv.LogFormat)
	default:
		return Invocation{}, invalidInvocationf("invalid --log-format %q (expected text|json)", inv.LogFormat)
	}

	parsedLocales, err := parseLocales(locales)
	if err != nil {
		return Invocation{}, err
	}
	inv.Locales = parsedLocales

	for _, p := range []*string{&inv.TemplatePath, &inv.OutputDir, &inv.ConfigPath, &inv.TracePath, &inv.ReportPath} {
		if *p == "" {
			continue
		}
		resolved, err := resolveUnderWorkDir(workDir, *p)
		if err != nil {
			return Invocation{}, err
		}
		*p = resolved
	}
	return inv, nil
}

func parseLocales(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			return nil, invalidInvocationf("--locale contains an empty entry: %q", raw)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func resolveUnderWorkDir(workDir, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalidInvocationf("path must not be empty")
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		return clean, nil
	}
	return filepath.Clean(filepath.Join(workDir, clean)), nil
}

// ExitCode extracts the exit code carried by err. Unknown errors are
// internal.
func ExitCode(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	if err == nil {
		return ExitSuccess
	}
	return ExitInternalError
}

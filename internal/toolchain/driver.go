// Package toolchain drives the external native toolchain that turns a
// rendered template into a binary module.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"locbuild/internal/ctxlog"
)

// Registrar records files that belong to the build in progress.
type Registrar interface {
	Register(paths ...string)
}

// Options configure a Driver.
type Options struct {
	// ScriptTemplatePath is where the reusable script template lives.
	ScriptTemplatePath string

	// ToolDir resolves the installation-specific tool directory. It is
	// consulted only when the script template has to be created.
	ToolDir func() string

	Shell  string
	Layout Layout

	// StageVerified, when set, is called for each stage whose artifacts
	// were found after the child process exited.
	StageVerified func(stage Stage, artifact string)
}

// Driver compiles rendered templates one at a time. It is not safe for
// concurrent use.
type Driver struct {
	opts Options

	script    string
	hasScript bool

	state    State
	exitCode int
}

func NewDriver(opts Options) *Driver {
	if opts.Shell == "" {
		opts.Shell = "sh"
	}
	opts.Layout = opts.Layout.withDefaults()
	return &Driver{opts: opts, state: StateIdle}
}

// Layout returns the effective layout.
func (d *Driver) Layout() Layout { return d.opts.Layout }

// State returns the final state of the last Compile call.
func (d *Driver) State() State { return d.state }

// ExitCode returns the child exit code of the last Compile call, or -1 when
// no process ran.
func (d *Driver) ExitCode() int { return d.exitCode }

// EnsureScriptTemplate makes sure the persisted script template exists,
// creating it from the embedded template on first use. The text is memoized
// for the lifetime of the Driver.
func (d *Driver) EnsureScriptTemplate(ctx context.Context) (string, error) {
	if d.hasScript {
		return d.script, nil
	}
	if d.opts.ScriptTemplatePath == "" {
		return "", &BuildError{Stage: StageScript, Cause: errors.New("no script template path configured")}
	}
	text, created, err := ensureScriptTemplate(d.opts.ScriptTemplatePath, d.opts.ToolDir)
	if err != nil {
		return "", &BuildError{Stage: StageScript, Cause: err}
	}
	if created {
		ctxlog.FromContext(ctx).Info("script template created", "path", d.opts.ScriptTemplatePath)
	}
	d.script = text
	d.hasScript = true
	return text, nil
}

// Compile runs the toolchain over renderedPath and returns the module bytes.
// Every derived path is registered with reg before anything is written.
// Pass/fail is decided by the artifacts present after the child exits; its
// exit code is only logged.
//
// protected names files the build must never touch, such as the delivered
// artifact of an earlier run. A derived path equal to one of them fails the
// script stage before anything is removed or registered.
func (d *Driver) Compile(ctx context.Context, renderedPath string, reg Registrar, protected ...string) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)
	d.state = StateIdle
	d.exitCode = -1

	tmpl, err := d.EnsureScriptTemplate(ctx)
	if err != nil {
		return nil, d.fail(err)
	}

	l := d.opts.Layout
	paths := l.Derive(renderedPath)
	if p, clash := paths.collision(protected...); clash {
		return nil, d.fail(&BuildError{Stage: StageScript, Cause: fmt.Errorf("derived path %s collides with another build file", p)})
	}
	if reg != nil {
		reg.Register(paths.Generated()...)
	}

	for _, p := range paths.Generated() {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, d.fail(&BuildError{Stage: StageScript, Cause: fmt.Errorf("removing stale %s: %w", p, err)})
		}
	}
	if err := os.WriteFile(paths.Script, []byte(instantiate(tmpl, paths, l)), 0o755); err != nil {
		return nil, d.fail(&BuildError{Stage: StageScript, Artifact: paths.Script, Cause: err})
	}
	if err := d.advance(StateScriptPrepared); err != nil {
		return nil, err
	}

	if err := d.advance(StateChildProcessRunning); err != nil {
		return nil, err
	}
	logger.Debug("running build script", "shell", d.opts.Shell, "script", paths.Script)
	code, err := runScript(ctx, d.opts.Shell, paths.Script, func(line string) {
		logger.Info(line, "source", "toolchain")
	})
	d.exitCode = code
	if err != nil {
		return nil, d.fail(&BuildError{Stage: StageScript, Tool: d.opts.Shell, Cause: err})
	}
	if err := d.advance(StateChildProcessExited); err != nil {
		return nil, err
	}
	if code != 0 {
		logger.Warn("build script exited non-zero", "script", paths.Script, "exit_code", code)
	}

	if err := d.verify(paths); err != nil {
		return nil, d.fail(err)
	}
	if err := d.advance(StateArtifactsVerified); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(paths.Module)
	if err != nil {
		return nil, d.fail(&BuildError{Stage: StageLink, Tool: l.Linker, Artifact: paths.Module, Cause: err})
	}
	if err := d.advance(StateArtifactRead); err != nil {
		return nil, err
	}
	logger.Debug("module read", "path", paths.Module, "bytes", len(data))
	return data, nil
}

type stageCheck struct {
	stage     Stage
	tool      string
	artifacts []string
}

// verify checks expected outputs in pipeline order. The first missing file
// names the failed stage.
func (d *Driver) verify(p Paths) error {
	l := d.opts.Layout
	checks := []stageCheck{
		{StageMarkup, l.MarkupCompiler, []string{p.Markup, p.ResourceScript}},
		{StageResource, l.ResourceCompiler, []string{p.ResourceBinary}},
		{StageLink, l.Linker, []string{p.Module}},
	}
	for _, c := range checks {
		for _, a := range c.artifacts {
			if !isFile(a) {
				return &BuildError{Stage: c.stage, Tool: c.tool, Artifact: a}
			}
		}
		if d.opts.StageVerified != nil {
			d.opts.StageVerified(c.stage, c.artifacts[len(c.artifacts)-1])
		}
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (d *Driver) advance(to State) error {
	if err := Transition(d.state, to); err != nil {
		return err
	}
	d.state = to
	return nil
}

// fail moves to the terminal state matching err's stage and returns err.
func (d *Driver) fail(err error) error {
	stage, ok := FailedStage(err)
	if !ok {
		stage = StageScript
	}
	d.state = failureState(stage)
	return err
}

// Package build runs one localized build per target: render the template
// for the target's culture, drive the toolchain, hand back the module bytes
// and always remove the files the build created.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rs/xid"

	"locbuild/internal/catalog"
	"locbuild/internal/config"
	"locbuild/internal/ctxlog"
	"locbuild/internal/localize"
	"locbuild/internal/logging"
	"locbuild/internal/report"
	"locbuild/internal/target"
	"locbuild/internal/toolchain"
	"locbuild/internal/trace"
)

// ErrNoSession is returned by Build before a successful Discover.
var ErrNoSession = errors.New("no discovery session")

type Option func(*Manager)

// WithLogger sets the log sink. Child process output is logged through it.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTraceSink records build events on s.
func WithTraceSink(s trace.Sink) Option {
	return func(m *Manager) {
		if s != nil {
			m.sink = s
		}
	}
}

// Manager owns one discovery session and the temporary files of the build in
// progress. Builds are sequential; a Manager must not be used from more than
// one goroutine.
type Manager struct {
	cfg    config.Config
	logger *slog.Logger
	sink   trace.Sink
	driver *toolchain.Driver
	temp   *TemporaryFileSet

	session      string
	templatePath string
	templateText string
	targets      []target.Target
	strings      *catalog.Service

	// building is the display name of the target being built, for trace
	// events raised from toolchain callbacks.
	building string
}

// NewManager validates cfg enough to locate the script template. The
// toolchain directory is resolved lazily, on first script creation.
func NewManager(cfg config.Config, opts ...Option) (*Manager, error) {
	scriptPath, err := cfg.ScriptTemplateFile()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:    cfg,
		logger: logging.Discard(),
		sink:   trace.NopSink{},
		temp:   NewTemporaryFileSet(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.driver = toolchain.NewDriver(toolchain.Options{
		ScriptTemplatePath: scriptPath,
		ToolDir:            cfg.ResolveToolchainDir,
		Shell:              cfg.Shell,
		Layout: toolchain.Layout{
			ModuleExt:        cfg.ArtifactExtension,
			MarkupCompiler:   cfg.MarkupCompiler,
			ResourceCompiler: cfg.ResourceCompiler,
			Linker:           cfg.Linker,
		},
		StageVerified: m.stageVerified,
	})
	return m, nil
}

// Session returns the id of the current discovery session, or "".
func (m *Manager) Session() string { return m.session }

// Targets returns the targets found by the last Discover.
func (m *Manager) Targets() []target.Target {
	out := make([]target.Target, len(m.targets))
	copy(out, m.targets)
	return out
}

// Driver exposes the toolchain driver for diagnostics.
func (m *Manager) Driver() *toolchain.Driver { return m.driver }

// Discover reads the template at templatePath and starts a session over it.
func (m *Manager) Discover(ctx context.Context, templatePath string) ([]target.Target, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, &target.DiscoveryError{Path: templatePath, Cause: err}
	}
	return m.DiscoverText(ctx, templatePath, string(data))
}

// DiscoverText starts a session for a template whose text the caller
// already holds. Any previous session is closed first.
func (m *Manager) DiscoverText(ctx context.Context, templatePath, text string) ([]target.Target, error) {
	m.Close()

	res, err := target.Discover(templatePath, m.cfg.ArtifactExtension)
	if err != nil {
		m.logger.Error("target discovery failed", "template", templatePath, "error", err)
		return nil, err
	}

	m.session = xid.New().String()
	m.templatePath = templatePath
	m.templateText = text
	m.targets = res.Targets
	m.strings = res.Strings

	m.sessionLogger().Info("targets discovered",
		"template", templatePath,
		"count", len(res.Targets),
		"localized", res.Strings != nil)
	for _, t := range res.Targets {
		trace.SafeRecord(m.sink, trace.TraceEvent{Kind: trace.EventTargetDiscovered, Target: t.DisplayName()})
	}
	return m.Targets(), nil
}

// Build renders and compiles t. Every file registered during the build is
// removed before Build returns, whatever the outcome; removal failures are
// logged and traced, never returned.
func (m *Manager) Build(ctx context.Context, t target.Target) (artifact []byte, err error) {
	if m.session == "" {
		return nil, ErrNoSession
	}

	logger := m.sessionLogger().With("target", t.DisplayName())
	ctx = ctxlog.WithLogger(ctx, logger)
	m.building = t.DisplayName()

	m.temp.Reset()
	defer func() {
		m.cleanup(logger, t)
		m.building = ""
		m.recordOutcome(logger, t, artifact, err)
	}()

	logger.Info("build started")

	if _, err := m.driver.EnsureScriptTemplate(ctx); err != nil {
		return nil, err
	}

	var resolver localize.Resolver
	if t.IsLocalized {
		if m.strings == nil {
			return nil, fmt.Errorf("target %s is localized but no catalog service was built", t.DisplayName())
		}
		if err := m.strings.SetCulture(t.LocaleName); err != nil {
			return nil, err
		}
		logger.Debug("culture selected", "chain", m.strings.Chain())
		resolver = m.strings
	}

	res := localize.Localize(m.templateText, t, resolver)
	for _, key := range res.Unresolved {
		logger.Warn("resource key unresolved", "key", key)
		trace.SafeRecord(m.sink, trace.TraceEvent{Kind: trace.EventKeyUnresolved, Target: t.DisplayName(), Detail: key})
	}

	rendered, err := localize.WriteRendered(m.templatePath, t, m.cfg.IntermediateDir, res, m.temp)
	if err != nil {
		return nil, err
	}
	trace.SafeRecord(m.sink, trace.TraceEvent{Kind: trace.EventTargetLocalized, Target: t.DisplayName()})
	logger.Debug("template rendered", "path", rendered, "unresolved", len(res.Unresolved))

	return m.driver.Compile(ctx, rendered, m.temp, t.OutputArtifactPath)
}

// Close ends the session. Memoized catalogs are dropped; the persisted
// script template is kept for later sessions.
func (m *Manager) Close() {
	if m.strings != nil {
		m.strings.Reset()
	}
	m.session = ""
	m.templatePath = ""
	m.templateText = ""
	m.targets = nil
	m.strings = nil
}

func (m *Manager) cleanup(logger *slog.Logger, t target.Target) {
	for _, err := range m.temp.RemoveAll() {
		logger.Warn("temporary file not removed", "error", err)
		var ce *CleanupError
		detail := err.Error()
		if errors.As(err, &ce) {
			detail = filepath.Base(ce.Path)
		}
		trace.SafeRecord(m.sink, trace.TraceEvent{Kind: trace.EventCleanupFailed, Target: t.DisplayName(), Detail: detail})
	}
}

func (m *Manager) recordOutcome(logger *slog.Logger, t target.Target, artifact []byte, err error) {
	if err != nil {
		f := report.Classify(err)
		logger.Error("build failed", "class", f.Class, "stage", f.Stage, "error", err)
		trace.SafeRecord(m.sink, trace.TraceEvent{
			Kind:   trace.EventBuildFailed,
			Target: t.DisplayName(),
			Stage:  f.Stage,
			Detail: string(f.Class),
		})
		return
	}
	logger.Info("build succeeded", "bytes", len(artifact))
	trace.SafeRecord(m.sink, trace.TraceEvent{Kind: trace.EventBuildSucceeded, Target: t.DisplayName()})
}

func (m *Manager) stageVerified(stage toolchain.Stage, artifact string) {
	trace.SafeRecord(m.sink, trace.TraceEvent{
		Kind:   trace.EventStageVerified,
		Target: m.building,
		Stage:  string(stage),
		Detail: filepath.Base(artifact),
	})
}

func (m *Manager) sessionLogger() *slog.Logger {
	if m.session == "" {
		return m.logger
	}
	return m.logger.With("session", m.session)
}

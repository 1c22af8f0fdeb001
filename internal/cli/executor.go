package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"text/tabwriter"

	"locbuild/internal/build"
	"locbuild/internal/config"
	"locbuild/internal/ctxlog"
	"locbuild/internal/logging"
	"locbuild/internal/report"
	"locbuild/internal/target"
	"locbuild/internal/trace"
)

// Streams are the process boundaries Execute talks to.
type Streams struct {
	Out      io.Writer
	Err      io.Writer
	Selector Selector
}

type Result struct {
	ExitCode int
	Targets  []target.Target
	Report   *report.Report
}

// Execute runs one invocation: load configuration, discover targets, build
// each selected target and hand its bytes to the output location. A failing
// target never stops the others; it only turns the exit code to
// ExitTargetFailure.
func Execute(ctx context.Context, inv Invocation, streams Streams) (res Result, execErr error) {
	res.ExitCode = ExitInternalError
	if streams.Out == nil {
		streams.Out = io.Discard
	}
	if streams.Err == nil {
		streams.Err = io.Discard
	}

	cfg, err := config.Load(inv.ConfigPath)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	applyOverrides(&cfg, inv)

	logger := logging.New(streams.Err, logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Colored:    cfg.LogColored,
		TimeFormat: cfg.LogTimeFormat,
	})
	ctx = ctxlog.WithLogger(ctx, logger)

	rec := trace.NewRecorder()
	mgr, err := build.NewManager(cfg, build.WithLogger(logger), build.WithTraceSink(rec))
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	defer mgr.Close()

	if inv.TracePath != "" {
		defer func() {
			if n := rec.Rejected(); n > 0 {
				logger.Warn("trace events rejected", "count", n)
			}
			if err := writeTrace(inv.TracePath, rec.Trace(inv.TemplatePath)); err != nil {
				logger.Error("trace not written", "path", inv.TracePath, "error", err)
				if execErr == nil {
					res.ExitCode = ExitInternalError
					execErr = err
				}
			}
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			res.ExitCode = ExitInternalError
			execErr = fmt.Errorf("panic: %v", r)
		}
	}()

	targets, err := mgr.Discover(ctx, inv.TemplatePath)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	res.Targets = targets
	logger = logger.With("session", mgr.Session())

	if inv.List {
		res.ExitCode = ExitSuccess
		return res, printTargets(streams.Out, targets)
	}

	selected, err := selectByLocale(targets, inv.Locales)
	if err != nil {
		res.ExitCode = ExitCode(err)
		return res, err
	}
	if inv.Interactive {
		if streams.Selector == nil {
			return res, errors.New("interactive selection requested but no selector is available")
		}
		selected, err = streams.Selector.Select(ctx, selected)
		if err != nil {
			res.ExitCode = ExitInvalidInvocation
			return res, err
		}
		if len(selected) == 0 {
			res.ExitCode = ExitInvalidInvocation
			return res, invalidInvocationf("no targets selected")
		}
	}

	rep := report.New(inv.TemplatePath, mgr.Session())
	for _, t := range selected {
		out := outputPath(t, inv.OutputDir)
		data, err := mgr.Build(ctx, t)
		if err == nil {
			if werr := report.WriteFile(out, data, 0o644); werr != nil {
				err = fmt.Errorf("writing artifact %s: %w", out, werr)
				logger.Error("artifact not written", "target", t.DisplayName(), "error", werr)
			}
		}
		rep.Add(t, out, data, err)
	}
	res.Report = rep

	if err := rep.WriteSummary(streams.Out); err != nil {
		return res, err
	}
	if inv.ReportPath != "" {
		if err := rep.Save(inv.ReportPath); err != nil {
			return res, err
		}
	}

	if rep.Failed() > 0 {
		res.ExitCode = ExitTargetFailure
	} else {
		res.ExitCode = ExitSuccess
	}
	logger.Log(ctx, levelFor(res.ExitCode), "session finished",
		"succeeded", rep.Succeeded(),
		"failed", rep.Failed())
	return res, nil
}

func applyOverrides(cfg *config.Config, inv Invocation) {
	if inv.LogLevel != "" {
		cfg.LogLevel = inv.LogLevel
	}
	if inv.LogFormat != "" {
		cfg.LogFormat = inv.LogFormat
	}
}

// outputPath is where the artifact of t is handed off.
func outputPath(t target.Target, outputDir string) string {
	if outputDir == "" {
		return t.OutputArtifactPath
	}
	return filepath.Join(outputDir, filepath.Base(t.OutputArtifactPath))
}

func printTargets(w io.Writer, targets []target.Target) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tLOCALIZED\tCATALOG\tOUTPUT")
	for _, t := range targets {
		catalogPath := t.ResourceCatalogPath
		if catalogPath == "" {
			catalogPath = "-"
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", t.DisplayName(), t.IsLocalized, catalogPath, t.OutputArtifactPath)
	}
	return tw.Flush()
}

func writeTrace(path string, tr trace.ExecutionTrace) error {
	b, err := tr.CanonicalJSON()
	if err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}
	return report.WriteFile(path, append(b, '\n'), 0o644)
}

func levelFor(exitCode int) slog.Level {
	if exitCode == ExitSuccess {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

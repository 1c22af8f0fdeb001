package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"locbuild/internal/target"
)

var ErrSelectionCancelled = errors.New("target selection cancelled")

// Selector lets the user narrow the target list. It is an interface so tests
// run without a terminal.
type Selector interface {
	Select(ctx context.Context, targets []target.Target) ([]target.Target, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, targets []target.Target) ([]target.Target, error)

func (f SelectorFunc) Select(ctx context.Context, targets []target.Target) ([]target.Target, error) {
	return f(ctx, targets)
}

type surveySelector struct {
	opts []survey.AskOpt
}

// NewSurveySelector returns a Selector backed by a terminal multi-select
// prompt with every target preselected.
func NewSurveySelector(opts ...survey.AskOpt) Selector {
	return &surveySelector{opts: opts}
}

func (s *surveySelector) Select(ctx context.Context, targets []target.Target) ([]target.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := make([]string, len(targets))
	for i, t := range targets {
		options[i] = t.DisplayName()
	}

	var picked []int
	prompt := &survey.MultiSelect{
		Message: "Targets to build:",
		Options: options,
		Default: options,
		Help:    "space toggles a target, enter confirms",
	}
	if err := survey.AskOne(prompt, &picked, s.opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return nil, ErrSelectionCancelled
		}
		return nil, fmt.Errorf("target prompt: %w", err)
	}

	out := make([]target.Target, 0, len(picked))
	for _, i := range picked {
		if i >= 0 && i < len(targets) {
			out = append(out, targets[i])
		}
	}
	return out, nil
}

// selectByLocale returns the targets named in locales, in that order. An
// unknown name is an invocation error.
func selectByLocale(targets []target.Target, locales []string) ([]target.Target, error) {
	if len(locales) == 0 {
		out := make([]target.Target, len(targets))
		copy(out, targets)
		return out, nil
	}
	out := make([]target.Target, 0, len(locales))
	for _, name := range locales {
		lookup := name
		if strings.EqualFold(name, DefaultLocaleName) {
			lookup = ""
		}
		t, ok := target.Find(targets, lookup)
		if !ok {
			return nil, invalidInvocationf("no target for locale %q (available: %s)", name, strings.Join(displayNames(targets), ", "))
		}
		out = append(out, t)
	}
	return out, nil
}

func displayNames(targets []target.Target) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.DisplayName()
	}
	return names
}

// Package report summarizes a build session per target and persists the
// summary and the produced artifacts.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"locbuild/internal/target"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is the outcome of one target.
type Entry struct {
	Target string `json:"target"`
	Locale string `json:"locale,omitempty"`
	Output string `json:"output"`
	Status Status `json:"status"`

	Size   int64  `json:"size,omitempty"`
	SHA256 string `json:"sha256,omitempty"`

	Failure *Failure `json:"failure,omitempty"`
}

// Report is the summary handed back to the user after a session.
type Report struct {
	TemplatePath string  `json:"template"`
	Session      string  `json:"session,omitempty"`
	Entries      []Entry `json:"targets"`
}

func New(templatePath, session string) *Report {
	return &Report{TemplatePath: templatePath, Session: session, Entries: []Entry{}}
}

// Add records the outcome of building t. output is where the artifact was
// written; it is ignored for failures.
func (r *Report) Add(t target.Target, output string, artifact []byte, err error) Entry {
	e := Entry{
		Target: t.DisplayName(),
		Locale: t.LocaleName,
		Output: output,
	}
	if err != nil {
		f := Classify(err)
		e.Status = StatusFailed
		e.Failure = &f
	} else {
		sum := sha256.Sum256(artifact)
		e.Status = StatusSucceeded
		e.Size = int64(len(artifact))
		e.SHA256 = hex.EncodeToString(sum[:])
	}
	r.Entries = append(r.Entries, e)
	return e
}

func (r *Report) Succeeded() int { return r.count(StatusSucceeded) }

func (r *Report) Failed() int { return r.count(StatusFailed) }

func (r *Report) count(s Status) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == s {
			n++
		}
	}
	return n
}

// Validate checks the invariants a persisted report must satisfy.
func (r *Report) Validate() error {
	if r == nil {
		return errors.New("report is nil")
	}
	if strings.TrimSpace(r.TemplatePath) == "" {
		return errors.New("template is required")
	}
	for i, e := range r.Entries {
		switch e.Status {
		case StatusSucceeded:
			if e.Failure != nil {
				return fmt.Errorf("targets[%d]: succeeded entry carries a failure", i)
			}
		case StatusFailed:
			if e.Failure == nil {
				return fmt.Errorf("targets[%d]: failed entry has no failure", i)
			}
		default:
			return fmt.Errorf("targets[%d]: unknown status %q", i, e.Status)
		}
	}
	return nil
}

// WriteSummary prints a human-readable table followed by a totals line.
func (r *Report) WriteSummary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tSTATUS\tSIZE\tDETAIL")
	for _, e := range r.Entries {
		detail := e.Output
		size := fmt.Sprintf("%d", e.Size)
		if e.Failure != nil {
			detail = e.Failure.Message
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Target, e.Status, size, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d succeeded, %d failed\n", r.Succeeded(), r.Failed())
	return err
}

package cli

import (
	"context"
	"os"
)

// Run parses args (without argv[0]) and executes them against the process
// streams, prompting on the terminal when --interactive is set.
func Run(ctx context.Context, args []string) (Result, error) {
	return RunWithStreams(ctx, args, Streams{
		Out:      os.Stdout,
		Err:      os.Stderr,
		Selector: NewSurveySelector(),
	})
}

// RunWithStreams is Run with explicit streams, for tests and embedding.
func RunWithStreams(ctx context.Context, args []string, streams Streams) (Result, error) {
	inv, err := ParseInvocation(args)
	if err != nil {
		return Result{ExitCode: ExitCode(err)}, err
	}
	return Execute(ctx, inv, streams)
}

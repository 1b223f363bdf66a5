package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/propbind/cmd/bindscope/templates"
	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/scenario"
)

var errStrict = errors.New("binding loops or evaluation errors were reported")

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Build a scenario, apply its steps and print bindings and diagnostics",
		ArgsUsage: "<scenario.hcl>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  setKey,
				Usage: "Assignment id.property=expression applied after the steps",
			},
			&cli.BoolFlag{
				Name:  strictKey,
				Usage: "Fail if any binding loop or evaluation error was reported",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one scenario file, got %d", cmd.Args().Len())
	}
	path := cmd.Args().First()

	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	rec := &diag.Recorder{}
	e, logger := newEngine(cmd, rec)

	start := time.Now()
	w, err := sc.Build(e, logger)
	if err != nil {
		return err
	}
	runErr := w.Run()
	for _, s := range cmd.StringSlice(setKey) {
		if err := applySet(w, s); err != nil {
			return err
		}
	}
	logger.Info("scenario finished",
		slog.String("file", path),
		slog.Int("steps", len(sc.Steps)),
		slog.Duration("took", time.Since(start)),
	)

	renderBindings(os.Stdout, w)
	unique, counts := rec.Unique()
	templates.WriteDiagnosticsReport(os.Stdout, path, humanize.Comma(int64(e.Evaluations())), unique, counts)

	if runErr != nil {
		return runErr
	}
	if cmd.Bool(strictKey) && len(rec.OfKind(diag.BindingLoop))+len(rec.OfKind(diag.EvaluationError)) > 0 {
		return errStrict
	}
	return nil
}

// applySet handles one "id.property=expression" assignment.
func applySet(w *scenario.World, s string) error {
	lhs, src, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("invalid assignment %q, expected id.property=expression", s)
	}
	ref, err := scenario.ParseRef(lhs)
	if err != nil {
		return err
	}
	return w.Set(ref, strings.TrimSpace(src), diag.Location{File: "--" + setKey})
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/hclexpr"
	"github.com/delaneyj/propbind/reactive"
)

const (
	logLevelKey   = "log-level"
	logFormatKey  = "log-format"
	setKey        = "set"
	strictKey     = "strict"
	widthKey      = "width"
	heightKey     = "height"
	iterationsKey = "iterations"
	interpretKey  = "interpreted"
)

func main() {
	cmd := &cli.Command{
		Name:  "bindscope",
		Usage: "Run and inspect property bindings declared in HCL scenario files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  logLevelKey,
				Usage: "Log level: debug, info, warn or error",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  logFormatKey,
				Usage: "Log format: text or json",
				Value: "text",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			replCommand(),
			benchCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newEngine builds an engine that parses HCL expressions and sends every
// diagnostic both to rec and to the log.
func newEngine(cmd *cli.Command, rec *diag.Recorder) (*reactive.Engine, *slog.Logger) {
	logger := newLogger(cmd.String(logLevelKey), cmd.String(logFormatKey), os.Stderr)
	e := reactive.NewEngine(
		reactive.WithParser(hclexpr.Parser{}),
		reactive.WithLogger(logger),
		reactive.WithSink(diag.Multi(rec, diag.NewLogSink(logger))),
	)
	return e, logger
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/hclexpr"
	"github.com/delaneyj/propbind/reactive"
	"github.com/delaneyj/propbind/value"
)

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure write propagation through chains of bindings",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  widthKey,
				Usage: "Number of chains hanging off the source property",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  heightKey,
				Usage: "Number of bindings in each chain",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  iterationsKey,
				Usage: "Number of writes to the source property",
				Value: 100,
			},
			&cli.BoolFlag{
				Name:  interpretKey,
				Usage: "Also measure interpreted bindings next to compiled ones",
			},
		},
		Action: bench,
	}
}

func bench(ctx context.Context, cmd *cli.Command) error {
	w, h, iters := int(cmd.Int(widthKey)), int(cmd.Int(heightKey)), int(cmd.Int(iterationsKey))
	if w <= 0 || h <= 0 || iters <= 0 {
		return fmt.Errorf("width, height and iterations must be positive")
	}
	rec := &diag.Recorder{}
	_, logger := newEngine(cmd, rec)

	tbl := table.NewWriter()
	tbl.SetTitle("Binding propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "evaluations", "avg", "min", "p75", "p99", "max"})

	modes := []bool{false}
	if cmd.Bool(interpretKey) {
		modes = append(modes, true)
	}
	for _, interpreted := range modes {
		row, err := propagate(w, h, iters, interpreted, rec)
		if err != nil {
			return err
		}
		tbl.AppendRow(row)
	}
	tbl.Render()

	if rec.Len() > 0 {
		logger.Warn("diagnostics reported during benchmark", slog.Int("count", rec.Len()))
	}
	return nil
}

// propagate builds w chains of h bindings, each adding one to the previous
// link, and times writes to the shared source.
func propagate(w, h, iters int, interpreted bool, rec *diag.Recorder) (table.Row, error) {
	e := reactive.NewEngine(reactive.WithParser(hclexpr.Parser{}), reactive.WithSink(rec))
	src := e.NewObject("Source", "src", reactive.PropertyDef{Name: "v", Type: value.TypeInt, Default: value.Int(1)})

	var fn *reactive.Function
	if interpreted {
		var err error
		if fn, err = hclexpr.Compile("next", "prev.v + 1", diag.Location{File: "bench"}); err != nil {
			return nil, err
		}
	} else {
		fn = &reactive.Function{
			Name: "next",
			AOT: &reactive.AOTFunction{
				ReturnType: value.TypeInt,
				Call: func(scope *reactive.Scope) (any, bool, error) {
					prev, err := scope.Lookup("prev")
					if err != nil {
						return nil, false, err
					}
					v, err := scope.Read(prev, "v")
					if err != nil {
						return nil, false, err
					}
					return v.IntValue() + 1, true, nil
				},
			},
		}
	}

	var tails []*reactive.Object
	err := e.Construct(func() error {
		for i := range w {
			prev := src
			for j := range h {
				link := e.NewObject("Link", fmt.Sprintf("link%d_%d", i, j), reactive.PropertyDef{Name: "v", Type: value.TypeInt})
				ctx := reactive.NewContext(nil, nil)
				ctx.SetID("prev", prev)
				if _, err := e.CreateBinding(link, "v", fn, reactive.NewScope(link, ctx)); err != nil {
					return err
				}
				prev = link
			}
			tails = append(tails, prev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	before := e.Evaluations()
	for i := range iters {
		start := time.Now()
		if err := src.Write("v", value.Int(int32(i+2))); err != nil {
			return nil, err
		}
		tach.AddTime(time.Since(start))
	}
	for _, t := range tails {
		v, err := t.Read("v")
		if err != nil {
			return nil, err
		}
		if want := int32(iters + 1 + h); v.IntValue() != want {
			return nil, fmt.Errorf("%s.v is %d, want %d", t, v.IntValue(), want)
		}
	}

	mode := "compiled"
	if interpreted {
		mode = "interpreted"
	}
	calc := tach.Calc()
	return table.Row{
		fmt.Sprintf("%s: %d * %d", mode, w, h),
		humanize.Comma(int64(e.Evaluations() - before)),
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
	}, nil
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/propbind/cmd/bindscope/templates"
	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/hclexpr"
	"github.com/delaneyj/propbind/reactive"
	"github.com/delaneyj/propbind/scenario"
	"github.com/delaneyj/propbind/value"
)

var errQuit = errors.New("quit")

const replHelp = `commands:
  object <id> [<Type>] <prop>[:<type>] ...   declare an object
  get <id.prop>                              read a property
  set <id.prop> <expr>                       write the value of expr, removing any binding
  bind <id.prop> <expr>                      bind a property to expr
  reset <id.prop>                            reset a resettable property
  eval <expr>                                evaluate expr in the root scope
  deps <id.prop>                             list the dependencies of a binding
  bindings                                   list every binding
  lang <language>                            switch the UI language
  diag                                       report diagnostics so far
  quit
`

func replCommand() *cli.Command {
	return &cli.Command{
		Name:      "repl",
		Usage:     "Interactively inspect and edit bindings",
		ArgsUsage: "[scenario.hcl]",
		Action:    repl,
	}
}

func repl(ctx context.Context, cmd *cli.Command) error {
	sc := &scenario.Scenario{Filename: "repl"}
	if cmd.Args().Len() > 0 {
		var err error
		if sc, err = scenario.Load(cmd.Args().First()); err != nil {
			return err
		}
	}
	rec := &diag.Recorder{}
	e, logger := newEngine(cmd, rec)
	w, err := sc.Build(e, logger)
	if err != nil {
		return err
	}
	s := &session{world: w, rec: rec, out: os.Stdout}

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return s.serve(bufio.NewScanner(os.Stdin))
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(s.complete)
	fmt.Fprint(s.out, replHelp)
	for {
		input, err := line.Prompt("> ")
		switch {
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		line.AppendHistory(input)
		if err := s.exec(input); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

// session executes REPL commands against one world.
type session struct {
	world *scenario.World
	rec   *diag.Recorder
	out   io.Writer
	seen  int
}

func (s *session) serve(sc *bufio.Scanner) error {
	for sc.Scan() {
		if err := s.exec(sc.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(s.out, "error:", err)
		}
	}
	return sc.Err()
}

func (s *session) exec(input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}
	verb, args := fields[0], fields[1:]
	loc := diag.Location{File: "repl", Line: 1, Column: 1}

	defer s.flushDiagnostics()
	switch verb {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprint(s.out, replHelp)
		return nil
	case "object":
		return s.declare(args)
	case "get":
		ref, err := s.ref(args)
		if err != nil {
			return err
		}
		v, err := s.world.Get(ref)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, v)
		return nil
	case "set", "bind":
		ref, err := s.ref(args)
		if err != nil {
			return err
		}
		src := afterFields(input, 2)
		if src == "" {
			return fmt.Errorf("%s needs an expression", verb)
		}
		if verb == "set" {
			return s.world.Set(ref, src, loc)
		}
		return s.world.Bind(ref, src, loc)
	case "reset":
		ref, err := s.ref(args)
		if err != nil {
			return err
		}
		o, _ := s.world.Object(ref.ID)
		if o == nil {
			return fmt.Errorf("%q: %w", ref.ID, scenario.ErrUnknownObject)
		}
		return o.Reset(ref.Property)
	case "eval":
		v, err := s.world.Eval("", afterFields(input, 1), loc)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, v)
		return nil
	case "deps":
		ref, err := s.ref(args)
		if err != nil {
			return err
		}
		b, err := s.world.Binding(ref)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%s has no binding", ref)
		}
		renderDependencies(s.out, b)
		return nil
	case "bindings":
		renderBindings(s.out, s.world)
		return nil
	case "lang":
		if len(args) != 1 {
			return errors.New("lang needs one language")
		}
		return s.world.Engine().SetLanguage(args[0])
	case "diag":
		unique, counts := s.rec.Unique()
		evals := humanize.Comma(int64(s.world.Engine().Evaluations()))
		templates.WriteDiagnosticsReport(s.out, s.world.Scenario().Filename, evals, unique, counts)
		return nil
	default:
		return fmt.Errorf("unknown command %q, try help", verb)
	}
}

// afterFields drops the first n whitespace separated fields of s.
func afterFields(s string, n int) string {
	s = strings.TrimSpace(s)
	for range n {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			return ""
		}
		s = strings.TrimSpace(s[i:])
	}
	return s
}

func (s *session) ref(args []string) (scenario.Ref, error) {
	if len(args) == 0 {
		return scenario.Ref{}, errors.New("missing id.property")
	}
	return scenario.ParseRef(args[0])
}

// declare handles "object <id> [<Type>] <prop>[:<type>] ...". A second
// argument without a colon that starts with an upper case letter is the
// type name.
func (s *session) declare(args []string) error {
	if len(args) == 0 {
		return errors.New("object needs an id")
	}
	od := &scenario.Object{ID: args[0], Type: "QtObject"}
	args = args[1:]
	if len(args) > 0 && !strings.Contains(args[0], ":") && args[0] != "" && args[0][0] >= 'A' && args[0][0] <= 'Z' {
		od.Type, args = args[0], args[1:]
	}
	for _, a := range args {
		name, typ, _ := strings.Cut(a, ":")
		p := &scenario.Property{Name: name, Type: value.TypeVar, Value: value.Undefined}
		if typ != "" {
			t, ok := value.Lookup(typ)
			if !ok {
				return fmt.Errorf("unknown type %q", typ)
			}
			p.Type = t
		}
		od.Properties = append(od.Properties, p)
	}
	_, err := s.world.AddObject(od)
	return err
}

// flushDiagnostics prints the diagnostics reported since the last command.
func (s *session) flushDiagnostics() {
	all := s.rec.All()
	for _, d := range all[s.seen:] {
		fmt.Fprintln(s.out, "warning:", d)
	}
	s.seen = len(all)
}

func (s *session) complete(line string) []string {
	var out []string
	for _, c := range []string{"object", "get", "set", "bind", "reset", "eval", "deps", "bindings", "lang", "diag", "help", "quit"} {
		if strings.HasPrefix(c, line) {
			out = append(out, c+" ")
		}
	}
	verb, partial, ok := strings.Cut(line, " ")
	if !ok || strings.Contains(partial, " ") {
		return out
	}
	for _, o := range s.world.Objects() {
		for i := range o.PropertyCount() {
			sl, _ := o.SlotAt(reactive.CoreIndex(i))
			ref := o.ObjectName() + "." + sl.Name()
			if strings.HasPrefix(ref, partial) {
				out = append(out, verb+" "+ref+" ")
			}
		}
	}
	for _, f := range hclexpr.Functions() {
		if verb == "eval" && strings.HasPrefix(f, partial) {
			out = append(out, verb+" "+f+"(")
		}
	}
	return out
}

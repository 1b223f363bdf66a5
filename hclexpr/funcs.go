package hclexpr

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/delaneyj/propbind/value"
)

// ErrThrown wraps the message of a throw() call.
var ErrThrown = errors.New("thrown")

type builtin struct {
	arity int
	fn    func(args []value.Value) (value.Value, error)
}

var builtins = map[string]builtin{
	"arg": {2, func(args []value.Value) (value.Value, error) {
		return value.String(argReplace(args[0].ToString(), args[1].ToString())), nil
	}},
	"upper": {1, func(args []value.Value) (value.Value, error) {
		return value.String(strings.ToUpper(args[0].ToString())), nil
	}},
	"lower": {1, func(args []value.Value) (value.Value, error) {
		return value.String(strings.ToLower(args[0].ToString())), nil
	}},
	"length": {1, func(args []value.Value) (value.Value, error) {
		return value.Int(int32(len(utf16.Encode([]rune(args[0].ToString()))))), nil
	}},
	"string": {1, func(args []value.Value) (value.Value, error) {
		return value.String(args[0].ToString()), nil
	}},
	"number": {1, func(args []value.Value) (value.Value, error) {
		return value.Number(args[0].ToNumber()), nil
	}},
	"undefined": {0, func(args []value.Value) (value.Value, error) {
		return value.Undefined, nil
	}},
	"throw": {1, func(args []value.Value) (value.Value, error) {
		return value.Undefined, fmt.Errorf("%w: %s", ErrThrown, args[0].ToString())
	}},
}

// Functions lists the built-in function names.
func Functions() []string {
	return slices.Sorted(maps.Keys(builtins))
}

func (ev *evaluator) callFunction(e *hclsyntax.FunctionCallExpr) (value.Value, error) {
	f, ok := builtins[e.Name]
	if !ok {
		return value.Undefined, fmt.Errorf("%s: unknown function %q", e.NameRange, e.Name)
	}
	if len(e.Args) != f.arity || e.ExpandFinal {
		return value.Undefined, fmt.Errorf("%s: %s expects %d arguments, got %d", e.NameRange, e.Name, f.arity, len(e.Args))
	}
	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := ev.eval(a)
		if err != nil {
			return value.Undefined, err
		}
		args[i] = v
	}
	return f.fn(args)
}

// argReplace replaces every occurrence of the lowest numbered %N marker
// (1 to 99) in s with a.
func argReplace(s, a string) string {
	lowest := 100
	for i := 0; i < len(s)-1; i++ {
		if s[i] != '%' {
			continue
		}
		if n, _ := marker(s[i+1:]); n > 0 && n < lowest {
			lowest = n
		}
	}
	if lowest == 100 {
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+1 < len(s) {
			if n, width := marker(s[i+1:]); n == lowest {
				sb.WriteString(a)
				i += width
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// marker parses the one or two digit number at the start of s.
func marker(s string) (n, width int) {
	for width < len(s) && width < 2 && s[width] >= '0' && s[width] <= '9' {
		width++
	}
	if width == 0 {
		return 0, 0
	}
	n, _ = strconv.Atoi(s[:width])
	return n, width
}

package hclexpr_test

import (
	"math"
	"testing"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/hclexpr"
	"github.com/delaneyj/propbind/reactive"
	"github.com/delaneyj/propbind/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (*reactive.Engine, *diag.Recorder) {
	t.Helper()
	rec := &diag.Recorder{}
	return reactive.NewEngine(reactive.WithSink(rec), reactive.WithParser(hclexpr.Parser{})), rec
}

func str(name string) reactive.PropertyDef {
	return reactive.PropertyDef{Name: name, Type: value.TypeString}
}

// tree builds a Rectangle with a Text child. The rectangle is the context
// object and has id "rect"; the text is the binding's scope object.
type tree struct {
	rect, text *reactive.Object
	scope      *reactive.Scope
}

func newTree(t *testing.T, e *reactive.Engine, rectProps, textProps []reactive.PropertyDef) tree {
	t.Helper()
	rect := e.NewObject("Rectangle", "rect", rectProps...)
	text := e.NewObject("Text", "text", append([]reactive.PropertyDef{str("text")}, textProps...)...)
	ctx := reactive.NewContext(nil, rect)
	ctx.SetID("rect", rect)
	return tree{rect: rect, text: text, scope: reactive.NewScope(text, ctx)}
}

func TestSingleDependency(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		textLabel  bool
		referenced string
	}{
		{name: "context property", source: "labelText", referenced: "rect"},
		{name: "scope property", source: "labelText", textLabel: true, referenced: "text"},
		{name: "id object property", source: "rect.labelText", referenced: "rect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newEngine(t)
			var textProps []reactive.PropertyDef
			rectLabel := "Hello world!"
			if tt.textLabel {
				rectLabel = "I am wrong!"
				textProps = append(textProps, reactive.PropertyDef{Name: "labelText", Type: value.TypeString, Default: value.String("Hello world!")})
			}
			tr := newTree(t, e, []reactive.PropertyDef{
				{Name: "labelText", Type: value.TypeString, Default: value.String(rectLabel)},
			}, textProps)

			b, err := e.CreateFromLiteralSource(tr.text, "text", tt.source, diag.Location{File: "main.qml", Line: 5, Column: 13}, tr.scope)
			require.NoError(t, err)

			deps := b.Dependencies()
			require.Len(t, deps, 1)
			assert.Equal(t, tt.referenced, deps[0].Object.ObjectName())
			assert.Equal(t, "labelText", deps[0].Property)
			assert.Equal(t, "Hello world!", deps[0].Read().StringValue())
			assert.Zero(t, rec.Len())
		})
	}
}

func TestManyDependencies(t *testing.T) {
	e, rec := newEngine(t)
	rect := e.NewObject("Rectangle", "rect", reactive.PropertyDef{Name: "name", Type: value.TypeString, Default: value.String("world")})
	text := e.NewObject("Text", "text", str("text"), reactive.PropertyDef{Name: "greeting", Type: value.TypeString, Default: value.String("Hello")})
	config := e.NewObject("QtObject", "config", reactive.PropertyDef{Name: "helloWorldTemplate", Type: value.TypeString, Default: value.String("%1 %2!")})
	ctx := reactive.NewContext(nil, rect)
	ctx.SetID("rect", rect)
	ctx.SetID("config", config)

	b, err := e.CreateFromLiteralSource(text, "text", "arg(arg(config.helloWorldTemplate, greeting), rect.name)", diag.Location{}, reactive.NewScope(text, ctx))
	require.NoError(t, err)

	assert.Equal(t, "Hello world!", mustRead(t, text, "text").StringValue())
	found := map[string]string{}
	for _, d := range b.Dependencies() {
		found[d.String()] = d.Snapshot.StringValue()
	}
	assert.Equal(t, map[string]string{
		"Rectangle(rect).name":                "world",
		"Text(text).greeting":                 "Hello",
		"QtObject(config).helloWorldTemplate": "%1 %2!",
	}, found)
	assert.Zero(t, rec.Len())

	require.NoError(t, rect.Write("name", value.String("there")))
	assert.Equal(t, "Hello there!", mustRead(t, text, "text").StringValue())
}

func TestConditionalDependency(t *testing.T) {
	for _, source := range []string{
		`rect.haveDep ? rect.labelText : ""`,
		`haveDep ? labelText : ""`,
	} {
		t.Run(source, func(t *testing.T) {
			e, _ := newEngine(t)
			tr := newTree(t, e, []reactive.PropertyDef{
				{Name: "haveDep", Type: value.TypeBool},
				{Name: "labelText", Type: value.TypeString, Default: value.String("Hello world!")},
			}, nil)

			b, err := e.CreateFromLiteralSource(tr.text, "text", source, diag.Location{}, tr.scope)
			require.NoError(t, err)
			require.Len(t, b.Dependencies(), 1)
			assert.Equal(t, "haveDep", b.Dependencies()[0].Property)

			require.NoError(t, tr.rect.Write("haveDep", value.Bool(true)))
			deps := b.Dependencies()
			require.Len(t, deps, 2)
			assert.Equal(t, "haveDep", deps[0].Property)
			assert.Equal(t, "labelText", deps[1].Property)
			assert.Equal(t, "Hello world!", mustRead(t, tr.text, "text").StringValue())

			require.NoError(t, tr.rect.Write("haveDep", value.Bool(false)))
			require.Len(t, b.Dependencies(), 1)
		})
	}
}

func TestBindingLoop(t *testing.T) {
	e, rec := newEngine(t)
	rect := e.NewObject("Rectangle", "rect",
		str("labelText"),
		reactive.PropertyDef{Name: "width", Type: value.TypeDouble},
	)
	text := e.NewObject("Text", "text", str("text"))
	ctx := reactive.NewContext(nil, rect)
	ctx.SetID("rect", rect)
	ctx.SetID("text", text)
	scope := reactive.NewScope(rect, ctx)

	err := e.Construct(func() error {
		if _, err := e.CreateFromLiteralSource(rect, "labelText", `text.text + "!"`, diag.Location{File: "main.qml", Line: 3, Column: 20}, scope); err != nil {
			return err
		}
		_, err := e.CreateFromLiteralSource(text, "text", "rect.labelText", diag.Location{File: "main.qml", Line: 6, Column: 15}, scope)
		return err
	})
	require.NoError(t, err)

	loops := rec.OfKind(diag.BindingLoop)
	require.Len(t, loops, 1)
	assert.Equal(t, "main.qml:3:20", loops[0].Location.String())
	assert.Equal(t, `Rectangle: Binding loop detected for property "labelText"`, loops[0].Message)
	assert.Equal(t, "", mustRead(t, rect, "labelText").StringValue())
}

func TestParseErrors(t *testing.T) {
	e, _ := newEngine(t)
	o := e.NewObject("Item", "o", str("text"))

	_, err := e.CreateFromLiteralSource(o, "text", "1 +", diag.Location{File: "bad.qml"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.qml")

	_, err = hclexpr.Compile("f", "[1, 2]", diag.Location{})
	require.NoError(t, err, "unsupported constructs fail at evaluation, not parse")
}

func TestEvaluate(t *testing.T) {
	e, _ := newEngine(t)
	o := e.NewObject("Item", "o",
		reactive.PropertyDef{Name: "n", Type: value.TypeInt, Default: value.Int(7)},
		reactive.PropertyDef{Name: "s", Type: value.TypeString, Default: value.String("abc")},
		reactive.PropertyDef{Name: "f", Type: value.TypeDouble, Default: value.Double(0.5)},
		reactive.PropertyDef{Name: "nothing", Type: value.TypeObject},
	)
	scope := reactive.NewScope(o, nil)

	tests := []struct {
		src  string
		want value.Value
	}{
		{`n + 1`, value.Int(8)},
		{`n / 2`, value.Double(3.5)},
		{`n % 4`, value.Int(3)},
		{`-n`, value.Int(-7)},
		{`s + n`, value.String("abc7")},
		{`"${s}-${n}"`, value.String("abc-7")},
		{`"${n}"`, value.Int(7)},
		{`n > 5 && s`, value.String("abc")},
		{`n < 5 && s`, value.Bool(false)},
		{`0 || s`, value.String("abc")},
		{`!s`, value.Bool(false)},
		{`n == "7"`, value.Bool(true)},
		{`n != 7`, value.Bool(false)},
		{`null == nothing`, value.Bool(true)},
		{`"b" < s`, value.Bool(false)},
		{`f * 4`, value.Int(2)},
		{`upper(s)`, value.String("ABC")},
		{`lower("XY")`, value.String("xy")},
		{`length(s)`, value.Int(3)},
		{`string(f)`, value.String("0.5")},
		{`number("12")`, value.Int(12)},
		{`s[1]`, value.String("b")},
		{`arg("%2 %1 %1", "x")`, value.String("%2 x x")},
		{`o.n`, value.Undefined},
		{`null`, value.Undefined},
		{`undefined()`, value.Undefined},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := hclexpr.Parse(tt.src, diag.Location{})
			require.NoError(t, err)
			got, err := expr.Evaluate(scope, nil)
			if tt.src == `o.n` {
				assert.ErrorIs(t, err, reactive.ErrUnresolvedName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind(), got.Kind(), "got %v", got)
			assert.True(t, value.StrictEquals(tt.want, got), "got %v", got)
		})
	}

	got, err := hclexpr.MustParse("n / 0").Evaluate(scope, nil)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got.AsDouble(), 1))
}

func TestEvaluateErrors(t *testing.T) {
	e, _ := newEngine(t)
	o := e.NewObject("Item", "o", reactive.PropertyDef{Name: "nothing", Type: value.TypeObject})
	scope := reactive.NewScope(o, nil)

	tests := []struct {
		src  string
		want error
	}{
		{`throw("bad")`, hclexpr.ErrThrown},
		{`missing`, reactive.ErrUnresolvedName},
		{`nothing.x`, reactive.ErrNullAccess},
		{`[1, 2]`, hclexpr.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := hclexpr.MustParse(tt.src).Evaluate(scope, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := hclexpr.MustParse(`nope(1)`).Evaluate(scope, nil)
	assert.ErrorContains(t, err, "unknown function")
	_, err = hclexpr.MustParse(`upper(1, 2)`).Evaluate(scope, nil)
	assert.ErrorContains(t, err, "expects 1 arguments")
}

func TestBoundFunctionArgs(t *testing.T) {
	e, _ := newEngine(t)
	o := e.NewObject("Item", "o", str("text"), reactive.PropertyDef{Name: "suffix", Type: value.TypeString, Default: value.String("!")})

	fn, err := hclexpr.Compile("greet", `"${this}, ${args[0]}${suffix}"`, diag.Location{})
	require.NoError(t, err)
	_, err = e.CreateFromBoundFunction(o, "text", &reactive.BoundFunction{
		Function: fn,
		This:     value.String("Hi"),
		Args:     []value.Value{value.String("Ada")},
	}, reactive.NewScope(o, nil))
	require.NoError(t, err)
	assert.Equal(t, "Hi, Ada!", mustRead(t, o, "text").StringValue())
}

func TestCtyConversion(t *testing.T) {
	for _, v := range []value.Value{value.Bool(true), value.Int(3), value.Double(2.5), value.String("x")} {
		back, err := hclexpr.FromCty(hclexpr.ToCty(v))
		require.NoError(t, err)
		assert.True(t, value.StrictEquals(v, back), "%v", v)
	}
	back, err := hclexpr.FromCty(hclexpr.ToCty(value.Null))
	require.NoError(t, err)
	assert.True(t, back.IsUndefined())
	assert.Contains(t, hclexpr.Functions(), "arg")
}

func mustRead(t *testing.T, o *reactive.Object, name string) value.Value {
	t.Helper()
	v, err := o.Read(name)
	require.NoError(t, err)
	return v
}

package reactive

import (
	"log/slog"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/value"
)

const languageProperty = "uiLanguage"

// Parser turns runtime expression text into an Expression.
type Parser interface {
	Parse(source string, loc diag.Location) (Expression, error)
}

type Option func(*Engine)

// WithSink routes diagnostics to s instead of the process-wide diag.Default().
func WithSink(s diag.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithParser(p Parser) Option {
	return func(e *Engine) { e.parser = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine owns the evaluation state shared by all objects and bindings
// created from it. It is not safe for concurrent use; every call must come
// from the same goroutine.
type Engine struct {
	current    *tracker
	pauseStack []*tracker

	constructionDepth int
	pending           []*Binding

	sink     diag.Sink
	parser   Parser
	logger   *slog.Logger
	language *Object

	evaluations uint64
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.language = e.NewObject("Engine", "", PropertyDef{
		Name: languageProperty,
		Type: value.TypeString,
	})
	return e
}

func (e *Engine) Parser() Parser {
	return e.parser
}

// Evaluations counts binding evaluations attempted so far.
func (e *Engine) Evaluations() uint64 {
	return e.evaluations
}

// UILanguage is the object holding the engine's "uiLanguage" property that
// translation bindings depend on.
func (e *Engine) UILanguage() *Object {
	return e.language
}

func (e *Engine) SetLanguage(lang string) error {
	return e.language.Write(languageProperty, value.String(lang))
}

// StartConstruction opens a construction stage. Bindings installed while a
// stage is open are left dirty and evaluated in installation order when the
// outermost stage ends, unless a read evaluates them first.
func (e *Engine) StartConstruction() {
	e.constructionDepth++
}

func (e *Engine) EndConstruction() {
	if e.constructionDepth == 0 {
		panic("reactive: EndConstruction without StartConstruction")
	}
	e.constructionDepth--
	if e.constructionDepth > 0 {
		return
	}
	for len(e.pending) > 0 {
		pending := e.pending
		e.pending = nil
		e.logger.Debug("completing construction", slog.Int("bindings", len(pending)))
		for _, b := range pending {
			b.evaluateIfDirty()
		}
	}
}

// Construct runs fn inside a construction stage.
func (e *Engine) Construct(fn func() error) error {
	e.StartConstruction()
	defer e.EndConstruction()
	return fn()
}

func (e *Engine) PauseTracking() {
	e.pauseStack = append(e.pauseStack, e.current)
	e.current = nil
}

func (e *Engine) ResumeTracking() {
	lastIdx := len(e.pauseStack) - 1
	e.current = e.pauseStack[lastIdx]
	e.pauseStack = e.pauseStack[:lastIdx]
}

// Untracked runs fn without recording reads into the evaluating binding.
func (e *Engine) Untracked(fn func()) {
	e.PauseTracking()
	defer e.ResumeTracking()
	fn()
}

func (e *Engine) warn(d *diag.Diagnostic) {
	if e.sink != nil {
		e.sink.Warn(d)
		return
	}
	diag.Default().Warn(d)
}

package scenario

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/reactive"
	"github.com/delaneyj/propbind/value"
)

var (
	ErrUnknownObject = errors.New("unknown object")
	ErrExpectation   = errors.New("expectation failed")
)

// World is a scenario instantiated on an engine.
type World struct {
	engine   *reactive.Engine
	scenario *Scenario
	logger   *slog.Logger
	context  *reactive.Context
	objects  map[string]*reactive.Object
	order    []string
	catalog  reactive.Catalog
	sources  map[Ref]string
}

// Build creates every declared object, then installs all bindings inside one
// construction stage so that no binding evaluates before every object
// exists. The engine must have a parser.
func (sc *Scenario) Build(e *reactive.Engine, logger *slog.Logger) (*World, error) {
	if e.Parser() == nil {
		return nil, reactive.ErrNoParser
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &World{
		engine:   e,
		scenario: sc,
		logger:   logger,
		objects:  make(map[string]*reactive.Object, len(sc.Objects)),
		catalog:  reactive.Catalog(sc.Translations),
		sources:  map[Ref]string{},
	}

	for _, od := range sc.Objects {
		w.objects[od.ID] = e.NewObject(od.Type, od.ID, propertyDefs(od)...)
		w.order = append(w.order, od.ID)
	}
	w.context = reactive.NewContext(nil, w.objects[sc.Root])
	for _, id := range w.order {
		w.context.SetID(id, w.objects[id])
	}

	err := e.Construct(func() error {
		for _, od := range sc.Objects {
			o := w.objects[od.ID]
			for _, b := range od.Bindings {
				if err := w.bind(o, Ref{ID: od.ID, Property: b.Property}, b.Source, b.Location); err != nil {
					return err
				}
			}
			for _, t := range od.Translated {
				if _, err := e.CreateTranslationBinding(o, t.Property, t.Key, w.catalog); err != nil {
					return fmt.Errorf("translation binding %s.%s: %w", od.ID, t.Property, err)
				}
				w.sources[Ref{ID: od.ID, Property: t.Property}] = fmt.Sprintf("qsTr(%q)", t.Key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("scenario built", slog.String("file", sc.Filename), slog.Int("objects", len(w.order)))
	return w, nil
}

func propertyDefs(od *Object) []reactive.PropertyDef {
	defs := make([]reactive.PropertyDef, len(od.Properties))
	for i, p := range od.Properties {
		defs[i] = reactive.PropertyDef{Name: p.Name, Type: p.Type, Default: p.Value, Resettable: p.Resettable}
	}
	return defs
}

func (w *World) Engine() *reactive.Engine { return w.engine }
func (w *World) Scenario() *Scenario      { return w.scenario }

// Object returns the object declared with id.
func (w *World) Object(id string) (*reactive.Object, bool) {
	o, ok := w.objects[id]
	return o, ok
}

// Objects returns the objects in declaration order.
func (w *World) Objects() []*reactive.Object {
	out := make([]*reactive.Object, len(w.order))
	for i, id := range w.order {
		out[i] = w.objects[id]
	}
	return out
}

// AddObject creates an object after the world was built. Its bindings are
// installed immediately.
func (w *World) AddObject(od *Object) (*reactive.Object, error) {
	if _, ok := w.objects[od.ID]; ok {
		return nil, fmt.Errorf("duplicate object %q", od.ID)
	}
	o := w.engine.NewObject(od.Type, od.ID, propertyDefs(od)...)
	w.objects[od.ID] = o
	w.order = append(w.order, od.ID)
	w.context.SetID(od.ID, o)
	for _, b := range od.Bindings {
		if err := w.bind(o, Ref{ID: od.ID, Property: b.Property}, b.Source, b.Location); err != nil {
			return o, err
		}
	}
	return o, nil
}

func (w *World) object(id string) (*reactive.Object, error) {
	o, ok := w.objects[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownObject)
	}
	return o, nil
}

// Scope returns the scope bindings on object id evaluate in. An empty id
// gives the root scope.
func (w *World) Scope(id string) (*reactive.Scope, error) {
	if id == "" {
		return reactive.NewScope(w.context.Object(), w.context), nil
	}
	o, err := w.object(id)
	if err != nil {
		return nil, err
	}
	return reactive.NewScope(o, w.context), nil
}

// Eval evaluates source once in the scope of object id without recording
// dependencies.
func (w *World) Eval(id, source string, loc diag.Location) (value.Value, error) {
	scope, err := w.Scope(id)
	if err != nil {
		return value.Undefined, err
	}
	expr, err := w.engine.Parser().Parse(source, loc)
	if err != nil {
		return value.Undefined, err
	}
	var v value.Value
	w.engine.Untracked(func() {
		v, err = expr.Evaluate(scope, nil)
	})
	return v, err
}

// Get reads a property.
func (w *World) Get(ref Ref) (value.Value, error) {
	o, err := w.object(ref.ID)
	if err != nil {
		return value.Undefined, err
	}
	return o.Read(ref.Property)
}

// Set evaluates source in the target object's scope and writes the result,
// removing any binding on the property.
func (w *World) Set(ref Ref, source string, loc diag.Location) error {
	o, err := w.object(ref.ID)
	if err != nil {
		return err
	}
	v, err := w.Eval(ref.ID, source, loc)
	if err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	if err := o.Write(ref.Property, v); err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	delete(w.sources, ref)
	w.logger.Debug("property set", slog.String("property", ref.String()), slog.String("value", v.String()))
	return nil
}

// Bind binds a property to source, replacing any existing binding.
func (w *World) Bind(ref Ref, source string, loc diag.Location) error {
	o, err := w.object(ref.ID)
	if err != nil {
		return err
	}
	return w.bind(o, ref, source, loc)
}

func (w *World) bind(o *reactive.Object, ref Ref, source string, loc diag.Location) error {
	scope := reactive.NewScope(o, w.context)
	if _, err := w.engine.CreateFromLiteralSource(o, ref.Property, source, loc, scope); err != nil {
		return fmt.Errorf("bind %s: %w", ref, err)
	}
	w.sources[ref] = source
	return nil
}

// Binding returns the binding attached to ref, or nil.
func (w *World) Binding(ref Ref) (*reactive.Binding, error) {
	o, err := w.object(ref.ID)
	if err != nil {
		return nil, err
	}
	if _, ok := o.Slot(ref.Property); !ok {
		return nil, fmt.Errorf("%s: %w", ref, reactive.ErrPropertyNotFound)
	}
	return o.Binding(ref.Property), nil
}

// Bound is one live binding in a world.
type Bound struct {
	Ref     Ref
	Source  string
	Binding *reactive.Binding
}

// Bindings lists the attached bindings in object and property declaration
// order.
func (w *World) Bindings() []Bound {
	var out []Bound
	for _, id := range w.order {
		o := w.objects[id]
		for i := range o.PropertyCount() {
			s, _ := o.SlotAt(reactive.CoreIndex(i))
			b := s.Binding()
			if b == nil {
				continue
			}
			ref := Ref{ID: id, Property: s.Name()}
			out = append(out, Bound{Ref: ref, Source: w.sources[ref], Binding: b})
		}
	}
	return out
}

// Apply runs one step: language switch, then writes, then resets, then
// expectations. Failed expectations are joined into the returned error and
// wrap ErrExpectation.
func (w *World) Apply(step *Step) error {
	if step.Language != "" {
		if err := w.engine.SetLanguage(step.Language); err != nil {
			return fmt.Errorf("step %q: %w", step.Name, err)
		}
	}
	for _, a := range step.Sets {
		if err := w.Set(a.Ref, a.Source, a.Location); err != nil {
			return fmt.Errorf("step %q: %w", step.Name, err)
		}
	}
	for _, ref := range step.Resets {
		o, err := w.object(ref.ID)
		if err != nil {
			return fmt.Errorf("step %q: %w", step.Name, err)
		}
		if err := o.Reset(ref.Property); err != nil {
			return fmt.Errorf("step %q: %w", step.Name, err)
		}
	}

	var errs []error
	for _, a := range step.Expects {
		want, err := w.Eval(a.Ref.ID, a.Source, a.Location)
		if err != nil {
			return fmt.Errorf("step %q: expect %s: %w", step.Name, a.Ref, err)
		}
		got, err := w.Get(a.Ref)
		if err != nil {
			return fmt.Errorf("step %q: expect %s: %w", step.Name, a.Ref, err)
		}
		if !value.StrictEquals(want, got) {
			errs = append(errs, fmt.Errorf("%s: step %q: %s is %s, want %s: %w", a.Location, step.Name, a.Ref, got, want, ErrExpectation))
		}
	}
	w.logger.Debug("step applied", slog.String("step", step.Name), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// Run applies every step in order and stops at the first step that fails
// with anything other than a failed expectation.
func (w *World) Run() error {
	var errs []error
	for _, s := range w.scenario.Steps {
		err := w.Apply(s)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if !errors.Is(err, ErrExpectation) {
			break
		}
	}
	return errors.Join(errs...)
}

// Package scenario loads HCL files that declare objects, their typed
// properties, the bindings between them and a list of mutation steps.
//
//	object "rect" {
//	  type = "Rectangle"
//	  property "width" {
//	    type  = "double"
//	    value = 100
//	  }
//	  bind {
//	    area = width * height
//	  }
//	}
//
//	step "grow" {
//	  set    = { "rect.width" = rect.width * 2 }
//	  expect = { "rect.area" = 20000 }
//	}
//
// Binding and set expressions are kept as source text and handed to the
// engine's parser, so they follow binding semantics rather than HCL's.
package scenario

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/delaneyj/propbind/diag"
	"github.com/delaneyj/propbind/hclexpr"
	"github.com/delaneyj/propbind/value"
)

// fileRoot is decoded from the top level of a scenario file.
type fileRoot struct {
	Root         string              `hcl:"root,optional"`
	Objects      []*objectBlock      `hcl:"object,block"`
	Translations []*translationBlock `hcl:"translation,block"`
	Steps        []*stepBlock        `hcl:"step,block"`
}

type objectBlock struct {
	ID         string           `hcl:"id,label"`
	Type       string           `hcl:"type,optional"`
	Properties []*propertyBlock `hcl:"property,block"`
	Binds      []*attrsBlock    `hcl:"bind,block"`
	Translate  []*attrsBlock    `hcl:"translate,block"`
}

type propertyBlock struct {
	Name       string         `hcl:"name,label"`
	Type       string         `hcl:"type,optional"`
	Value      hcl.Expression `hcl:"value,optional"`
	Resettable bool           `hcl:"resettable,optional"`
}

type translationBlock struct {
	Language string   `hcl:"language,label"`
	Entries  hcl.Body `hcl:",remain"`
}

type attrsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type stepBlock struct {
	Name     string         `hcl:"name,label"`
	Language string         `hcl:"language,optional"`
	Set      hcl.Expression `hcl:"set,optional"`
	Reset    []string       `hcl:"reset,optional"`
	Expect   hcl.Expression `hcl:"expect,optional"`
}

// Scenario is a parsed scenario file.
type Scenario struct {
	Filename     string
	Root         string
	Objects      []*Object
	Translations map[string]map[string]string
	Steps        []*Step
}

// Object declares one object.
type Object struct {
	ID         string
	Type       string
	Properties []*Property
	Bindings   []*Binding
	Translated []*Translated
}

// Property declares one typed property.
type Property struct {
	Name       string
	Type       *value.MetaType
	Value      value.Value
	Resettable bool
}

// Binding binds Property to the expression Source.
type Binding struct {
	Property string
	Source   string
	Location diag.Location
}

// Translated binds Property to the translation of Key.
type Translated struct {
	Property string
	Key      string
}

// Step is a named batch of writes, resets and expectations.
type Step struct {
	Name     string
	Language string
	Sets     []*Assignment
	Resets   []Ref
	Expects  []*Assignment
}

// Assignment pairs a property reference with an expression.
type Assignment struct {
	Ref      Ref
	Source   string
	Location diag.Location
}

// Ref names a property as id.property.
type Ref struct {
	ID       string
	Property string
}

func (r Ref) String() string { return r.ID + "." + r.Property }

// ParseRef splits "id.property".
func ParseRef(s string) (Ref, error) {
	id, prop, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || id == "" || prop == "" || strings.Contains(prop, ".") {
		return Ref{}, fmt.Errorf("invalid property reference %q, expected id.property", s)
	}
	return Ref{ID: id, Property: prop}, nil
}

// Load reads and parses the scenario file at path.
func Load(path string) (*Scenario, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, diags)
	}
	return decode(path, f)
}

// Parse parses src as a scenario file named filename.
func Parse(src []byte, filename string) (*Scenario, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", filename, diags)
	}
	return decode(filename, f)
}

func decode(filename string, f *hcl.File) (*Scenario, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scenario file %s: %w", filename, diags)
	}

	sc := &Scenario{
		Filename:     filename,
		Root:         root.Root,
		Translations: map[string]map[string]string{},
	}
	seen := map[string]bool{}
	for _, ob := range root.Objects {
		if seen[ob.ID] {
			return nil, fmt.Errorf("%s: duplicate object %q", filename, ob.ID)
		}
		seen[ob.ID] = true
		o, err := decodeObject(f.Bytes, ob)
		if err != nil {
			return nil, err
		}
		sc.Objects = append(sc.Objects, o)
	}
	if sc.Root != "" && !seen[sc.Root] {
		return nil, fmt.Errorf("%s: root object %q is not declared", filename, sc.Root)
	}

	for _, tb := range root.Translations {
		attrs, diags := tb.Entries.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("translation %q: %w", tb.Language, diags)
		}
		entries := map[string]string{}
		for name, attr := range attrs {
			v, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("translation %q: %w", tb.Language, diags)
			}
			if v.Type() != cty.String {
				return nil, fmt.Errorf("%s: translation %q must be a string", attr.Range, name)
			}
			entries[name] = v.AsString()
		}
		sc.Translations[tb.Language] = entries
	}

	for _, sb := range root.Steps {
		s, err := decodeStep(f.Bytes, sb)
		if err != nil {
			return nil, err
		}
		sc.Steps = append(sc.Steps, s)
	}
	return sc, nil
}

func decodeObject(src []byte, ob *objectBlock) (*Object, error) {
	o := &Object{ID: ob.ID, Type: ob.Type}
	if o.Type == "" {
		o.Type = "QtObject"
	}

	for _, pb := range ob.Properties {
		p := &Property{Name: pb.Name, Type: value.TypeVar, Value: value.Undefined, Resettable: pb.Resettable}
		if pb.Type != "" {
			t, ok := value.Lookup(pb.Type)
			if !ok {
				return nil, fmt.Errorf("property %s.%s has unknown type %q", ob.ID, pb.Name, pb.Type)
			}
			p.Type = t
		}
		if !isAbsent(pb.Value) {
			cv, diags := pb.Value.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("property %s.%s: %w", ob.ID, pb.Name, diags)
			}
			v, err := hclexpr.FromCty(cv)
			if err != nil {
				return nil, fmt.Errorf("%s: property %s.%s: %w", pb.Value.Range(), ob.ID, pb.Name, err)
			}
			p.Value = v
		}
		o.Properties = append(o.Properties, p)
	}

	for _, bb := range ob.Binds {
		attrs, err := orderedAttributes(bb.Body)
		if err != nil {
			return nil, fmt.Errorf("bindings of %s: %w", ob.ID, err)
		}
		for _, attr := range attrs {
			o.Bindings = append(o.Bindings, &Binding{
				Property: attr.Name,
				Source:   source(src, attr.Expr.Range()),
				Location: location(attr.Expr.Range()),
			})
		}
	}

	for _, tb := range ob.Translate {
		attrs, err := orderedAttributes(tb.Body)
		if err != nil {
			return nil, fmt.Errorf("translations of %s: %w", ob.ID, err)
		}
		for _, attr := range attrs {
			v, diags := attr.Expr.Value(nil)
			if diags.HasErrors() || v.Type() != cty.String {
				return nil, fmt.Errorf("%s: translation key for %s.%s must be a string", attr.Range, ob.ID, attr.Name)
			}
			o.Translated = append(o.Translated, &Translated{Property: attr.Name, Key: v.AsString()})
		}
	}
	return o, nil
}

func decodeStep(src []byte, sb *stepBlock) (*Step, error) {
	s := &Step{Name: sb.Name, Language: sb.Language}
	var err error
	if s.Sets, err = assignments(src, sb.Set); err != nil {
		return nil, fmt.Errorf("step %q set: %w", sb.Name, err)
	}
	if s.Expects, err = assignments(src, sb.Expect); err != nil {
		return nil, fmt.Errorf("step %q expect: %w", sb.Name, err)
	}
	for _, r := range sb.Reset {
		ref, err := ParseRef(r)
		if err != nil {
			return nil, fmt.Errorf("step %q reset: %w", sb.Name, err)
		}
		s.Resets = append(s.Resets, ref)
	}
	return s, nil
}

// assignments reads an object constructor whose keys are "id.property"
// strings. Values stay unevaluated.
func assignments(src []byte, expr hcl.Expression) ([]*Assignment, error) {
	if isAbsent(expr) {
		return nil, nil
	}
	obj, ok := expr.(*hclsyntax.ObjectConsExpr)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object of assignments", expr.Range())
	}
	out := make([]*Assignment, 0, len(obj.Items))
	for _, item := range obj.Items {
		k, diags := item.KeyExpr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		if k.Type() != cty.String {
			return nil, fmt.Errorf("%s: assignment key must be a string", item.KeyExpr.Range())
		}
		ref, err := ParseRef(k.AsString())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", item.KeyExpr.Range(), err)
		}
		out = append(out, &Assignment{
			Ref:      ref,
			Source:   source(src, item.ValueExpr.Range()),
			Location: location(item.ValueExpr.Range()),
		})
	}
	return out, nil
}

func orderedAttributes(body hcl.Body) ([]*hcl.Attribute, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *hcl.Attribute) int {
		return a.Range.Start.Byte - b.Range.Start.Byte
	})
	return out, nil
}

// isAbsent reports whether an optional attribute was left out. gohcl fills
// missing hcl.Expression fields with a static null.
func isAbsent(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	if _, ok := expr.(hclsyntax.Expression); ok {
		return false
	}
	v, diags := expr.Value(nil)
	return !diags.HasErrors() && v.IsNull()
}

func source(src []byte, rng hcl.Range) string {
	return string(rng.SliceBytes(src))
}

func location(rng hcl.Range) diag.Location {
	return diag.Location{File: rng.Filename, Line: rng.Start.Line, Column: rng.Start.Column}
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/delaneyj/propbind/reactive"
	"github.com/delaneyj/propbind/scenario"
)

func renderBindings(out io.Writer, w *scenario.World) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"binding", "value", "source", "dependencies", "status"})
	table.SetAutoWrapText(false)
	for _, b := range w.Bindings() {
		v, err := w.Get(b.Ref)
		val := v.String()
		if err != nil {
			val = err.Error()
		}
		deps := b.Binding.Dependencies()
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = d.String()
		}
		table.Append([]string{
			b.Ref.String(),
			val,
			b.Source,
			strings.Join(names, ", "),
			status(b.Binding),
		})
	}
	table.Render()
}

func renderDependencies(out io.Writer, b *reactive.Binding) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "object", "property", "index", "snapshot", "live"})
	for i, d := range b.Dependencies() {
		table.Append([]string{
			fmt.Sprint(i + 1),
			d.Object.String(),
			d.Property,
			fmt.Sprint(d.Index.Core),
			d.Snapshot.String(),
			d.Read().String(),
		})
	}
	table.Render()
}

func status(b *reactive.Binding) string {
	var parts []string
	if d := b.CurrentError(); d != nil {
		parts = append(parts, d.Kind.String())
	}
	if b.IsUndefined() {
		parts = append(parts, "undefined")
	}
	if b.IsFastPath() {
		parts = append(parts, "fast-path")
	}
	if len(parts) == 0 {
		return "ok"
	}
	return strings.Join(parts, ", ")
}

// Package vegalite serializes chart graphs into Vega-Lite v5 JSON
// specifications.
//
// Emission hoists every parameter to the root params array, naming the unit
// views that bind each selection, and inlines every dataset once under the
// root datasets map. Views reference data by name. Layer order, branch order
// and panel order are preserved exactly.
package vegalite

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/couchcryptid/storm-data-dashboard/internal/chart"
	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
)

// SchemaURL is the $schema of every emitted document.
const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Spec is an emitted specification tree.
type Spec map[string]any

// Option configures Emit.
type Option func(*emitter)

// WithGeneratedAt stamps usermeta.generated_at with t in RFC 3339.
func WithGeneratedAt(t time.Time) Option {
	return func(e *emitter) { e.generatedAt = t }
}

// WithDescription sets the root description.
func WithDescription(s string) Option {
	return func(e *emitter) { e.description = s }
}

// WithInlineData embeds records in each view instead of the root datasets
// map. Documents get larger but every view is self-contained.
func WithInlineData() Option {
	return func(e *emitter) { e.inline = true }
}

type emitter struct {
	generatedAt time.Time
	description string
	inline      bool

	datasets map[string]*domain.Dataset
}

// Emit converts root into a Vega-Lite specification. It fails with a
// configuration error when two distinct datasets share a name.
func Emit(root chart.Chart, opts ...Option) (Spec, error) {
	if root == nil {
		return nil, domain.ConfigErrorf("nothing to emit")
	}
	e := &emitter{datasets: map[string]*domain.Dataset{}}
	for _, opt := range opts {
		opt(e)
	}

	units := root.Units()
	params := root.Params()

	spec, err := e.chart(root)
	if err != nil {
		return nil, err
	}
	spec["$schema"] = SchemaURL
	if e.description != "" {
		spec["description"] = e.description
	}

	if len(params) > 0 {
		out := make([]any, 0, len(params))
		for _, p := range params {
			out = append(out, emitParam(p, units))
		}
		spec["params"] = out
	}

	if len(e.datasets) > 0 {
		ds := make(map[string]any, len(e.datasets))
		for name, d := range e.datasets {
			ds[name] = d.Records()
		}
		spec["datasets"] = ds
	}

	if !e.generatedAt.IsZero() {
		spec["usermeta"] = map[string]any{"generated_at": e.generatedAt.UTC().Format(time.RFC3339)}
	}
	return spec, nil
}

// Marshal emits root and encodes it as indented JSON.
func Marshal(root chart.Chart, opts ...Option) ([]byte, error) {
	spec, err := Emit(root, opts...)
	if err != nil {
		return nil, err
	}
	b, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal spec: %w", err)
	}
	return b, nil
}

func (e *emitter) chart(c chart.Chart) (Spec, error) {
	switch v := c.(type) {
	case *chart.Layer:
		return e.unit(v)
	case *chart.Overlay:
		layers := make([]any, 0, len(v.Layers()))
		for _, l := range v.Layers() {
			u, err := e.unit(l)
			if err != nil {
				return nil, err
			}
			layers = append(layers, u)
		}
		spec := Spec{"layer": layers}
		addResolve(spec, v.Resolve())
		return spec, nil
	case *chart.Concat:
		children := make([]any, 0, len(v.Children()))
		for _, ch := range v.Children() {
			s, err := e.chart(ch)
			if err != nil {
				return nil, err
			}
			children = append(children, s)
		}
		spec := Spec{string(v.Direction()): children}
		if v.Direction() == chart.Wrap && v.Columns() > 0 {
			spec["columns"] = v.Columns()
		}
		addResolve(spec, v.Resolve())
		return spec, nil
	default:
		return nil, domain.ConfigErrorf("unsupported chart %T", c)
	}
}

func addResolve(spec Spec, resolve map[chart.ChannelName]chart.ResolveMode) {
	if len(resolve) == 0 {
		return
	}
	scale := make(map[string]any, len(resolve))
	for ch, mode := range resolve {
		scale[string(ch)] = string(mode)
	}
	spec["resolve"] = map[string]any{"scale": scale}
}

func (e *emitter) unit(l *chart.Layer) (Spec, error) {
	data, err := e.data(l.Data())
	if err != nil {
		return nil, err
	}
	spec := Spec{
		"name": l.Name(),
		"mark": emitMark(l.Mark()),
		"data": data,
	}
	if l.Title() != "" {
		spec["title"] = l.Title()
	}
	if l.Width() > 0 {
		spec["width"] = l.Width()
	}
	if l.Height() > 0 {
		spec["height"] = l.Height()
	}

	enc := map[string]any{}
	for _, name := range l.Channels() {
		ch, _ := l.Encoding(name)
		enc[string(name)] = emitChannel(ch)
	}
	if tips := l.Tooltip(); len(tips) > 0 {
		out := make([]any, len(tips))
		for i, t := range tips {
			out[i] = emitChannel(t)
		}
		enc["tooltip"] = out
	}
	if len(enc) > 0 {
		spec["encoding"] = enc
	}

	if ts := l.Transforms(); len(ts) > 0 {
		out := make([]any, len(ts))
		for i, t := range ts {
			out[i] = emitTransform(t)
		}
		spec["transform"] = out
	}

	if p := l.Projection(); p != nil {
		proj := map[string]any{"type": p.Type}
		if p.Fit != nil {
			proj["fit"] = p.Fit
		}
		spec["projection"] = proj
	}
	return spec, nil
}

func (e *emitter) data(d *domain.Dataset) (map[string]any, error) {
	if e.inline {
		return map[string]any{"name": d.Name(), "values": d.Records()}, nil
	}
	if seen, ok := e.datasets[d.Name()]; ok && seen != d {
		if !reflect.DeepEqual(seen.Records(), d.Records()) {
			return nil, domain.ConfigErrorf("dataset name %q used for different data", d.Name())
		}
	} else if !ok {
		e.datasets[d.Name()] = d
	}
	return map[string]any{"name": d.Name()}, nil
}

func emitMark(m chart.Mark) map[string]any {
	out := map[string]any{"type": string(m.Type)}
	for k, v := range m.Props {
		if x, ok := v.(chart.Expr); ok {
			out[k] = map[string]any{"expr": string(x)}
			continue
		}
		out[k] = v
	}
	return out
}

func emitChannel(c chart.Channel) map[string]any {
	out := map[string]any{}
	switch {
	case c.Condition != nil:
		branches := c.Condition.Branches()
		conds := make([]any, len(branches))
		for i, b := range branches {
			conds[i] = map[string]any{"param": b.Param.Name(), "value": b.Value, "empty": b.Empty}
		}
		out["condition"] = conds
		out["value"] = c.Condition.Default()
		return out
	case c.Field != "":
		out["field"] = c.Field
		if c.Type != "" {
			out["type"] = string(c.Type)
		}
	case c.Datum != nil:
		out["datum"] = c.Datum
	default:
		out["value"] = c.Value
		return out
	}

	switch {
	case c.NoScale:
		out["scale"] = nil
	case c.Scale != nil:
		s := map[string]any{}
		if c.Scale.Type != "" {
			s["type"] = c.Scale.Type
		}
		if len(c.Scale.Domain) > 0 {
			s["domain"] = c.Scale.Domain
		}
		out["scale"] = s
	}
	switch {
	case c.NoLegend:
		out["legend"] = nil
	case c.Legend != nil:
		lg := map[string]any{}
		if c.Legend.Title != "" {
			lg["title"] = c.Legend.Title
		}
		if c.Legend.Offset != 0 {
			lg["offset"] = c.Legend.Offset
		}
		out["legend"] = lg
	}
	switch {
	case c.NoTitle:
		out["title"] = nil
	case c.Title != "":
		out["title"] = c.Title
	}
	if c.SortField != "" {
		out["sort"] = map[string]any{"field": c.SortField}
	}
	if c.Bin != nil {
		b := map[string]any{"binned": c.Bin.Binned}
		if c.Bin.Step > 0 {
			b["step"] = c.Bin.Step
		}
		out["bin"] = b
	}
	if c.NoStack {
		out["stack"] = nil
	}
	return out
}

func emitTransform(t chart.Transform) map[string]any {
	if t.Kind == chart.TransformFilter {
		return map[string]any{"filter": map[string]any{"param": t.Param.Name()}}
	}
	return map[string]any{"calculate": t.Expression(), "as": t.As}
}

func emitParam(p *chart.Param, units []*chart.Layer) map[string]any {
	out := map[string]any{"name": p.Name()}
	if !p.IsSelection() {
		out["value"] = p.Value()
		return out
	}

	sel := map[string]any{"type": "point"}
	if p.On() != "" {
		sel["on"] = p.On()
	}
	if p.Clear() != "" {
		sel["clear"] = p.Clear()
	}
	if f := p.Fields(); len(f) > 0 {
		sel["fields"] = f
	}
	out["select"] = sel

	out["views"] = selectionViews(p, units)
	return out
}

// selectionViews lists the views that bind p. A selection no view binds is
// bound to the views that read it.
func selectionViews(p *chart.Param, units []*chart.Layer) []string {
	var views []string
	for _, u := range units {
		if u.Declares(p) {
			views = append(views, u.Name())
		}
	}
	if len(views) > 0 {
		return views
	}
	for _, u := range units {
		for _, r := range u.References() {
			if r.Name() == p.Name() {
				views = append(views, u.Name())
				break
			}
		}
	}
	return views
}

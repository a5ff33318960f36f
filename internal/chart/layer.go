package chart

import (
	"maps"
	"math"
	"slices"

	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
)

// MarkType is the geometric primitive a layer draws.
type MarkType string

const (
	MarkArc    MarkType = "arc"
	MarkText   MarkType = "text"
	MarkBar    MarkType = "bar"
	MarkCircle MarkType = "circle"
)

// Mark is a mark type plus its static properties (stroke, radius offsets, ...).
type Mark struct {
	Type  MarkType
	Props map[string]any
}

// Expr is a mark property computed by the renderer's expression language.
type Expr string

// ChannelName is a visual encoding channel.
type ChannelName string

const (
	Theta       ChannelName = "theta"
	Radius      ChannelName = "radius"
	Text        ChannelName = "text"
	Fill        ChannelName = "fill"
	Stroke      ChannelName = "stroke"
	StrokeWidth ChannelName = "strokeWidth"
	X           ChannelName = "x"
	X2          ChannelName = "x2"
	Y           ChannelName = "y"
	Longitude   ChannelName = "longitude"
	Latitude    ChannelName = "latitude"
	Color       ChannelName = "color"
)

// Scale overrides a channel's scale.
type Scale struct {
	Type   string
	Domain []float64
}

// Legend configures a channel's legend.
type Legend struct {
	Title  string
	Offset float64
}

// Bin marks a positional field as already binned upstream.
type Bin struct {
	Binned bool
	Step   float64
}

// Channel binds one visual channel to a field, a constant or a Condition.
// Exactly one of Field, Datum, Value or Condition is expected to be set.
type Channel struct {
	Field string
	Type  domain.FieldType

	// Datum is a constant in data space, mapped through the channel scale.
	Datum any
	// Value is a constant in visual space.
	Value any

	Condition *Condition

	Scale     *Scale
	NoScale   bool
	Legend    *Legend
	NoLegend  bool
	Title     string
	NoTitle   bool
	SortField string
	Bin       *Bin
	NoStack   bool
}

// TransformKind identifies a layer-local data transform.
type TransformKind int

const (
	TransformFilter TransformKind = iota
	TransformRadians
)

// Transform is a layer-local data transform, applied in order.
type Transform struct {
	Kind  TransformKind
	Param *Param // TransformFilter
	Field string // TransformRadians source, in degrees
	As    string
}

// FilterBy keeps records inside p's selection. An empty selection keeps all.
func FilterBy(p *Param) Transform { return Transform{Kind: TransformFilter, Param: p} }

// DegreesToRadians derives as = field * PI / 180.
func DegreesToRadians(field, as string) Transform {
	return Transform{Kind: TransformRadians, Field: field, As: as}
}

// Expression returns the renderer expression of a radians transform.
func (t Transform) Expression() string {
	return "datum." + t.Field + " * PI / 180"
}

// Projection configures a cartographic projection for geographic layers.
type Projection struct {
	Type string
	Fit  any
}

// LayerSpec is the input to NewLayer.
type LayerSpec struct {
	Name       string
	Title      string
	Width      int
	Height     int
	Mark       Mark
	Data       *domain.Dataset
	Encoding   map[ChannelName]Channel
	Tooltip    []Channel
	Transforms []Transform
	Params     []*Param
	Projection *Projection
}

// Layer is one mark bound to a dataset. It is immutable; assemblers derive
// modified copies.
type Layer struct {
	name       string
	title      string
	width      int
	height     int
	mark       Mark
	data       *domain.Dataset
	encoding   map[ChannelName]Channel
	tooltip    []Channel
	transforms []Transform
	params     []*Param
	declared   []*Param
	projection *Projection
}

// NewLayer validates spec against its dataset schema and registers every
// parameter the layer declares or references.
func NewLayer(spec LayerSpec) (*Layer, error) {
	if spec.Name == "" {
		return nil, domain.ConfigErrorf("layer name is required")
	}
	if spec.Data == nil {
		return nil, domain.ConfigErrorf("layer %q has no dataset", spec.Name)
	}
	if spec.Mark.Type == "" {
		return nil, domain.ConfigErrorf("layer %q has no mark type", spec.Name)
	}

	l := &Layer{
		name:       spec.Name,
		title:      spec.Title,
		width:      spec.Width,
		height:     spec.Height,
		mark:       Mark{Type: spec.Mark.Type, Props: maps.Clone(spec.Mark.Props)},
		data:       spec.Data,
		encoding:   maps.Clone(spec.Encoding),
		tooltip:    slices.Clone(spec.Tooltip),
		transforms: slices.Clone(spec.Transforms),
		projection: spec.Projection,
	}
	if err := l.checkFields(); err != nil {
		return nil, err
	}

	declared, err := unionParams(spec.Params)
	if err != nil {
		return nil, err
	}
	params, err := unionParams(declared, l.References())
	if err != nil {
		return nil, err
	}
	l.declared = declared
	l.params = params
	return l, nil
}

func (l *Layer) checkFields() error {
	available := map[string]bool{}
	for _, c := range l.data.Columns() {
		available[c] = true
	}
	need := func(field, where string) error {
		if field != "" && !available[field] {
			return domain.ConfigErrorf("layer %q: %s field %q not in dataset %q", l.name, where, field, l.data.Name())
		}
		return nil
	}

	for _, t := range l.transforms {
		switch t.Kind {
		case TransformFilter:
			if t.Param == nil {
				return domain.ConfigErrorf("layer %q: filter without parameter", l.name)
			}
			for _, f := range t.Param.fields {
				if err := need(f, "filter "+t.Param.name); err != nil {
					return err
				}
			}
		case TransformRadians:
			if err := need(t.Field, "transform"); err != nil {
				return err
			}
		}
		if t.As != "" {
			available[t.As] = true
		}
	}

	for _, name := range l.Channels() {
		ch := l.encoding[name]
		if err := need(ch.Field, string(name)); err != nil {
			return err
		}
		if err := need(ch.SortField, string(name)+" sort"); err != nil {
			return err
		}
	}
	for _, ch := range l.tooltip {
		if err := need(ch.Field, "tooltip"); err != nil {
			return err
		}
	}
	return nil
}

func (l *Layer) Name() string            { return l.name }
func (l *Layer) Title() string           { return l.title }
func (l *Layer) Width() int              { return l.width }
func (l *Layer) Height() int             { return l.height }
func (l *Layer) Data() *domain.Dataset   { return l.data }
func (l *Layer) Projection() *Projection { return l.projection }

// Mark returns a copy of the layer's mark definition.
func (l *Layer) Mark() Mark {
	return Mark{Type: l.mark.Type, Props: maps.Clone(l.mark.Props)}
}

// Channels returns the encoded channel names in sorted order.
func (l *Layer) Channels() []ChannelName {
	return slices.Sorted(maps.Keys(l.encoding))
}

// Encoding returns the binding for ch.
func (l *Layer) Encoding(ch ChannelName) (Channel, bool) {
	c, ok := l.encoding[ch]
	return c, ok
}

func (l *Layer) Tooltip() []Channel      { return slices.Clone(l.tooltip) }
func (l *Layer) Transforms() []Transform { return slices.Clone(l.transforms) }
func (l *Layer) Params() []*Param        { return slices.Clone(l.params) }
func (l *Layer) Units() []*Layer         { return []*Layer{l} }
func (l *Layer) isChart()                {}

// Declares reports whether the layer binds p's input events, as opposed to
// only reading p in a filter or condition.
func (l *Layer) Declares(p *Param) bool {
	for _, d := range l.declared {
		if d == p || d.name == p.name {
			return true
		}
	}
	return false
}

// References returns the parameters used by filters and conditions, in
// transform order then channel order.
func (l *Layer) References() []*Param {
	var refs []*Param
	for _, t := range l.transforms {
		if t.Kind == TransformFilter && t.Param != nil {
			refs = append(refs, t.Param)
		}
	}
	for _, name := range l.Channels() {
		if c := l.encoding[name].Condition; c != nil {
			refs = append(refs, c.params()...)
		}
	}
	return refs
}

// withFilter returns a copy of l with a selection filter appended. Every
// field p projects onto must exist in the layer's dataset.
func (l *Layer) withFilter(p *Param) (*Layer, error) {
	if p == nil {
		return nil, domain.ConfigErrorf("layer %q: filter without parameter", l.name)
	}
	cp := *l
	cp.transforms = append(slices.Clone(l.transforms), FilterBy(p))
	if err := cp.checkFields(); err != nil {
		return nil, err
	}
	params, err := unionParams(l.params, []*Param{p})
	if err != nil {
		return nil, err
	}
	cp.params = params
	return &cp, nil
}

// Visible returns the records the layer draws under state, after its
// transforms.
func (l *Layer) Visible(state State) []domain.Record {
	var out []domain.Record
	for _, rec := range l.data.Records() {
		if keep := l.apply(rec, state); keep {
			out = append(out, rec)
		}
	}
	return out
}

func (l *Layer) apply(rec domain.Record, state State) bool {
	for _, t := range l.transforms {
		switch t.Kind {
		case TransformFilter:
			if empty, selected := state.test(t.Param, rec); !empty && !selected {
				return false
			}
		case TransformRadians:
			if deg, ok := toFloat(rec[t.Field]); ok {
				rec[t.As] = deg * math.Pi / 180
			}
		}
	}
	return true
}

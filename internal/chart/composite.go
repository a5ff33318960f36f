package chart

import (
	"maps"
	"slices"

	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
)

// Chart is a node of the visualization graph: a *Layer, *Overlay or *Concat.
type Chart interface {
	Name() string
	// Params returns every parameter declared in the subtree, each once.
	Params() []*Param
	// Units returns the unit layers in draw and layout order.
	Units() []*Layer

	isChart()
}

// ResolveMode controls whether composed views share a scale.
type ResolveMode string

const (
	Shared      ResolveMode = "shared"
	Independent ResolveMode = "independent"
)

// Overlay draws layers in one coordinate space. Later layers draw on top.
type Overlay struct {
	name    string
	layers  []*Layer
	params  []*Param
	resolve map[ChannelName]ResolveMode
}

// NewOverlay stacks layers in the given order and unions their parameters.
func NewOverlay(name string, layers ...*Layer) (*Overlay, error) {
	if len(layers) == 0 {
		return nil, domain.ConfigErrorf("overlay %q needs at least one layer", name)
	}
	if err := uniqueNames(name, layers); err != nil {
		return nil, err
	}
	lists := make([][]*Param, len(layers))
	for i, l := range layers {
		if l == nil {
			return nil, domain.ConfigErrorf("overlay %q: layer %d is nil", name, i)
		}
		lists[i] = l.params
	}
	params, err := unionParams(lists...)
	if err != nil {
		return nil, err
	}
	return &Overlay{
		name:    name,
		layers:  slices.Clone(layers),
		params:  params,
		resolve: map[ChannelName]ResolveMode{},
	}, nil
}

func (o *Overlay) Name() string     { return o.name }
func (o *Overlay) Params() []*Param { return slices.Clone(o.params) }
func (o *Overlay) Layers() []*Layer { return slices.Clone(o.layers) }
func (o *Overlay) Units() []*Layer  { return slices.Clone(o.layers) }
func (o *Overlay) Primary() *Layer  { return o.layers[0] }
func (o *Overlay) isChart()         {}

// Resolve returns the per-channel scale resolution overrides.
func (o *Overlay) Resolve() map[ChannelName]ResolveMode { return maps.Clone(o.resolve) }

// ResolveScale returns a copy of o with ch's scale resolved by mode.
func (o *Overlay) ResolveScale(ch ChannelName, mode ResolveMode) *Overlay {
	cp := *o
	cp.resolve = maps.Clone(o.resolve)
	cp.resolve[ch] = mode
	return &cp
}

// FilterPrimary returns a copy of o whose first layer is filtered by p's
// selection. Reference layers stay unfiltered.
func (o *Overlay) FilterPrimary(p *Param) (*Overlay, error) {
	primary, err := o.layers[0].withFilter(p)
	if err != nil {
		return nil, err
	}
	cp := *o
	cp.layers = slices.Clone(o.layers)
	cp.layers[0] = primary
	cp.resolve = maps.Clone(o.resolve)
	if cp.params, err = unionParams(o.params, []*Param{p}); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Direction is the layout axis of a Concat.
type Direction string

const (
	Wrap       Direction = "concat"
	Horizontal Direction = "hconcat"
	Vertical   Direction = "vconcat"
)

// Concat places independent charts side by side. Siblings share nothing but
// parameters and filters.
type Concat struct {
	name      string
	direction Direction
	columns   int
	children  []Chart
	params    []*Param
	resolve   map[ChannelName]ResolveMode
}

// NewConcat lays children out in the given order.
func NewConcat(name string, dir Direction, children ...Chart) (*Concat, error) {
	if len(children) == 0 {
		return nil, domain.ConfigErrorf("concat %q needs at least one chart", name)
	}
	switch dir {
	case Wrap, Horizontal, Vertical:
	default:
		return nil, domain.ConfigErrorf("concat %q: unknown direction %q", name, dir)
	}
	var units []*Layer
	lists := make([][]*Param, len(children))
	for i, c := range children {
		if c == nil {
			return nil, domain.ConfigErrorf("concat %q: chart %d is nil", name, i)
		}
		lists[i] = c.Params()
		units = append(units, c.Units()...)
	}
	if err := uniqueNames(name, units); err != nil {
		return nil, err
	}
	params, err := unionParams(lists...)
	if err != nil {
		return nil, err
	}
	return &Concat{
		name:      name,
		direction: dir,
		children:  slices.Clone(children),
		params:    params,
		resolve:   map[ChannelName]ResolveMode{},
	}, nil
}

func (c *Concat) Name() string         { return c.name }
func (c *Concat) Direction() Direction { return c.direction }
func (c *Concat) Columns() int         { return c.columns }
func (c *Concat) Children() []Chart    { return slices.Clone(c.children) }
func (c *Concat) Params() []*Param     { return slices.Clone(c.params) }
func (c *Concat) isChart()             {}

// Resolve returns the per-channel scale resolution overrides.
func (c *Concat) Resolve() map[ChannelName]ResolveMode { return maps.Clone(c.resolve) }

func (c *Concat) Units() []*Layer {
	var out []*Layer
	for _, ch := range c.children {
		out = append(out, ch.Units()...)
	}
	return out
}

// WithColumns returns a copy of c that wraps after n charts. Only meaningful
// for the Wrap direction.
func (c *Concat) WithColumns(n int) *Concat {
	cp := *c
	cp.columns = n
	return &cp
}

// ResolveScale returns a copy of c with ch's scale resolved by mode.
func (c *Concat) ResolveScale(ch ChannelName, mode ResolveMode) *Concat {
	cp := *c
	cp.resolve = maps.Clone(c.resolve)
	cp.resolve[ch] = mode
	return &cp
}

// WithFilters returns a copy of c in which every unit layer is filtered by
// each of params, and the params are declared on c.
func (c *Concat) WithFilters(params ...*Param) (*Concat, error) {
	children := make([]Chart, len(c.children))
	for i, ch := range c.children {
		filtered, err := filterAll(ch, params)
		if err != nil {
			return nil, err
		}
		children[i] = filtered
	}
	cp := *c
	cp.children = children
	cp.resolve = maps.Clone(c.resolve)
	var err error
	if cp.params, err = unionParams(c.params, params); err != nil {
		return nil, err
	}
	return &cp, nil
}

func filterAll(c Chart, params []*Param) (Chart, error) {
	switch v := c.(type) {
	case *Layer:
		out := v
		for _, p := range params {
			var err error
			if out, err = out.withFilter(p); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *Overlay:
		layers := make([]*Layer, len(v.layers))
		for i, l := range v.layers {
			f, err := filterAll(l, params)
			if err != nil {
				return nil, err
			}
			layers[i] = f.(*Layer)
		}
		o, err := NewOverlay(v.name, layers...)
		if err != nil {
			return nil, err
		}
		o.resolve = maps.Clone(v.resolve)
		return o, nil
	case *Concat:
		return v.WithFilters(params...)
	default:
		return nil, domain.ConfigErrorf("unsupported chart %T", c)
	}
}

func uniqueNames(owner string, layers []*Layer) error {
	seen := map[string]bool{}
	for _, l := range layers {
		if l == nil {
			continue
		}
		if seen[l.name] {
			return domain.ConfigErrorf("%q: duplicate view name %q", owner, l.name)
		}
		seen[l.name] = true
	}
	return nil
}

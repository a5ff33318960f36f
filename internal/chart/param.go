package chart

import (
	"reflect"
	"slices"

	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
)

// ParamKind distinguishes plain variables from interactive selections.
type ParamKind int

const (
	// KindVariable is a named constant the renderer can read in expressions.
	KindVariable ParamKind = iota
	// KindPoint is a point selection updated by pointer events.
	KindPoint
)

// Param is a named interactive state cell. Layers hold it by pointer, and a
// parameter name denotes exactly one cell in an emitted document.
type Param struct {
	name   string
	kind   ParamKind
	value  any
	on     string
	clear  string
	fields []string
}

// SelectionOption configures a point selection.
type SelectionOption func(*Param)

// OnEvent sets the event stream that updates the selection.
func OnEvent(event string) SelectionOption {
	return func(p *Param) { p.on = event }
}

// ClearOn sets the event stream that empties the selection.
func ClearOn(event string) SelectionOption {
	return func(p *Param) { p.clear = event }
}

// ProjectFields projects the selection onto the given data fields.
func ProjectFields(fields ...string) SelectionOption {
	return func(p *Param) { p.fields = slices.Clone(fields) }
}

// NewVariable declares a variable parameter with a default value.
func NewVariable(name string, value any) *Param {
	return &Param{name: name, kind: KindVariable, value: value}
}

// NewPointSelection declares a point selection. Without options it updates
// on click, like the renderer's default.
func NewPointSelection(name string, opts ...SelectionOption) *Param {
	p := &Param{name: name, kind: KindPoint}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Param) Name() string     { return p.name }
func (p *Param) Kind() ParamKind  { return p.kind }
func (p *Param) Value() any       { return p.value }
func (p *Param) On() string       { return p.on }
func (p *Param) Clear() string    { return p.clear }
func (p *Param) Fields() []string { return slices.Clone(p.fields) }

// IsSelection reports whether the parameter is driven by user interaction.
func (p *Param) IsSelection() bool { return p.kind != KindVariable }

func (p *Param) sameDefinition(q *Param) bool {
	return p.name == q.name &&
		p.kind == q.kind &&
		p.on == q.on &&
		p.clear == q.clear &&
		slices.Equal(p.fields, q.fields) &&
		reflect.DeepEqual(p.value, q.value)
}

// unionParams merges parameter lists in first-seen order. Two distinct
// pointers with one name are accepted only when their definitions agree.
func unionParams(lists ...[]*Param) ([]*Param, error) {
	var out []*Param
	byName := map[string]*Param{}
	for _, list := range lists {
		for _, p := range list {
			if p == nil {
				return nil, domain.ConfigErrorf("nil parameter")
			}
			if p.name == "" {
				return nil, domain.ConfigErrorf("parameter name is required")
			}
			seen, ok := byName[p.name]
			if !ok {
				byName[p.name] = p
				out = append(out, p)
				continue
			}
			if seen != p && !seen.sameDefinition(p) {
				return nil, domain.ConfigErrorf("parameter %q declared with conflicting definitions", p.name)
			}
		}
	}
	return out, nil
}

// Selection is the runtime value of a point selection: the projected field
// values of the selected tuple. A nil or empty Selection is an empty
// selection.
type Selection map[string]any

// State is a snapshot of selection values keyed by parameter name, used to
// evaluate conditions and filters the way the renderer would.
type State map[string]Selection

// test reports whether p's selection is empty and, if not, whether datum
// falls inside it.
func (s State) test(p *Param, datum domain.Record) (empty, selected bool) {
	sel := s[p.name]
	if len(sel) == 0 {
		return true, false
	}
	fields := p.fields
	if len(fields) == 0 {
		fields = make([]string, 0, len(sel))
		for f := range sel {
			fields = append(fields, f)
		}
	}
	for _, f := range fields {
		if !sameValue(datum[f], sel[f]) {
			return false, false
		}
	}
	return false, true
}

func sameValue(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

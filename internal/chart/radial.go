package chart

import "github.com/couchcryptid/storm-data-dashboard/internal/domain"

// Angle places records around the circle.
type Angle struct {
	channel   Channel
	transform *Transform
}

// AngleField spreads the categories of a nominal field around the circle,
// ordered by sortField when it is non-empty.
func AngleField(field, sortField string) *Angle {
	return &Angle{channel: Channel{Field: field, Type: domain.Nominal, SortField: sortField}}
}

// AngleDegrees converts a field in compass degrees to radians and places
// records at that exact angle, bypassing the angular scale.
func AngleDegrees(field string) *Angle {
	t := DegreesToRadians(field, string(Theta))
	return &Angle{
		channel:   Channel{Field: string(Theta), Type: domain.Quantitative, NoScale: true},
		transform: &t,
	}
}

// Radial is the distance of a record from the centre.
type Radial struct {
	channel Channel
	set     bool
}

// RadiusField maps a quantitative field to the radius. Values are not
// stacked, so concentric records overlap instead of accumulating.
func RadiusField(field string) Radial {
	return Radial{channel: Channel{Field: field, Type: domain.Quantitative, NoStack: true}, set: true}
}

// RadiusDatum places every record at a constant data-space radius.
func RadiusDatum(v any) Radial {
	return Radial{channel: Channel{Datum: v}, set: true}
}

// RadialSpec is the input to NewRadialLayer.
type RadialSpec struct {
	Name string
	Mark Mark
	Data *domain.Dataset

	// Angle may be nil for full-circle marks such as gridlines.
	Angle  *Angle
	Radius Radial
	// Text is a nominal label field, for text marks.
	Text string
	Fill *Channel

	Stroke      *Condition
	StrokeWidth *Condition

	// Tooltip fields are shown in order.
	Tooltip    []string
	Transforms []Transform
	Params     []*Param
}

// NewRadialLayer builds an arc or text layer in polar coordinates.
func NewRadialLayer(spec RadialSpec) (*Layer, error) {
	switch spec.Mark.Type {
	case MarkArc, MarkText:
	default:
		return nil, domain.ConfigErrorf("radial layer %q: unsupported mark %q", spec.Name, spec.Mark.Type)
	}
	if spec.Data == nil {
		return nil, domain.ConfigErrorf("radial layer %q has no dataset", spec.Name)
	}
	if !spec.Radius.set {
		return nil, domain.ConfigErrorf("radial layer %q has no radius", spec.Name)
	}

	enc := map[ChannelName]Channel{Radius: spec.Radius.channel}
	var transforms []Transform
	if spec.Angle != nil {
		if spec.Angle.transform != nil {
			transforms = append(transforms, *spec.Angle.transform)
		}
		enc[Theta] = spec.Angle.channel
	}
	transforms = append(transforms, spec.Transforms...)

	if spec.Text != "" {
		enc[Text] = Channel{Field: spec.Text, Type: domain.Nominal}
	}
	if spec.Fill != nil {
		enc[Fill] = *spec.Fill
	}
	if spec.Stroke != nil {
		c := *spec.Stroke
		enc[Stroke] = Channel{Condition: &c}
	}
	if spec.StrokeWidth != nil {
		c := *spec.StrokeWidth
		enc[StrokeWidth] = Channel{Condition: &c}
	}

	var tooltip []Channel
	for _, f := range spec.Tooltip {
		tooltip = append(tooltip, Channel{Field: f, Type: spec.Data.FieldType(f)})
	}

	return NewLayer(LayerSpec{
		Name:       spec.Name,
		Mark:       spec.Mark,
		Data:       spec.Data,
		Encoding:   enc,
		Tooltip:    tooltip,
		Transforms: transforms,
		Params:     spec.Params,
	})
}

package chart

import "github.com/couchcryptid/storm-data-dashboard/internal/domain"

// HistogramSpec is the input to NewHistogramLayer.
type HistogramSpec struct {
	Name      string
	Title     string
	Data      *domain.Dataset
	Statistic domain.Statistic
	Width     int
	Height    int
	// Step is the bin width on the x axis. Zero means 1.
	Step float64
	// Highlight drives the hover stroke. Nil creates a per-layer selection
	// named "highlight_<name>".
	Highlight *Param
	Mark      map[string]any
}

// NewHistogramLayer builds a bar layer over pre-binned records. Each bar
// spans [bin start, bin end] on x with the bin count on y, and its fill
// encodes the count on a log scale.
func NewHistogramLayer(spec HistogramSpec) (*Layer, error) {
	if spec.Data == nil {
		return nil, domain.ConfigErrorf("histogram %q has no dataset", spec.Name)
	}
	stat := spec.Statistic
	if err := stat.Domain.Validate(); err != nil {
		return nil, err
	}
	for _, col := range stat.Columns() {
		if !spec.Data.HasColumn(col) {
			return nil, domain.ConfigErrorf("histogram %q: column %q not in dataset %q", spec.Name, col, spec.Data.Name())
		}
	}

	step := spec.Step
	if step == 0 {
		step = 1
	}
	highlight := spec.Highlight
	if highlight == nil {
		highlight = NewPointSelection("highlight_"+spec.Name, OnEvent("mouseover"), ClearOn("mouseout"))
	}
	strokeWidth, err := NewCondition([]Branch{When(highlight, 2)}, 0)
	if err != nil {
		return nil, err
	}

	return NewLayer(LayerSpec{
		Name:   spec.Name,
		Title:  spec.Title,
		Width:  spec.Width,
		Height: spec.Height,
		Mark:   Mark{Type: MarkBar, Props: spec.Mark},
		Data:   spec.Data,
		Encoding: map[ChannelName]Channel{
			X: {
				Field:   stat.BinStart(),
				Type:    domain.Quantitative,
				Bin:     &Bin{Binned: true, Step: step},
				Scale:   &Scale{Domain: stat.Domain.Slice()},
				NoTitle: true,
			},
			X2: {Field: stat.BinEnd()},
			Y:  {Field: stat.Count(), Type: domain.Quantitative, NoTitle: true},
			Fill: {
				Field:    stat.Count(),
				Type:     domain.Quantitative,
				Scale:    &Scale{Type: "log"},
				NoLegend: true,
			},
			StrokeWidth: {Condition: &strokeWidth},
		},
		Params: []*Param{highlight},
	})
}

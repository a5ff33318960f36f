// Package dashboard assembles the storm wind-rose and histogram views from
// the chart primitives and wires their shared selections.
package dashboard

import (
	"fmt"

	"github.com/couchcryptid/storm-data-dashboard/internal/chart"
	"github.com/couchcryptid/storm-data-dashboard/internal/domain"
)

// Params are the interactive parameters shared across the dashboard views.
type Params struct {
	// Hover highlights a wind-rose sector under the pointer.
	Hover *chart.Param
	// WindDir is set by clicking a wind-rose sector and cross-filters the
	// histograms.
	WindDir *chart.Param
	// Location is set by clicking a gauge on the map and filters every view.
	Location *chart.Param
	Width    *chart.Param
	Height   *chart.Param
}

// DefaultParams returns a fresh set of dashboard parameters.
func DefaultParams() Params {
	return Params{
		Hover:    chart.NewPointSelection("hover", chart.OnEvent("mouseover"), chart.ClearOn("mouseout"), chart.ProjectFields("wind_dir")),
		WindDir:  chart.NewPointSelection("wind_dir", chart.OnEvent("click"), chart.ProjectFields("wind_dir")),
		Location: chart.NewPointSelection("location", chart.OnEvent("click"), chart.ProjectFields("location")),
		Width:    chart.NewVariable("width", 300),
		Height:   chart.NewVariable("height", 300),
	}
}

func (p Params) validate() error {
	fields := []struct {
		name string
		p    *chart.Param
	}{
		{"Hover", p.Hover}, {"WindDir", p.WindDir}, {"Location", p.Location}, {"Width", p.Width}, {"Height", p.Height},
	}
	for _, f := range fields {
		if f.p == nil {
			return domain.ConfigErrorf("dashboard parameter %s is not set", f.name)
		}
	}
	return nil
}

// View names as they appear in the emitted document.
const (
	RoseData       = "rose_data"
	RoseRing       = "rose_ring"
	RoseLabels     = "rose_labels"
	RoseGridlines  = "rose_gridlines"
	RoseGridlabels = "rose_gridlabels"
	MapLocations   = "map_locations"
)

var polar = map[string]any{"radiusOffset": 15, "innerRadius": 7.5}

func polarMark(t chart.MarkType, props map[string]any) chart.Mark {
	m := chart.Mark{Type: t, Props: map[string]any{}}
	for k, v := range polar {
		m.Props[k] = v
	}
	for k, v := range props {
		m.Props[k] = v
	}
	return m
}

// WindRose overlays the storm sectors with the compass ring, compass labels,
// count gridlines and gridline labels, in that draw order. The sector layer
// is filtered by the location selection; every layer keeps its own angular
// scale.
func WindRose(storms *domain.Dataset, ref domain.ReferenceData, p Params) (*chart.Overlay, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	strokeWidth, err := chart.NewCondition([]chart.Branch{chart.When(p.Hover, 2), chart.When(p.WindDir, 3)}, 0)
	if err != nil {
		return nil, err
	}
	stroke, err := chart.NewCondition([]chart.Branch{chart.When(p.Hover, "red"), chart.When(p.WindDir, "cyan")}, nil)
	if err != nil {
		return nil, err
	}

	data, err := chart.NewRadialLayer(chart.RadialSpec{
		Name:   RoseData,
		Mark:   polarMark(chart.MarkArc, map[string]any{"padAngle": 0.01, "cornerRadius": 4}),
		Data:   storms,
		Angle:  chart.AngleField("wind_dir", "sector"),
		Radius: chart.RadiusField("count"),
		Fill: &chart.Channel{
			Field:  "mean_windspeed",
			Type:   domain.Quantitative,
			Legend: &chart.Legend{Title: "wind speed (m/s)", Offset: 40},
			Scale:  &chart.Scale{Domain: []float64{21, 26}},
		},
		Stroke:      &stroke,
		StrokeWidth: &strokeWidth,
		Tooltip:     []string{"mean_windspeed", "count", "wind_dir", "location"},
		Params:      []*chart.Param{p.Hover, p.WindDir, p.Width, p.Height},
	})
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", RoseData, err)
	}

	ring, err := chart.NewRadialLayer(chart.RadialSpec{
		Name:   RoseRing,
		Mark:   polarMark(chart.MarkArc, map[string]any{"filled": false, "stroke": "lightslategray", "strokeWidth": 1}),
		Data:   ref.WindDirections,
		Angle:  chart.AngleField("winddirection", ""),
		Radius: chart.RadiusDatum(10000),
	})
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", RoseRing, err)
	}

	labels, err := chart.NewRadialLayer(chart.RadialSpec{
		Name:   RoseLabels,
		Mark:   polarMark(chart.MarkText, nil),
		Data:   ref.WindDirections,
		Angle:  chart.AngleDegrees("winddirection"),
		Radius: chart.RadiusDatum(11000),
		Text:   "label",
	})
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", RoseLabels, err)
	}

	gridlines, err := chart.NewRadialLayer(chart.RadialSpec{
		Name:   RoseGridlines,
		Mark:   polarMark(chart.MarkArc, map[string]any{"filled": false, "stroke": "gray", "strokeWidth": 0.3}),
		Data:   ref.Gridlines,
		Radius: chart.RadiusField("value"),
	})
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", RoseGridlines, err)
	}

	gridlabels, err := chart.NewRadialLayer(chart.RadialSpec{
		Name:   RoseGridlabels,
		Mark:   polarMark(chart.MarkText, map[string]any{"theta": chart.Expr("3*PI/4"), "align": "left"}),
		Data:   ref.Gridlines,
		Radius: chart.RadiusField("value"),
		Text:   "label",
	})
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", RoseGridlabels, err)
	}

	rose, err := chart.NewOverlay("windrose", data, ring, labels, gridlines, gridlabels)
	if err != nil {
		return nil, err
	}
	rose, err = rose.FilterPrimary(p.Location)
	if err != nil {
		return nil, err
	}
	return rose.ResolveScale(chart.Theta, chart.Independent), nil
}

// HistogramName is the view name of the panel for stat.
func HistogramName(stat domain.Statistic) string { return "hist_" + stat.Name }

// Histograms builds one panel per statistic, in slice order, each filtered
// by the wind-direction and location selections.
func Histograms(bins *domain.Dataset, stats []domain.Statistic, windDir, location *chart.Param) (*chart.Concat, error) {
	if len(stats) == 0 {
		return nil, domain.ConfigErrorf("no histogram statistics")
	}
	if windDir == nil || location == nil {
		return nil, domain.ConfigErrorf("histogram cross-filters are not set")
	}

	panels := make([]chart.Chart, 0, len(stats))
	for _, stat := range stats {
		l, err := chart.NewHistogramLayer(chart.HistogramSpec{
			Name:      HistogramName(stat),
			Title:     stat.Title,
			Data:      bins,
			Statistic: stat,
			Width:     150,
			Height:    150,
			Step:      1,
			Mark:      map[string]any{"tooltip": true, "binSpacing": 0.05, "stroke": "red"},
		})
		if err != nil {
			return nil, fmt.Errorf("build histogram %s: %w", stat.Name, err)
		}
		panels = append(panels, l)
	}

	c, err := chart.NewConcat("histograms", chart.Wrap, panels...)
	if err != nil {
		return nil, err
	}
	return c.WithFilters(windDir, location)
}

// LocationMap draws the gauges on a mercator map fitted to their extent.
// Clicking a gauge sets the location selection.
func LocationMap(ref domain.ReferenceData, p Params) (*chart.Layer, error) {
	if p.Location == nil {
		return nil, domain.ConfigErrorf("location parameter is not set")
	}
	color, err := chart.NewCondition([]chart.Branch{chart.When(p.Location, "red")}, "steelblue")
	if err != nil {
		return nil, err
	}
	return chart.NewLayer(chart.LayerSpec{
		Name:   MapLocations,
		Title:  "tide gauges",
		Width:  300,
		Height: 300,
		Mark:   chart.Mark{Type: chart.MarkCircle, Props: map[string]any{"size": 120}},
		Data:   ref.Locations,
		Encoding: map[chart.ChannelName]chart.Channel{
			chart.Longitude: {Field: "lon", Type: domain.Quantitative},
			chart.Latitude:  {Field: "lat", Type: domain.Quantitative},
			chart.Color:     {Condition: &color},
		},
		Tooltip:    []chart.Channel{{Field: "location", Type: domain.Nominal}},
		Params:     []*chart.Param{p.Location},
		Projection: &chart.Projection{Type: "mercator", Fit: []domain.Polygon{ref.Extent(0.5)}},
	})
}

// Inputs are the datasets and settings a dashboard is built from.
type Inputs struct {
	Storms     *domain.Dataset
	Bins       *domain.Dataset
	Reference  domain.ReferenceData
	Statistics []domain.Statistic
	Params     Params
}

// Dashboard is the assembled document and its named sub-views.
type Dashboard struct {
	Root       *chart.Concat
	Map        *chart.Layer
	WindRose   *chart.Overlay
	Histograms *chart.Concat
}

// View returns the chart published under name.
func (d *Dashboard) View(name string) (chart.Chart, bool) {
	switch name {
	case "dashboard":
		return d.Root, true
	case "windrose":
		return d.WindRose, true
	case "histograms":
		return d.Histograms, true
	case "map":
		return d.Map, true
	}
	return nil, false
}

// ViewNames lists the names accepted by View, in publishing order.
func ViewNames() []string { return []string{"dashboard", "windrose", "histograms", "map"} }

// Build assembles the full dashboard: the map and wind rose side by side
// above the histogram panels. Zero-valued Statistics and Params fall back to
// the defaults.
func Build(in Inputs) (*Dashboard, error) {
	stats := in.Statistics
	if len(stats) == 0 {
		stats = domain.DefaultStatistics()
	}
	params := in.Params
	if params == (Params{}) {
		params = DefaultParams()
	}

	m, err := LocationMap(in.Reference, params)
	if err != nil {
		return nil, fmt.Errorf("build map: %w", err)
	}
	rose, err := WindRose(in.Storms, in.Reference, params)
	if err != nil {
		return nil, fmt.Errorf("build wind rose: %w", err)
	}
	hists, err := Histograms(in.Bins, stats, params.WindDir, params.Location)
	if err != nil {
		return nil, fmt.Errorf("build histograms: %w", err)
	}

	top, err := chart.NewConcat("overview", chart.Horizontal, m, rose)
	if err != nil {
		return nil, err
	}
	root, err := chart.NewConcat("dashboard", chart.Vertical, top, hists)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Root: root, Map: m, WindRose: rose, Histograms: hists}, nil
}

package domain

import (
	"slices"

	"github.com/aclements/go-gg/table"
)

// Reference dataset names as they appear in emitted specs.
const (
	LocationsDataset      = "ref_locations"
	WindDirectionsDataset = "ref_winddirs"
	GridlinesDataset      = "ref_circles"
)

// Location is a tide gauge the storm statistics were aggregated for.
type Location struct {
	Name  string
	Point Point
}

// ReferenceData holds the fixed datasets the dashboard layers are drawn
// against. Build it once with NewReferenceData and pass it to builders.
type ReferenceData struct {
	points         []Location
	Locations      *Dataset // location, lon, lat
	WindDirections *Dataset // winddirection (degrees), label
	Gridlines      *Dataset // value (storm count radius), label
}

// NewReferenceData builds the reference datasets from literals.
func NewReferenceData() ReferenceData {
	points := []Location{
		{Name: "delfzijl", Point: Point{Lon: 6.93, Lat: 53.34}},
		{Name: "harlingen", Point: Point{Lon: 5.40, Lat: 53.18}},
		{Name: "hoekvanholland", Point: Point{Lon: 4.06, Lat: 52.00}},
		{Name: "vlissingen", Point: Point{Lon: 3.55, Lat: 51.44}},
	}

	names := make([]string, len(points))
	lons := make([]float64, len(points))
	lats := make([]float64, len(points))
	for i, p := range points {
		names[i] = p.Name
		lons[i] = p.Point.Lon
		lats[i] = p.Point.Lat
	}

	return ReferenceData{
		points: points,
		Locations: MustDataset(LocationsDataset, new(table.Builder).
			Add("location", names).
			Add("lon", lons).
			Add("lat", lats).
			Done()),
		WindDirections: MustDataset(WindDirectionsDataset, new(table.Builder).
			Add("winddirection", []float64{0, 90, 180, 270}).
			Add("label", []string{"NORTH", "E", "SOUTH", "W"}).
			Done()),
		Gridlines: MustDataset(GridlinesDataset, new(table.Builder).
			Add("value", []float64{1000, 2500, 5000, 7500, 10000}).
			Add("label", []string{"1K", "2.5", "5K", "7.5K", "no. storms"}).
			Done()),
	}
}

// Gauges returns a copy of the gauge locations in reference order.
func (r ReferenceData) Gauges() []Location { return slices.Clone(r.points) }

// Extent returns the bounding polygon of the gauge locations with a margin
// of pad degrees.
func (r ReferenceData) Extent(pad float64) Polygon {
	pts := make([]Point, len(r.points))
	for i, l := range r.points {
		pts[i] = l.Point
	}
	return BoundingExtent(pts, pad)
}

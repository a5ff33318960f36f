package domain

// Point is a WGS-84 longitude/latitude pair.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Polygon is a GeoJSON polygon geometry.
type Polygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// Extent returns the bounding box as a closed polygon ring wound by the
// left-hand rule (clockwise), which is what d3-geo expects for a bounded area.
func Extent(minx, miny, maxx, maxy float64) Polygon {
	return Polygon{
		Type: "Polygon",
		Coordinates: [][][2]float64{{
			{maxx, maxy},
			{maxx, miny},
			{minx, miny},
			{minx, maxy},
			{maxx, maxy},
		}},
	}
}

// BoundingExtent returns the extent of pts grown by pad degrees on every side.
func BoundingExtent(pts []Point, pad float64) Polygon {
	if len(pts) == 0 {
		return Extent(-pad, -pad, pad, pad)
	}
	minx, maxx := pts[0].Lon, pts[0].Lon
	miny, maxy := pts[0].Lat, pts[0].Lat
	for _, p := range pts[1:] {
		minx, maxx = min(minx, p.Lon), max(maxx, p.Lon)
		miny, maxy = min(miny, p.Lat), max(maxy, p.Lat)
	}
	return Extent(minx-pad, miny-pad, maxx+pad, maxy+pad)
}
